// Package menu is the root screen. It gates entries on whether an account
// exists and whether developer mode is on.
package menu

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"gm-tui/app"
	"gm-tui/helpers"
)

// Entry is one menu row; Make builds the screen it pushes.
type Entry struct {
	Label        string
	NeedsAccount bool
	Developer    bool
	Make         func() app.Screen
}

type Menu struct {
	entries []Entry
	cursor  int
}

func New(entries []Entry) *Menu {
	return &Menu{entries: entries}
}

func (m *Menu) Title() string { return "gm" }

func (m *Menu) visible(ss *app.SharedState) []Entry {
	var out []Entry
	for _, e := range m.entries {
		if e.NeedsAccount && !ss.HasAccount {
			continue
		}
		if e.Developer && !ss.Developer {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (m *Menu) Update(msg tea.Msg, ss *app.SharedState) (app.Actions, tea.Cmd) {
	var actions app.Actions
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return actions, nil
	}

	visible := m.visible(ss)
	switch key.String() {
	case "up", "k":
		m.cursor--
	case "down", "j":
		m.cursor++
	case "enter":
		if len(visible) == 0 {
			return actions, nil
		}
		m.cursor = helpers.Clamp(m.cursor, 0, len(visible)-1)
		actions.Pushes = append(actions.Pushes, visible[m.cursor].Make())
	}
	m.cursor = helpers.Clamp(m.cursor, 0, helpers.Max(len(visible)-1, 0))
	return actions, nil
}

func (m *Menu) View(ss *app.SharedState, width, height int) string {
	th := ss.Theme
	var b strings.Builder
	b.WriteString(helpers.FadeString("gm", "#7D5AFC", "#FF87D7"))
	b.WriteString("  " + th.MutedStyle().Render("terminal ethereum wallet"))
	b.WriteString("\n\n")

	visible := m.visible(ss)
	m.cursor = helpers.Clamp(m.cursor, 0, helpers.Max(len(visible)-1, 0))
	for i, e := range visible {
		if i == m.cursor {
			b.WriteString(th.AccentStyle().Bold(true).Render("▶ " + e.Label))
		} else {
			b.WriteString(th.TextStyle().Render("  " + e.Label))
		}
		b.WriteByte('\n')
	}

	b.WriteString("\n" + th.MutedStyle().Render(strings.Join([]string{
		th.Key("↑/↓") + " move",
		th.Key("Enter") + " open",
		th.Key("Esc") + " quit",
	}, "   ")))
	return b.String()
}

func (m *Menu) Reload(ss *app.SharedState) {}
func (m *Menu) Shutdown()                  {}
