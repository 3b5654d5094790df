package popups

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"gm-tui/helpers"
	"gm-tui/styles"
)

// FilterSelect is a modal picker over a list of labelled entries. Typing
// narrows the list; Enter returns the selected entry's identifier.
type FilterSelect struct {
	Title string

	open    bool
	entries []FilterEntry
	filter  textinput.Model
	cursor  int
}

// FilterEntry pairs the display label with the value handed back on pick.
type FilterEntry struct {
	Label string
	Value string
}

func (f *FilterSelect) Open(title string, entries []FilterEntry) {
	f.Title = title
	f.entries = entries
	f.filter = textinput.New()
	f.filter.Prompt = "/ "
	f.filter.Placeholder = "type to filter"
	f.filter.Focus()
	f.cursor = 0
	f.open = true
}

func (f *FilterSelect) IsOpen() bool { return f.open }
func (f *FilterSelect) Close()       { f.open = false }

func (f *FilterSelect) filtered() []FilterEntry {
	needle := strings.ToLower(f.filter.Value())
	if needle == "" {
		return f.entries
	}
	var out []FilterEntry
	for _, e := range f.entries {
		if strings.Contains(strings.ToLower(e.Label), needle) {
			out = append(out, e)
		}
	}
	return out
}

// HandleKey processes one key. The returned pointer is non-nil exactly
// when an entry was picked; the popup closes itself on pick and on Esc.
func (f *FilterSelect) HandleKey(msg tea.KeyMsg) *FilterEntry {
	if !f.open {
		return nil
	}
	switch msg.String() {
	case "esc":
		f.open = false
		return nil
	case "up":
		f.cursor--
	case "down":
		f.cursor++
	case "enter":
		visible := f.filtered()
		if len(visible) == 0 {
			return nil
		}
		f.cursor = helpers.Clamp(f.cursor, 0, len(visible)-1)
		picked := visible[f.cursor]
		f.open = false
		return &picked
	default:
		f.filter, _ = f.filter.Update(msg)
		f.cursor = 0
	}
	f.cursor = helpers.Clamp(f.cursor, 0, helpers.Max(len(f.filtered())-1, 0))
	return nil
}

func (f *FilterSelect) View(th styles.Theme, width, height int) string {
	if !f.open {
		return ""
	}
	visible := f.filtered()
	f.cursor = helpers.Clamp(f.cursor, 0, helpers.Max(len(visible)-1, 0))

	maxRows := helpers.Max(height-10, 3)
	start := helpers.Clamp(f.cursor-maxRows/2, 0, helpers.Max(len(visible)-maxRows, 0))

	var b strings.Builder
	b.WriteString(f.filter.View())
	b.WriteString("\n\n")
	if len(visible) == 0 {
		b.WriteString(th.MutedStyle().Render("no matches"))
	}
	for i := start; i < len(visible) && i < start+maxRows; i++ {
		if i > start {
			b.WriteByte('\n')
		}
		if i == f.cursor {
			b.WriteString(th.AccentStyle().Render("> " + visible[i].Label))
		} else {
			b.WriteString(th.TextStyle().Render("  " + visible[i].Label))
		}
	}
	return Frame(th, width, height, f.Title, b.String())
}
