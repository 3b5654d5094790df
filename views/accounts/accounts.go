// Package accounts lists keystore accounts and switches the current one.
package accounts

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/atotto/clipboard"
	"github.com/ethereum/go-ethereum/common"

	"gm-tui/app"
	"gm-tui/config"
	"gm-tui/helpers"
	"gm-tui/keystore"
	"gm-tui/views/setup"
)

type Accounts struct {
	list    []common.Address
	cursor  int
	copied  bool
	errText string
}

func New(ss *app.SharedState) *Accounts {
	a := &Accounts{}
	a.refresh()
	return a
}

func (a *Accounts) Title() string { return "Accounts" }

func (a *Accounts) refresh() {
	list, err := keystore.List()
	if err != nil {
		a.errText = err.Error()
		return
	}
	a.list = list
	a.errText = ""
	a.cursor = helpers.Clamp(a.cursor, 0, helpers.Max(len(list)-1, 0))
}

func (a *Accounts) Update(msg tea.Msg, ss *app.SharedState) (app.Actions, tea.Cmd) {
	var actions app.Actions

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return actions, nil
	}
	a.copied = false

	switch key.String() {
	case "up", "k":
		a.cursor--
	case "down", "j":
		a.cursor++
	case "enter":
		if len(a.list) > 0 {
			a.cursor = helpers.Clamp(a.cursor, 0, len(a.list)-1)
			if err := config.SetAccount(a.list[a.cursor]); err != nil {
				a.errText = err.Error()
			} else {
				actions.Reload = true
			}
		}
	case "c":
		if len(a.list) > 0 {
			a.cursor = helpers.Clamp(a.cursor, 0, len(a.list)-1)
			if err := clipboard.WriteAll(a.list[a.cursor].Hex()); err != nil {
				a.errText = err.Error()
			} else {
				a.copied = true
			}
		}
	case "n":
		actions.Pushes = append(actions.Pushes, setup.New(ss))
	}
	a.cursor = helpers.Clamp(a.cursor, 0, helpers.Max(len(a.list)-1, 0))
	return actions, nil
}

func (a *Accounts) View(ss *app.SharedState, width, height int) string {
	th := ss.Theme
	var b strings.Builder
	b.WriteString(th.TitleStyle().Render("Accounts"))
	b.WriteString("\n\n")

	if a.errText != "" {
		b.WriteString(th.ErrorStyle().Render(a.errText))
		b.WriteString("\n\n")
	}

	if len(a.list) == 0 {
		b.WriteString(th.MutedStyle().Render("No accounts yet. Press n to create one."))
	}

	book, _ := config.LoadAddressBook()
	for i, addr := range a.list {
		label := addr.Hex()
		if book != nil {
			if name := book.NameFor(addr); name != "" {
				label = name + "  " + helpers.ShortenAddr(addr.Hex())
			}
		}
		if addr == ss.Account {
			label += "  " + th.AccentStyle().Render("current")
		}
		if i == a.cursor {
			b.WriteString(th.AccentStyle().Render("▶ " + label))
		} else {
			b.WriteString(th.TextStyle().Render("  " + label))
		}
		b.WriteByte('\n')
	}

	if a.copied {
		b.WriteString("\n" + th.AccentStyle().Render("Address copied."))
	}
	b.WriteString("\n" + th.MutedStyle().Render(
		th.Key("Enter")+" switch   "+th.Key("c")+" copy   "+th.Key("n")+" new   "+th.Key("Esc")+" back"))
	return b.String()
}

func (a *Accounts) Reload(ss *app.SharedState) { a.refresh() }

func (a *Accounts) Shutdown() {}
