// Package addressbook manages named addresses used by the transfer picker.
package addressbook

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/atotto/clipboard"

	"gm-tui/app"
	"gm-tui/config"
	"gm-tui/forms"
	"gm-tui/helpers"
	"gm-tui/popups"
)

const (
	itemName    = "name"
	itemAddress = "address"
	itemError   = "error"
	itemSave    = "save"
)

type mode int

const (
	modeList mode = iota
	modeAdd
)

type AddressBook struct {
	book   *config.AddressBook
	mode   mode
	cursor int
	form   *forms.Form
	remove popups.Confirm

	copied  bool
	errText string
}

func New(ss *app.SharedState) *AddressBook {
	a := &AddressBook{}
	a.refresh()
	return a
}

func (a *AddressBook) Title() string { return "Address book" }

func (a *AddressBook) refresh() {
	book, err := config.LoadAddressBook()
	if err != nil {
		a.errText = err.Error()
		a.book = &config.AddressBook{}
		return
	}
	a.book = book
	a.errText = ""
	a.cursor = helpers.Clamp(a.cursor, 0, helpers.Max(len(book.Entries)-1, 0))
}

func (a *AddressBook) openAdd() {
	a.form = forms.New(
		forms.NewHeading("New entry"),
		forms.NewInputBox(itemName, "Name", "alice", ""),
		forms.NewInputBox(itemAddress, "Address", "0x…", ""),
		forms.NewErrorText("").WithID(itemError),
		forms.NewButton(itemSave, "Save"),
	)
	a.mode = modeAdd
}

func (a *AddressBook) Update(msg tea.Msg, ss *app.SharedState) (app.Actions, tea.Cmd) {
	var actions app.Actions

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return actions, nil
	}
	a.copied = false

	if a.remove.IsOpen() {
		actions.IgnoreEsc = true
		if a.remove.HandleKey(key) == popups.ConfirmYes {
			a.book.Remove(a.cursor)
			if err := a.book.Save(); err != nil {
				a.errText = err.Error()
			}
			a.refresh()
		}
		return actions, nil
	}

	if a.mode == modeAdd {
		if key.String() == "esc" {
			a.mode = modeList
			actions.IgnoreEsc = true
			return actions, nil
		}
		cmd := a.form.HandleKey(key, func(string) { a.form.SetError(itemError, "") }, func(id string) {
			if id != itemSave {
				return
			}
			if err := a.saveEntry(); err != nil {
				a.form.SetError(itemError, err.Error())
				return
			}
			a.mode = modeList
			a.refresh()
		})
		actions.IgnoreEsc = true
		return actions, cmd
	}

	switch key.String() {
	case "up", "k":
		a.cursor--
	case "down", "j":
		a.cursor++
	case "n":
		a.openAdd()
	case "c":
		if len(a.book.Entries) > 0 {
			a.cursor = helpers.Clamp(a.cursor, 0, len(a.book.Entries)-1)
			if err := clipboard.WriteAll(a.book.Entries[a.cursor].Address); err != nil {
				a.errText = err.Error()
			} else {
				a.copied = true
			}
		}
	case "d":
		if len(a.book.Entries) > 0 {
			a.cursor = helpers.Clamp(a.cursor, 0, len(a.book.Entries)-1)
			entry := a.book.Entries[a.cursor]
			a.remove.Open("Remove entry?", entry.Name+"\n"+entry.Address, "Remove", "Keep")
		}
	}
	a.cursor = helpers.Clamp(a.cursor, 0, helpers.Max(len(a.book.Entries)-1, 0))
	return actions, nil
}

func (a *AddressBook) saveEntry() error {
	name := strings.TrimSpace(a.form.GetText(itemName))
	address := strings.TrimSpace(a.form.GetText(itemAddress))
	if err := a.book.Add(name, address); err != nil {
		return err
	}
	return a.book.Save()
}

func (a *AddressBook) View(ss *app.SharedState, width, height int) string {
	base := a.baseView(ss, width, height)
	if a.remove.IsOpen() {
		return popups.Overlay(base, a.remove.View(ss.Theme, width, height))
	}
	return base
}

func (a *AddressBook) baseView(ss *app.SharedState, width, height int) string {
	th := ss.Theme

	var b strings.Builder
	b.WriteString(th.TitleStyle().Render("Address book"))
	b.WriteString("\n\n")

	if a.mode == modeAdd {
		b.WriteString(a.form.View(width, height-2, th))
		return b.String()
	}

	if a.errText != "" {
		b.WriteString(th.ErrorStyle().Render(a.errText))
		b.WriteString("\n\n")
	}

	if len(a.book.Entries) == 0 {
		b.WriteString(th.MutedStyle().Render("Empty. Press n to add an address."))
	}
	for i, entry := range a.book.Entries {
		label := entry.Name + "  " + th.MutedStyle().Render(helpers.ShortenAddr(entry.Address))
		if i == a.cursor {
			b.WriteString(th.AccentStyle().Render("▶ ") + th.TextStyle().Render(label))
		} else {
			b.WriteString("  " + th.TextStyle().Render(label))
		}
		b.WriteByte('\n')
	}

	if a.copied {
		b.WriteString("\n" + th.AccentStyle().Render("Address copied."))
	}
	b.WriteString("\n" + th.MutedStyle().Render(
		th.Key("n")+" add   "+th.Key("c")+" copy   "+th.Key("d")+" delete   "+th.Key("Esc")+" back"))
	return b.String()
}

func (a *AddressBook) Reload(ss *app.SharedState) { a.refresh() }

func (a *AddressBook) Shutdown() {}
