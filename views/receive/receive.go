// Package receive shows the current account as text and QR code.
package receive

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/mdp/qrterminal/v3"

	"gm-tui/app"
)

type Receive struct {
	qr      string
	copied  bool
	errText string
}

func New(ss *app.SharedState) *Receive {
	r := &Receive{}
	r.render(ss)
	return r
}

func (r *Receive) Title() string { return "Receive" }

func (r *Receive) render(ss *app.SharedState) {
	var buf strings.Builder
	qrterminal.GenerateWithConfig(ss.Account.Hex(), qrterminal.Config{
		Level:      qrterminal.L,
		Writer:     &buf,
		HalfBlocks: true,
		QuietZone:  1,
	})
	r.qr = buf.String()
}

func (r *Receive) Update(msg tea.Msg, ss *app.SharedState) (app.Actions, tea.Cmd) {
	var actions app.Actions
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return actions, nil
	}
	switch key.String() {
	case "c", "enter":
		if err := clipboard.WriteAll(ss.Account.Hex()); err != nil {
			r.errText = err.Error()
		} else {
			r.copied = true
			r.errText = ""
		}
	}
	return actions, nil
}

func (r *Receive) View(ss *app.SharedState, width, height int) string {
	th := ss.Theme

	var b strings.Builder
	b.WriteString(th.TitleStyle().Render("Receive"))
	b.WriteString("\n\n")
	b.WriteString(r.qr)
	b.WriteString("\n")
	b.WriteString(th.TextStyle().Render(ss.Account.Hex()))
	b.WriteString("\n\n")
	switch {
	case r.errText != "":
		b.WriteString(th.ErrorStyle().Render(r.errText))
	case r.copied:
		b.WriteString(th.AccentStyle().Render("Address copied."))
	default:
		b.WriteString(th.MutedStyle().Render(th.Key("c") + " copy address"))
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, b.String())
}

func (r *Receive) Reload(ss *app.SharedState) { r.render(ss) }

func (r *Receive) Shutdown() {}
