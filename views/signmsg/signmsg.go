// Package signmsg lets the user sign an arbitrary message with the
// current account. Hex input is decoded before signing.
package signmsg

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"gm-tui/app"
	"gm-tui/forms"
	"gm-tui/helpers"
	"gm-tui/popups"
)

const (
	itemMessage = "message"
	itemResult  = "result"
	itemSign    = "sign"
)

type SignMsg struct {
	form  *forms.Form
	popup *popups.Sign
}

func New(ss *app.SharedState) *SignMsg {
	return &SignMsg{
		form: forms.New(
			forms.NewHeading("Sign Message"),
			forms.NewStaticText("The signature proves the message came from your account."),
			forms.NewInputBox(itemMessage, "Message", "text or 0x-prefixed hex", ""),
			forms.NewDisplayText("").WithID(itemResult),
			forms.NewButton(itemSign, "Sign"),
		),
		popup: popups.NewSign(ss.Bus, ss.Sup),
	}
}

func (s *SignMsg) Title() string { return "Sign Message" }

func (s *SignMsg) Update(msg tea.Msg, ss *app.SharedState) (app.Actions, tea.Cmd) {
	var actions app.Actions

	if event, cmd := s.popup.HandleMsg(msg); event != popups.SignEventNone || cmd != nil {
		if event == popups.SignEventSigned {
			s.form.SetText(itemResult, fmt.Sprintf("signature: 0x%x", s.popup.Signature()))
		}
		return actions, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return actions, nil
	}

	if s.popup.IsOpen() {
		actions.IgnoreEsc = true
		event, cmd := s.popup.HandleKey(key)
		if event == popups.SignEventSigned {
			s.form.SetText(itemResult, fmt.Sprintf("signature: 0x%x", s.popup.Signature()))
		}
		return actions, cmd
	}

	var popupCmd tea.Cmd
	formCmd := s.form.HandleKey(key, nil, func(id string) {
		if id != itemSign {
			return
		}
		text := s.form.GetText(itemMessage)
		if text == "" {
			return
		}
		display := helpers.DecodeHexOrText(text)
		popupCmd = s.popup.Open(ss.Account, []byte(display), display)
		actions.IgnoreEsc = true
	})
	if popupCmd != nil {
		return actions, popupCmd
	}
	return actions, formCmd
}

func (s *SignMsg) View(ss *app.SharedState, width, height int) string {
	th := ss.Theme
	base := s.form.View(width, height-1, th) + "\n" +
		th.MutedStyle().Render(th.Key("Enter")+" sign   "+th.Key("Esc")+" back")
	if s.popup.IsOpen() {
		return popups.Overlay(base, s.popup.View(th, width, height))
	}
	return base
}

func (s *SignMsg) Reload(ss *app.SharedState) {}
func (s *SignMsg) Shutdown()                  { s.popup.Close() }
