package popups

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"

	"gm-tui/events"
	"gm-tui/keystore"
	"gm-tui/styles"
)

// SignEvent is what a signing popup reports back to its owner.
type SignEvent int

const (
	SignEventNone SignEvent = iota
	SignEventSigned
	SignEventRejected
	SignEventEscapedBeforeSigning
	SignEventEscapedAfterSigning
)

type signState int

const (
	signClosed signState = iota
	signPrompt
	signUnlock
	signInFlight
	signDone
)

// Sign asks the user to approve and sign a personal message. Signing runs
// in a background task; the keystore unlock may take as long as the user
// needs, there is no timeout.
type Sign struct {
	bus *events.Bus
	sup *events.Supervisor

	state   signState
	session uint64

	account   common.Address
	message   []byte
	display   string
	signature []byte
	errText   string

	focusSign bool
	pass      textinput.Model
	spin      spinner.Model
}

func NewSign(bus *events.Bus, sup *events.Supervisor) *Sign {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return &Sign{bus: bus, sup: sup, spin: s}
}

func (s *Sign) IsOpen() bool { return s.state != signClosed }

// Open shows the prompt. display is the human-readable rendering of the
// raw message bytes.
func (s *Sign) Open(account common.Address, message []byte, display string) tea.Cmd {
	s.session++
	s.state = signPrompt
	s.account = account
	s.message = message
	s.display = display
	s.signature = nil
	s.errText = ""
	s.focusSign = true
	return s.spin.Tick
}

func (s *Sign) Close() { s.state = signClosed }

// Signature is valid once SignEventSigned has been reported.
func (s *Sign) Signature() []byte { return s.signature }

func (s *Sign) HandleKey(msg tea.KeyMsg) (SignEvent, tea.Cmd) {
	switch s.state {
	case signPrompt:
		switch msg.String() {
		case "left", "right", "tab":
			s.focusSign = !s.focusSign
		case "enter":
			if s.focusSign {
				s.state = signUnlock
				s.pass = textinput.New()
				s.pass.Prompt = "passphrase: "
				s.pass.EchoMode = textinput.EchoPassword
				return SignEventNone, s.pass.Focus()
			}
			s.Close()
			return SignEventRejected, nil
		case "esc":
			s.Close()
			return SignEventEscapedBeforeSigning, nil
		}
	case signUnlock:
		switch msg.String() {
		case "esc":
			s.Close()
			return SignEventEscapedBeforeSigning, nil
		case "enter":
			s.errText = ""
			s.state = signInFlight
			s.spawnSign(s.pass.Value())
		default:
			var cmd tea.Cmd
			s.pass, cmd = s.pass.Update(msg)
			return SignEventNone, cmd
		}
	case signInFlight:
		if msg.String() == "esc" {
			s.Close()
			return SignEventEscapedBeforeSigning, nil
		}
	case signDone:
		switch msg.String() {
		case "esc", "enter":
			s.Close()
			return SignEventEscapedAfterSigning, nil
		}
	}
	return SignEventNone, nil
}

func (s *Sign) HandleMsg(msg tea.Msg) (SignEvent, tea.Cmd) {
	switch m := msg.(type) {
	case spinner.TickMsg:
		if !s.IsOpen() {
			return SignEventNone, nil
		}
		var cmd tea.Cmd
		s.spin, cmd = s.spin.Update(m)
		return SignEventNone, cmd
	case events.SignResult:
		if m.Session != s.session || s.state != signInFlight {
			return SignEventNone, nil
		}
		s.signature = m.Signature
		s.state = signDone
		return SignEventSigned, nil
	case events.SignError:
		if m.Session != s.session || s.state != signInFlight {
			return SignEventNone, nil
		}
		s.errText = m.Err.Error()
		s.state = signUnlock
	}
	return SignEventNone, nil
}

func (s *Sign) spawnSign(passphrase string) {
	session, bus, account, message := s.session, s.bus, s.account, s.message
	s.sup.Oneshot(func(context.Context) {
		signer, err := keystore.LoadWallet(account, passphrase)
		if err != nil {
			bus.Send(events.SignError{Session: session, Account: account, Err: err})
			return
		}
		sig, err := signer.SignPersonal(message)
		if err != nil {
			bus.Send(events.SignError{Session: session, Account: account, Err: err})
			return
		}
		bus.Send(events.SignResult{Session: session, Account: account, Signature: sig})
	})
}

func (s *Sign) View(th styles.Theme, width, height int) string {
	if !s.IsOpen() {
		return ""
	}
	var content string
	switch s.state {
	case signPrompt:
		content = th.TextStyle().Render(s.display) + "\n\n" +
			ButtonRow(th, "Cancel", "Sign", s.focusSign)
	case signUnlock:
		content = th.TextStyle().Render("Unlock account to sign") + "\n\n" + s.pass.View()
		if s.errText != "" {
			content += "\n" + th.ErrorStyle().Render(s.errText)
		}
	case signInFlight:
		content = s.spin.View() + " signing"
	case signDone:
		content = th.AccentStyle().Render("Signed") + "\n" +
			th.TextStyle().Render(fmt.Sprintf("0x%x", s.signature))
	}
	return Frame(th, width, height, "Sign message", content)
}
