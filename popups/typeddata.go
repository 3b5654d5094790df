package popups

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"gm-tui/events"
	"gm-tui/keystore"
	"gm-tui/styles"
)

// ParseTypedData decodes an EIP-712 payload that arrives either as a JSON
// object or as a JSON-encoded string holding the object. Some dapps
// double-encode the second parameter of eth_signTypedData_v4.
func ParseTypedData(raw json.RawMessage) (apitypes.TypedData, error) {
	var inner string
	if err := json.Unmarshal(raw, &inner); err == nil {
		raw = json.RawMessage(inner)
	}
	var td apitypes.TypedData
	if err := json.Unmarshal(raw, &td); err != nil {
		return td, fmt.Errorf("typed data: %w", err)
	}
	return td, nil
}

// TypedData asks the user to approve and sign an EIP-712 payload. Same
// flow as Sign, but renders the domain and message fields instead of
// plain text.
type TypedData struct {
	bus *events.Bus
	sup *events.Supervisor

	state   signState
	session uint64

	account   common.Address
	data      apitypes.TypedData
	signature []byte
	errText   string

	focusSign bool
	pass      textinput.Model
	spin      spinner.Model
}

func NewTypedData(bus *events.Bus, sup *events.Supervisor) *TypedData {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return &TypedData{bus: bus, sup: sup, spin: s}
}

func (t *TypedData) IsOpen() bool { return t.state != signClosed }

func (t *TypedData) Open(account common.Address, data apitypes.TypedData) tea.Cmd {
	t.session++
	t.state = signPrompt
	t.account = account
	t.data = data
	t.signature = nil
	t.errText = ""
	t.focusSign = true
	return t.spin.Tick
}

func (t *TypedData) Close() { t.state = signClosed }

func (t *TypedData) Signature() []byte { return t.signature }

func (t *TypedData) HandleKey(msg tea.KeyMsg) (SignEvent, tea.Cmd) {
	switch t.state {
	case signPrompt:
		switch msg.String() {
		case "left", "right", "tab":
			t.focusSign = !t.focusSign
		case "enter":
			if t.focusSign {
				t.state = signUnlock
				t.pass = textinput.New()
				t.pass.Prompt = "passphrase: "
				t.pass.EchoMode = textinput.EchoPassword
				return SignEventNone, t.pass.Focus()
			}
			t.Close()
			return SignEventRejected, nil
		case "esc":
			t.Close()
			return SignEventEscapedBeforeSigning, nil
		}
	case signUnlock:
		switch msg.String() {
		case "esc":
			t.Close()
			return SignEventEscapedBeforeSigning, nil
		case "enter":
			t.errText = ""
			t.state = signInFlight
			t.spawnSign(t.pass.Value())
		default:
			var cmd tea.Cmd
			t.pass, cmd = t.pass.Update(msg)
			return SignEventNone, cmd
		}
	case signInFlight:
		if msg.String() == "esc" {
			t.Close()
			return SignEventEscapedBeforeSigning, nil
		}
	case signDone:
		switch msg.String() {
		case "esc", "enter":
			t.Close()
			return SignEventEscapedAfterSigning, nil
		}
	}
	return SignEventNone, nil
}

func (t *TypedData) HandleMsg(msg tea.Msg) (SignEvent, tea.Cmd) {
	switch m := msg.(type) {
	case spinner.TickMsg:
		if !t.IsOpen() {
			return SignEventNone, nil
		}
		var cmd tea.Cmd
		t.spin, cmd = t.spin.Update(m)
		return SignEventNone, cmd
	case events.SignResult:
		if m.Session != t.session || t.state != signInFlight {
			return SignEventNone, nil
		}
		t.signature = m.Signature
		t.state = signDone
		return SignEventSigned, nil
	case events.SignError:
		if m.Session != t.session || t.state != signInFlight {
			return SignEventNone, nil
		}
		t.errText = m.Err.Error()
		t.state = signUnlock
	}
	return SignEventNone, nil
}

func (t *TypedData) spawnSign(passphrase string) {
	session, bus, account, data := t.session, t.bus, t.account, t.data
	t.sup.Oneshot(func(context.Context) {
		signer, err := keystore.LoadWallet(account, passphrase)
		if err != nil {
			bus.Send(events.SignError{Session: session, Account: account, Err: err})
			return
		}
		sig, err := signer.SignTypedData(data)
		if err != nil {
			bus.Send(events.SignError{Session: session, Account: account, Err: err})
			return
		}
		bus.Send(events.SignResult{Session: session, Account: account, Signature: sig})
	})
}

func (t *TypedData) View(th styles.Theme, width, height int) string {
	if !t.IsOpen() {
		return ""
	}
	var content string
	switch t.state {
	case signPrompt:
		content = t.renderData(th) + "\n\n" + ButtonRow(th, "Cancel", "Sign", t.focusSign)
	case signUnlock:
		content = th.TextStyle().Render("Unlock account to sign") + "\n\n" + t.pass.View()
		if t.errText != "" {
			content += "\n" + th.ErrorStyle().Render(t.errText)
		}
	case signInFlight:
		content = t.spin.View() + " signing"
	case signDone:
		content = th.AccentStyle().Render("Signed") + "\n" +
			th.TextStyle().Render(fmt.Sprintf("0x%x", t.signature))
	}
	return Frame(th, width, height, "Sign typed data", content)
}

// renderData flattens the domain and primary message into labelled rows.
func (t *TypedData) renderData(th styles.Theme) string {
	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(th.MutedStyle().Render(label+": ") + th.TextStyle().Render(value) + "\n")
	}

	d := t.data.Domain
	if d.Name != "" {
		row("domain", d.Name)
	}
	if d.Version != "" {
		row("version", d.Version)
	}
	if d.ChainId != nil {
		row("chain", (*big.Int)(d.ChainId).String())
	}
	if d.VerifyingContract != "" {
		row("contract", d.VerifyingContract)
	}
	row("type", t.data.PrimaryType)

	keys := make([]string, 0, len(t.data.Message))
	for k := range t.data.Message {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		row(k, fmt.Sprint(t.data.Message[k]))
	}
	return strings.TrimRight(b.String(), "\n")
}
