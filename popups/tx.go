package popups

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"gm-tui/config"
	"gm-tui/events"
	"gm-tui/helpers"
	"gm-tui/keystore"
	"gm-tui/rpc"
	"gm-tui/styles"
)

// TxState is the lifecycle position of the transaction popup.
type TxState int

const (
	TxStateClosed TxState = iota
	TxStatePrompt
	TxStateBuilding
	TxStateSigning
	TxStateSending
	TxStateWaiting
	TxStateDone
	TxStateFailed
	TxStateRpcError
)

// TxCallbacks let an orchestrator relay lifecycle results outward, e.g.
// the WalletConnect router answering the dapp.
type TxCallbacks struct {
	OnSubmit   func(hash common.Hash)
	OnConfirm  func(hash common.Hash)
	OnRpcError func(code int64, message string, data []byte)
	OnCancel   func()
	OnEsc      func()
}

// Tx drives one transaction from prompt to confirmation. Build and meta
// fetches start speculatively on open so confirming feels instant. Each
// open bumps the session counter; updates from an older session are
// ignored, which makes reopening with a new request a full reset.
type Tx struct {
	Callbacks TxCallbacks

	bus *events.Bus
	sup *events.Supervisor

	state   TxState
	session uint64
	cancel  context.CancelFunc

	account    common.Address
	network    config.Network
	alchemyKey string
	request    rpc.TxRequest

	built   *types.Transaction
	meta    *rpc.TxMeta
	hash    common.Hash
	receipt *types.Receipt
	errText string

	focusConfirm bool
	pass         textinput.Model
	spin         spinner.Model
}

func NewTx(bus *events.Bus, sup *events.Supervisor) *Tx {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return &Tx{bus: bus, sup: sup, spin: s}
}

func (t *Tx) IsOpen() bool   { return t.state != TxStateClosed }
func (t *Tx) State() TxState { return t.state }

// Open shows the prompt and starts the speculative build and meta tasks.
// A popup that was already open aborts its old tasks first.
func (t *Tx) Open(account common.Address, network config.Network, alchemyKey string, req rpc.TxRequest) tea.Cmd {
	t.abortTasks()
	t.session++
	t.state = TxStatePrompt
	t.account = account
	t.network = network
	t.alchemyKey = alchemyKey
	t.request = req
	t.built = nil
	t.meta = nil
	t.hash = common.Hash{}
	t.receipt = nil
	t.errText = ""
	t.focusConfirm = true

	ctx, cancel := context.WithCancel(t.sup.Context())
	t.cancel = cancel
	session := t.session
	bus, network2, key, request := t.bus, t.network, t.alchemyKey, t.request
	t.sup.Oneshot(func(context.Context) {
		client, err := rpc.Connect(network2, key)
		if err != nil {
			bus.Send(events.TxUpdate{Session: session, Status: events.TxFailed, Err: err})
			return
		}
		defer client.Close()

		meta := client.FetchTxMeta(ctx, request)
		built, err := client.BuildTx(ctx, request)
		if err != nil {
			if ctx.Err() == nil {
				bus.Send(events.TxUpdate{Session: session, Status: events.TxFailed, Err: err})
			}
			return
		}
		bus.Send(events.TxUpdate{Session: session, Status: events.TxBuilt, Tx: built, Meta: &meta})
	})
	return t.spin.Tick
}

// Close aborts any running tasks and hides the popup without callbacks.
func (t *Tx) Close() {
	t.abortTasks()
	t.state = TxStateClosed
}

func (t *Tx) abortTasks() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

// HandleKey routes a key press to the current state.
func (t *Tx) HandleKey(msg tea.KeyMsg) tea.Cmd {
	switch t.state {
	case TxStatePrompt:
		switch msg.String() {
		case "left", "right", "tab":
			t.focusConfirm = !t.focusConfirm
		case "enter":
			if t.focusConfirm {
				if t.built != nil {
					return t.startSigning()
				}
				t.state = TxStateBuilding
				return nil
			}
			t.closeWith(t.Callbacks.OnCancel)
		case "esc":
			t.closeWith(t.Callbacks.OnCancel)
		}
	case TxStateSigning:
		switch msg.String() {
		case "esc":
			t.closeWith(t.Callbacks.OnEsc)
		case "enter":
			t.errText = ""
			t.spawnSign(t.pass.Value())
		default:
			var cmd tea.Cmd
			t.pass, cmd = t.pass.Update(msg)
			return cmd
		}
	case TxStateBuilding, TxStateSending, TxStateWaiting:
		if msg.String() == "esc" {
			t.closeWith(t.Callbacks.OnEsc)
		}
	case TxStateDone, TxStateFailed, TxStateRpcError:
		switch msg.String() {
		case "esc", "enter":
			t.closeWith(t.Callbacks.OnEsc)
		}
	}
	return nil
}

func (t *Tx) closeWith(cb func()) {
	t.Close()
	if cb != nil {
		cb()
	}
}

// HandleMsg consumes bus messages belonging to this popup's session.
func (t *Tx) HandleMsg(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case spinner.TickMsg:
		if !t.IsOpen() {
			return nil
		}
		var cmd tea.Cmd
		t.spin, cmd = t.spin.Update(m)
		return cmd
	case events.TxUpdate:
		if m.Session != t.session || !t.IsOpen() {
			return nil
		}
		return t.applyUpdate(m)
	}
	return nil
}

func (t *Tx) applyUpdate(m events.TxUpdate) tea.Cmd {
	if m.Err != nil {
		return t.applyError(m.Err)
	}

	switch m.Status {
	case events.TxBuilt:
		t.built = m.Tx
		t.meta = m.Meta
		if t.state == TxStateBuilding {
			return t.startSigning()
		}
	case events.TxSigned:
		t.state = TxStateSending
		t.spawnSend(m.Tx)
	case events.TxSubmitted:
		t.hash = m.Hash
		t.state = TxStateWaiting
		if t.Callbacks.OnSubmit != nil {
			t.Callbacks.OnSubmit(m.Hash)
		}
		t.spawnWait(m.Hash)
	case events.TxConfirmed:
		t.receipt = m.Receipt
		if m.Receipt != nil && m.Receipt.Status == types.ReceiptStatusSuccessful {
			t.state = TxStateDone
			if t.Callbacks.OnConfirm != nil {
				t.Callbacks.OnConfirm(t.hash)
			}
		} else {
			t.state = TxStateFailed
		}
	}
	return nil
}

func (t *Tx) applyError(err error) tea.Cmd {
	var rpcErr *rpc.JsonRpcError
	if errors.As(err, &rpcErr) {
		t.errText = rpcErr.Error()
		t.state = TxStateRpcError
		if t.Callbacks.OnRpcError != nil {
			t.Callbacks.OnRpcError(rpcErr.Code, rpcErr.Message, rpcErr.Data)
		}
		return nil
	}
	if t.state == TxStateSigning {
		// wrong passphrase or keystore trouble, let the user retry
		t.errText = err.Error()
		return nil
	}
	t.errText = err.Error()
	t.state = TxStateRpcError
	return nil
}

func (t *Tx) startSigning() tea.Cmd {
	t.state = TxStateSigning
	t.pass = textinput.New()
	t.pass.Prompt = "passphrase: "
	t.pass.EchoMode = textinput.EchoPassword
	return t.pass.Focus()
}

func (t *Tx) spawnSign(passphrase string) {
	session, bus := t.session, t.bus
	account, built := t.account, t.built
	t.sup.Oneshot(func(context.Context) {
		signer, err := keystore.LoadWallet(account, passphrase)
		if err != nil {
			bus.Send(events.TxUpdate{Session: session, Status: events.TxFailed, Err: err})
			return
		}
		signed, err := signer.SignTx(built, built.ChainId())
		if err != nil {
			bus.Send(events.TxUpdate{Session: session, Status: events.TxFailed, Err: err})
			return
		}
		bus.Send(events.TxUpdate{Session: session, Status: events.TxSigned, Tx: signed})
	})
}

func (t *Tx) spawnSend(signed *types.Transaction) {
	t.abortTasks()
	ctx, cancel := context.WithCancel(t.sup.Context())
	t.cancel = cancel
	session, bus := t.session, t.bus
	network, key := t.network, t.alchemyKey
	t.sup.Oneshot(func(context.Context) {
		client, err := rpc.Connect(network, key)
		if err != nil {
			bus.Send(events.TxUpdate{Session: session, Status: events.TxFailed, Err: err})
			return
		}
		defer client.Close()

		hash, err := client.SendSignedTx(ctx, signed)
		if err != nil {
			bus.Send(events.TxUpdate{Session: session, Status: events.TxFailed, Err: err})
			return
		}
		bus.Send(events.TxUpdate{Session: session, Status: events.TxSubmitted, Hash: hash})
	})
}

func (t *Tx) spawnWait(hash common.Hash) {
	t.abortTasks()
	ctx, cancel := context.WithCancel(t.sup.Context())
	t.cancel = cancel
	session, bus := t.session, t.bus
	network, key := t.network, t.alchemyKey
	t.sup.Oneshot(func(context.Context) {
		client, err := rpc.Connect(network, key)
		if err != nil {
			bus.Send(events.TxUpdate{Session: session, Status: events.TxFailed, Err: err})
			return
		}
		defer client.Close()

		receipt, err := client.WaitForReceipt(ctx, hash)
		if err != nil {
			if ctx.Err() == nil {
				bus.Send(events.TxUpdate{Session: session, Status: events.TxFailed, Err: err})
			}
			return
		}
		bus.Send(events.TxUpdate{Session: session, Status: events.TxConfirmed, Hash: hash, Receipt: receipt})
	})
}

func (t *Tx) View(th styles.Theme, width, height int) string {
	if !t.IsOpen() {
		return ""
	}

	var b strings.Builder
	switch t.state {
	case TxStatePrompt, TxStateBuilding:
		b.WriteString(t.promptView(th))
		if t.state == TxStateBuilding {
			b.WriteString("\n\n" + t.spin.View() + " building transaction")
		} else {
			b.WriteString("\n\n" + ButtonRow(th, "Cancel", "Confirm", t.focusConfirm))
		}
	case TxStateSigning:
		b.WriteString(th.TextStyle().Render("Unlock account to sign"))
		b.WriteString("\n\n" + t.pass.View())
		if t.errText != "" {
			b.WriteString("\n" + th.ErrorStyle().Render(t.errText))
		}
	case TxStateSending:
		b.WriteString(t.spin.View() + " broadcasting transaction")
	case TxStateWaiting:
		b.WriteString(t.spin.View() + " waiting for receipt")
		b.WriteString("\n" + th.MutedStyle().Render(t.hash.Hex()))
	case TxStateDone:
		b.WriteString(th.AccentStyle().Render("Transaction confirmed"))
		b.WriteString("\n" + th.TextStyle().Render(t.hash.Hex()))
		if url := t.network.TxURL(t.hash.Hex()); url != "" {
			b.WriteString("\n" + th.MutedStyle().Render(url))
		}
	case TxStateFailed:
		b.WriteString(th.ErrorStyle().Render("Transaction reverted"))
		b.WriteString("\n" + th.TextStyle().Render(t.hash.Hex()))
		if url := t.network.TxURL(t.hash.Hex()); url != "" {
			b.WriteString("\n" + th.MutedStyle().Render(url))
		}
	case TxStateRpcError:
		b.WriteString(th.ErrorStyle().Render(t.errText))
		b.WriteString("\n\n" + th.MutedStyle().Render("esc to close"))
	}
	return Frame(th, width, height, "Transaction", b.String())
}

func (t *Tx) promptView(th styles.Theme) string {
	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(th.MutedStyle().Render(label+": ") + th.TextStyle().Render(value) + "\n")
	}

	row("network", t.network.Name)
	row("from", t.account.Hex())
	if t.request.To != nil {
		to := t.request.To.Hex()
		if t.meta != nil && t.meta.DestIsContract {
			to += " (contract)"
		}
		row("to", to)
	} else {
		row("to", "(contract deployment)")
	}

	symbol, decimals := t.network.Symbol, t.network.NativeDecimals
	if t.meta != nil && t.meta.NativeSymbol != "" {
		symbol, decimals = t.meta.NativeSymbol, t.meta.NativeDecimals
	}
	if t.request.Value != nil && t.request.Value.Sign() > 0 {
		row("value", helpers.FormatUnits(t.request.Value, decimals)+" "+symbol)
	}

	if t.meta != nil && t.meta.ERC20Receiver != nil {
		action := "token transfer"
		if t.meta.ERC20IsApproval {
			action = "token approval"
		}
		row(action, fmt.Sprintf("%s → %s", t.meta.ERC20Amount, helpers.ShortenAddr(t.meta.ERC20Receiver.Hex())))
	} else if len(t.request.Data) > 0 {
		preview := fmt.Sprintf("0x%x", t.request.Data)
		if len(preview) > 66 {
			preview = preview[:66] + "…"
		}
		row("data", preview)
	}
	return b.String()
}
