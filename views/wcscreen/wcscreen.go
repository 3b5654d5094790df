// Package wcscreen is the WalletConnect screen: pair with a dapp over the
// relay, then route its session requests to the signing popups.
package wcscreen

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"

	"gm-tui/app"
	"gm-tui/events"
	"gm-tui/forms"
	"gm-tui/helpers"
	"gm-tui/popups"
	"gm-tui/rpc"
	wc "gm-tui/walletconnect"
)

const (
	itemURI     = "uri"
	itemError   = "error"
	itemConnect = "connect"
)

// Relay endpoints and the project identity presented to dapps.
const (
	relayRPCURL   = "https://relay.walletconnect.org/rpc"
	relayAudience = "https://relay.walletconnect.org"
	projectID     = "46c07e56a92e34fe567dcc951fba3f3e"
)

type outbound struct {
	msg *wc.Message
	tag wc.IrnTag
}

type WcScreen struct {
	form *forms.Form
	bus  *events.Bus

	status  wc.Status
	pairing *wc.Pairing

	requests []*wc.Message
	cursor   int
	current  *wc.Message

	sendQueue chan outbound
	stopTasks context.CancelFunc

	approve popups.Confirm
	exit    popups.Confirm

	txPopup    *popups.Tx
	signPopup  *popups.Sign
	typedPopup *popups.TypedData

	errText string
}

func New(ss *app.SharedState) *WcScreen {
	return &WcScreen{
		form: forms.New(
			forms.NewHeading("WalletConnect"),
			forms.NewStaticText("Paste the pairing link shown by the dapp."),
			forms.NewInputBox(itemURI, "Pairing URI", "wc:…", ""),
			forms.NewErrorText("").WithID(itemError),
			forms.NewButton(itemConnect, "Connect"),
		),
		bus:        ss.Bus,
		txPopup:    popups.NewTx(ss.Bus, ss.Sup),
		signPopup:  popups.NewSign(ss.Bus, ss.Sup),
		typedPopup: popups.NewTypedData(ss.Bus, ss.Sup),
	}
}

func (w *WcScreen) Title() string { return "WalletConnect" }

func (w *WcScreen) metadata() wc.Metadata {
	return wc.Metadata{
		Name:        "gm wallet",
		Description: "gm is a TUI based ethereum wallet",
		URL:         "https://github.com/zemse/gm",
	}
}

func (w *WcScreen) Update(msg tea.Msg, ss *app.SharedState) (app.Actions, tea.Cmd) {
	var actions app.Actions

	switch m := msg.(type) {
	case events.WcStatusChanged:
		w.status = m.Status
		if m.Pairing != nil {
			w.pairing = m.Pairing
		}
		if w.status == wc.StatusSettleFailed && w.stopTasks != nil {
			// The session is dead; stop the outbound sender with it.
			w.stopTasks()
			w.stopTasks = nil
		}
		if w.status == wc.StatusProposalReceived && w.pairing != nil {
			w.approve.Open("Session proposal",
				fmt.Sprintf("%s wants to connect.\n%s", w.pairing.PeerName(), w.pairing.Proposal.Proposer.Metadata.URL),
				"Approve", "Reject")
		}
		return actions, nil
	case events.WcInbound:
		w.handleInbound(ss, m.Message)
		return actions, nil
	case events.WcError:
		w.errText = m.Err.Error()
		if w.status == wc.StatusInitializing || w.status == wc.StatusSettleInProgress {
			w.status = wc.StatusSettleFailed
			if w.stopTasks != nil {
				w.stopTasks()
				w.stopTasks = nil
			}
		}
		return actions, nil
	}

	if cmd := w.txPopup.HandleMsg(msg); cmd != nil {
		return actions, cmd
	}
	if event, cmd := w.signPopup.HandleMsg(msg); event != popups.SignEventNone || cmd != nil {
		w.applySignEvent(event, w.signPopup.Signature(), "User denied msg signing")
		return actions, cmd
	}
	if event, cmd := w.typedPopup.HandleMsg(msg); event != popups.SignEventNone || cmd != nil {
		w.applySignEvent(event, w.typedPopup.Signature(), "User denied msg signing")
		return actions, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return actions, nil
	}
	return w.handleKey(key, ss)
}

func (w *WcScreen) handleKey(key tea.KeyMsg, ss *app.SharedState) (app.Actions, tea.Cmd) {
	var actions app.Actions

	switch {
	case w.txPopup.IsOpen():
		actions.IgnoreEsc = true
		return actions, w.txPopup.HandleKey(key)
	case w.signPopup.IsOpen():
		actions.IgnoreEsc = true
		event, cmd := w.signPopup.HandleKey(key)
		w.applySignEvent(event, w.signPopup.Signature(), "User denied msg signing")
		return actions, cmd
	case w.typedPopup.IsOpen():
		actions.IgnoreEsc = true
		event, cmd := w.typedPopup.HandleKey(key)
		w.applySignEvent(event, w.typedPopup.Signature(), "User denied msg signing")
		return actions, cmd
	case w.approve.IsOpen():
		actions.IgnoreEsc = true
		switch w.approve.HandleKey(key) {
		case popups.ConfirmYes:
			w.startSettle(ss)
		case popups.ConfirmNo:
			w.status = wc.StatusSettleCancelled
		}
		return actions, nil
	case w.exit.IsOpen():
		actions.IgnoreEsc = true
		if w.exit.HandleKey(key) == popups.ConfirmYes {
			w.teardown()
			actions.PopCount = 1
		}
		return actions, nil
	}

	if w.status == wc.StatusSettleDone {
		switch key.String() {
		case "esc":
			actions.IgnoreEsc = true
			w.exit.Open("End session?",
				fmt.Sprintf("Leaving disconnects %s.", w.pairing.PeerName()),
				"End", "Wait")
		case "up", "k":
			w.cursor--
		case "down", "j":
			w.cursor++
		case "enter":
			if len(w.requests) > 0 {
				w.cursor = helpers.Clamp(w.cursor, 0, len(w.requests)-1)
				return actions, w.openRequest(ss, w.requests[w.cursor])
			}
		}
		w.cursor = helpers.Clamp(w.cursor, 0, helpers.Max(len(w.requests)-1, 0))
		return actions, nil
	}

	if w.status != wc.StatusIdle {
		// Waiting, failed or cancelled: enter resets to the form, esc
		// cancels whatever is in flight and leaves the screen.
		switch key.String() {
		case "enter":
			w.teardown()
			w.errText = ""
		case "esc":
			w.teardown()
		}
		return actions, nil
	}

	formCmd := w.form.HandleKey(key, func(string) { w.form.SetError(itemError, "") }, func(id string) {
		if id == itemConnect && w.status == wc.StatusIdle {
			w.connect(ss)
		}
	})
	return actions, formCmd
}

// connect parses the URI and waits for the dapp's proposal in a task.
func (w *WcScreen) connect(ss *app.SharedState) {
	uri := strings.TrimSpace(w.form.GetText(itemURI))
	if uri == "" {
		w.form.SetError(itemError, "paste a pairing link first")
		return
	}

	w.status = wc.StatusInitializing
	w.errText = ""
	conn := wc.NewConnection(relayRPCURL, relayAudience, projectID, clientSeed(ss.Account), w.metadata())

	ctx, cancel := context.WithCancel(ss.Sup.Context())
	w.stopTasks = cancel

	bus, account := ss.Bus, ss.Account
	ss.Sup.Oneshot(func(context.Context) {
		pairing, err := conn.InitPairing(ctx, uri)
		if err != nil {
			bus.Send(events.WcError{Account: account, Err: err})
			return
		}
		bus.Send(events.WcStatusChanged{Status: wc.StatusProposalReceived, Pairing: pairing})
	})
}

// clientSeed derives a stable relay identity per account.
func clientSeed(account common.Address) [32]byte {
	var seed [32]byte
	copy(seed[:], account.Bytes())
	return seed
}

// startSettle approves the proposal and, on success, starts the inbound
// watcher and the outbound sender. Both share one cancel so they stop
// together.
func (w *WcScreen) startSettle(ss *app.SharedState) {
	w.status = wc.StatusSettleInProgress
	if w.stopTasks != nil {
		w.stopTasks()
	}

	var chainIDs []uint64
	for _, n := range ss.Networks.Filtered(ss.Testnet) {
		chainIDs = append(chainIDs, n.ChainID)
	}

	ctx, cancel := context.WithCancel(ss.Sup.Context())
	w.stopTasks = cancel
	w.sendQueue = make(chan outbound, 16)

	pairing, bus, account := w.pairing, ss.Bus, ss.Account
	queue := w.sendQueue

	ss.Sup.Watch(func(context.Context) {
		early, err := pairing.ApproveWithSessionSettle(ctx, account, chainIDs)
		if err != nil {
			bus.Send(events.WcError{Account: account, Err: err})
			bus.Send(events.WcStatusChanged{Status: wc.StatusSettleFailed})
			cancel()
			return
		}
		bus.Send(events.WcStatusChanged{Status: wc.StatusSettleDone})
		for _, msg := range early {
			bus.Send(events.WcInbound{Account: account, Message: msg})
		}

		for ctx.Err() == nil {
			messages, err := pairing.WatchMessages(ctx)
			if err != nil {
				if ctx.Err() == nil {
					bus.Send(events.WcError{Account: account, Err: err})
					bus.Send(events.WcStatusChanged{Status: wc.StatusSettleFailed})
				}
				cancel()
				return
			}
			for _, msg := range messages {
				bus.Send(events.WcInbound{Account: account, Message: msg})
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
		}
	})

	ss.Sup.Watch(func(context.Context) {
		for {
			select {
			case <-ctx.Done():
				return
			case item := <-queue:
				if err := pairing.SendMessage(ctx, item.msg, item.tag); err != nil && ctx.Err() == nil {
					bus.Send(events.WcError{Account: account, Err: err})
				}
			}
		}
	})
}

func (w *WcScreen) teardown() {
	if w.stopTasks != nil {
		w.stopTasks()
		w.stopTasks = nil
	}
	w.status = wc.StatusIdle
	w.requests = nil
	w.current = nil
	w.txPopup.Close()
	w.signPopup.Close()
	w.typedPopup.Close()
}

// handleInbound answers pings inline and queues everything else for the
// user.
func (w *WcScreen) handleInbound(ss *app.SharedState, msg *wc.Message) {
	if !msg.IsRequest() {
		return
	}
	switch msg.Method {
	case wc.MethodSessionPing:
		pong, err := msg.CreateResponse(true)
		if err == nil {
			w.enqueue(pong, wc.TagSessionPingResponse)
		}
	case wc.MethodSessionDelete:
		ack, err := msg.CreateResponse(true)
		if err == nil {
			w.enqueue(ack, wc.TagSessionDeleteResponse)
		}
		w.teardown()
	case wc.MethodSessionRequest:
		w.requests = append(w.requests, msg)
	default:
		ss.Bus.Send(events.FatalError{
			Err: fmt.Errorf("walletconnect: unhandled method %q", msg.Method),
		})
	}
}

func (w *WcScreen) enqueue(msg *wc.Message, tag wc.IrnTag) {
	if w.sendQueue == nil {
		return
	}
	select {
	case w.sendQueue <- outbound{msg: msg, tag: tag}:
	default:
		w.bus.Send(events.WcError{
			Err: fmt.Errorf("walletconnect: send queue full, dropping response %d", msg.ID),
		})
	}
}

// openRequest routes one queued session request to its popup by the
// embedded JSON-RPC method.
func (w *WcScreen) openRequest(ss *app.SharedState, req *wc.Message) tea.Cmd {
	params, err := req.SessionRequest()
	if err != nil {
		w.respondError(req, wc.ErrCodeUserRejected, err.Error())
		w.removeRequest(req)
		return nil
	}
	w.current = req

	switch params.Request.Method {
	case "eth_sendTransaction":
		return w.openTxRequest(ss, req, params)
	case "personal_sign":
		var args []string
		if err := json.Unmarshal(params.Request.Params, &args); err != nil || len(args) < 1 {
			w.respondError(req, wc.ErrCodeUserRejected, "malformed personal_sign params")
			w.removeRequest(req)
			return nil
		}
		message := decodeHexParam(args[0])
		return w.signPopup.Open(ss.Account, message, string(message))
	case "eth_signTypedData_v4":
		var args []json.RawMessage
		if err := json.Unmarshal(params.Request.Params, &args); err != nil || len(args) < 2 {
			w.respondError(req, wc.ErrCodeUserRejected, "malformed typed data params")
			w.removeRequest(req)
			return nil
		}
		data, err := popups.ParseTypedData(args[1])
		if err != nil {
			w.respondError(req, wc.ErrCodeUserRejected, err.Error())
			w.removeRequest(req)
			return nil
		}
		return w.typedPopup.Open(ss.Account, data)
	default:
		w.respondError(req, 4001, "unsupported method "+params.Request.Method)
		w.removeRequest(req)
		return nil
	}
}

// wcTxParams is the transaction object dapps send with eth_sendTransaction.
type wcTxParams struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Value string `json:"value"`
	Data  string `json:"data"`
	Gas   string `json:"gas"`
}

func (w *WcScreen) openTxRequest(ss *app.SharedState, req *wc.Message, params wc.SessionRequestParams) tea.Cmd {
	var args []wcTxParams
	if err := json.Unmarshal(params.Request.Params, &args); err != nil || len(args) < 1 {
		w.respondError(req, wc.ErrCodeUserRejected, "malformed transaction params")
		w.removeRequest(req)
		return nil
	}
	arg := args[0]

	chainID, err := parseEip155(params.ChainID)
	if err != nil {
		w.respondError(req, wc.ErrCodeUserRejected, err.Error())
		w.removeRequest(req)
		return nil
	}
	network, err := ss.Networks.ByChainID(chainID)
	if err != nil {
		w.respondError(req, wc.ErrCodeUserRejected, err.Error())
		w.removeRequest(req)
		return nil
	}

	txReq := rpc.TxRequest{From: ss.Account}
	if arg.To != "" {
		to := common.HexToAddress(arg.To)
		txReq.To = &to
	}
	if arg.Value != "" {
		txReq.Value, _ = new(big.Int).SetString(strings.TrimPrefix(arg.Value, "0x"), 16)
	}
	if arg.Data != "" {
		txReq.Data = decodeHexParam(arg.Data)
	}
	if arg.Gas != "" {
		if gas, err := strconv.ParseUint(strings.TrimPrefix(arg.Gas, "0x"), 16, 64); err == nil {
			txReq.Gas = gas
		}
	}

	w.txPopup.Callbacks = popups.TxCallbacks{
		OnSubmit: func(hash common.Hash) {
			w.respondResult(req, hash.Hex())
		},
		OnRpcError: func(code int64, message string, data []byte) {
			var payload json.RawMessage
			if len(data) > 0 {
				payload, _ = json.Marshal("0x" + hex.EncodeToString(data))
			}
			w.respondErrorData(req, int(code), message, payload)
		},
		OnCancel: func() {
			w.respondError(req, wc.ErrCodeUserRejected, "User denied tx signing")
		},
		OnEsc: func() {
			w.removeRequest(req)
			w.current = nil
		},
	}
	return w.txPopup.Open(ss.Account, network, ss.AlchemyKey(), txReq)
}

// applySignEvent relays sign popup outcomes back to the dapp.
func (w *WcScreen) applySignEvent(event popups.SignEvent, signature []byte, denyText string) {
	if w.current == nil {
		return
	}
	switch event {
	case popups.SignEventSigned:
		w.respondResult(w.current, "0x"+hex.EncodeToString(signature))
	case popups.SignEventRejected:
		w.respondError(w.current, wc.ErrCodeUserRejected, denyText)
		w.removeRequest(w.current)
		w.current = nil
	case popups.SignEventEscapedAfterSigning:
		w.removeRequest(w.current)
		w.current = nil
	case popups.SignEventEscapedBeforeSigning:
		w.current = nil
	}
}

func (w *WcScreen) respondResult(req *wc.Message, result any) {
	resp, err := req.CreateResponse(result)
	if err != nil {
		return
	}
	w.enqueue(resp, wc.TagSessionRequestResponse)
}

func (w *WcScreen) respondError(req *wc.Message, code int, message string) {
	w.respondErrorData(req, code, message, nil)
}

func (w *WcScreen) respondErrorData(req *wc.Message, code int, message string, data json.RawMessage) {
	w.enqueue(req.CreateErrorResponse(code, message, data), wc.TagSessionRequestResponse)
}

func (w *WcScreen) removeRequest(req *wc.Message) {
	for i, r := range w.requests {
		if r == req {
			w.requests = append(w.requests[:i], w.requests[i+1:]...)
			break
		}
	}
	w.cursor = helpers.Clamp(w.cursor, 0, helpers.Max(len(w.requests)-1, 0))
}

func parseEip155(s string) (uint64, error) {
	id, ok := strings.CutPrefix(s, "eip155:")
	if !ok {
		return 0, fmt.Errorf("chain id %q is not eip155", s)
	}
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("chain id %q: %w", s, err)
	}
	return n, nil
}

func decodeHexParam(s string) []byte {
	trimmed := strings.TrimPrefix(s, "0x")
	if decoded, err := hex.DecodeString(trimmed); err == nil {
		return decoded
	}
	return []byte(s)
}

func (w *WcScreen) View(ss *app.SharedState, width, height int) string {
	th := ss.Theme
	base := w.baseView(ss, width, height)

	switch {
	case w.txPopup.IsOpen():
		return popups.Overlay(base, w.txPopup.View(th, width, height))
	case w.signPopup.IsOpen():
		return popups.Overlay(base, w.signPopup.View(th, width, height))
	case w.typedPopup.IsOpen():
		return popups.Overlay(base, w.typedPopup.View(th, width, height))
	case w.approve.IsOpen():
		return popups.Overlay(base, w.approve.View(th, width, height))
	case w.exit.IsOpen():
		return popups.Overlay(base, w.exit.View(th, width, height))
	}
	return base
}

func (w *WcScreen) baseView(ss *app.SharedState, width, height int) string {
	th := ss.Theme

	var b strings.Builder
	switch w.status {
	case wc.StatusIdle:
		b.WriteString(w.form.View(width, height-1, th))
	case wc.StatusSettleDone:
		b.WriteString(th.TitleStyle().Render("Connected to " + w.pairing.PeerName()))
		b.WriteString("\n\n")
		if len(w.requests) == 0 {
			b.WriteString(th.MutedStyle().Render("Waiting for requests from the dapp…"))
		}
		for i, req := range w.requests {
			label := "request"
			if params, err := req.SessionRequest(); err == nil {
				label = params.Request.Method + " on " + params.ChainID
			}
			if i == w.cursor {
				b.WriteString(th.AccentStyle().Render("▶ " + label))
			} else {
				b.WriteString(th.TextStyle().Render("  " + label))
			}
			b.WriteByte('\n')
		}
		b.WriteString("\n" + th.MutedStyle().Render(th.Key("Enter")+" review   "+th.Key("Esc")+" end session"))
	default:
		b.WriteString(th.TitleStyle().Render("WalletConnect"))
		b.WriteString("\n\n" + th.TextStyle().Render(w.status.String()))
		b.WriteString("\n\n" + th.MutedStyle().Render(th.Key("Enter")+" start over   "+th.Key("Esc")+" back"))
	}

	if w.errText != "" {
		b.WriteString("\n\n" + th.ErrorStyle().Render(w.errText))
	}
	return b.String()
}

func (w *WcScreen) Reload(ss *app.SharedState) {}

func (w *WcScreen) Shutdown() { w.teardown() }
