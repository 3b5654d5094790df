package popups

import (
	"math/big"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"gm-tui/config"
	"gm-tui/events"
	"gm-tui/rpc"
)

func testNetwork() config.Network {
	return config.Network{
		Name:        "Testnet",
		ChainID:     11155111,
		Symbol:      "ETH",
		RPCURL:      "http://127.0.0.1:1",
		ExplorerURL: "https://sepolia.etherscan.io/tx/{}",
	}
}

func openTxPopup(t *testing.T) (*Tx, *events.Supervisor) {
	t.Helper()
	bus := events.NewBus(64)
	sup := events.NewSupervisor()
	t.Cleanup(func() {
		sup.Shutdown()
		bus.Close()
	})

	popup := NewTx(bus, sup)
	to := common.HexToAddress("0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB")
	popup.Open(
		common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"),
		testNetwork(), "",
		rpc.TxRequest{To: &to, Value: big.NewInt(1e16)},
	)
	return popup, sup
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func builtTx() *types.Transaction {
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(11155111),
		Nonce:     7,
		Gas:       21000,
		GasFeeCap: big.NewInt(1_000_009_393),
		GasTipCap: big.NewInt(1_000_000_000),
		Value:     big.NewInt(1e16),
	})
}

func TestTxConfirmBeforeBuildWaits(t *testing.T) {
	popup, _ := openTxPopup(t)
	if popup.State() != TxStatePrompt {
		t.Fatalf("state = %d, want prompt", popup.State())
	}

	popup.HandleKey(keyMsg("enter"))
	if popup.State() != TxStateBuilding {
		t.Fatalf("confirm before build: state = %d, want building", popup.State())
	}

	popup.HandleMsg(events.TxUpdate{Session: popup.session, Status: events.TxBuilt, Tx: builtTx()})
	if popup.State() != TxStateSigning {
		t.Errorf("after build completes: state = %d, want signing", popup.State())
	}
}

func TestTxSpeculativeBuildThenConfirm(t *testing.T) {
	popup, _ := openTxPopup(t)
	popup.HandleMsg(events.TxUpdate{Session: popup.session, Status: events.TxBuilt, Tx: builtTx()})
	if popup.State() != TxStatePrompt {
		t.Fatalf("speculative build must not leave the prompt, state = %d", popup.State())
	}

	popup.HandleKey(keyMsg("enter"))
	if popup.State() != TxStateSigning {
		t.Errorf("confirm after build: state = %d, want signing", popup.State())
	}
}

func TestTxLifecycleCallbacks(t *testing.T) {
	popup, _ := openTxPopup(t)
	var submitted, confirmed common.Hash
	popup.Callbacks = TxCallbacks{
		OnSubmit:  func(h common.Hash) { submitted = h },
		OnConfirm: func(h common.Hash) { confirmed = h },
	}

	hash := common.HexToHash("0x1234")
	popup.HandleMsg(events.TxUpdate{Session: popup.session, Status: events.TxBuilt, Tx: builtTx()})
	popup.HandleMsg(events.TxUpdate{Session: popup.session, Status: events.TxSubmitted, Hash: hash})
	if submitted != hash {
		t.Errorf("OnSubmit got %s", submitted.Hex())
	}
	if popup.State() != TxStateWaiting {
		t.Fatalf("state = %d, want waiting", popup.State())
	}

	popup.HandleMsg(events.TxUpdate{
		Session: popup.session,
		Status:  events.TxConfirmed,
		Hash:    hash,
		Receipt: &types.Receipt{Status: types.ReceiptStatusSuccessful},
	})
	if popup.State() != TxStateDone {
		t.Errorf("state = %d, want done", popup.State())
	}
	if confirmed != hash {
		t.Errorf("OnConfirm got %s", confirmed.Hex())
	}
}

func TestTxRevertedReceipt(t *testing.T) {
	popup, _ := openTxPopup(t)
	popup.HandleMsg(events.TxUpdate{Session: popup.session, Status: events.TxSubmitted, Hash: common.HexToHash("0x1")})
	popup.HandleMsg(events.TxUpdate{
		Session: popup.session,
		Status:  events.TxConfirmed,
		Receipt: &types.Receipt{Status: types.ReceiptStatusFailed},
	})
	if popup.State() != TxStateFailed {
		t.Errorf("state = %d, want failed", popup.State())
	}
}

func TestTxRpcErrorStaysOpenUntilEsc(t *testing.T) {
	popup, _ := openTxPopup(t)
	var gotCode int64
	var escaped bool
	popup.Callbacks = TxCallbacks{
		OnRpcError: func(code int64, message string, data []byte) { gotCode = code },
		OnEsc:      func() { escaped = true },
	}

	popup.HandleMsg(events.TxUpdate{
		Session: popup.session,
		Err:     &rpc.JsonRpcError{Code: -32000, Message: "insufficient funds"},
	})
	if popup.State() != TxStateRpcError {
		t.Fatalf("state = %d, want rpc error", popup.State())
	}
	if gotCode != -32000 {
		t.Errorf("OnRpcError code = %d", gotCode)
	}

	popup.HandleKey(keyMsg("esc"))
	if popup.IsOpen() {
		t.Error("esc must close the popup")
	}
	if !escaped {
		t.Error("OnEsc not fired")
	}
}

func TestTxCancelOnPrompt(t *testing.T) {
	popup, _ := openTxPopup(t)
	var cancelled bool
	popup.Callbacks = TxCallbacks{OnCancel: func() { cancelled = true }}

	popup.HandleKey(keyMsg("left"))
	popup.HandleKey(keyMsg("enter"))
	if popup.IsOpen() || !cancelled {
		t.Error("cancel button must close and fire OnCancel")
	}
}

func TestTxReopenIgnoresStaleUpdates(t *testing.T) {
	popup, _ := openTxPopup(t)
	stale := popup.session

	to := common.HexToAddress("0xCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCC")
	popup.Open(popup.account, testNetwork(), "", rpc.TxRequest{To: &to})

	popup.HandleMsg(events.TxUpdate{Session: stale, Status: events.TxBuilt, Tx: builtTx()})
	if popup.built != nil {
		t.Error("stale build result applied after reopen")
	}
	popup.HandleMsg(events.TxUpdate{Session: stale, Status: events.TxSubmitted, Hash: common.HexToHash("0x1")})
	if popup.State() != TxStatePrompt {
		t.Errorf("stale update moved state to %d", popup.State())
	}
}
