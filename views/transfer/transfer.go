// Package transfer is the asset-transfer screen: pick an asset, a
// recipient and an amount, then drive the transaction popup.
package transfer

import (
	"fmt"
	"math/big"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"

	"gm-tui/app"
	"gm-tui/assets"
	"gm-tui/config"
	"gm-tui/forms"
	"gm-tui/helpers"
	"gm-tui/popups"
	"gm-tui/rpc"
)

const (
	itemAsset  = "asset"
	itemTo     = "to"
	itemAmount = "amount"
	itemError  = "error"
	itemSubmit = "submit"
)

type Transfer struct {
	form     *forms.Form
	picker   popups.FilterSelect
	txPopup  *popups.Tx
	selected *assets.Asset
	pickFor  string
}

func New(ss *app.SharedState) *Transfer {
	t := &Transfer{
		txPopup: popups.NewTx(ss.Bus, ss.Sup),
	}
	t.form = forms.New(
		forms.NewHeading("Transfer"),
		forms.NewFilterSelect(itemAsset, "Asset", "enter to pick an asset"),
		forms.NewInputBox(itemTo, "To", "0x… (space to pick)", "").WithPicker(),
		forms.NewInputBox(itemAmount, "Amount", "0.0", ""),
		forms.NewErrorText("").WithID(itemError),
		forms.NewButton(itemSubmit, "Transfer"),
	)
	t.form.SetError(itemError, "")
	return t
}

func (t *Transfer) Title() string { return "Transfer" }

func (t *Transfer) Update(msg tea.Msg, ss *app.SharedState) (app.Actions, tea.Cmd) {
	var actions app.Actions

	if cmd := t.txPopup.HandleMsg(msg); cmd != nil {
		return actions, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return actions, nil
	}

	switch {
	case t.txPopup.IsOpen():
		actions.IgnoreEsc = true
		return actions, t.txPopup.HandleKey(key)
	case t.picker.IsOpen():
		actions.IgnoreEsc = true
		if picked := t.picker.HandleKey(key); picked != nil {
			t.applyPick(ss, *picked)
		}
		return actions, nil
	}

	var popupCmd tea.Cmd
	formCmd := t.form.HandleKey(key,
		func(string) { t.form.SetError(itemError, "") },
		func(id string) {
			switch id {
			case itemAsset:
				t.openAssetPicker(ss)
				actions.IgnoreEsc = true
			case itemTo:
				t.openAddressPicker(ss)
				actions.IgnoreEsc = true
			case itemSubmit:
				popupCmd = t.submit(ss)
				if t.txPopup.IsOpen() {
					actions.IgnoreEsc = true
				}
			}
		})
	if popupCmd != nil {
		return actions, popupCmd
	}
	return actions, formCmd
}

func (t *Transfer) openAssetPicker(ss *app.SharedState) {
	list := ss.Assets.Get(ss.Account)
	entries := make([]popups.FilterEntry, 0, len(list))
	for i, a := range list {
		entries = append(entries, popups.FilterEntry{
			Label: fmt.Sprintf("%s on %s (%s)", a.Symbol, a.NetworkName, a.FormattedBalance()),
			Value: fmt.Sprint(i),
		})
	}
	t.pickFor = itemAsset
	t.picker.Open("Pick asset", entries)
}

func (t *Transfer) openAddressPicker(ss *app.SharedState) {
	book, err := config.LoadAddressBook()
	if err != nil {
		book = &config.AddressBook{}
	}
	var entries []popups.FilterEntry
	for _, e := range book.Entries {
		entries = append(entries, popups.FilterEntry{Label: e.Name + "  " + helpers.ShortenAddr(e.Address), Value: e.Address})
	}
	for _, addr := range ss.RecentAddresses {
		entries = append(entries, popups.FilterEntry{Label: "recent  " + helpers.ShortenAddr(addr.Hex()), Value: addr.Hex()})
	}
	t.pickFor = itemTo
	t.picker.Open("Pick recipient", entries)
}

func (t *Transfer) applyPick(ss *app.SharedState, picked popups.FilterEntry) {
	switch t.pickFor {
	case itemAsset:
		list := ss.Assets.Get(ss.Account)
		var idx int
		fmt.Sscan(picked.Value, &idx)
		if idx >= 0 && idx < len(list) {
			a := list[idx]
			t.selected = &a
			t.form.SetText(itemAsset, fmt.Sprintf("%s on %s", a.Symbol, a.NetworkName))
		}
	case itemTo:
		t.form.SetText(itemTo, picked.Value)
	}
}

func (t *Transfer) submit(ss *app.SharedState) tea.Cmd {
	if t.selected == nil {
		t.form.SetError(itemError, "pick an asset first")
		return nil
	}
	toText := strings.TrimSpace(t.form.GetText(itemTo))
	if !helpers.IsValidEthAddress(toText) {
		t.form.SetError(itemError, "invalid recipient address")
		return nil
	}
	amount, err := helpers.ParseUnits(t.form.GetText(itemAmount), t.selected.Decimals)
	if err != nil || amount.Sign() <= 0 {
		t.form.SetError(itemError, "invalid amount")
		return nil
	}
	network, err := ss.Networks.ByName(t.selected.NetworkName)
	if err != nil {
		t.form.SetError(itemError, err.Error())
		return nil
	}

	to := common.HexToAddress(toText)
	req := rpc.TxRequest{From: ss.Account}
	if t.selected.Token.IsNative() {
		req.To = &to
		req.Value = amount
	} else {
		contract := *t.selected.Token.Contract
		req.To = &contract
		req.Value = new(big.Int)
		req.Data = erc20TransferCalldata(to, amount)
	}
	return t.txPopup.Open(ss.Account, network, ss.AlchemyKey(), req)
}

// erc20TransferCalldata encodes transfer(address,uint256).
func erc20TransferCalldata(to common.Address, amount *big.Int) []byte {
	data := make([]byte, 0, 68)
	data = append(data, 0xa9, 0x05, 0x9c, 0xbb)
	data = append(data, common.LeftPadBytes(to.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(amount.Bytes(), 32)...)
	return data
}

func (t *Transfer) View(ss *app.SharedState, width, height int) string {
	th := ss.Theme
	base := t.form.View(width, height-1, th) + "\n" +
		th.MutedStyle().Render(th.Key("Tab")+" next   "+th.Key("Enter")+" select   "+th.Key("Esc")+" back")
	if t.txPopup.IsOpen() {
		return popups.Overlay(base, t.txPopup.View(th, width, height))
	}
	if t.picker.IsOpen() {
		return popups.Overlay(base, t.picker.View(th, width, height))
	}
	return base
}

func (t *Transfer) Reload(ss *app.SharedState) {
	t.selected = nil
	t.form.SetText(itemAsset, "")
}

func (t *Transfer) Shutdown() {
	t.txPopup.Close()
}
