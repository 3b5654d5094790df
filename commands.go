package main

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"gm-tui/app"
	"gm-tui/assets"
	"gm-tui/config"
	"gm-tui/events"
)

const (
	priceInterval   = time.Minute
	assetInterval   = 30 * time.Second
	recentsInterval = 2 * time.Minute
	recentsLimit    = 10
)

// startPriceWatcher runs the periodic price refresh. It doubles as the
// connectivity probe: an all-providers-unreachable refresh flips the
// session offline, the next success flips it back. The network list,
// testnet flag and account are captured here; reloadShared restarts the
// watcher so the snapshot follows config changes.
func (m *model) startPriceWatcher() {
	ss := m.ss
	networks := ss.Networks
	testnet := ss.Testnet
	hasAccount, account := ss.HasAccount, ss.Account
	m.stopPrices = ss.Sup.Periodic(priceInterval, func(ctx context.Context) {
		var held []assets.Asset
		if hasAccount {
			held = ss.Assets.Get(account)
		}
		symbols := priceSymbols(networks, testnet, held)
		if len(symbols) == 0 {
			return
		}
		if err := ss.Prices.Refresh(ctx, symbols); err != nil {
			ss.Bus.Send(events.PricesError{Err: err, Offline: errors.Is(err, assets.ErrOffline)})
			return
		}
		ss.Bus.Send(events.PricesUpdated{})
	})
}

func (m *model) stopPriceWatcher() {
	if m.stopPrices != nil {
		m.stopPrices()
		m.stopPrices = nil
	}
}

// priceSymbols is the union of native currency symbols of the visible
// networks and the symbols of the held assets.
func priceSymbols(networks *config.NetworkStore, testnet bool, held []assets.Asset) []string {
	seen := map[string]bool{}
	var out []string
	add := func(symbol string) {
		if symbol == "" || seen[symbol] {
			return
		}
		seen[symbol] = true
		out = append(out, symbol)
	}
	for _, n := range networks.Filtered(testnet) {
		add(n.Symbol)
	}
	for _, a := range held {
		add(a.Symbol)
	}
	return out
}

// startDataWatchers starts the asset and recent-address pollers. They pause
// while the session is offline.
func (m *model) startDataWatchers() {
	if !m.ss.HasAccount {
		return
	}
	ss := m.ss
	account := ss.Account
	fetcher := assets.NewFetcher(ss.Networks, ss.AlchemyKey(), ss.Testnet)
	verifier := &assets.Verifier{Networks: ss.Networks, AlchemyKey: ss.AlchemyKey(), Manager: ss.Assets}

	if m.stopAssets == nil {
		m.stopAssets = ss.Sup.Periodic(assetInterval, func(ctx context.Context) {
			fetchAndVerify(ctx, ss, account, fetcher, verifier)
		})
	}
	if m.stopRecents == nil {
		m.stopRecents = ss.Sup.Periodic(recentsInterval, func(ctx context.Context) {
			addrs, err := fetcher.RecentAddresses(ctx, account, recentsLimit)
			if err != nil || len(addrs) == 0 {
				return
			}
			ss.Bus.Send(events.RecentAddressesUpdated{Account: account, Addresses: addrs})
		})
	}
}

func (m *model) stopDataWatchers() {
	if m.stopAssets != nil {
		m.stopAssets()
		m.stopAssets = nil
	}
	if m.stopRecents != nil {
		m.stopRecents()
		m.stopRecents = nil
	}
}

// refreshAssetsNow serves the portfolio's manual refresh. Clearing the
// cache first sends every balance back through verification instead of
// carrying old statuses forward.
func (m *model) refreshAssetsNow() {
	if !m.ss.HasAccount {
		return
	}
	ss := m.ss
	account := ss.Account
	ss.Assets.Clear(account)
	fetcher := assets.NewFetcher(ss.Networks, ss.AlchemyKey(), ss.Testnet)
	verifier := &assets.Verifier{Networks: ss.Networks, AlchemyKey: ss.AlchemyKey(), Manager: ss.Assets}
	ss.Sup.Oneshot(func(ctx context.Context) {
		fetchAndVerify(ctx, ss, account, fetcher, verifier)
	})
}

// fetchAndVerify is one asset poll cycle: fetch balances, merge them into
// the manager (verification statuses carry forward for unchanged balances),
// then let the verifier settle whatever is pending.
func fetchAndVerify(ctx context.Context, ss *app.SharedState, account common.Address, fetcher *assets.Fetcher, verifier *assets.Verifier) {
	list, err := fetcher.Fetch(ctx, account)
	if err != nil {
		ss.Bus.Send(events.AssetsError{Account: account, Err: err})
		return
	}
	ss.Assets.Update(account, list)
	ss.Assets.ApplyPrices(account, ss.Prices)
	ss.Bus.Send(events.AssetsUpdated{Account: account})

	if err := verifier.VerifyPending(ctx, account); err != nil {
		ss.Bus.Send(events.AssetsError{Account: account, Err: err})
		return
	}
	ss.Bus.Send(events.VerificationUpdated{Account: account})
}
