package main

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"gm-tui/app"
	"gm-tui/assets"
	"gm-tui/config"
)

func testNetworks() *config.NetworkStore {
	return &config.NetworkStore{Networks: []config.Network{
		{Name: "Ethereum", ChainID: 1, Symbol: "ETH"},
		{Name: "Base", ChainID: 8453, Symbol: "ETH"},
		{Name: "Sepolia", ChainID: 11155111, Symbol: "tETH", Testnet: true},
	}}
}

func TestPriceSymbolsUnion(t *testing.T) {
	held := []assets.Asset{{Symbol: "USDC"}, {Symbol: "ETH"}, {Symbol: ""}}

	got := priceSymbols(testNetworks(), false, held)
	want := []string{"ETH", "USDC"}
	if len(got) != len(want) {
		t.Fatalf("symbols = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("symbols = %v, want %v", got, want)
		}
	}
}

func TestPriceSymbolsTestnetFilter(t *testing.T) {
	got := priceSymbols(testNetworks(), true, nil)
	if len(got) != 1 || got[0] != "tETH" {
		t.Fatalf("testnet symbols = %v, want [tETH]", got)
	}
}

// The price watcher works off inputs captured when it starts; config
// reloads rewrite SharedState on the main task and restart the watcher
// rather than sharing fields with it.
func TestPriceSymbolsReadsOnlySnapshot(t *testing.T) {
	ss := &app.SharedState{Networks: testNetworks()}
	networks, testnet := ss.Networks, ss.Testnet

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			priceSymbols(networks, testnet, nil)
		}
	}()
	for i := 0; i < 200; i++ {
		ss.Networks = testNetworks()
		ss.Testnet = !ss.Testnet
		ss.HasAccount = !ss.HasAccount
		ss.Account = common.Address{byte(i)}
	}
	<-done
}
