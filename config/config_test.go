package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func useTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("GM_DATA_DIR", dir)
	return dir
}

func TestConfigRoundtrip(t *testing.T) {
	useTempDir(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if cfg.HasAccount() {
		t.Fatal("fresh config should have no account")
	}

	cfg.TestnetMode = true
	cfg.Theme = "Monochrome"
	cfg.APIKeys = map[string]string{APIKeyAlchemy: "key123"}
	if err := cfg.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !loaded.TestnetMode || loaded.Theme != "Monochrome" {
		t.Fatalf("reloaded config = %+v", loaded)
	}
	if loaded.APIKey(APIKeyAlchemy) != "key123" {
		t.Fatalf("api key = %q", loaded.APIKey(APIKeyAlchemy))
	}
	if loaded.APIKey(APIKeyCoinGecko) != "" {
		t.Fatal("missing key should be empty")
	}
}

func TestSetAccount(t *testing.T) {
	useTempDir(t)

	addr := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	if err := SetAccount(addr); err != nil {
		t.Fatalf("set account: %v", err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got, err := cfg.Account()
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if got != addr {
		t.Fatalf("account = %s, want %s", got, addr)
	}
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	dir := useTempDir(t)

	cfg := Config{Theme: "Dark"}
	if err := cfg.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".config.") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "config")); err != nil {
		t.Errorf("config file missing: %v", err)
	}
}

func TestMergeNetworksUserWins(t *testing.T) {
	defaults := []Network{{
		Name:        "mainnet",
		ChainID:     1,
		Symbol:      "ETH",
		RPCURL:      "https://default.example",
		ExplorerURL: "https://etherscan.io/tx/{}",
	}}
	user := []Network{
		{ChainID: 1, RPCURL: "https://mine.example"},
		{Name: "custom", ChainID: 777, Symbol: "XYZ"},
	}

	store := mergeNetworks(defaults, user)
	if len(store.Networks) != 2 {
		t.Fatalf("got %d networks", len(store.Networks))
	}

	main, err := store.ByChainID(1)
	if err != nil {
		t.Fatal(err)
	}
	if main.RPCURL != "https://mine.example" {
		t.Errorf("user rpc url lost: %s", main.RPCURL)
	}
	if main.Name != "mainnet" || main.Symbol != "ETH" {
		t.Errorf("default fields not filled: %+v", main)
	}
	if main.ExplorerURL != "https://etherscan.io/tx/{}" {
		t.Errorf("default explorer lost: %s", main.ExplorerURL)
	}

	if _, err := store.ByChainID(777); err != nil {
		t.Errorf("user-only network missing: %v", err)
	}
}

func TestNetworkRPCFallback(t *testing.T) {
	n := Network{Name: "test", AlchemyRPC: "https://eth.g.alchemy.com/v2/{}"}
	url, err := n.RPC("mykey")
	if err != nil {
		t.Fatal(err)
	}
	if url != "https://eth.g.alchemy.com/v2/mykey" {
		t.Errorf("alchemy url = %s", url)
	}

	if _, err := n.RPC(""); err == nil {
		t.Error("no url and no key should error")
	}

	n.RPCURL = "https://direct.example"
	url, _ = n.RPC("mykey")
	if url != "https://direct.example" {
		t.Errorf("explicit url should win, got %s", url)
	}
}

func TestTxURL(t *testing.T) {
	n := Network{ExplorerURL: "https://etherscan.io/tx/{}"}
	if got := n.TxURL("0xabc"); got != "https://etherscan.io/tx/0xabc" {
		t.Errorf("TxURL = %s", got)
	}
	if (Network{}).TxURL("0xabc") != "" {
		t.Error("no explorer should render empty")
	}
}

func TestAddressBook(t *testing.T) {
	useTempDir(t)

	book, err := LoadAddressBook()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	addr := "0x00000000000000000000000000000000000000cc"
	if err := book.Add("alice", addr); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := book.Add("alice", addr); err == nil {
		t.Fatal("duplicate name accepted")
	}
	if err := book.Add("bob", "not-an-address"); err == nil {
		t.Fatal("invalid address accepted")
	}
	if err := book.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadAddressBook()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := loaded.NameFor(common.HexToAddress(addr)); got != "alice" {
		t.Fatalf("NameFor = %q", got)
	}

	loaded.Remove(0)
	if len(loaded.Entries) != 0 {
		t.Fatalf("remove left %d entries", len(loaded.Entries))
	}
	loaded.Remove(5) // out of range is a no-op
}
