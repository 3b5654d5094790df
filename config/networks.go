package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Token is an ERC-20 entry registered on a network.
type Token struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name,omitempty"`
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
}

// Network describes one EVM network. RPCURL and ExplorerURL are optional;
// AlchemyRPC is a template with "{}" standing for the API key.
type Network struct {
	Name           string  `json:"name"`
	ChainID        uint64  `json:"chain_id"`
	Symbol         string  `json:"symbol,omitempty"`
	NativeDecimals uint8   `json:"native_decimals,omitempty"`
	RPCURL         string  `json:"rpc_url,omitempty"`
	AlchemyRPC     string  `json:"rpc_alchemy,omitempty"`
	AlchemyName    string  `json:"name_alchemy,omitempty"`
	ExplorerURL    string  `json:"explorer_url,omitempty"`
	Testnet        bool    `json:"testnet"`
	Tokens         []Token `json:"tokens,omitempty"`
}

// RPC returns the endpoint to dial, preferring the user-set URL and falling
// back to the Alchemy template with the configured key.
func (n Network) RPC(alchemyKey string) (string, error) {
	if n.RPCURL != "" {
		return n.RPCURL, nil
	}
	if n.AlchemyRPC != "" && alchemyKey != "" {
		return strings.Replace(n.AlchemyRPC, "{}", alchemyKey, 1), nil
	}
	return "", fmt.Errorf("network %s: no RPC URL configured", n.Name)
}

// TxURL formats the block-explorer link for a transaction hash, or empty
// when the network has no explorer template.
func (n Network) TxURL(txHash string) string {
	if n.ExplorerURL == "" {
		return ""
	}
	return strings.Replace(n.ExplorerURL, "{}", txHash, 1)
}

func (n Network) String() string {
	return fmt.Sprintf("%s (chain_id: %d)", n.Name, n.ChainID)
}

// NetworkStore holds the ordered network list: hard-coded defaults merged
// with the user's networks file. User fields win; defaults fill gaps.
type NetworkStore struct {
	Networks []Network `json:"networks"`
}

func networksPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "networks"), nil
}

// LoadNetworks reads the networks file and merges it over the defaults.
func LoadNetworks() (*NetworkStore, error) {
	path, err := networksPath()
	if err != nil {
		return nil, err
	}
	var user NetworkStore
	if _, err := readJSON(path, &user); err != nil {
		return nil, err
	}
	return mergeNetworks(defaultNetworks(), user.Networks), nil
}

// Save writes the user's network list atomically. Defaults are not written
// back; only entries the user touched belong on disk, but writing the full
// merged set is harmless since the merge is idempotent.
func (s *NetworkStore) Save() error {
	path, err := networksPath()
	if err != nil {
		return err
	}
	return writeJSON(path, s)
}

// mergeNetworks overlays user entries on defaults keyed by chain id. For a
// chain present in both, empty user fields are filled from the default.
func mergeNetworks(defaults, user []Network) *NetworkStore {
	byID := make(map[uint64]Network, len(defaults))
	for _, n := range defaults {
		byID[n.ChainID] = n
	}
	for _, u := range user {
		d, known := byID[u.ChainID]
		if !known {
			byID[u.ChainID] = u
			continue
		}
		if u.Name == "" {
			u.Name = d.Name
		}
		if u.Symbol == "" {
			u.Symbol = d.Symbol
		}
		if u.NativeDecimals == 0 {
			u.NativeDecimals = d.NativeDecimals
		}
		if u.RPCURL == "" {
			u.RPCURL = d.RPCURL
		}
		if u.AlchemyRPC == "" {
			u.AlchemyRPC = d.AlchemyRPC
		}
		if u.AlchemyName == "" {
			u.AlchemyName = d.AlchemyName
		}
		if u.ExplorerURL == "" {
			u.ExplorerURL = d.ExplorerURL
		}
		if len(u.Tokens) == 0 {
			u.Tokens = d.Tokens
		}
		byID[u.ChainID] = u
	}

	out := make([]Network, 0, len(byID))
	for _, n := range byID {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChainID < out[j].ChainID })
	return &NetworkStore{Networks: out}
}

// ByChainID finds a network by chain id.
func (s *NetworkStore) ByChainID(chainID uint64) (Network, error) {
	for _, n := range s.Networks {
		if n.ChainID == chainID {
			return n, nil
		}
	}
	return Network{}, fmt.Errorf("unknown chain id %d", chainID)
}

// ByName finds a network by name, case-insensitively.
func (s *NetworkStore) ByName(name string) (Network, error) {
	for _, n := range s.Networks {
		if strings.EqualFold(n.Name, name) {
			return n, nil
		}
	}
	return Network{}, fmt.Errorf("unknown network %q", name)
}

// Upsert replaces the entry with the same chain id, or appends.
func (s *NetworkStore) Upsert(n Network) {
	for i := range s.Networks {
		if s.Networks[i].ChainID == n.ChainID {
			s.Networks[i] = n
			return
		}
	}
	s.Networks = append(s.Networks, n)
}

// Filtered returns networks matching the testnet mode.
func (s *NetworkStore) Filtered(testnet bool) []Network {
	var out []Network
	for _, n := range s.Networks {
		if n.Testnet == testnet {
			out = append(out, n)
		}
	}
	return out
}

func defaultNetworks() []Network {
	return []Network{
		{
			Name:           "Ethereum",
			ChainID:        1,
			Symbol:         "ETH",
			NativeDecimals: 18,
			AlchemyRPC:     "https://eth-mainnet.g.alchemy.com/v2/{}",
			AlchemyName:    "eth-mainnet",
			RPCURL:         "https://ethereum-rpc.publicnode.com",
			ExplorerURL:    "https://etherscan.io/tx/{}",
			Tokens: []Token{
				{Symbol: "WETH", Name: "Wrapped Ether", Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Decimals: 18},
				{Symbol: "USDC", Name: "USD Coin", Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Decimals: 6},
				{Symbol: "USDT", Name: "Tether USD", Address: "0xdAC17F958D2ee523a2206206994597C13D831ec7", Decimals: 6},
				{Symbol: "DAI", Name: "Dai Stablecoin", Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F", Decimals: 18},
			},
		},
		{
			Name:           "Arbitrum",
			ChainID:        42161,
			Symbol:         "ETH",
			NativeDecimals: 18,
			AlchemyRPC:     "https://arb-mainnet.g.alchemy.com/v2/{}",
			AlchemyName:    "arb-mainnet",
			RPCURL:         "https://arbitrum-one-rpc.publicnode.com",
			ExplorerURL:    "https://arbiscan.io/tx/{}",
			Tokens: []Token{
				{Symbol: "USDC", Name: "USD Coin", Address: "0xaf88d065e77c8cC2239327C5EDb3A432268e5831", Decimals: 6},
			},
		},
		{
			Name:           "Optimism",
			ChainID:        10,
			Symbol:         "ETH",
			NativeDecimals: 18,
			AlchemyRPC:     "https://opt-mainnet.g.alchemy.com/v2/{}",
			AlchemyName:    "opt-mainnet",
			RPCURL:         "https://optimism-rpc.publicnode.com",
			ExplorerURL:    "https://optimistic.etherscan.io/tx/{}",
		},
		{
			Name:           "Base",
			ChainID:        8453,
			Symbol:         "ETH",
			NativeDecimals: 18,
			AlchemyRPC:     "https://base-mainnet.g.alchemy.com/v2/{}",
			AlchemyName:    "base-mainnet",
			RPCURL:         "https://base-rpc.publicnode.com",
			ExplorerURL:    "https://basescan.org/tx/{}",
			Tokens: []Token{
				{Symbol: "USDC", Name: "USD Coin", Address: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Decimals: 6},
			},
		},
		{
			Name:           "Sepolia",
			ChainID:        11155111,
			Symbol:         "ETH",
			NativeDecimals: 18,
			AlchemyRPC:     "https://eth-sepolia.g.alchemy.com/v2/{}",
			AlchemyName:    "eth-sepolia",
			RPCURL:         "https://ethereum-sepolia-rpc.publicnode.com",
			ExplorerURL:    "https://sepolia.etherscan.io/tx/{}",
			Testnet:        true,
		},
		{
			Name:           "Base Sepolia",
			ChainID:        84532,
			Symbol:         "ETH",
			NativeDecimals: 18,
			AlchemyRPC:     "https://base-sepolia.g.alchemy.com/v2/{}",
			AlchemyName:    "base-sepolia",
			RPCURL:         "https://base-sepolia-rpc.publicnode.com",
			ExplorerURL:    "https://sepolia.basescan.org/tx/{}",
			Testnet:        true,
		},
	}
}
