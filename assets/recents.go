package assets

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"gm-tui/config"
)

// RecentAddresses returns the addresses the account has recently sent to,
// most recent first, deduplicated. It needs the Alchemy transfer index and
// returns an empty list when no key or indexed network is available.
func (f *Fetcher) RecentAddresses(ctx context.Context, account common.Address, limit int) ([]common.Address, error) {
	if f.AlchemyKey == "" {
		return nil, nil
	}
	network, ok := f.indexedNetwork()
	if !ok {
		return nil, nil
	}
	endpoint := alchemyEndpoint(network, f.AlchemyKey)

	var result struct {
		Transfers []struct {
			To string `json:"to"`
		} `json:"transfers"`
	}
	params := []any{map[string]any{
		"fromAddress": account.Hex(),
		"category":    []string{"external", "erc20"},
		"order":       "desc",
		"maxCount":    "0x64",
	}}
	if err := f.alchemyCall(ctx, endpoint, "alchemy_getAssetTransfers", params, &result); err != nil {
		return nil, err
	}

	seen := make(map[common.Address]bool)
	var out []common.Address
	for _, t := range result.Transfers {
		if !common.IsHexAddress(t.To) {
			continue
		}
		addr := common.HexToAddress(t.To)
		if addr == account || seen[addr] {
			continue
		}
		seen[addr] = true
		out = append(out, addr)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *Fetcher) indexedNetwork() (config.Network, bool) {
	for _, n := range f.Networks.Filtered(f.Testnet) {
		if n.AlchemyRPC != "" {
			return n, true
		}
	}
	return config.Network{}, false
}
