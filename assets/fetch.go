package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"gm-tui/config"
	"gm-tui/rpc"
)

// Fetcher loads the asset list for an account across the configured
// networks. With an Alchemy key it uses the indexer API; without one it
// falls back to direct RPC balance reads of the registered token list.
type Fetcher struct {
	Networks   *config.NetworkStore
	AlchemyKey string
	Testnet    bool

	client *http.Client
}

// NewFetcher builds a fetcher over the given network store.
func NewFetcher(networks *config.NetworkStore, alchemyKey string, testnet bool) *Fetcher {
	return &Fetcher{
		Networks:   networks,
		AlchemyKey: alchemyKey,
		Testnet:    testnet,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

// Fetch returns the assets for account on every network matching the
// testnet mode. Per-network failures skip that network; the error is
// non-nil only when every network failed.
func (f *Fetcher) Fetch(ctx context.Context, account common.Address) ([]Asset, error) {
	var out []Asset
	var lastErr error

	for _, network := range f.Networks.Filtered(f.Testnet) {
		list, err := f.fetchNetwork(ctx, account, network)
		if err != nil {
			lastErr = err
			continue
		}
		out = append(out, list...)
	}

	if out == nil && lastErr != nil {
		return nil, fmt.Errorf("assets for %s: %w", account.Hex(), lastErr)
	}
	return out, nil
}

func (f *Fetcher) fetchNetwork(ctx context.Context, account common.Address, network config.Network) ([]Asset, error) {
	if f.AlchemyKey != "" && network.AlchemyName != "" {
		list, err := f.fetchAlchemy(ctx, account, network)
		if err == nil {
			return list, nil
		}
		// fall through to direct RPC on indexer failure
	}
	return f.fetchViaRPC(ctx, account, network)
}

// alchemyTokenBalance mirrors the entries of alchemy_getTokenBalances.
type alchemyTokenBalance struct {
	ContractAddress string `json:"contractAddress"`
	TokenBalance    string `json:"tokenBalance"`
}

// fetchAlchemy loads native + token balances through the Alchemy API. The
// response may omit metadata for unknown tokens; those are surfaced with
// sentinel values rather than dropped.
func (f *Fetcher) fetchAlchemy(ctx context.Context, account common.Address, network config.Network) ([]Asset, error) {
	endpoint := alchemyEndpoint(network, f.AlchemyKey)

	var balanceResult struct {
		TokenBalances []alchemyTokenBalance `json:"tokenBalances"`
	}
	if err := f.alchemyCall(ctx, endpoint, "alchemy_getTokenBalances", []any{account.Hex(), "erc20"}, &balanceResult); err != nil {
		return nil, err
	}

	var nativeHex string
	if err := f.alchemyCall(ctx, endpoint, "eth_getBalance", []any{account.Hex(), "latest"}, &nativeHex); err != nil {
		return nil, err
	}

	assets := []Asset{nativeAsset(account, network, parseHexBig(nativeHex))}

	for _, tb := range balanceResult.TokenBalances {
		balance := parseHexBig(tb.TokenBalance)
		if balance.Sign() == 0 {
			continue
		}
		if !common.IsHexAddress(tb.ContractAddress) {
			continue
		}
		contract := common.HexToAddress(tb.ContractAddress)

		asset := Asset{
			Wallet:      account,
			Token:       Contract(contract),
			NetworkName: network.Name,
			Symbol:      "?",
			Name:        "Unknown token",
			Decimals:    18,
			Balance:     balance,
		}
		// Registered tokens give us trustworthy metadata; for the rest,
		// ask the indexer and tolerate missing fields.
		if t, ok := registeredToken(network, contract); ok {
			asset.Symbol, asset.Name, asset.Decimals = t.Symbol, t.Name, t.Decimals
		} else if meta, err := f.alchemyTokenMetadata(ctx, endpoint, contract); err == nil {
			if meta.Symbol != "" {
				asset.Symbol = meta.Symbol
			}
			if meta.Name != "" {
				asset.Name = meta.Name
			}
			if meta.Decimals > 0 {
				asset.Decimals = uint8(meta.Decimals)
			}
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

type alchemyTokenMeta struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals int    `json:"decimals"`
}

func (f *Fetcher) alchemyTokenMetadata(ctx context.Context, endpoint string, contract common.Address) (alchemyTokenMeta, error) {
	var meta alchemyTokenMeta
	err := f.alchemyCall(ctx, endpoint, "alchemy_getTokenMetadata", []any{contract.Hex()}, &meta)
	return meta, err
}

func (f *Fetcher) alchemyCall(ctx context.Context, endpoint, method string, params []any, result any) error {
	payload, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: status %d", method, resp.StatusCode)
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%s: decode: %w", method, err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("%s: rpc error %d: %s", method, envelope.Error.Code, envelope.Error.Message)
	}
	return json.Unmarshal(envelope.Result, result)
}

// fetchViaRPC reads the native balance and the registered token balances
// directly from the network's RPC endpoint.
func (f *Fetcher) fetchViaRPC(ctx context.Context, account common.Address, network config.Network) ([]Asset, error) {
	client, err := rpc.Connect(network, f.AlchemyKey)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	native, err := client.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: native balance: %w", network.Name, err)
	}
	assets := []Asset{nativeAsset(account, network, native)}

	for _, token := range network.Tokens {
		if !common.IsHexAddress(token.Address) {
			continue
		}
		contract := common.HexToAddress(token.Address)
		balance, err := client.ERC20BalanceOf(ctx, contract, account)
		if err != nil || balance.Sign() == 0 {
			continue
		}
		assets = append(assets, Asset{
			Wallet:      account,
			Token:       Contract(contract),
			NetworkName: network.Name,
			Symbol:      token.Symbol,
			Name:        token.Name,
			Decimals:    token.Decimals,
			Balance:     balance,
		})
	}
	return assets, nil
}

func nativeAsset(account common.Address, network config.Network, balance *big.Int) Asset {
	symbol := network.Symbol
	if symbol == "" {
		symbol = "ETH"
	}
	decimals := network.NativeDecimals
	if decimals == 0 {
		decimals = 18
	}
	return Asset{
		Wallet:      account,
		Token:       Native(),
		NetworkName: network.Name,
		Symbol:      symbol,
		Name:        symbol,
		Decimals:    decimals,
		Balance:     balance,
	}
}

func registeredToken(network config.Network, contract common.Address) (config.Token, bool) {
	for _, t := range network.Tokens {
		if common.IsHexAddress(t.Address) && common.HexToAddress(t.Address) == contract {
			return t, true
		}
	}
	return config.Token{}, false
}

func alchemyEndpoint(network config.Network, key string) string {
	return strings.Replace(network.AlchemyRPC, "{}", key, 1)
}

func parseHexBig(s string) *big.Int {
	v := new(big.Int)
	v.SetString(strings.TrimPrefix(s, "0x"), 16)
	return v
}
