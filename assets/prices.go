package assets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// PriceManager caches spot prices per ticker symbol. Quotes come from two
// independent providers; a quote from either is good enough, and a connect
// failure from both is the signal that we are offline.
type PriceManager struct {
	mu     sync.RWMutex
	quotes map[string]Price
	apiKey string

	client *http.Client
}

// NewPriceManager returns a manager with an empty cache.
func NewPriceManager() *PriceManager {
	return &PriceManager{
		quotes: make(map[string]Price),
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// SetCoinGeckoKey configures the optional CoinGecko demo API key. Without
// it the public rate limits apply.
func (p *PriceManager) SetCoinGeckoKey(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.apiKey = key
}

func (p *PriceManager) coinGeckoKey() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.apiKey
}

// Quote returns the cached price for a ticker.
func (p *PriceManager) Quote(symbol string) (Price, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	q, ok := p.quotes[strings.ToUpper(symbol)]
	return q, ok
}

func (p *PriceManager) store(symbol string, price Price) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quotes[strings.ToUpper(symbol)] = price
}

// ErrOffline marks a refresh failure caused by loss of connectivity rather
// than a provider rejecting us.
var ErrOffline = errors.New("price providers unreachable")

func isConnectError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// Refresh fetches spot prices for the given symbols. It succeeds if any
// provider yields any quote; it returns ErrOffline only when every provider
// failed to connect.
func (p *PriceManager) Refresh(ctx context.Context, symbols []string) error {
	var gotAny bool
	var connectErr error

	for _, symbol := range symbols {
		price, err := p.fetchBinance(ctx, symbol)
		if err == nil {
			p.store(symbol, price)
			gotAny = true
			continue
		}
		if isConnectError(err) {
			connectErr = err
		}

		price, err = p.fetchCoinGecko(ctx, symbol)
		if err == nil {
			p.store(symbol, price)
			gotAny = true
			continue
		}
		if isConnectError(err) {
			connectErr = err
		} else {
			// Both providers answered but neither knows the token.
			p.store(symbol, Price{Kind: PriceUnknown})
		}
	}

	if !gotAny && connectErr != nil {
		return fmt.Errorf("%w: %v", ErrOffline, connectErr)
	}
	return nil
}

// fetchBinance queries the Binance spot ticker for SYMBOLUSDT.
func (p *PriceManager) fetchBinance(ctx context.Context, symbol string) (Price, error) {
	pair := strings.ToUpper(symbol) + "USDT"
	if strings.ToUpper(symbol) == "USDT" {
		return Price{Kind: PriceUSD, Value: 1}, nil
	}
	u := "https://api.binance.com/api/v3/ticker/price?symbol=" + url.QueryEscape(pair)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Price{}, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return Price{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Price{}, fmt.Errorf("binance: status %d for %s", resp.StatusCode, pair)
	}

	var body struct {
		Price string `json:"price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Price{}, fmt.Errorf("binance: decode: %w", err)
	}
	v, err := strconv.ParseFloat(body.Price, 64)
	if err != nil {
		return Price{}, fmt.Errorf("binance: bad price %q: %w", body.Price, err)
	}
	return Price{Kind: PriceUSD, Value: v}, nil
}

var coinGeckoIDs = map[string]string{
	"ETH":  "ethereum",
	"WETH": "weth",
	"USDC": "usd-coin",
	"USDT": "tether",
	"DAI":  "dai",
	"POL":  "polygon-ecosystem-token",
}

// fetchCoinGecko queries the CoinGecko simple-price API for known tickers.
func (p *PriceManager) fetchCoinGecko(ctx context.Context, symbol string) (Price, error) {
	id, ok := coinGeckoIDs[strings.ToUpper(symbol)]
	if !ok {
		return Price{}, fmt.Errorf("coingecko: no id for %s", symbol)
	}
	u := "https://api.coingecko.com/api/v3/simple/price?vs_currencies=usd&ids=" + url.QueryEscape(id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Price{}, err
	}
	if key := p.coinGeckoKey(); key != "" {
		req.Header.Set("x-cg-demo-api-key", key)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return Price{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Price{}, fmt.Errorf("coingecko: status %d for %s", resp.StatusCode, id)
	}

	var body map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Price{}, fmt.Errorf("coingecko: decode: %w", err)
	}
	entry, ok := body[id]
	if !ok {
		return Price{}, fmt.Errorf("coingecko: %s missing from response", id)
	}
	return Price{Kind: PriceUSD, Value: entry.USD}, nil
}
