// Package assets tracks token balances, their prices, and the background
// verification status of each balance across accounts and networks.
package assets

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"gm-tui/helpers"
)

// TokenAddress identifies the asset on its network: the native coin or an
// ERC-20 contract.
type TokenAddress struct {
	Contract *common.Address // nil means native
}

// Native is the token address of the chain's native coin.
func Native() TokenAddress { return TokenAddress{} }

// Contract wraps an ERC-20 address.
func Contract(addr common.Address) TokenAddress { return TokenAddress{Contract: &addr} }

func (t TokenAddress) IsNative() bool { return t.Contract == nil }

func (t TokenAddress) Equal(o TokenAddress) bool {
	if t.Contract == nil || o.Contract == nil {
		return t.Contract == nil && o.Contract == nil
	}
	return *t.Contract == *o.Contract
}

func (t TokenAddress) String() string {
	if t.Contract == nil {
		return "native"
	}
	return t.Contract.Hex()
}

// PriceKind discriminates Price values.
type PriceKind int

const (
	PricePending PriceKind = iota
	PriceUnknown
	PriceUSD
	PriceETH
)

// Price is the last known quote for an asset. Sentinels cover tokens the
// providers do not know.
type Price struct {
	Kind  PriceKind
	Value float64
}

// USDValue resolves the asset's dollar value when a USD quote is known.
func (p Price) USDValue(amount float64) (float64, bool) {
	if p.Kind != PriceUSD {
		return 0, false
	}
	return amount * p.Value, true
}

// Verification is the independent balance-check status of an asset.
type Verification int

const (
	VerificationPending Verification = iota
	VerificationVerified
	VerificationRejected
)

func (v Verification) String() string {
	switch v {
	case VerificationVerified:
		return "verified"
	case VerificationRejected:
		return "REJECTED"
	default:
		return "pending"
	}
}

// Asset is one balance of one token on one network for one wallet.
type Asset struct {
	Wallet       common.Address
	Token        TokenAddress
	NetworkName  string
	Symbol       string
	Name         string
	Decimals     uint8
	Balance      *big.Int
	Price        Price
	Verification Verification
}

// FormattedBalance renders the balance in display units.
func (a Asset) FormattedBalance() string {
	return helpers.FormatUnits(a.Balance, a.Decimals)
}

// FloatBalance converts the raw balance to display units as a float.
func (a Asset) FloatBalance() float64 {
	if a.Balance == nil {
		return 0
	}
	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(a.Decimals)), nil))
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(a.Balance), divisor).Float64()
	return f
}

func balancesEqual(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Cmp(b) == 0
}

// Manager holds the per-account asset lists. It is shared between the main
// task and the verifier task, so all access goes through the lock.
type Manager struct {
	mu     sync.RWMutex
	assets map[common.Address][]Asset
}

// NewManager returns an empty manager.
func NewManager() *Manager {
	return &Manager{assets: make(map[common.Address][]Asset)}
}

// Get returns a copy of the account's asset list, or nil when no refresh
// has completed yet.
func (m *Manager) Get(account common.Address) []Asset {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list, ok := m.assets[account]
	if !ok {
		return nil
	}
	out := make([]Asset, len(list))
	copy(out, list)
	return out
}

// Update replaces the account's asset list. Verification status is carried
// forward from the previous list only for assets whose balance is
// unchanged; everything else goes back to pending.
func (m *Manager) Update(account common.Address, incoming []Asset) {
	m.mu.Lock()
	defer m.mu.Unlock()

	old := m.assets[account]
	for i := range incoming {
		incoming[i].Verification = VerificationPending
		for _, prev := range old {
			if prev.Token.Equal(incoming[i].Token) && prev.NetworkName == incoming[i].NetworkName {
				if balancesEqual(prev.Balance, incoming[i].Balance) {
					incoming[i].Verification = prev.Verification
				}
				break
			}
		}
	}
	m.assets[account] = incoming
}

// SetVerification applies a point update keyed by (account, network, token).
func (m *Manager) SetVerification(account common.Address, network string, token TokenAddress, status Verification) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.assets[account]
	for i := range list {
		if list[i].NetworkName == network && list[i].Token.Equal(token) {
			list[i].Verification = status
		}
	}
}

// Clear drops the cached assets for an account so the next refresh cycle
// repopulates them.
func (m *Manager) Clear(account common.Address) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.assets, account)
}

// ApplyPrices stamps the latest quotes onto an account's assets.
func (m *Manager) ApplyPrices(account common.Address, prices *PriceManager) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.assets[account]
	for i := range list {
		if p, ok := prices.Quote(list[i].Symbol); ok {
			list[i].Price = p
		} else if list[i].Price.Kind == PricePending {
			list[i].Price = Price{Kind: PriceUnknown}
		}
	}
}
