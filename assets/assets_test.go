package assets

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	testAccount = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	usdcAddr    = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
)

func ethAsset(balance int64) Asset {
	return Asset{
		Wallet:      testAccount,
		Token:       Native(),
		NetworkName: "mainnet",
		Symbol:      "ETH",
		Decimals:    18,
		Balance:     big.NewInt(balance),
	}
}

func usdcAsset(balance int64) Asset {
	return Asset{
		Wallet:      testAccount,
		Token:       Contract(usdcAddr),
		NetworkName: "mainnet",
		Symbol:      "USDC",
		Decimals:    6,
		Balance:     big.NewInt(balance),
	}
}

func TestTokenAddressEqual(t *testing.T) {
	if !Native().Equal(Native()) {
		t.Error("native != native")
	}
	if Native().Equal(Contract(usdcAddr)) {
		t.Error("native == contract")
	}
	if !Contract(usdcAddr).Equal(Contract(usdcAddr)) {
		t.Error("same contract not equal")
	}
	other := common.HexToAddress("0x01")
	if Contract(usdcAddr).Equal(Contract(other)) {
		t.Error("different contracts equal")
	}
}

func TestUpdateCarriesVerificationForward(t *testing.T) {
	m := NewManager()
	m.Update(testAccount, []Asset{ethAsset(100), usdcAsset(50)})
	m.SetVerification(testAccount, "mainnet", Native(), VerificationVerified)
	m.SetVerification(testAccount, "mainnet", Contract(usdcAddr), VerificationVerified)

	// Same ETH balance, changed USDC balance.
	m.Update(testAccount, []Asset{ethAsset(100), usdcAsset(75)})

	list := m.Get(testAccount)
	if len(list) != 2 {
		t.Fatalf("got %d assets", len(list))
	}
	for _, a := range list {
		switch a.Symbol {
		case "ETH":
			if a.Verification != VerificationVerified {
				t.Errorf("unchanged ETH balance lost verification: %s", a.Verification)
			}
		case "USDC":
			if a.Verification != VerificationPending {
				t.Errorf("changed USDC balance kept verification: %s", a.Verification)
			}
		}
	}
}

func TestUpdateNewAssetStartsPending(t *testing.T) {
	m := NewManager()
	m.Update(testAccount, []Asset{ethAsset(100)})
	m.Update(testAccount, []Asset{ethAsset(100), usdcAsset(50)})

	for _, a := range m.Get(testAccount) {
		if a.Symbol == "USDC" && a.Verification != VerificationPending {
			t.Errorf("new asset verification = %s, want pending", a.Verification)
		}
	}
}

func TestClearDropsCarriedVerification(t *testing.T) {
	m := NewManager()
	m.Update(testAccount, []Asset{ethAsset(100)})
	m.SetVerification(testAccount, "mainnet", Native(), VerificationVerified)

	m.Clear(testAccount)
	if m.Get(testAccount) != nil {
		t.Fatal("cleared account still has cached assets")
	}

	// Refetching the same balance after a clear must re-verify.
	m.Update(testAccount, []Asset{ethAsset(100)})
	if got := m.Get(testAccount)[0].Verification; got != VerificationPending {
		t.Errorf("verification after clear = %s, want pending", got)
	}
}

func TestSetVerificationIsPointUpdate(t *testing.T) {
	m := NewManager()
	m.Update(testAccount, []Asset{ethAsset(1), usdcAsset(2)})
	m.SetVerification(testAccount, "mainnet", Contract(usdcAddr), VerificationRejected)

	for _, a := range m.Get(testAccount) {
		want := VerificationPending
		if a.Symbol == "USDC" {
			want = VerificationRejected
		}
		if a.Verification != want {
			t.Errorf("%s verification = %s, want %s", a.Symbol, a.Verification, want)
		}
	}
}

func TestGetReturnsCopy(t *testing.T) {
	m := NewManager()
	m.Update(testAccount, []Asset{ethAsset(1)})

	list := m.Get(testAccount)
	list[0].Verification = VerificationRejected

	if m.Get(testAccount)[0].Verification != VerificationPending {
		t.Error("mutating the returned slice leaked into the manager")
	}
	if m.Get(common.Address{}) != nil {
		t.Error("unknown account should return nil")
	}
}

func TestApplyPrices(t *testing.T) {
	m := NewManager()
	m.Update(testAccount, []Asset{ethAsset(2e18), usdcAsset(5e6)})

	prices := NewPriceManager()
	prices.store("ETH", Price{Kind: PriceUSD, Value: 2000})

	m.ApplyPrices(testAccount, prices)
	for _, a := range m.Get(testAccount) {
		switch a.Symbol {
		case "ETH":
			if a.Price.Kind != PriceUSD {
				t.Errorf("ETH price kind = %v", a.Price.Kind)
			}
			usd, ok := a.Price.USDValue(a.FloatBalance())
			if !ok || usd != 4000 {
				t.Errorf("ETH usd value = %v ok=%v, want 4000", usd, ok)
			}
		case "USDC":
			if a.Price.Kind != PriceUnknown {
				t.Errorf("unquoted asset price kind = %v, want unknown", a.Price.Kind)
			}
		}
	}
}

func TestFloatBalance(t *testing.T) {
	a := usdcAsset(1_500_000)
	if got := a.FloatBalance(); got != 1.5 {
		t.Errorf("FloatBalance = %v, want 1.5", got)
	}
	empty := Asset{Decimals: 18}
	if empty.FloatBalance() != 0 {
		t.Error("nil balance should be 0")
	}
}
