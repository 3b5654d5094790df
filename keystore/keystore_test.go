package keystore

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// well-known throwaway key
const (
	testPrivHex = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testAddrHex = "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"
)

func TestImportLoadSignRoundtrip(t *testing.T) {
	t.Setenv("GM_DATA_DIR", t.TempDir())

	addr, err := ImportHex(testPrivHex, "hunter2")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if addr != common.HexToAddress(testAddrHex) {
		t.Fatalf("imported address = %s, want %s", addr, testAddrHex)
	}

	if _, err := LoadWallet(addr, "wrong"); err == nil {
		t.Fatal("wrong passphrase accepted")
	}

	signer, err := LoadWallet(addr, "hunter2")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if signer.Address() != addr {
		t.Fatalf("signer address = %s", signer.Address())
	}

	message := []byte("gm")
	sig, err := signer.SignPersonal(message)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if len(sig) != 65 {
		t.Fatalf("signature length = %d", len(sig))
	}
	if v := sig[64]; v != 27 && v != 28 {
		t.Fatalf("recovery id = %d, want 27 or 28", v)
	}

	// Recover and compare to the signing address.
	recovery := make([]byte, 65)
	copy(recovery, sig)
	recovery[64] -= 27
	pub, err := crypto.SigToPub(accounts.TextHash(message), recovery)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if crypto.PubkeyToAddress(*pub) != addr {
		t.Fatal("signature does not recover to the signer")
	}
}

func TestImportToleratesMissingPrefix(t *testing.T) {
	t.Setenv("GM_DATA_DIR", t.TempDir())

	addr, err := ImportHex(testPrivHex[2:], "pw")
	if err != nil {
		t.Fatalf("import without 0x: %v", err)
	}
	if addr != common.HexToAddress(testAddrHex) {
		t.Fatalf("address = %s", addr)
	}

	if _, err := ImportHex("zznothex", "pw"); err == nil {
		t.Fatal("garbage key accepted")
	}
}

func TestSignTxProducesValidSignature(t *testing.T) {
	t.Setenv("GM_DATA_DIR", t.TempDir())

	addr, err := ImportHex(testPrivHex, "pw")
	if err != nil {
		t.Fatal(err)
	}
	signer, err := LoadWallet(addr, "pw")
	if err != nil {
		t.Fatal(err)
	}

	chainID := big.NewInt(1)
	to := common.HexToAddress("0x01")
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     7,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(1_000_009_393),
		Gas:       21000,
		To:        &to,
		Value:     big.NewInt(1),
	})
	signed, err := signer.SignTx(tx, chainID)
	if err != nil {
		t.Fatalf("sign tx: %v", err)
	}
	from, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
	if err != nil {
		t.Fatalf("sender: %v", err)
	}
	if from != addr {
		t.Fatalf("sender = %s, want %s", from, addr)
	}
}

func TestList(t *testing.T) {
	t.Setenv("GM_DATA_DIR", t.TempDir())

	addrs, err := List()
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if len(addrs) != 0 {
		t.Fatalf("fresh dir has %d keys", len(addrs))
	}

	addr, err := ImportHex(testPrivHex, "pw")
	if err != nil {
		t.Fatal(err)
	}
	addrs, err = List()
	if err != nil {
		t.Fatal(err)
	}
	if len(addrs) != 1 || addrs[0] != addr {
		t.Fatalf("list = %v", addrs)
	}
}
