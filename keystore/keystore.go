// Package keystore adapts the encrypted file keystore into the narrow
// signer contract the wallet flows consume: load a wallet by address, store
// a secret for an address. Keys are Web3 Secret Storage JSON files under the
// gm data directory, encrypted with go-ethereum's scrypt parameters.
package keystore

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	gethkeystore "github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/google/uuid"

	"gm-tui/config"
)

// Signer wraps a decrypted private key and exposes the signing operations
// the popups need. Loading may take arbitrarily long (scrypt work factor,
// or a passphrase prompt in front of it); callers run it off the UI task.
type Signer struct {
	addr common.Address
	key  *ecdsa.PrivateKey
}

// Address returns the signer's address.
func (s *Signer) Address() common.Address {
	return s.addr
}

// SignPersonal signs a message per EIP-191 (personal_sign). The returned
// signature has its recovery id shifted to the 27/28 convention dApps
// expect.
func (s *Signer) SignPersonal(message []byte) ([]byte, error) {
	sig, err := crypto.Sign(accounts.TextHash(message), s.key)
	if err != nil {
		return nil, fmt.Errorf("sign message: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// SignTypedData signs EIP-712 typed data (eth_signTypedData_v4).
func (s *Signer) SignTypedData(typedData apitypes.TypedData) ([]byte, error) {
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, fmt.Errorf("hash typed data: %w", err)
	}
	sig, err := crypto.Sign(hash, s.key)
	if err != nil {
		return nil, fmt.Errorf("sign typed data: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// SignTx signs a transaction with the EIP-1559 (London) signer for the
// given chain.
func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return signed, nil
}

func keystoreDir() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	ksDir := filepath.Join(dir, "keystore")
	if err := os.MkdirAll(ksDir, 0o700); err != nil {
		return "", fmt.Errorf("create keystore dir: %w", err)
	}
	return ksDir, nil
}

func keyPath(addr common.Address) (string, error) {
	dir, err := keystoreDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, strings.ToLower(addr.Hex())+".json"), nil
}

// LoadWallet decrypts the stored key for addr. Failure here is never fatal
// to the app; the triggering popup surfaces it and moves on.
func LoadWallet(addr common.Address, passphrase string) (*Signer, error) {
	path, err := keyPath(addr)
	if err != nil {
		return nil, err
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("no key stored for %s: %w", addr.Hex(), err)
	}
	key, err := gethkeystore.DecryptKey(blob, passphrase)
	if err != nil {
		return nil, fmt.Errorf("decrypt key for %s: %w", addr.Hex(), err)
	}
	if key.Address != addr {
		return nil, fmt.Errorf("keystore file for %s contains key for %s", addr.Hex(), key.Address.Hex())
	}
	return &Signer{addr: addr, key: key.PrivateKey}, nil
}

// Store encrypts and writes a private key, returning its address.
func Store(priv *ecdsa.PrivateKey, passphrase string) (common.Address, error) {
	addr := crypto.PubkeyToAddress(priv.PublicKey)
	path, err := keyPath(addr)
	if err != nil {
		return common.Address{}, err
	}
	key := &gethkeystore.Key{
		Id:         uuid.New(),
		Address:    addr,
		PrivateKey: priv,
	}
	blob, err := gethkeystore.EncryptKey(key, passphrase, gethkeystore.StandardScryptN, gethkeystore.StandardScryptP)
	if err != nil {
		return common.Address{}, fmt.Errorf("encrypt key: %w", err)
	}
	if err := os.WriteFile(path, blob, 0o600); err != nil {
		return common.Address{}, fmt.Errorf("write key file: %w", err)
	}
	return addr, nil
}

// ImportHex stores a raw 0x-prefixed private key.
func ImportHex(privHex, passphrase string) (common.Address, error) {
	raw, err := hexutil.Decode(strings.TrimSpace(privHex))
	if err != nil {
		// tolerate a missing 0x prefix
		raw, err = hexutil.Decode("0x" + strings.TrimSpace(privHex))
		if err != nil {
			return common.Address{}, fmt.Errorf("invalid private key hex: %w", err)
		}
	}
	priv, err := crypto.ToECDSA(raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid private key: %w", err)
	}
	return Store(priv, passphrase)
}

// Generate creates a fresh key and stores it.
func Generate(passphrase string) (common.Address, error) {
	priv, err := crypto.GenerateKey()
	if err != nil {
		return common.Address{}, fmt.Errorf("generate key: %w", err)
	}
	return Store(priv, passphrase)
}

// List returns the addresses with stored keys, in file order.
func List() ([]common.Address, error) {
	dir, err := keystoreDir()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read keystore dir: %w", err)
	}
	var addrs []common.Address
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), ".json")
		if common.IsHexAddress(name) {
			addrs = append(addrs, common.HexToAddress(name))
		}
	}
	return addrs, nil
}
