package walletconnect

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

// SymKey is a 32-byte symmetric key for sealing relay envelopes.
type SymKey [32]byte

func (k SymKey) Hex() string { return hex.EncodeToString(k[:]) }

// DerivedTopic returns the relay topic a key maps to, sha256 of the key.
func DerivedTopic(key SymKey) string {
	sum := sha256.Sum256(key[:])
	return hex.EncodeToString(sum[:])
}

const envelopeType0 = 0

// Seal encrypts a plaintext into a base64 type-0 envelope:
// one type byte, a random 12-byte nonce, then the ChaCha20-Poly1305
// ciphertext.
func Seal(key SymKey, plaintext []byte) (string, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	envelope := make([]byte, 0, 1+len(nonce)+len(plaintext)+aead.Overhead())
	envelope = append(envelope, envelopeType0)
	envelope = append(envelope, nonce...)
	envelope = aead.Seal(envelope, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(envelope), nil
}

// Open decrypts a base64 type-0 envelope sealed with key.
func Open(key SymKey, message string) ([]byte, error) {
	envelope, err := base64.StdEncoding.DecodeString(message)
	if err != nil {
		return nil, fmt.Errorf("envelope base64: %w", err)
	}
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, err
	}
	if len(envelope) < 1+aead.NonceSize()+aead.Overhead() {
		return nil, fmt.Errorf("envelope too short (%d bytes)", len(envelope))
	}
	if envelope[0] != envelopeType0 {
		return nil, fmt.Errorf("unsupported envelope type %d", envelope[0])
	}
	nonce := envelope[1 : 1+aead.NonceSize()]
	ciphertext := envelope[1+aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("envelope open: %w", err)
	}
	return plaintext, nil
}

// Keypair is an X25519 keypair used to agree on a session key with the
// dapp's proposer key.
type Keypair struct {
	Private [32]byte
	Public  [32]byte
}

func (kp Keypair) PublicHex() string { return hex.EncodeToString(kp.Public[:]) }

func GenerateKeypair() (Keypair, error) {
	var kp Keypair
	if _, err := rand.Read(kp.Private[:]); err != nil {
		return Keypair{}, err
	}
	pub, err := curve25519.X25519(kp.Private[:], curve25519.Basepoint)
	if err != nil {
		return Keypair{}, err
	}
	copy(kp.Public[:], pub)
	return kp, nil
}

// SessionKey runs X25519 against the peer's public key and expands the
// shared secret through HKDF-SHA256 into the session symmetric key.
func SessionKey(self Keypair, peerPublicHex string) (SymKey, error) {
	peer, err := hex.DecodeString(peerPublicHex)
	if err != nil {
		return SymKey{}, fmt.Errorf("peer public key: %w", err)
	}
	if len(peer) != 32 {
		return SymKey{}, fmt.Errorf("peer public key is %d bytes, want 32", len(peer))
	}
	shared, err := curve25519.X25519(self.Private[:], peer)
	if err != nil {
		return SymKey{}, err
	}
	var key SymKey
	reader := hkdf.New(sha256.New, shared, nil, nil)
	if _, err := io.ReadFull(reader, key[:]); err != nil {
		return SymKey{}, err
	}
	return key, nil
}
