package walletconnect

import (
	"bytes"
	"context"
	"crypto/ed25519"
	cryptorand "crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"time"
)

// Relay talks JSON-RPC over HTTPS to a WalletConnect relay. Messages are
// published and fetched per topic; delivery is polled, not pushed.
type Relay struct {
	RPCURL      string
	AudienceURL string
	ProjectID   string

	client *http.Client
	key    ed25519.PrivateKey
	nonce  string
}

// NewRelay builds a relay client. The client seed deterministically derives
// the ed25519 identity the relay's auth token is signed with.
func NewRelay(rpcURL, audienceURL, projectID string, clientSeed [32]byte) *Relay {
	var nonce [32]byte
	cryptorand.Read(nonce[:])
	return &Relay{
		RPCURL:      rpcURL,
		AudienceURL: audienceURL,
		ProjectID:   projectID,
		client:      &http.Client{Timeout: 30 * time.Second},
		key:         ed25519.NewKeyFromSeed(clientSeed[:]),
		nonce:       hex.EncodeToString(nonce[:]),
	}
}

// RelayedMessage is one envelope fetched from a topic.
type RelayedMessage struct {
	Topic       string `json:"topic"`
	Message     string `json:"message"`
	Tag         int    `json:"tag"`
	PublishedAt int64  `json:"publishedAt"`
}

// Publish sends an envelope to a topic with the given tag and ttl seconds.
func (r *Relay) Publish(ctx context.Context, topic, message string, tag IrnTag, ttl int) error {
	params := map[string]any{
		"topic":   topic,
		"message": message,
		"ttl":     ttl,
		"tag":     int(tag),
		"prompt":  false,
	}
	var ack bool
	if err := r.call(ctx, "irn_publish", params, &ack); err != nil {
		return fmt.Errorf("irn_publish on %s: %w", topic, err)
	}
	return nil
}

// FetchMessages drains the mailbox of a topic. An empty slice means nothing
// arrived since the last fetch.
func (r *Relay) FetchMessages(ctx context.Context, topic string) ([]RelayedMessage, error) {
	var messages []RelayedMessage
	for {
		var result struct {
			Messages []RelayedMessage `json:"messages"`
			HasMore  bool             `json:"hasMore"`
		}
		params := map[string]any{"topic": topic}
		if err := r.call(ctx, "irn_fetchMessages", params, &result); err != nil {
			return nil, fmt.Errorf("irn_fetchMessages on %s: %w", topic, err)
		}
		messages = append(messages, result.Messages...)
		if !result.HasMore {
			return messages, nil
		}
	}
}

func (r *Relay) call(ctx context.Context, method string, params, result any) error {
	payload, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      newRequestID(),
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return err
	}

	auth, err := r.authToken()
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s?projectId=%s&auth=%s", r.RPCURL, url.QueryEscape(r.ProjectID), url.QueryEscape(auth))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("relay status %d", resp.StatusCode)
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *RPCError       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("relay decode: %w", err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("relay error %d: %s", envelope.Error.Code, envelope.Error.Message)
	}
	if result == nil {
		return nil
	}
	return json.Unmarshal(envelope.Result, result)
}

// authToken signs a short-lived EdDSA JWT whose issuer is the did:key of
// the relay client identity.
func (r *Relay) authToken() (string, error) {
	now := time.Now()
	header := map[string]string{"alg": "EdDSA", "typ": "JWT"}
	claims := map[string]any{
		"iss": didKey(r.key.Public().(ed25519.PublicKey)),
		"sub": r.nonce,
		"aud": r.AudienceURL,
		"iat": now.Unix(),
		"exp": now.Add(24 * time.Hour).Unix(),
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", err
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	signing := base64.RawURLEncoding.EncodeToString(headerJSON) + "." + base64.RawURLEncoding.EncodeToString(claimsJSON)
	sig := ed25519.Sign(r.key, []byte(signing))
	return signing + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// didKey renders an ed25519 public key as did:key with the multicodec
// prefix 0xed01 in base58btc.
func didKey(pub ed25519.PublicKey) string {
	prefixed := append([]byte{0xed, 0x01}, pub...)
	return "did:key:z" + base58Encode(prefixed)
}

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

func base58Encode(input []byte) string {
	x := new(big.Int).SetBytes(input)
	radix := big.NewInt(58)
	mod := new(big.Int)

	var out []byte
	for x.Sign() > 0 {
		x.DivMod(x, radix, mod)
		out = append(out, base58Alphabet[mod.Int64()])
	}
	for _, b := range input {
		if b != 0 {
			break
		}
		out = append(out, base58Alphabet[0])
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}
