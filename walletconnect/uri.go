package walletconnect

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// PairingURI is the parsed form of a "wc:" pairing link as shown by a dapp.
type PairingURI struct {
	Topic         string
	Version       int
	SymKey        SymKey
	RelayProtocol string
	Expiry        int64
}

// ParseURI parses a WalletConnect v2 pairing URI of the form
// wc:{topic}@{version}?relay-protocol=irn&symKey={hex}.
func ParseURI(raw string) (PairingURI, error) {
	raw = strings.TrimSpace(raw)
	rest, ok := strings.CutPrefix(raw, "wc:")
	if !ok {
		return PairingURI{}, fmt.Errorf("pairing uri must start with wc:")
	}

	head, query, _ := strings.Cut(rest, "?")
	topic, versionStr, ok := strings.Cut(head, "@")
	if !ok || topic == "" {
		return PairingURI{}, fmt.Errorf("pairing uri missing topic@version")
	}
	version, err := strconv.Atoi(versionStr)
	if err != nil {
		return PairingURI{}, fmt.Errorf("pairing uri version %q: %w", versionStr, err)
	}
	if version != 2 {
		return PairingURI{}, fmt.Errorf("unsupported pairing version %d", version)
	}

	values, err := url.ParseQuery(query)
	if err != nil {
		return PairingURI{}, fmt.Errorf("pairing uri query: %w", err)
	}

	keyHex := values.Get("symKey")
	if keyHex == "" {
		return PairingURI{}, fmt.Errorf("pairing uri missing symKey")
	}
	keyBytes, err := hex.DecodeString(keyHex)
	if err != nil {
		return PairingURI{}, fmt.Errorf("pairing uri symKey: %w", err)
	}
	var key SymKey
	if len(keyBytes) != len(key) {
		return PairingURI{}, fmt.Errorf("pairing uri symKey is %d bytes, want %d", len(keyBytes), len(key))
	}
	copy(key[:], keyBytes)

	uri := PairingURI{
		Topic:         topic,
		Version:       version,
		SymKey:        key,
		RelayProtocol: values.Get("relay-protocol"),
	}
	if uri.RelayProtocol == "" {
		uri.RelayProtocol = "irn"
	}
	if exp := values.Get("expiryTimestamp"); exp != "" {
		uri.Expiry, _ = strconv.ParseInt(exp, 10, 64)
	}
	return uri, nil
}
