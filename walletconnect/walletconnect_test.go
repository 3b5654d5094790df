package walletconnect

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseURI(t *testing.T) {
	key := strings.Repeat("ab", 32)
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		topic   string
	}{
		{
			name:  "full uri",
			raw:   "wc:1d8f2a@2?relay-protocol=irn&symKey=" + key + "&expiryTimestamp=1700000000",
			topic: "1d8f2a",
		},
		{
			name:  "no relay protocol defaults to irn",
			raw:   "wc:deadbeef@2?symKey=" + key,
			topic: "deadbeef",
		},
		{name: "missing scheme", raw: "1d8f2a@2?symKey=" + key, wantErr: true},
		{name: "version 1", raw: "wc:1d8f2a@1?symKey=" + key, wantErr: true},
		{name: "missing symKey", raw: "wc:1d8f2a@2?relay-protocol=irn", wantErr: true},
		{name: "short symKey", raw: "wc:1d8f2a@2?symKey=abcd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uri, err := ParseURI(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseURI(%q) expected error", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseURI(%q): %v", tt.raw, err)
			}
			if uri.Topic != tt.topic {
				t.Errorf("topic = %q, want %q", uri.Topic, tt.topic)
			}
			if uri.RelayProtocol != "irn" {
				t.Errorf("relay protocol = %q, want irn", uri.RelayProtocol)
			}
		})
	}
}

func TestSealOpenRoundtrip(t *testing.T) {
	var key SymKey
	for i := range key {
		key[i] = byte(i)
	}
	plaintext := []byte(`{"id":1,"jsonrpc":"2.0","method":"wc_sessionPing","params":{}}`)

	sealed, err := Seal(key, plaintext)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	opened, err := Open(key, sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Errorf("roundtrip mismatch: %q", opened)
	}

	var wrong SymKey
	wrong[0] = 0xff
	if _, err := Open(wrong, sealed); err == nil {
		t.Error("Open with wrong key should fail")
	}
}

func TestSessionKeyAgreement(t *testing.T) {
	wallet, err := GenerateKeypair()
	if err != nil {
		t.Fatal(err)
	}
	dapp, err := GenerateKeypair()
	if err != nil {
		t.Fatal(err)
	}

	fromWallet, err := SessionKey(wallet, dapp.PublicHex())
	if err != nil {
		t.Fatalf("wallet side: %v", err)
	}
	fromDapp, err := SessionKey(dapp, wallet.PublicHex())
	if err != nil {
		t.Fatalf("dapp side: %v", err)
	}
	if fromWallet != fromDapp {
		t.Error("both sides must derive the same session key")
	}
	if len(DerivedTopic(fromWallet)) != 64 {
		t.Errorf("derived topic = %q, want 64 hex chars", DerivedTopic(fromWallet))
	}
}

func TestCreateResponseKeepsIDAndTopic(t *testing.T) {
	req := &Message{
		Topic:  "abc123",
		ID:     1700000000123456789,
		Method: MethodSessionRequest,
		Params: json.RawMessage(`{"chainId":"eip155:1","request":{"method":"personal_sign","params":[]}}`),
	}

	resp, err := req.CreateResponse("0xsignature")
	if err != nil {
		t.Fatal(err)
	}
	if resp.ID != req.ID {
		t.Errorf("response id = %d, want %d", resp.ID, req.ID)
	}
	if resp.Topic != req.Topic {
		t.Errorf("response topic = %q, want %q", resp.Topic, req.Topic)
	}
	if resp.IsRequest() {
		t.Error("response must not carry a method")
	}

	rejection := req.CreateErrorResponse(ErrCodeUserRejected, "User denied tx signing", nil)
	if rejection.ID != req.ID || rejection.Topic != req.Topic {
		t.Error("error response must keep the request id and topic")
	}
	if rejection.Error.Code != 5000 {
		t.Errorf("rejection code = %d, want 5000", rejection.Error.Code)
	}
}

func TestCreateErrorResponseCarriesData(t *testing.T) {
	req := &Message{Topic: "abc123", ID: 7, Method: MethodSessionRequest}

	revert := json.RawMessage(`"0x08c379a0"`)
	resp := req.CreateErrorResponse(3, "execution reverted", revert)
	if string(resp.Error.Data) != `"0x08c379a0"` {
		t.Errorf("error data = %s, want revert payload", resp.Error.Data)
	}

	plaintext, err := resp.Encode()
	if err != nil {
		t.Fatal(err)
	}
	var wire struct {
		Error struct {
			Code    int             `json:"code"`
			Message string          `json:"message"`
			Data    json.RawMessage `json:"data"`
		} `json:"error"`
	}
	if err := json.Unmarshal(plaintext, &wire); err != nil {
		t.Fatal(err)
	}
	if wire.Error.Code != 3 || string(wire.Error.Data) != `"0x08c379a0"` {
		t.Errorf("encoded error = %+v", wire.Error)
	}
}

func TestEncodeDecodeMessage(t *testing.T) {
	msg, err := NewRequest("feedtopic", MethodSessionPing, map[string]any{})
	if err != nil {
		t.Fatal(err)
	}
	plaintext, err := msg.Encode()
	if err != nil {
		t.Fatal(err)
	}

	decoded, err := DecodeMessage("feedtopic", plaintext)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	if decoded.ID != msg.ID || decoded.Method != MethodSessionPing {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestSessionRequestParams(t *testing.T) {
	raw := []byte(`{"id":42,"jsonrpc":"2.0","method":"wc_sessionRequest","params":{"chainId":"eip155:8453","request":{"method":"eth_sendTransaction","params":[{"from":"0x0"}]}}}`)
	msg, err := DecodeMessage("t", raw)
	if err != nil {
		t.Fatal(err)
	}
	params, err := msg.SessionRequest()
	if err != nil {
		t.Fatal(err)
	}
	if params.ChainID != "eip155:8453" {
		t.Errorf("chainId = %q", params.ChainID)
	}
	if params.Request.Method != "eth_sendTransaction" {
		t.Errorf("method = %q", params.Request.Method)
	}
}

func TestIrnTagTTL(t *testing.T) {
	if TagSessionPing.TTL() != 30 {
		t.Errorf("ping ttl = %d, want 30", TagSessionPing.TTL())
	}
	if TagSessionRequest.TTL() != 300 {
		t.Errorf("request ttl = %d, want 300", TagSessionRequest.TTL())
	}
}

func TestBase58Encode(t *testing.T) {
	tests := []struct {
		in   []byte
		want string
	}{
		{[]byte{}, ""},
		{[]byte{0}, "1"},
		{[]byte("hello"), "Cn8eVZg"},
		{[]byte{0, 0, 1}, "112"},
	}
	for _, tt := range tests {
		if got := base58Encode(tt.in); got != tt.want {
			t.Errorf("base58Encode(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
