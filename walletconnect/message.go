package walletconnect

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"
)

// Sign-protocol methods carried inside envelopes.
const (
	MethodSessionPropose = "wc_sessionPropose"
	MethodSessionSettle  = "wc_sessionSettle"
	MethodSessionRequest = "wc_sessionRequest"
	MethodSessionPing    = "wc_sessionPing"
	MethodSessionDelete  = "wc_sessionDelete"
)

// Relay publish tags per method. A response uses its request's tag plus one.
type IrnTag int

const (
	TagSessionPropose         IrnTag = 1100
	TagSessionProposeResponse IrnTag = 1101
	TagSessionSettle          IrnTag = 1102
	TagSessionSettleResponse  IrnTag = 1103
	TagSessionRequest         IrnTag = 1108
	TagSessionRequestResponse IrnTag = 1109
	TagSessionDelete          IrnTag = 1112
	TagSessionDeleteResponse  IrnTag = 1113
	TagSessionPing            IrnTag = 1114
	TagSessionPingResponse    IrnTag = 1115
)

// TTL returns the relay retention for a tag, in seconds.
func (t IrnTag) TTL() int {
	switch t {
	case TagSessionPing, TagSessionPingResponse:
		return 30
	default:
		return 300
	}
}

// Metadata describes a sign-protocol peer.
type Metadata struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Icons       []string `json:"icons"`
}

// SessionProposal is the decoded params of a wc_sessionPropose request.
type SessionProposal struct {
	ID       int64
	Proposer struct {
		PublicKey string   `json:"publicKey"`
		Metadata  Metadata `json:"metadata"`
	} `json:"proposer"`
	RequiredNamespaces map[string]Namespace `json:"requiredNamespaces"`
	OptionalNamespaces map[string]Namespace `json:"optionalNamespaces"`
	Expiry             int64                `json:"expiryTimestamp"`
}

// Namespace lists what a session covers for one chain family.
type Namespace struct {
	Chains   []string `json:"chains,omitempty"`
	Accounts []string `json:"accounts,omitempty"`
	Methods  []string `json:"methods"`
	Events   []string `json:"events"`
}

// SessionRequestParams is the decoded params of a wc_sessionRequest.
type SessionRequestParams struct {
	ChainID string `json:"chainId"`
	Request struct {
		Method string          `json:"method"`
		Params json.RawMessage `json:"params"`
		Expiry int64           `json:"expiryTimestamp,omitempty"`
	} `json:"request"`
}

// RPCError is the error object of a failed sign-protocol response.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Code returned when the user rejects a request from the dapp.
const ErrCodeUserRejected = 5000

// Message is one decrypted sign-protocol JSON-RPC message, request or
// response, bound to the relay topic it travels on.
type Message struct {
	Topic string

	ID     int64           `json:"id"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *RPCError       `json:"error,omitempty"`
}

// IsRequest reports whether the message carries a method call rather than
// a response.
func (m *Message) IsRequest() bool { return m.Method != "" }

// Tag returns the relay tag for publishing this message.
func (m *Message) Tag() IrnTag {
	switch m.Method {
	case MethodSessionPropose:
		return TagSessionPropose
	case MethodSessionSettle:
		return TagSessionSettle
	case MethodSessionRequest:
		return TagSessionRequest
	case MethodSessionPing:
		return TagSessionPing
	case MethodSessionDelete:
		return TagSessionDelete
	}
	// responses; best effort, callers that know the request tag pass it
	return TagSessionRequestResponse
}

// SessionRequest decodes the params of a wc_sessionRequest message.
func (m *Message) SessionRequest() (SessionRequestParams, error) {
	var params SessionRequestParams
	if m.Method != MethodSessionRequest {
		return params, fmt.Errorf("message is %q, not a session request", m.Method)
	}
	if err := json.Unmarshal(m.Params, &params); err != nil {
		return params, fmt.Errorf("session request params: %w", err)
	}
	return params, nil
}

// CreateResponse builds the success response to this request. The relay
// envelope must answer on the same topic with the same id.
func (m *Message) CreateResponse(result any) (*Message, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return &Message{Topic: m.Topic, ID: m.ID, Result: raw}, nil
}

// CreateErrorResponse builds the failure response to this request. data is
// the optional error payload, already JSON-encoded, or nil.
func (m *Message) CreateErrorResponse(code int, message string, data json.RawMessage) *Message {
	return &Message{Topic: m.Topic, ID: m.ID, Error: &RPCError{Code: code, Message: message, Data: data}}
}

// Encode renders the message as the JSON-RPC plaintext to seal.
func (m *Message) Encode() ([]byte, error) {
	payload := map[string]any{"id": m.ID, "jsonrpc": "2.0"}
	switch {
	case m.Method != "":
		payload["method"] = m.Method
		payload["params"] = m.Params
	case m.Error != nil:
		payload["error"] = m.Error
	default:
		payload["result"] = m.Result
	}
	return json.Marshal(payload)
}

// DecodeMessage parses a decrypted envelope plaintext from topic.
func DecodeMessage(topic string, plaintext []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(plaintext, &m); err != nil {
		return nil, fmt.Errorf("sign message: %w", err)
	}
	if m.ID == 0 {
		return nil, fmt.Errorf("sign message has no id")
	}
	m.Topic = topic
	return &m, nil
}

// NewRequest builds an outbound request with a fresh id for topic.
func NewRequest(topic, method string, params any) (*Message, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	return &Message{Topic: topic, ID: newRequestID(), Method: method, Params: raw}, nil
}

// Relay ids follow the protocol convention of microsecond timestamps with
// three random digits appended.
func newRequestID() int64 {
	return time.Now().UnixMicro()*1000 + rand.Int63n(1000)
}
