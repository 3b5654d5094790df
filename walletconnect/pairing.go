package walletconnect

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Status tracks where a pairing attempt is in its lifecycle.
type Status int

const (
	StatusIdle Status = iota
	StatusInitializing
	StatusProposalReceived
	StatusSettleInProgress
	StatusSettleDone
	StatusSettleFailed
	StatusSettleCancelled
)

func (s Status) String() string {
	switch s {
	case StatusInitializing:
		return "Initializing"
	case StatusProposalReceived:
		return "Proposal received"
	case StatusSettleInProgress:
		return "Settling session"
	case StatusSettleDone:
		return "Connected"
	case StatusSettleFailed:
		return "Failed"
	case StatusSettleCancelled:
		return "Cancelled"
	}
	return "Idle"
}

// Connection holds what every pairing shares: the relay client and how
// this wallet introduces itself to dapps.
type Connection struct {
	Relay    *Relay
	Metadata Metadata
}

// NewConnection builds a connection against the given relay endpoints.
func NewConnection(rpcURL, audienceURL, projectID string, clientSeed [32]byte, metadata Metadata) *Connection {
	return &Connection{
		Relay:    NewRelay(rpcURL, audienceURL, projectID, clientSeed),
		Metadata: metadata,
	}
}

// Pairing is one dapp connection. It is created by InitPairing once a
// session proposal arrives and becomes usable for requests after
// ApproveWithSessionSettle.
type Pairing struct {
	conn *Connection

	pairingTopic string
	pairingKey   SymKey

	sessionTopic string
	sessionKey   SymKey

	Proposal SessionProposal
	seenIDs  map[int64]bool
}

// InitPairing parses a pairing URI, then polls the pairing topic until the
// dapp's session proposal shows up. Cancelling the context aborts the wait.
func (c *Connection) InitPairing(ctx context.Context, rawURI string) (*Pairing, error) {
	uri, err := ParseURI(rawURI)
	if err != nil {
		return nil, err
	}

	p := &Pairing{
		conn:         c,
		pairingTopic: uri.Topic,
		pairingKey:   uri.SymKey,
		seenIDs:      make(map[int64]bool),
	}

	for {
		messages, err := c.Relay.FetchMessages(ctx, p.pairingTopic)
		if err != nil {
			return nil, err
		}
		for _, relayed := range messages {
			msg, err := p.decrypt(p.pairingKey, relayed)
			if err != nil {
				continue
			}
			if msg.Method != MethodSessionPropose {
				continue
			}
			var proposal SessionProposal
			if err := json.Unmarshal(msg.Params, &proposal); err != nil {
				return nil, fmt.Errorf("session proposal: %w", err)
			}
			proposal.ID = msg.ID
			p.Proposal = proposal
			return p, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

// Methods and events settled for every session.
var (
	sessionMethods = []string{"eth_sendTransaction", "personal_sign", "eth_signTypedData_v4"}
	sessionEvents  = []string{"chainChanged", "accountsChanged"}
)

// ApproveWithSessionSettle accepts the proposal: it answers the proposal on
// the pairing topic with a fresh responder key, derives the session key and
// topic, then publishes wc_sessionSettle granting the account on the given
// chains. Messages already waiting on the session topic are returned so
// none are lost before the watcher starts.
func (p *Pairing) ApproveWithSessionSettle(ctx context.Context, account common.Address, chainIDs []uint64) ([]*Message, error) {
	self, err := GenerateKeypair()
	if err != nil {
		return nil, err
	}

	sessionKey, err := SessionKey(self, p.Proposal.Proposer.PublicKey)
	if err != nil {
		return nil, err
	}
	p.sessionKey = sessionKey
	p.sessionTopic = DerivedTopic(sessionKey)

	approval := &Message{Topic: p.pairingTopic, ID: p.Proposal.ID}
	approval, err = approval.CreateResponse(map[string]any{
		"relay":              map[string]string{"protocol": "irn"},
		"responderPublicKey": self.PublicHex(),
	})
	if err != nil {
		return nil, err
	}
	if err := p.publish(ctx, p.pairingKey, approval, TagSessionProposeResponse); err != nil {
		return nil, fmt.Errorf("approve proposal: %w", err)
	}

	namespace := Namespace{
		Methods: sessionMethods,
		Events:  sessionEvents,
	}
	for _, chainID := range chainIDs {
		namespace.Accounts = append(namespace.Accounts,
			fmt.Sprintf("eip155:%d:%s", chainID, account.Hex()))
		namespace.Chains = append(namespace.Chains, fmt.Sprintf("eip155:%d", chainID))
	}

	settle, err := NewRequest(p.sessionTopic, MethodSessionSettle, map[string]any{
		"relay":      map[string]string{"protocol": "irn"},
		"namespaces": map[string]Namespace{"eip155": namespace},
		"controller": map[string]any{
			"publicKey": self.PublicHex(),
			"metadata":  p.conn.Metadata,
		},
		"expiry": time.Now().Add(7 * 24 * time.Hour).Unix(),
	})
	if err != nil {
		return nil, err
	}
	if err := p.publish(ctx, p.sessionKey, settle, TagSessionSettle); err != nil {
		return nil, fmt.Errorf("session settle: %w", err)
	}
	p.seenIDs[settle.ID] = true

	return p.WatchMessages(ctx)
}

// WatchMessages drains the session topic once, returning the decrypted
// messages in arrival order. Duplicates the relay redelivers are skipped.
func (p *Pairing) WatchMessages(ctx context.Context) ([]*Message, error) {
	if p.sessionTopic == "" {
		return nil, fmt.Errorf("session not settled")
	}
	relayed, err := p.conn.Relay.FetchMessages(ctx, p.sessionTopic)
	if err != nil {
		return nil, err
	}

	var out []*Message
	for _, env := range relayed {
		msg, err := p.decrypt(p.sessionKey, env)
		if err != nil {
			continue
		}
		if msg.IsRequest() {
			if p.seenIDs[msg.ID] {
				continue
			}
			p.seenIDs[msg.ID] = true
		}
		out = append(out, msg)
	}
	return out, nil
}

// SendMessage publishes a message on the session topic with the given tag.
func (p *Pairing) SendMessage(ctx context.Context, msg *Message, tag IrnTag) error {
	if p.sessionTopic == "" {
		return fmt.Errorf("session not settled")
	}
	msg.Topic = p.sessionTopic
	return p.publish(ctx, p.sessionKey, msg, tag)
}

// PeerName returns the dapp's display name from the proposal metadata.
func (p *Pairing) PeerName() string {
	if name := p.Proposal.Proposer.Metadata.Name; name != "" {
		return name
	}
	return "unknown dapp"
}

// SessionTopic is empty until the session settles.
func (p *Pairing) SessionTopic() string { return p.sessionTopic }

func (p *Pairing) publish(ctx context.Context, key SymKey, msg *Message, tag IrnTag) error {
	plaintext, err := msg.Encode()
	if err != nil {
		return err
	}
	sealed, err := Seal(key, plaintext)
	if err != nil {
		return err
	}
	return p.conn.Relay.Publish(ctx, msg.Topic, sealed, tag, tag.TTL())
}

func (p *Pairing) decrypt(key SymKey, relayed RelayedMessage) (*Message, error) {
	plaintext, err := Open(key, relayed.Message)
	if err != nil {
		return nil, err
	}
	return DecodeMessage(relayed.Topic, plaintext)
}
