// Package events defines the message bus between background tasks and the
// update loop, the task supervisor, and the typed messages the tasks emit.
package events

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"gm-tui/rpc"
	"gm-tui/walletconnect"
)

// PricesUpdated fires after a price refresh cycle touched the quote table.
type PricesUpdated struct{}

// PricesError reports a failed refresh. Offline is set when every provider
// was unreachable, which flips the session into offline mode.
type PricesError struct {
	Err     error
	Offline bool
}

// AssetsUpdated carries a fresh asset list for an account.
type AssetsUpdated struct {
	Account common.Address
}

type AssetsError struct {
	Account common.Address
	Err     error
}

// VerificationUpdated fires per asset as the balance verifier settles it.
type VerificationUpdated struct {
	Account common.Address
}

// RecentAddressesUpdated carries the refreshed recent-recipient list.
type RecentAddressesUpdated struct {
	Account   common.Address
	Addresses []common.Address
}

// TxStatus is the lifecycle position of an in-flight transaction.
type TxStatus int

const (
	TxBuilt TxStatus = iota
	TxSigned
	TxSubmitted
	TxConfirmed
	TxFailed
)

// TxUpdate is emitted by the send pipeline at each lifecycle step. Tx is
// set from TxBuilt onward, Hash from TxSubmitted, Receipt on TxConfirmed.
// Session ties the update to one popup run so a reopened popup can ignore
// results of tasks it already aborted.
type TxUpdate struct {
	Session uint64
	Status  TxStatus
	Tx      *types.Transaction
	Hash    common.Hash
	Receipt *types.Receipt
	Meta    *rpc.TxMeta
	Err     error
}

// SignResult delivers a completed signature from the async signer.
type SignResult struct {
	Session   uint64
	Account   common.Address
	Signature []byte
}

type SignError struct {
	Session uint64
	Account common.Address
	Err     error
}

// WcStatusChanged reports pairing lifecycle transitions. Pairing is set on
// the transition into StatusProposalReceived and later states.
type WcStatusChanged struct {
	Status  walletconnect.Status
	Pairing *walletconnect.Pairing
}

// WcInbound delivers one decrypted dapp message from the session watcher.
type WcInbound struct {
	Account common.Address
	Message *walletconnect.Message
}

type WcError struct {
	Account common.Address
	Err     error
}

// ConnectivityChanged flips the session between online and offline mode.
type ConnectivityChanged struct {
	Online bool
}

// FatalError surfaces a task failure the session cannot continue past; the
// root model shows it in a blocking popup.
type FatalError struct {
	Err error
}
