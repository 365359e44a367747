package events

import (
	"github.com/zjrosen/namebridge/internal/orchestration/types"
)

// NoticeCode classifies a notice so transports can render it without parsing
// Message.
type NoticeCode string

const (
	// Progress and success.
	NoticeCommitSubmitted    NoticeCode = "commit_submitted"
	NoticeCommitConfirmed    NoticeCode = "commit_confirmed"
	NoticeRegistered         NoticeCode = "registered"
	NoticeBridgeSubmitted    NoticeCode = "bridge_submitted"
	NoticeBridgeFilled       NoticeCode = "bridge_filled"
	NoticeTransferConfirmed  NoticeCode = "transfer_confirmed"
	NoticeSubdomainAssigned  NoticeCode = "subdomain_assigned"
	NoticeSelectionRequested NoticeCode = "selection_requested"
	NoticeAwaitingApproval   NoticeCode = "awaiting_approval"
	NoticeInfo               NoticeCode = "info"

	// Preconditions; no state was created.
	NoticeNameUnavailable    NoticeCode = "name_unavailable"
	NoticeNoLinkedWallets    NoticeCode = "no_linked_wallets"
	NoticeNoExternallyOwned  NoticeCode = "no_externally_owned_wallet"
	NoticeInsufficientFunds  NoticeCode = "insufficient_funds"
	NoticeNotParentOwner     NoticeCode = "not_parent_owner"
	NoticeBridgeAmountTooLow NoticeCode = "bridge_amount_too_low"
	NoticeTestnetDisabled    NoticeCode = "testnet_disabled"

	// Failures.
	NoticeTransientFailure NoticeCode = "transient_failure"
	NoticeExpired          NoticeCode = "expired"
	NoticeCancelled        NoticeCode = "cancelled"
	NoticeRevealFailed     NoticeCode = "reveal_failed"
	NoticeBridgeExpired    NoticeCode = "bridge_expired"
)

// Failure reports whether the code ends a saga unsuccessfully.
func (c NoticeCode) Failure() bool {
	switch c {
	case NoticeNameUnavailable, NoticeNoLinkedWallets, NoticeNoExternallyOwned,
		NoticeInsufficientFunds, NoticeNotParentOwner, NoticeBridgeAmountTooLow,
		NoticeTestnetDisabled, NoticeTransientFailure, NoticeExpired,
		NoticeCancelled, NoticeRevealFailed, NoticeBridgeExpired:
		return true
	}
	return false
}

// Notice is a user-visible message. Key is the correlation key of the saga it
// concerns, empty when no saga state exists.
type Notice struct {
	Requester types.Requester `json:"requester"`
	Code      NoticeCode      `json:"code"`
	Message   string          `json:"message"`
	Key       string          `json:"key,omitempty"`
	Name      string          `json:"name,omitempty"`
	TxHash    string          `json:"txHash,omitempty"`
}

// NewNotice builds a Notice.
func NewNotice(req types.Requester, code NoticeCode, message string) Notice {
	return Notice{Requester: req, Code: code, Message: message}
}

// WithKey returns a copy carrying the correlation key.
func (n Notice) WithKey(key string) Notice {
	n.Key = key
	return n
}

// WithName returns a copy carrying the ENS name.
func (n Notice) WithName(name string) Notice {
	n.Name = name
	return n
}

// WithTx returns a copy carrying a transaction hash.
func (n Notice) WithTx(hash string) Notice {
	n.TxHash = hash
	return n
}
