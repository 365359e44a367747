// Package events defines the outbound effects of the orchestration engine.
// Handlers return them in CommandResult.Events; the processor publishes them
// on the event broker and the transports deliver them.
//
// Two kinds of effect exist:
//   - ActionRequest: ask the signing collaborator for a transaction or a choice
//   - Notice: tell a requester what happened
package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/zjrosen/namebridge/internal/orchestration/types"
)

// ActionKind selects the shape of an ActionRequest.
type ActionKind string

const (
	// ActionTransaction asks a wallet to sign and send a transaction.
	ActionTransaction ActionKind = "transaction"
	// ActionForm asks the user to pick one of several options.
	ActionForm ActionKind = "form"
)

// Option is one choice in a form request. ID is opaque to the user and comes
// back as Response.SelectedOptionID.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ActionRequest is sent to the signing collaborator. ID is the correlation
// key the matching response will carry.
type ActionRequest struct {
	Kind      ActionKind      `json:"kind"`
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Requester types.Requester `json:"requester"`

	// Transaction fields.
	ChainID uint64          `json:"chainId,omitempty"`
	To      *common.Address `json:"to,omitempty"`
	Value   *hexutil.Big    `json:"value,omitempty"`
	Data    hexutil.Bytes   `json:"data,omitempty"`
	// SignerWallet pins the wallet that must sign; nil lets any linked wallet sign.
	SignerWallet *common.Address `json:"signerWallet,omitempty"`

	// Form fields.
	Options []Option `json:"options,omitempty"`
}

// Transaction builds a transaction request.
func Transaction(id, title string, req types.Requester, chainID uint64, to common.Address, value *big.Int, data []byte, signer *common.Address) ActionRequest {
	if value == nil {
		value = new(big.Int)
	}
	return ActionRequest{
		Kind:         ActionTransaction,
		ID:           id,
		Title:        title,
		Requester:    req,
		ChainID:      chainID,
		To:           &to,
		Value:        (*hexutil.Big)(new(big.Int).Set(value)),
		Data:         data,
		SignerWallet: signer,
	}
}

// Form builds a selection request.
func Form(id, title string, req types.Requester, options []Option) ActionRequest {
	return ActionRequest{
		Kind:      ActionForm,
		ID:        id,
		Title:     title,
		Requester: req,
		Options:   options,
	}
}

// ValueWei returns the transaction value, zero for forms.
func (a ActionRequest) ValueWei() *big.Int {
	if a.Value == nil {
		return new(big.Int)
	}
	return a.Value.ToInt()
}
