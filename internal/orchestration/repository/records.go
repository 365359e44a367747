package repository

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/zjrosen/namebridge/internal/chain"
	"github.com/zjrosen/namebridge/internal/ens"
	"github.com/zjrosen/namebridge/internal/funding"
	"github.com/zjrosen/namebridge/internal/orchestration/types"
)

// NewGeneration returns a fresh record id. Scheduled continuations carry the
// id of the record they were scheduled for and are dropped on mismatch.
func NewGeneration() string {
	return uuid.New().String()
}

// ===========================================================================
// Commitment
// ===========================================================================

// Phase is the position of a registration in the commit-reveal protocol.
type Phase int

const (
	PhaseCommitSubmitted Phase = iota
	PhaseCommitConfirmed
	PhaseRevealSubmitted
)

func (p Phase) String() string {
	switch p {
	case PhaseCommitSubmitted:
		return "commit_submitted"
	case PhaseCommitConfirmed:
		return "commit_confirmed"
	case PhaseRevealSubmitted:
		return "reveal_submitted"
	default:
		return "unknown"
	}
}

// Commitment is one in-flight registration. Registration holds the secret
// and every argument the commitment hash was computed from; both phases must
// send exactly these values.
type Commitment struct {
	ID             string
	Requester      types.Requester
	Label          string
	Network        chain.Network
	Registration   ens.Registration
	Duration       time.Duration
	CommitmentHash common.Hash
	CreatedAt      time.Time
	CommitTxHash   *common.Hash
	CommittedAt    time.Time
	Phase          Phase
	RevealAttempts int
}

// DisplayName is label.eth.
func (c *Commitment) DisplayName() string {
	return ens.DisplayName(c.Label)
}

// Owner is the wallet that commits, reveals and ends up owning the name.
func (c *Commitment) Owner() common.Address {
	return c.Registration.Owner
}

// Confirmed reports whether the commit transaction has been mined.
func (c *Commitment) Confirmed() bool {
	return c.Phase >= PhaseCommitConfirmed && !c.CommittedAt.IsZero()
}

// RevealableAt is the earliest time the controller accepts the reveal.
func (c *Commitment) RevealableAt(minAge time.Duration) time.Time {
	return c.CommittedAt.Add(minAge)
}

// ConfirmCommit attaches the commit transaction and starts the delay.
func (c *Commitment) ConfirmCommit(tx common.Hash, at time.Time) {
	c.CommitTxHash = &tx
	c.CommittedAt = at
	c.Phase = PhaseCommitConfirmed
}

// ===========================================================================
// BridgeOperation
// ===========================================================================

// Stage distinguishes the two legs of a transfer-then-bridge saga.
type Stage int

const (
	StageBridge Stage = iota
	StageTransfer
)

func (s Stage) String() string {
	if s == StageTransfer {
		return "transfer"
	}
	return "bridge"
}

// BridgeStatus only moves forward.
type BridgeStatus int

const (
	BridgePending BridgeStatus = iota
	BridgeSubmitted
	BridgeFilled
	BridgeExpired
)

func (s BridgeStatus) String() string {
	switch s {
	case BridgePending:
		return "pending"
	case BridgeSubmitted:
		return "submitted"
	case BridgeFilled:
		return "filled"
	case BridgeExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further status is reachable.
func (s BridgeStatus) Terminal() bool {
	return s == BridgeFilled || s == BridgeExpired
}

// BridgeOperation tracks a cross-chain deposit or the smart-wallet transfer
// that precedes one. DestinationChain is always the chain hosting the registry.
type BridgeOperation struct {
	ID               string
	Requester        types.Requester
	Label            string
	Duration         time.Duration
	Network          chain.Network
	Stage            Stage
	SourceChain      uint64
	DestinationChain uint64
	Depositor        common.Address
	Recipient        common.Address
	FundingWallet    *common.Address
	InputAmount      *big.Int
	OutputAmount     *big.Int
	Fee              *big.Int
	Required         *big.Int
	Status           BridgeStatus
	TxHash           *common.Hash
	QuoteTimestamp   uint32
	FillDeadline     uint32
	EstimatedFill    time.Duration
	PollAttempts     int
	CreatedAt        time.Time
}

// Validate checks the amount and chain invariants before a record is stored.
func (b *BridgeOperation) Validate() error {
	if b.InputAmount == nil || b.InputAmount.Sign() <= 0 {
		return fmt.Errorf("bridge operation %s: input amount must be positive", b.ID)
	}
	if b.OutputAmount == nil || b.OutputAmount.Sign() <= 0 {
		return fmt.Errorf("bridge operation %s: output amount must be positive", b.ID)
	}
	if b.DestinationChain != b.Network.DestinationChainID {
		return fmt.Errorf("bridge operation %s: destination chain %d does not host the registry (%d)",
			b.ID, b.DestinationChain, b.Network.DestinationChainID)
	}
	return nil
}

// Advance moves the operation to next. Moving backwards, or anywhere after a
// terminal status, returns ErrStatusRegression and leaves the status as is.
func (b *BridgeOperation) Advance(next BridgeStatus) error {
	if next < b.Status || (b.Status.Terminal() && next != b.Status) {
		return fmt.Errorf("%w: %s -> %s", types.ErrStatusRegression, b.Status, next)
	}
	b.Status = next
	return nil
}

// ===========================================================================
// Selection
// ===========================================================================

// Selection is a wallet prompt awaiting the user's choice. It is consumed by
// the first response.
type Selection struct {
	ID               string
	Requester        types.Requester
	Label            string
	Duration         time.Duration
	Network          chain.Network
	Candidates       []funding.Candidate
	Required         *big.Int
	Fee              *big.Int
	RegistrationCost *big.Int
	CreatedAt        time.Time
}

// OptionID is the form option id for a candidate.
func OptionID(c funding.Candidate) string {
	return c.Wallet.Address.Hex()
}

// Option finds the candidate a form response picked.
func (s *Selection) Option(id string) (funding.Candidate, bool) {
	if !common.IsHexAddress(id) {
		return funding.Candidate{}, false
	}
	addr := common.HexToAddress(id)
	for _, c := range s.Candidates {
		if c.Wallet.Address == addr {
			return c, true
		}
	}
	return funding.Candidate{}, false
}

// ===========================================================================
// SubdomainAssignment
// ===========================================================================

// SubdomainAssignment is a pending setSubnodeRecord transaction.
type SubdomainAssignment struct {
	ID          string
	Requester   types.Requester
	Label       string
	Parent      string
	FullName    string
	Recipient   common.Address
	OwnerWallet common.Address
	Network     chain.Network
	CreatedAt   time.Time
}
