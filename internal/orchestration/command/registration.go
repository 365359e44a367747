package command

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zjrosen/namebridge/internal/correlation"
	"github.com/zjrosen/namebridge/internal/ens"
	"github.com/zjrosen/namebridge/internal/orchestration/types"
)

// ===========================================================================
// Registration Commands
// ===========================================================================

// RequestRegistrationCommand asks the engine to acquire label.eth for a user.
// The handler checks availability, prices the name, analyzes every linked
// wallet and either prompts for a wallet or reports why none can pay.
type RequestRegistrationCommand struct {
	*BaseCommand
	Requester types.Requester
	Label     string
	Duration  time.Duration
	Testnet   bool
}

// NewRequestRegistrationCommand normalizes label before storing it.
func NewRequestRegistrationCommand(source CommandSource, req types.Requester, label string, duration time.Duration, testnet bool) *RequestRegistrationCommand {
	base := NewBaseCommand(CmdRequestRegistration, source)
	return &RequestRegistrationCommand{
		BaseCommand: &base,
		Requester:   req,
		Label:       ens.NormalizeLabel(label),
		Duration:    duration,
		Testnet:     testnet,
	}
}

// Validate checks the requester, label and duration.
func (c *RequestRegistrationCommand) Validate() error {
	if err := c.Requester.Validate(); err != nil {
		return err
	}
	if err := validateLabel(c.Label); err != nil {
		return err
	}
	return validateDuration(c.Duration)
}

// ContentHash lets the deduplication middleware drop double submissions.
func (c *RequestRegistrationCommand) ContentHash() string {
	return fmt.Sprintf("%s|%s|%s|%d|%t", c.Requester.ChannelID, c.Requester.UserID, c.Label, c.Duration, c.Testnet)
}

func (c *RequestRegistrationCommand) String() string {
	return fmt.Sprintf("RequestRegistration{user=%s, label=%s, testnet=%t}", c.Requester.UserID, c.Label, c.Testnet)
}

// BeginCommitCommand issues the commit transaction with Owner as signer.
// It follows a Path A selection or a filled bridge deposit.
type BeginCommitCommand struct {
	*BaseCommand
	Requester types.Requester
	Label     string
	Duration  time.Duration
	Testnet   bool
	Owner     common.Address
}

// NewBeginCommitCommand creates a new BeginCommitCommand.
func NewBeginCommitCommand(source CommandSource, req types.Requester, label string, duration time.Duration, testnet bool, owner common.Address) *BeginCommitCommand {
	base := NewBaseCommand(CmdBeginCommit, source)
	return &BeginCommitCommand{
		BaseCommand: &base,
		Requester:   req,
		Label:       label,
		Duration:    duration,
		Testnet:     testnet,
		Owner:       owner,
	}
}

// Validate checks the requester, label, duration and owner.
func (c *BeginCommitCommand) Validate() error {
	if err := c.Requester.Validate(); err != nil {
		return err
	}
	if err := validateLabel(c.Label); err != nil {
		return err
	}
	if err := validateDuration(c.Duration); err != nil {
		return err
	}
	if c.Owner == (common.Address{}) {
		return types.Invalid("owner", "is required")
	}
	return nil
}

func (c *BeginCommitCommand) String() string {
	return fmt.Sprintf("BeginCommit{label=%s, owner=%s}", c.Label, c.Owner.Hex())
}

// RevealCommitmentCommand is submitted by the scheduler once the commitment
// delay has elapsed. Generation must match the stored record; a mismatch
// means the record was superseded and the continuation is dropped.
type RevealCommitmentCommand struct {
	*BaseCommand
	Key        correlation.Key
	Generation string
}

// NewRevealCommitmentCommand creates a new RevealCommitmentCommand.
func NewRevealCommitmentCommand(source CommandSource, key correlation.Key, generation string) *RevealCommitmentCommand {
	base := NewBaseCommand(CmdRevealCommitment, source)
	return &RevealCommitmentCommand{
		BaseCommand: &base,
		Key:         key,
		Generation:  generation,
	}
}

// Validate checks that the key is a commit-phase key.
func (c *RevealCommitmentCommand) Validate() error {
	if c.Key.Kind != correlation.KindCommit && c.Key.Kind != correlation.KindTestCommit {
		return types.Invalid("key", "%s is not a commit key", c.Key.Kind)
	}
	if err := c.Key.Validate(); err != nil {
		return types.Invalid("key", "%v", err)
	}
	if c.Generation == "" {
		return types.Invalid("generation", "is required")
	}
	return nil
}

func (c *RevealCommitmentCommand) String() string {
	return fmt.Sprintf("RevealCommitment{key=%s}", c.Key)
}

func validateLabel(label string) error {
	if err := ens.ValidateLabel(label, ens.MinLabelLength); err != nil {
		return types.Invalid("label", "%v", err)
	}
	return nil
}

func validateDuration(d time.Duration) error {
	if d < ens.MinRegistrationDuration || d > ens.MaxRegistrationDuration {
		return types.Invalid("duration", "%s is outside %s..%s", d, ens.MinRegistrationDuration, ens.MaxRegistrationDuration)
	}
	return nil
}

func validateAmount(field string, v *big.Int) error {
	if v == nil || v.Sign() <= 0 {
		return types.Invalid(field, "must be positive")
	}
	return nil
}
