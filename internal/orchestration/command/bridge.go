package command

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zjrosen/namebridge/internal/correlation"
	"github.com/zjrosen/namebridge/internal/orchestration/types"
)

// ===========================================================================
// Bridge Commands
// ===========================================================================

// BeginBridgeCommand bridges Required from Wallet on the source chain to the
// same wallet on the destination chain. TransferKey is set when the bridge is
// the second stage of a transfer-then-bridge saga.
type BeginBridgeCommand struct {
	*BaseCommand
	Requester   types.Requester
	Label       string
	Duration    time.Duration
	Testnet     bool
	Wallet      common.Address
	Required    *big.Int
	TransferKey *correlation.Key
}

// NewBeginBridgeCommand creates a new BeginBridgeCommand.
func NewBeginBridgeCommand(source CommandSource, req types.Requester, label string, duration time.Duration, testnet bool, wallet common.Address, required *big.Int) *BeginBridgeCommand {
	base := NewBaseCommand(CmdBeginBridge, source)
	return &BeginBridgeCommand{
		BaseCommand: &base,
		Requester:   req,
		Label:       label,
		Duration:    duration,
		Testnet:     testnet,
		Wallet:      wallet,
		Required:    required,
	}
}

// Validate checks the requester, label, wallet and amount.
func (c *BeginBridgeCommand) Validate() error {
	if err := c.Requester.Validate(); err != nil {
		return err
	}
	if err := validateLabel(c.Label); err != nil {
		return err
	}
	if c.Wallet == (common.Address{}) {
		return types.Invalid("wallet", "is required")
	}
	return validateAmount("required", c.Required)
}

func (c *BeginBridgeCommand) String() string {
	return fmt.Sprintf("BeginBridge{label=%s, wallet=%s, required=%s}", c.Label, c.Wallet.Hex(), c.Required)
}

// PollBridgeCommand asks the bridge service whether a submitted deposit has
// been filled.
type PollBridgeCommand struct {
	*BaseCommand
	Key        correlation.Key
	Generation string
}

// NewPollBridgeCommand creates a new PollBridgeCommand.
func NewPollBridgeCommand(source CommandSource, key correlation.Key, generation string) *PollBridgeCommand {
	base := NewBaseCommand(CmdPollBridge, source)
	return &PollBridgeCommand{
		BaseCommand: &base,
		Key:         key,
		Generation:  generation,
	}
}

// Validate checks that the key names a bridge operation.
func (c *PollBridgeCommand) Validate() error {
	if c.Key.Kind != correlation.KindBridgeEOA {
		return types.Invalid("key", "%s is not a bridge key", c.Key.Kind)
	}
	if c.Generation == "" {
		return types.Invalid("generation", "is required")
	}
	return nil
}

func (c *PollBridgeCommand) String() string {
	return fmt.Sprintf("PollBridge{key=%s}", c.Key)
}

// BeginTransferCommand moves Amount from the smart wallet Source to the
// externally-owned Wallet on the source chain, ahead of a bridge deposit.
type BeginTransferCommand struct {
	*BaseCommand
	Requester types.Requester
	Label     string
	Duration  time.Duration
	Testnet   bool
	Wallet    common.Address
	Source    common.Address
	Amount    *big.Int
	Required  *big.Int
}

// NewBeginTransferCommand creates a new BeginTransferCommand.
func NewBeginTransferCommand(source CommandSource, req types.Requester, label string, duration time.Duration, testnet bool, wallet, from common.Address, amount, required *big.Int) *BeginTransferCommand {
	base := NewBaseCommand(CmdBeginTransfer, source)
	return &BeginTransferCommand{
		BaseCommand: &base,
		Requester:   req,
		Label:       label,
		Duration:    duration,
		Testnet:     testnet,
		Wallet:      wallet,
		Source:      from,
		Amount:      amount,
		Required:    required,
	}
}

// Validate checks the requester, label, both wallets and both amounts.
func (c *BeginTransferCommand) Validate() error {
	if err := c.Requester.Validate(); err != nil {
		return err
	}
	if err := validateLabel(c.Label); err != nil {
		return err
	}
	if c.Wallet == (common.Address{}) || c.Source == (common.Address{}) {
		return types.Invalid("wallet", "source and destination wallets are required")
	}
	if c.Wallet == c.Source {
		return types.Invalid("wallet", "source and destination must differ")
	}
	if err := validateAmount("amount", c.Amount); err != nil {
		return err
	}
	return validateAmount("required", c.Required)
}

func (c *BeginTransferCommand) String() string {
	return fmt.Sprintf("BeginTransfer{label=%s, from=%s, to=%s, amount=%s}", c.Label, c.Source.Hex(), c.Wallet.Hex(), c.Amount)
}
