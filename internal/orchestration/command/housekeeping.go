package command

import (
	"fmt"
	"math/big"

	"github.com/zjrosen/namebridge/internal/orchestration/types"
)

// ===========================================================================
// Housekeeping Commands
// ===========================================================================

// SweepStoresCommand evicts expired correlation records, cancels their
// continuations and tells the affected users.
type SweepStoresCommand struct {
	*BaseCommand
}

// NewSweepStoresCommand creates a new SweepStoresCommand.
func NewSweepStoresCommand(source CommandSource) *SweepStoresCommand {
	base := NewBaseCommand(CmdSweepStores, source)
	return &SweepStoresCommand{BaseCommand: &base}
}

// Tunables are the settings that can change while the engine runs.
type Tunables struct {
	BufferPercent uint64
	GasReserve    *big.Int
}

// ReloadSettingsCommand replaces the engine tunables.
type ReloadSettingsCommand struct {
	*BaseCommand
	Tunables Tunables
}

// NewReloadSettingsCommand creates a new ReloadSettingsCommand.
func NewReloadSettingsCommand(source CommandSource, t Tunables) *ReloadSettingsCommand {
	base := NewBaseCommand(CmdReloadSettings, source)
	return &ReloadSettingsCommand{BaseCommand: &base, Tunables: t}
}

// Validate rejects a negative reserve and a buffer above 100%.
func (c *ReloadSettingsCommand) Validate() error {
	if c.Tunables.GasReserve == nil || c.Tunables.GasReserve.Sign() < 0 {
		return types.Invalid("gasReserve", "must be zero or positive")
	}
	if c.Tunables.BufferPercent > 100 {
		return types.Invalid("bufferPercent", "must be at most 100")
	}
	return nil
}

// NotifyUserCommand sends a plain notice to a requester.
type NotifyUserCommand struct {
	*BaseCommand
	Requester types.Requester
	Message   string
}

// NewNotifyUserCommand creates a new NotifyUserCommand.
func NewNotifyUserCommand(source CommandSource, req types.Requester, message string) *NotifyUserCommand {
	base := NewBaseCommand(CmdNotifyUser, source)
	return &NotifyUserCommand{
		BaseCommand: &base,
		Requester:   req,
		Message:     message,
	}
}

// Validate checks that Message is provided.
func (c *NotifyUserCommand) Validate() error {
	if err := c.Requester.Validate(); err != nil {
		return err
	}
	if c.Message == "" {
		return types.Invalid("message", "is required")
	}
	return nil
}

// String returns a readable representation of the command.
func (c *NotifyUserCommand) String() string {
	return fmt.Sprintf("NotifyUser{user=%s, message=%q}", c.Requester.UserID, truncate(c.Message, 50))
}

// truncate shortens a string to maxLen characters, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
