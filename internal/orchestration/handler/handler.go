// Package handler implements the saga steps of the engine as command
// handlers. Handlers run one at a time on the processor goroutine, so the
// correlation stores they share need no further locking.
//
// A handler either advances a saga and returns outbound effects
// (events.ActionRequest, events.Notice), or reports a negative outcome as a
// notice. Only invalid commands and programming errors are returned as errors.
package handler

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/zjrosen/namebridge/internal/chain"
	"github.com/zjrosen/namebridge/internal/correlation"
	"github.com/zjrosen/namebridge/internal/flags"
	"github.com/zjrosen/namebridge/internal/log"
	"github.com/zjrosen/namebridge/internal/orchestration/command"
	"github.com/zjrosen/namebridge/internal/orchestration/events"
	"github.com/zjrosen/namebridge/internal/orchestration/repository"
	"github.com/zjrosen/namebridge/internal/orchestration/types"
)

// Collaborators are the outside-world ports the sagas consume.
type Collaborators struct {
	Names    chain.NameOracle
	Balances chain.BalanceOracle
	Kinds    chain.AccountKindOracle
	Bridge   chain.FeeQuoter
	Wallets  chain.WalletLinker
}

// Networks holds the two deployment profiles.
type Networks struct {
	Mainnet chain.Network
	Testnet chain.Network
}

// For returns the profile a request runs against.
func (n Networks) For(testnet bool) chain.Network {
	if testnet {
		return n.Testnet
	}
	return n.Mainnet
}

// Settings are fixed for the life of the engine.
type Settings struct {
	// MinCommitmentAge is the controller's anti front-running window.
	MinCommitmentAge time.Duration
	// MaxCommitmentAge is how long a confirmed commitment stays revealable.
	MaxCommitmentAge time.Duration
	ReverseRecord    bool
	PollInterval     time.Duration
	MaxPollAttempts  int
}

// Tuning holds the settings a config reload may swap while sagas run.
type Tuning struct {
	current atomic.Pointer[command.Tunables]
}

// NewTuning creates a Tuning holding t.
func NewTuning(t command.Tunables) *Tuning {
	tu := &Tuning{}
	tu.Store(t)
	return tu
}

// Load returns a copy of the current tunables.
func (t *Tuning) Load() command.Tunables {
	cur := *t.current.Load()
	cur.GasReserve = new(big.Int).Set(cur.GasReserve)
	return cur
}

// Store replaces the tunables.
func (t *Tuning) Store(next command.Tunables) {
	if next.GasReserve == nil {
		next.GasReserve = new(big.Int)
	}
	next.GasReserve = new(big.Int).Set(next.GasReserve)
	t.current.Store(&next)
}

// Scheduler runs deferred continuations. scheduler.Scheduler implements it.
type Scheduler interface {
	Schedule(key correlation.Key, d time.Duration, cmd command.Command)
	Cancel(key correlation.Key) bool
	Len() int
	Now() time.Time
}

// Deps is shared by every handler.
type Deps struct {
	Stores    *repository.Stores
	Chain     Collaborators
	Networks  Networks
	Scheduler Scheduler
	Flags     *flags.Registry
	Settings  Settings
	Tuning    *Tuning
}

func (d *Deps) now() time.Time {
	return d.Scheduler.Now()
}

// ===========================================================================
// Results
// ===========================================================================

// SuccessResult wraps data in a successful result.
func SuccessResult(data any) *command.CommandResult {
	return &command.CommandResult{Success: true, Data: data}
}

// SuccessWithEvents wraps data and outbound effects in a successful result.
func SuccessWithEvents(data any, evts ...any) *command.CommandResult {
	return &command.CommandResult{Success: true, Data: data, Events: evts}
}

// SagaResult describes what a handler did to its saga.
type SagaResult struct {
	Key     string
	Outcome events.NoticeCode
}

func noticeResult(key string, n events.Notice, extra ...any) *command.CommandResult {
	return SuccessWithEvents(&SagaResult{Key: key, Outcome: n.Code}, append(extra, n)...)
}

// transientNotice logs err and tells the user to try again later.
func transientNotice(req types.Requester, what string, err error) events.Notice {
	log.ErrorErr(log.CatSaga, what+" failed", err, "user", req.UserID)
	msg := fmt.Sprintf("Could not %s right now. Please try again in a moment.", what)
	if !errors.Is(err, chain.ErrRPC) && !errors.Is(err, context.DeadlineExceeded) {
		msg = fmt.Sprintf("Could not %s: %v", what, err)
	}
	return events.NewNotice(req, events.NoticeTransientFailure, msg)
}

func asType[T command.Command](cmd command.Command) (T, error) {
	c, ok := cmd.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %T", types.ErrWrongCommandType, cmd)
	}
	return c, nil
}

func validate(cmd command.Command) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

func durationSeconds(d time.Duration) *big.Int {
	return big.NewInt(int64(d / time.Second))
}
