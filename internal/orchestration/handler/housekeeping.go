package handler

import (
	"context"
	"fmt"

	"github.com/zjrosen/namebridge/internal/correlation"
	"github.com/zjrosen/namebridge/internal/ens"
	"github.com/zjrosen/namebridge/internal/log"
	"github.com/zjrosen/namebridge/internal/orchestration/command"
	"github.com/zjrosen/namebridge/internal/orchestration/events"
	"github.com/zjrosen/namebridge/internal/orchestration/repository"
	"github.com/zjrosen/namebridge/internal/orchestration/types"
)

// ===========================================================================
// SweepStoresHandler
// ===========================================================================

// StoreObserver receives store statistics after each sweep.
// metrics.Metrics implements it.
type StoreObserver interface {
	AddSwept(store string, n int)
	SetStoreSizes(sizes map[string]int)
	SetPendingTimers(n int)
}

// SweepStoresHandler handles CmdSweepStores. Every record past its TTL is
// removed, its continuation cancelled and its user told.
type SweepStoresHandler struct {
	deps     *Deps
	observer StoreObserver
}

// NewSweepStoresHandler creates a SweepStoresHandler. observer may be nil.
func NewSweepStoresHandler(deps *Deps, observer StoreObserver) *SweepStoresHandler {
	return &SweepStoresHandler{deps: deps, observer: observer}
}

// SweepResult counts the evicted records per store.
type SweepResult struct {
	Evicted map[string]int
}

// Handle processes a SweepStoresCommand.
func (h *SweepStoresHandler) Handle(ctx context.Context, _ command.Command) (*command.CommandResult, error) {
	stores := h.deps.Stores
	result := &SweepResult{Evicted: map[string]int{}}
	var notices []any

	expired := func(store string, key correlation.Key, who types.Requester, name, what string) {
		h.deps.Scheduler.Cancel(key)
		result.Evicted[store]++
		notices = append(notices, events.NewNotice(who, events.NoticeExpired,
			fmt.Sprintf("Your pending %s for %s expired. Request it again to start over.", what, name)).
			WithKey(key.String()).WithName(name))
	}

	for key, rec := range stores.Commitments.Sweep(ctx) {
		expired(stores.Commitments.Name(), key, rec.Requester, rec.DisplayName(), "registration")
	}
	for key, op := range stores.Bridges.Sweep(ctx) {
		what := "bridge deposit"
		if op.Stage == repository.StageTransfer {
			what = "wallet transfer"
		}
		expired(stores.Bridges.Name(), key, op.Requester, ens.DisplayName(op.Label), what)
	}
	for key, sel := range stores.Selections.Sweep(ctx) {
		expired(stores.Selections.Name(), key, sel.Requester, ens.DisplayName(sel.Label), "wallet selection")
	}
	for key, sub := range stores.Subdomains.Sweep(ctx) {
		expired(stores.Subdomains.Name(), key, sub.Requester, sub.FullName, "subdomain assignment")
	}

	if h.observer != nil {
		for store, n := range result.Evicted {
			h.observer.AddSwept(store, n)
		}
		h.observer.SetStoreSizes(stores.Sizes())
		h.observer.SetPendingTimers(h.deps.Scheduler.Len())
	}
	if len(notices) > 0 {
		log.Info(log.CatOrch, "stores swept", "evicted", len(notices))
	}
	return SuccessWithEvents(result, notices...), nil
}

// ===========================================================================
// ReloadSettingsHandler
// ===========================================================================

// ReloadSettingsHandler handles CmdReloadSettings. Sagas already past their
// pricing step keep the amounts they computed.
type ReloadSettingsHandler struct {
	deps *Deps
}

// NewReloadSettingsHandler creates a new ReloadSettingsHandler.
func NewReloadSettingsHandler(deps *Deps) *ReloadSettingsHandler {
	return &ReloadSettingsHandler{deps: deps}
}

// Handle processes a ReloadSettingsCommand.
func (h *ReloadSettingsHandler) Handle(_ context.Context, cmd command.Command) (*command.CommandResult, error) {
	reload, err := asType[*command.ReloadSettingsCommand](cmd)
	if err != nil {
		return nil, err
	}
	if err := validate(reload); err != nil {
		return nil, err
	}
	prev := h.deps.Tuning.Load()
	h.deps.Tuning.Store(reload.Tunables)
	log.Info(log.CatConfig, "tunables reloaded",
		"buffer_percent", reload.Tunables.BufferPercent, "previous_buffer_percent", prev.BufferPercent,
		"gas_reserve", reload.Tunables.GasReserve.String(), "previous_gas_reserve", prev.GasReserve.String())
	return SuccessResult(h.deps.Tuning.Load()), nil
}

// ===========================================================================
// NotifyUserHandler
// ===========================================================================

// NotifyUserHandler handles CmdNotifyUser by emitting a plain notice.
type NotifyUserHandler struct{}

// NewNotifyUserHandler creates a new NotifyUserHandler.
func NewNotifyUserHandler() *NotifyUserHandler {
	return &NotifyUserHandler{}
}

// Handle processes a NotifyUserCommand.
func (h *NotifyUserHandler) Handle(_ context.Context, cmd command.Command) (*command.CommandResult, error) {
	notify, err := asType[*command.NotifyUserCommand](cmd)
	if err != nil {
		return nil, err
	}
	if err := validate(notify); err != nil {
		return nil, err
	}
	notice := events.NewNotice(notify.Requester, events.NoticeInfo, notify.Message)
	return SuccessWithEvents(&notice, notice), nil
}
