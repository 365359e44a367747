package handler

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zjrosen/namebridge/internal/chain"
	"github.com/zjrosen/namebridge/internal/correlation"
	"github.com/zjrosen/namebridge/internal/ens"
	"github.com/zjrosen/namebridge/internal/flags"
	"github.com/zjrosen/namebridge/internal/funding"
	"github.com/zjrosen/namebridge/internal/log"
	"github.com/zjrosen/namebridge/internal/orchestration/command"
	"github.com/zjrosen/namebridge/internal/orchestration/events"
	"github.com/zjrosen/namebridge/internal/orchestration/repository"
	"github.com/zjrosen/namebridge/internal/orchestration/types"
)

// ===========================================================================
// RequestRegistrationHandler
// ===========================================================================

// RequestRegistrationHandler handles CmdRequestRegistration. It prices the
// name, snapshots every linked wallet and prompts the user to pick one of the
// wallets that can pay. A request for a name whose commitment is already
// confirmed skips all of that and retries the reveal.
type RequestRegistrationHandler struct {
	deps *Deps
}

// NewRequestRegistrationHandler creates a new RequestRegistrationHandler.
func NewRequestRegistrationHandler(deps *Deps) *RequestRegistrationHandler {
	return &RequestRegistrationHandler{deps: deps}
}

// Handle processes a RequestRegistrationCommand.
func (h *RequestRegistrationHandler) Handle(ctx context.Context, cmd command.Command) (*command.CommandResult, error) {
	req, err := asType[*command.RequestRegistrationCommand](cmd)
	if err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}
	who := req.Requester
	name := ens.DisplayName(req.Label)

	if req.Testnet && !h.deps.Flags.Enabled(flags.FlagTestnetCommands) {
		return noticeResult("", events.NewNotice(who, events.NoticeTestnetDisabled,
			"Testnet registrations are disabled.").WithName(name)), nil
	}

	commitKey := correlation.CommitKey(who.ChannelID, who.UserID, req.Label, req.Testnet)
	if rec, err := h.deps.Stores.Commitments.Get(ctx, commitKey); err == nil {
		if rec.Phase == repository.PhaseRevealSubmitted {
			return revealPending(commitKey, rec), nil
		}
		if rec.Confirmed() {
			return retryReveal(commitKey, rec), nil
		}
	}

	net := h.deps.Networks.For(req.Testnet)
	info, err := h.deps.Chain.Names.Lookup(ctx, net, req.Label, durationSeconds(req.Duration))
	if err != nil {
		return noticeResult("", transientNotice(who, "check "+name, err)), nil
	}
	if !info.Available {
		return noticeResult("", events.NewNotice(who, events.NoticeNameUnavailable,
			fmt.Sprintf("%s is not available.", name)).WithName(name)), nil
	}

	tun := h.deps.Tuning.Load()
	required := funding.RequiredAmount(info.PriceWei, tun.GasReserve, tun.BufferPercent)

	addrs, err := h.deps.Chain.Wallets.LinkedWallets(ctx, who.UserID)
	if err != nil {
		return noticeResult("", transientNotice(who, "load your linked wallets", err)), nil
	}
	if len(addrs) == 0 {
		return noticeResult("", events.NewNotice(who, events.NoticeNoLinkedWallets,
			"Link a wallet before registering a name.").WithName(name)), nil
	}

	snaps, err := snapshotWallets(ctx, h.deps.Chain, net, addrs)
	if err != nil {
		return noticeResult("", transientNotice(who, "read your wallet balances", err)), nil
	}

	fee, snaps, err := quoteFee(ctx, h.deps.Chain, net, required, snaps)
	if err != nil {
		return noticeResult("", transientNotice(who, "quote the bridge fee", err)), nil
	}

	analysis := funding.Analyze(required, fee, snaps)
	log.Info(log.CatFunding, "funding analyzed",
		"user", who.UserID, "label", req.Label, "required", required.String(),
		"fee", analysis.Fee.String(), "outcome", analysis.Outcome.String(), "candidates", len(analysis.Candidates))

	switch analysis.Outcome {
	case funding.NoWallets:
		return noticeResult("", events.NewNotice(who, events.NoticeNoLinkedWallets,
			"Link a wallet before registering a name.").WithName(name)), nil
	case funding.NoEOA:
		return noticeResult("", events.NewNotice(who, events.NoticeNoExternallyOwned,
			"None of your linked wallets can sign a bridge deposit. Link a regular (externally owned) wallet.").WithName(name)), nil
	case funding.NoFunds:
		return noticeResult("", events.NewNotice(who, events.NoticeInsufficientFunds,
			fmt.Sprintf("None of your wallets holds the %s ETH needed for %s.", funding.FormatEther(required), name)).WithName(name)), nil
	}

	kind := correlation.KindWalletSelect
	if req.Testnet {
		kind = correlation.KindTestWalletPick
	}
	now := h.deps.now()
	key := correlation.Stamped(kind, who.ChannelID, who.UserID, req.Label, now)
	sel := &repository.Selection{
		ID:               repository.NewGeneration(),
		Requester:        who,
		Label:            req.Label,
		Duration:         req.Duration,
		Network:          net,
		Candidates:       analysis.Candidates,
		Required:         required,
		Fee:              analysis.Fee,
		RegistrationCost: info.PriceWei,
		CreatedAt:        now,
	}
	h.deps.Stores.Selections.Put(ctx, key, sel)

	form := events.Form(key.String(), fmt.Sprintf("Pay for %s", name), who, selectionOptions(sel))
	notice := events.NewNotice(who, events.NoticeSelectionRequested,
		fmt.Sprintf("%s costs %s ETH including gas and buffer. Pick the wallet to pay with.", name, funding.FormatEther(required))).
		WithKey(key.String()).WithName(name)
	return noticeResult(key.String(), notice, form), nil
}

// quoteFee quotes the bridge for required. When the quote fails but some
// wallet can pay directly, the analysis continues with direct paths only.
func quoteFee(ctx context.Context, c Collaborators, net chain.Network, required *big.Int, snaps []funding.WalletSnapshot) (*big.Int, []funding.WalletSnapshot, error) {
	quote, err := c.Bridge.Quote(ctx, net, required)
	if err == nil {
		return quote.FeeWei, snaps, nil
	}
	if hasDirectFunds(snaps, required) {
		log.Warn(log.CatBridge, "quote failed, offering direct payment only", "error", err.Error())
		return nil, withoutSourceFunds(snaps), nil
	}
	return nil, nil, err
}

// revealPending answers a repeat request while the register transaction is
// still waiting for the user. The in-flight reveal is left alone.
func revealPending(key correlation.Key, rec *repository.Commitment) *command.CommandResult {
	revealKey, _ := key.Reveal()
	log.Info(log.CatSaga, "reveal already awaiting approval", "key", revealKey.String(), "attempt", rec.RevealAttempts)
	notice := events.NewNotice(rec.Requester, events.NoticeAwaitingApproval,
		fmt.Sprintf("The registration of %s is already awaiting your approval.", rec.DisplayName())).
		WithKey(revealKey.String()).WithName(rec.DisplayName())
	return noticeResult(revealKey.String(), notice)
}

// retryReveal reuses a confirmed commitment: same secret, straight to the
// reveal, which waits out whatever remains of the delay.
func retryReveal(key correlation.Key, rec *repository.Commitment) *command.CommandResult {
	rec.Phase = repository.PhaseCommitConfirmed
	log.Info(log.CatSaga, "retrying reveal with existing commitment", "key", key.String(), "generation", rec.ID)
	notice := events.NewNotice(rec.Requester, events.NoticeInfo,
		fmt.Sprintf("Your commitment for %s is still valid. Retrying the registration.", rec.DisplayName())).
		WithKey(key.String()).WithName(rec.DisplayName())
	result := noticeResult(key.String(), notice)
	result.FollowUp = []command.Command{command.NewRevealCommitmentCommand(command.SourceInternal, key, rec.ID)}
	return result
}

func selectionOptions(sel *repository.Selection) []events.Option {
	opts := make([]events.Option, 0, len(sel.Candidates))
	for _, c := range sel.Candidates {
		var label string
		switch c.Path {
		case funding.PathDirect:
			label = fmt.Sprintf("%s: pay directly (%s ETH)", shortAddress(c.Wallet.Address), funding.FormatEther(c.Wallet.Destination))
		case funding.PathBridge:
			label = fmt.Sprintf("%s: bridge %s ETH (fee %s ETH)", shortAddress(c.Wallet.Address),
				funding.FormatEther(sel.Required), funding.FormatEther(sel.Fee))
		case funding.PathTransferBridge:
			label = fmt.Sprintf("%s: move %s ETH from %s, then bridge", shortAddress(c.Wallet.Address),
				funding.FormatEther(c.TransferAmount), shortAddress(c.FundingSource.Address))
		}
		opts = append(opts, events.Option{ID: repository.OptionID(c), Label: label})
	}
	return opts
}

func shortAddress(a common.Address) string {
	h := a.Hex()
	return h[:6] + "…" + h[len(h)-4:]
}

// ===========================================================================
// BeginCommitHandler
// ===========================================================================

// BeginCommitHandler handles CmdBeginCommit: it draws a fresh secret,
// stores the commitment and asks the owner to send commit(bytes32).
//
// An unconfirmed commitment under the same key is superseded. A confirmed one
// owned by the same wallet is reused and the saga jumps to the reveal. While a
// reveal awaits approval nothing changes.
type BeginCommitHandler struct {
	deps *Deps
}

// NewBeginCommitHandler creates a new BeginCommitHandler.
func NewBeginCommitHandler(deps *Deps) *BeginCommitHandler {
	return &BeginCommitHandler{deps: deps}
}

// Handle processes a BeginCommitCommand.
func (h *BeginCommitHandler) Handle(ctx context.Context, cmd command.Command) (*command.CommandResult, error) {
	begin, err := asType[*command.BeginCommitCommand](cmd)
	if err != nil {
		return nil, err
	}
	if err := validate(begin); err != nil {
		return nil, err
	}
	who := begin.Requester
	key := correlation.CommitKey(who.ChannelID, who.UserID, begin.Label, begin.Testnet)

	if prev, err := h.deps.Stores.Commitments.Get(ctx, key); err == nil {
		if prev.Phase == repository.PhaseRevealSubmitted {
			return revealPending(key, prev), nil
		}
		if prev.Confirmed() && prev.Owner() == begin.Owner {
			return retryReveal(key, prev), nil
		}
		h.deps.Scheduler.Cancel(key)
		h.deps.Stores.Commitments.Delete(ctx, key)
		log.Info(log.CatSaga, "commitment superseded", "key", key.String(), "generation", prev.ID)
	}

	net := h.deps.Networks.For(begin.Testnet)
	secret, err := ens.NewSecret()
	if err != nil {
		return nil, err
	}
	reg := ens.Registration{
		Label:         begin.Label,
		Owner:         begin.Owner,
		Duration:      durationSeconds(begin.Duration),
		Secret:        secret,
		Resolver:      net.PublicResolver,
		ReverseRecord: h.deps.Settings.ReverseRecord,
	}
	hash, err := ens.MakeCommitment(reg)
	if err != nil {
		return nil, err
	}
	data, err := ens.CommitCalldata(hash)
	if err != nil {
		return nil, fmt.Errorf("encode commit: %w", err)
	}

	rec := &repository.Commitment{
		ID:             repository.NewGeneration(),
		Requester:      who,
		Label:          begin.Label,
		Network:        net,
		Registration:   reg,
		Duration:       begin.Duration,
		CommitmentHash: hash,
		CreatedAt:      h.deps.now(),
		Phase:          repository.PhaseCommitSubmitted,
	}
	h.deps.Stores.Commitments.Put(ctx, key, rec)
	log.Info(log.CatSaga, "commit requested", "key", key.String(), "owner", begin.Owner.Hex(), "generation", rec.ID)

	owner := begin.Owner
	action := events.Transaction(key.String(), fmt.Sprintf("Commit to %s", rec.DisplayName()), who,
		net.DestinationChainID, net.Controller, new(big.Int), data, &owner)
	notice := events.NewNotice(who, events.NoticeCommitSubmitted,
		fmt.Sprintf("Step 1 of 2: approve the commitment for %s.", rec.DisplayName())).
		WithKey(key.String()).WithName(rec.DisplayName())
	return noticeResult(key.String(), notice, action), nil
}

// ===========================================================================
// RevealCommitmentHandler
// ===========================================================================

// RevealCommitmentHandler handles CmdRevealCommitment, the continuation
// scheduled when a commit is confirmed. It never sends the reveal before the
// commitment is old enough: an early continuation is rescheduled for the
// remainder.
type RevealCommitmentHandler struct {
	deps *Deps
}

// NewRevealCommitmentHandler creates a new RevealCommitmentHandler.
func NewRevealCommitmentHandler(deps *Deps) *RevealCommitmentHandler {
	return &RevealCommitmentHandler{deps: deps}
}

// RevealResult reports what a reveal continuation did.
type RevealResult struct {
	Key         string
	Ignored     bool
	Rescheduled bool
	Outcome     events.NoticeCode
}

// Handle processes a RevealCommitmentCommand.
func (h *RevealCommitmentHandler) Handle(ctx context.Context, cmd command.Command) (*command.CommandResult, error) {
	reveal, err := asType[*command.RevealCommitmentCommand](cmd)
	if err != nil {
		return nil, err
	}
	if err := validate(reveal); err != nil {
		return nil, err
	}
	key := reveal.Key

	rec, err := h.deps.Stores.Commitments.Get(ctx, key)
	if err != nil {
		log.Debug(log.CatSaga, "reveal for missing commitment ignored", "key", key.String())
		return SuccessResult(&RevealResult{Key: key.String(), Ignored: true}), nil
	}
	if rec.ID != reveal.Generation || rec.Phase != repository.PhaseCommitConfirmed || !rec.Confirmed() {
		log.Debug(log.CatSaga, "stale reveal ignored",
			"key", key.String(), "generation", reveal.Generation, "current", rec.ID, "phase", rec.Phase.String())
		return SuccessResult(&RevealResult{Key: key.String(), Ignored: true}), nil
	}

	now := h.deps.now()
	if at := rec.RevealableAt(h.deps.Settings.MinCommitmentAge); now.Before(at) {
		h.deps.Scheduler.Schedule(key, at.Sub(now), command.NewRevealCommitmentCommand(command.SourceTimer, key, rec.ID))
		return SuccessResult(&RevealResult{Key: key.String(), Rescheduled: true}), nil
	}

	who := rec.Requester
	name := rec.DisplayName()
	fail := func(n events.Notice) (*command.CommandResult, error) {
		h.deps.Stores.Commitments.Delete(ctx, key)
		return SuccessWithEvents(&RevealResult{Key: key.String(), Outcome: n.Code}, n.WithKey(key.String()).WithName(name)), nil
	}

	if maxAge := h.deps.Settings.MaxCommitmentAge; maxAge > 0 && now.After(rec.CommittedAt.Add(maxAge)) {
		return fail(events.NewNotice(who, events.NoticeExpired,
			fmt.Sprintf("Your commitment for %s expired. Request the name again to start over.", name)))
	}

	info, err := h.deps.Chain.Names.Lookup(ctx, rec.Network, rec.Label, rec.Registration.Duration)
	if err != nil {
		return fail(transientNotice(who, "price "+name, err))
	}
	if !info.Available {
		return fail(events.NewNotice(who, events.NoticeNameUnavailable,
			fmt.Sprintf("%s was taken before it could be registered.", name)))
	}

	data, err := ens.RegisterCalldata(rec.Registration)
	if err != nil {
		return nil, fmt.Errorf("encode register: %w", err)
	}
	revealKey, ok := key.Reveal()
	if !ok {
		return nil, fmt.Errorf("%w: %s has no reveal key", types.ErrWrongCommandType, key)
	}

	value := funding.ApplyBuffer(info.PriceWei, h.deps.Tuning.Load().BufferPercent)
	rec.Phase = repository.PhaseRevealSubmitted
	rec.RevealAttempts++
	log.Info(log.CatSaga, "reveal requested",
		"key", revealKey.String(), "value", value.String(), "attempt", rec.RevealAttempts)

	owner := rec.Owner()
	action := events.Transaction(revealKey.String(), fmt.Sprintf("Register %s", name), who,
		rec.Network.DestinationChainID, rec.Network.Controller, value, data, &owner)
	notice := events.NewNotice(who, events.NoticeInfo,
		fmt.Sprintf("Step 2 of 2: approve the registration of %s for %s ETH.", name, funding.FormatEther(value))).
		WithKey(revealKey.String()).WithName(name)
	return SuccessWithEvents(&RevealResult{Key: revealKey.String()}, action, notice), nil
}

// ===========================================================================
// Confirmations
// ===========================================================================

// commitRoute resumes a registration when its commit transaction is
// confirmed or declined.
type commitRoute struct {
	deps *Deps
}

func (r commitRoute) respond(ctx context.Context, key correlation.Key, resp command.Response) (*command.CommandResult, error) {
	rec, err := r.deps.Stores.Commitments.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	who, name := rec.Requester, rec.DisplayName()

	if rec.Phase != repository.PhaseCommitSubmitted {
		log.Warn(log.CatSaga, "duplicate commit confirmation ignored", "key", key.String(), "phase", rec.Phase.String())
		return SuccessResult(&ResponseResult{Key: key.String(), Kind: key.Kind.String(), Ignored: true}), nil
	}
	if !resp.Succeeded() {
		r.deps.Scheduler.Cancel(key)
		r.deps.Stores.Commitments.Delete(ctx, key)
		return responseNotice(key, events.NewNotice(who, events.NoticeCancelled,
			fmt.Sprintf("The commitment for %s was not sent. Request the name again to retry.", name)).WithName(name)), nil
	}

	now := r.deps.now()
	rec.ConfirmCommit(*resp.TxHash, now)
	// The commitment stays usable for MaxCommitmentAge from now.
	r.deps.Stores.Commitments.Put(ctx, key, rec)
	wait := r.deps.Settings.MinCommitmentAge
	r.deps.Scheduler.Schedule(key, wait, command.NewRevealCommitmentCommand(command.SourceTimer, key, rec.ID))
	log.Info(log.CatSaga, "commit confirmed", "key", key.String(), "tx", resp.TxHash.Hex(), "reveal_in", wait.String())

	return responseNotice(key, events.NewNotice(who, events.NoticeCommitConfirmed,
		fmt.Sprintf("Commitment for %s confirmed. The registration request follows in %s.", name, wait.Round(time.Second))).
		WithName(name).WithTx(resp.TxHash.Hex())), nil
}

// revealRoute finishes a registration. The reveal key is mapped back to the
// commit key the record is stored under.
type revealRoute struct {
	deps *Deps
}

func (r revealRoute) respond(ctx context.Context, key correlation.Key, resp command.Response) (*command.CommandResult, error) {
	commitKey, ok := key.Commitment()
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, types.ErrRecordNotFound)
	}
	rec, err := r.deps.Stores.Commitments.Get(ctx, commitKey)
	if err != nil {
		return nil, err
	}
	if !rec.Confirmed() {
		return nil, fmt.Errorf("%s has no confirmed commit: %w", commitKey, types.ErrRecordNotFound)
	}
	who, name := rec.Requester, rec.DisplayName()

	if !resp.Succeeded() {
		rec.Phase = repository.PhaseCommitConfirmed
		validUntil := rec.CommittedAt.Add(r.deps.Settings.MaxCommitmentAge)
		return responseNotice(key, events.NewNotice(who, events.NoticeRevealFailed,
			fmt.Sprintf("The registration of %s did not go through. Your commitment stays valid until %s; request the name again to retry.",
				name, validUntil.UTC().Format("2006-01-02 15:04 MST"))).WithName(name)), nil
	}

	r.deps.Scheduler.Cancel(commitKey)
	r.deps.Stores.Commitments.Delete(ctx, commitKey)
	log.Info(log.CatSaga, "name registered", "name", name, "owner", rec.Owner().Hex(), "tx", resp.TxHash.Hex())
	return responseNotice(key, events.NewNotice(who, events.NoticeRegistered,
		fmt.Sprintf("%s is now owned by %s.", name, rec.Owner().Hex())).WithName(name).WithTx(resp.TxHash.Hex())), nil
}
