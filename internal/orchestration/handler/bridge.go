package handler

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/zjrosen/namebridge/internal/across"
	"github.com/zjrosen/namebridge/internal/chain"
	"github.com/zjrosen/namebridge/internal/correlation"
	"github.com/zjrosen/namebridge/internal/ens"
	"github.com/zjrosen/namebridge/internal/flags"
	"github.com/zjrosen/namebridge/internal/funding"
	"github.com/zjrosen/namebridge/internal/log"
	"github.com/zjrosen/namebridge/internal/orchestration/command"
	"github.com/zjrosen/namebridge/internal/orchestration/events"
	"github.com/zjrosen/namebridge/internal/orchestration/repository"
)

// ===========================================================================
// BeginBridgeHandler
// ===========================================================================

// BeginBridgeHandler handles CmdBeginBridge. It re-reads the wallet's
// source balance, takes a fresh quote and asks the wallet to send a depositV3
// with itself as depositor and recipient. Nothing is requested without a
// usable quote.
type BeginBridgeHandler struct {
	deps *Deps
}

// NewBeginBridgeHandler creates a new BeginBridgeHandler.
func NewBeginBridgeHandler(deps *Deps) *BeginBridgeHandler {
	return &BeginBridgeHandler{deps: deps}
}

// Handle processes a BeginBridgeCommand.
func (h *BeginBridgeHandler) Handle(ctx context.Context, cmd command.Command) (*command.CommandResult, error) {
	begin, err := asType[*command.BeginBridgeCommand](cmd)
	if err != nil {
		return nil, err
	}
	if err := validate(begin); err != nil {
		return nil, err
	}
	who := begin.Requester
	name := ens.DisplayName(begin.Label)
	net := h.deps.Networks.For(begin.Testnet)
	notice := func(n events.Notice) (*command.CommandResult, error) {
		return noticeResult("", n.WithName(name)), nil
	}

	balance, err := h.deps.Chain.Balances.Balance(ctx, net.SourceChainID, begin.Wallet)
	if err != nil {
		return notice(transientNotice(who, "re-check your wallet balance", err))
	}
	quote, err := h.deps.Chain.Bridge.Quote(ctx, net, begin.Required)
	if err != nil {
		return notice(transientNotice(who, "quote the bridge", err))
	}

	output := funding.BridgeOutput(begin.Required, quote.FeeWei)
	if quote.IsAmountTooLow || output.Sign() <= 0 {
		return notice(events.NewNotice(who, events.NoticeBridgeAmountTooLow,
			fmt.Sprintf("Bridging %s ETH is below the bridge minimum.", funding.FormatEther(begin.Required))))
	}
	if needed := new(big.Int).Add(begin.Required, quote.FeeWei); balance.Cmp(needed) < 0 {
		return notice(events.NewNotice(who, events.NoticeInsufficientFunds,
			fmt.Sprintf("%s holds %s ETH but the bridge needs %s ETH.",
				begin.Wallet.Hex(), funding.FormatEther(balance), funding.FormatEther(needed))))
	}

	now := h.deps.now()
	key := correlation.Stamped(correlation.KindBridgeEOA, who.ChannelID, who.UserID, begin.Label, now)
	op := &repository.BridgeOperation{
		ID:               repository.NewGeneration(),
		Requester:        who,
		Label:            begin.Label,
		Duration:         begin.Duration,
		Network:          net,
		Stage:            repository.StageBridge,
		SourceChain:      net.SourceChainID,
		DestinationChain: net.DestinationChainID,
		Depositor:        begin.Wallet,
		Recipient:        begin.Wallet,
		InputAmount:      new(big.Int).Set(begin.Required),
		OutputAmount:     output,
		Fee:              quote.FeeWei,
		Required:         begin.Required,
		Status:           repository.BridgePending,
		QuoteTimestamp:   quote.Timestamp,
		FillDeadline:     quote.FillDeadline,
		EstimatedFill:    quote.EstimatedFill,
		CreatedAt:        now,
	}
	if err := op.Validate(); err != nil {
		return nil, err
	}

	data, err := across.DepositV3Calldata(across.Deposit{
		Depositor:          op.Depositor,
		Recipient:          op.Recipient,
		InputToken:         net.SourceWETH,
		OutputToken:        net.DestinationWETH,
		InputAmount:        op.InputAmount,
		OutputAmount:       op.OutputAmount,
		DestinationChainID: op.DestinationChain,
		QuoteTimestamp:     op.QuoteTimestamp,
		FillDeadline:       op.FillDeadline,
	})
	if err != nil {
		return nil, err
	}

	h.deps.Stores.Bridges.Put(ctx, key, op)
	log.Info(log.CatBridge, "bridge requested",
		"key", key.String(), "input", op.InputAmount.String(), "output", op.OutputAmount.String(), "fee", op.Fee.String())

	wallet := begin.Wallet
	action := events.Transaction(key.String(), fmt.Sprintf("Bridge %s ETH for %s", funding.FormatEther(op.InputAmount), name), who,
		net.SourceChainID, quote.SpokePool, op.InputAmount, data, &wallet)
	info := events.NewNotice(who, events.NoticeInfo,
		fmt.Sprintf("Approve the bridge deposit: %s ETH arrives as %s ETH after a %s ETH fee.",
			funding.FormatEther(op.InputAmount), funding.FormatEther(op.OutputAmount), funding.FormatEther(op.Fee))).
		WithKey(key.String()).WithName(name)
	return noticeResult(key.String(), info, action), nil
}

// bridgeRoute handles the confirmation of a deposit transaction.
type bridgeRoute struct {
	deps *Deps
}

func (r bridgeRoute) respond(ctx context.Context, key correlation.Key, resp command.Response) (*command.CommandResult, error) {
	op, err := r.deps.Stores.Bridges.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	who, name := op.Requester, ens.DisplayName(op.Label)

	if op.Status != repository.BridgePending {
		log.Warn(log.CatBridge, "duplicate bridge confirmation ignored", "key", key.String(), "status", op.Status.String())
		return SuccessResult(&ResponseResult{Key: key.String(), Kind: key.Kind.String(), Ignored: true}), nil
	}
	if !resp.Succeeded() {
		r.deps.Stores.Bridges.Delete(ctx, key)
		return responseNotice(key, events.NewNotice(who, events.NoticeCancelled,
			"The bridge deposit was not sent. Request the name again to retry.").WithName(name)), nil
	}

	if err := op.Advance(repository.BridgeSubmitted); err != nil {
		return nil, err
	}
	tx := *resp.TxHash
	op.TxHash = &tx

	msg := fmt.Sprintf("Bridge deposit sent. Funds usually arrive in about %s.", op.EstimatedFill.Round(time.Second))
	if r.deps.Flags.Enabled(flags.FlagBridgePolling) {
		r.deps.Scheduler.Schedule(key, r.deps.Settings.PollInterval,
			command.NewPollBridgeCommand(command.SourceTimer, key, op.ID))
		msg += " Registration starts automatically once they do."
	} else {
		r.deps.Stores.Bridges.Delete(ctx, key)
		msg += fmt.Sprintf(" Request %s again once they have arrived.", name)
	}
	log.Info(log.CatBridge, "bridge submitted", "key", key.String(), "tx", tx.Hex())
	return responseNotice(key, events.NewNotice(who, events.NoticeBridgeSubmitted, msg).WithName(name).WithTx(tx.Hex())), nil
}

// ===========================================================================
// PollBridgeHandler
// ===========================================================================

// PollBridgeHandler handles CmdPollBridge. A filled deposit starts the
// registration with the bridged wallet as owner. The poll gives up at the
// quote's fill deadline or after the configured number of attempts.
type PollBridgeHandler struct {
	deps *Deps
}

// NewPollBridgeHandler creates a new PollBridgeHandler.
func NewPollBridgeHandler(deps *Deps) *PollBridgeHandler {
	return &PollBridgeHandler{deps: deps}
}

// PollResult reports one poll of a deposit.
type PollResult struct {
	Key     string
	Ignored bool
	Status  chain.FillStatus
}

// Handle processes a PollBridgeCommand.
func (h *PollBridgeHandler) Handle(ctx context.Context, cmd command.Command) (*command.CommandResult, error) {
	poll, err := asType[*command.PollBridgeCommand](cmd)
	if err != nil {
		return nil, err
	}
	if err := validate(poll); err != nil {
		return nil, err
	}
	key := poll.Key

	op, err := h.deps.Stores.Bridges.Get(ctx, key)
	if err != nil || op.ID != poll.Generation || op.Status != repository.BridgeSubmitted || op.TxHash == nil {
		log.Debug(log.CatBridge, "stale bridge poll ignored", "key", key.String())
		return SuccessResult(&PollResult{Key: key.String(), Ignored: true}), nil
	}
	who, name := op.Requester, ens.DisplayName(op.Label)
	op.PollAttempts++

	status, err := h.deps.Chain.Bridge.DepositStatus(ctx, op.Network, *op.TxHash)
	if err != nil {
		log.Warn(log.CatBridge, "deposit status unavailable", "key", key.String(), "attempt", op.PollAttempts, "error", err.Error())
		status = chain.FillPending
	}

	expire := func(msg string) (*command.CommandResult, error) {
		if err := op.Advance(repository.BridgeExpired); err != nil {
			return nil, err
		}
		h.deps.Stores.Bridges.Delete(ctx, key)
		n := events.NewNotice(who, events.NoticeBridgeExpired, msg).WithKey(key.String()).WithName(name).WithTx(op.TxHash.Hex())
		return SuccessWithEvents(&PollResult{Key: key.String(), Status: status}, n), nil
	}

	switch status {
	case chain.FillFilled:
		if err := op.Advance(repository.BridgeFilled); err != nil {
			return nil, err
		}
		h.deps.Stores.Bridges.Delete(ctx, key)
		log.Info(log.CatBridge, "bridge filled", "key", key.String(), "attempts", op.PollAttempts)
		n := events.NewNotice(who, events.NoticeBridgeFilled,
			fmt.Sprintf("%s ETH arrived. Starting the registration of %s.", funding.FormatEther(op.OutputAmount), name)).
			WithKey(key.String()).WithName(name).WithTx(op.TxHash.Hex())
		result := SuccessWithEvents(&PollResult{Key: key.String(), Status: status}, n)
		result.FollowUp = []command.Command{
			command.NewBeginCommitCommand(command.SourceInternal, who, op.Label, op.Duration, op.Network.Testnet, op.Recipient),
		}
		return result, nil
	case chain.FillExpired, chain.FillRefunded:
		return expire("The bridge deposit expired without being filled; the bridge refunds it to your wallet.")
	}

	now := h.deps.now()
	if op.FillDeadline > 0 && now.Unix() > int64(op.FillDeadline) {
		return expire("The bridge deposit passed its fill deadline. Any refund goes back to your wallet.")
	}
	if maxAttempts := h.deps.Settings.MaxPollAttempts; maxAttempts > 0 && op.PollAttempts >= maxAttempts {
		return expire(fmt.Sprintf("Stopped waiting for the bridge. Request %s again once the funds have arrived.", name))
	}
	h.deps.Scheduler.Schedule(key, h.deps.Settings.PollInterval, command.NewPollBridgeCommand(command.SourceTimer, key, op.ID))
	return SuccessResult(&PollResult{Key: key.String(), Status: status}), nil
}

// ===========================================================================
// BeginTransferHandler
// ===========================================================================

// BeginTransferHandler handles CmdBeginTransfer, the first leg of a
// transfer-then-bridge saga: the smart wallet sends Amount to the
// externally owned wallet on the source chain. The bridge leg starts only
// after this transfer is confirmed.
type BeginTransferHandler struct {
	deps *Deps
}

// NewBeginTransferHandler creates a new BeginTransferHandler.
func NewBeginTransferHandler(deps *Deps) *BeginTransferHandler {
	return &BeginTransferHandler{deps: deps}
}

// Handle processes a BeginTransferCommand.
func (h *BeginTransferHandler) Handle(ctx context.Context, cmd command.Command) (*command.CommandResult, error) {
	begin, err := asType[*command.BeginTransferCommand](cmd)
	if err != nil {
		return nil, err
	}
	if err := validate(begin); err != nil {
		return nil, err
	}
	who := begin.Requester
	name := ens.DisplayName(begin.Label)
	net := h.deps.Networks.For(begin.Testnet)

	balance, err := h.deps.Chain.Balances.Balance(ctx, net.SourceChainID, begin.Source)
	if err != nil {
		return noticeResult("", transientNotice(who, "re-check your smart wallet balance", err).WithName(name)), nil
	}
	if balance.Cmp(begin.Amount) < 0 {
		return noticeResult("", events.NewNotice(who, events.NoticeInsufficientFunds,
			fmt.Sprintf("%s holds %s ETH, short of the %s ETH to move.",
				begin.Source.Hex(), funding.FormatEther(balance), funding.FormatEther(begin.Amount))).WithName(name)), nil
	}

	kind := correlation.KindTransfer
	if begin.Testnet {
		kind = correlation.KindTestTransfer
	}
	now := h.deps.now()
	key := correlation.Stamped(kind, who.ChannelID, who.UserID, begin.Label, now)
	source := begin.Source
	op := &repository.BridgeOperation{
		ID:               repository.NewGeneration(),
		Requester:        who,
		Label:            begin.Label,
		Duration:         begin.Duration,
		Network:          net,
		Stage:            repository.StageTransfer,
		SourceChain:      net.SourceChainID,
		DestinationChain: net.DestinationChainID,
		Depositor:        begin.Source,
		Recipient:        begin.Wallet,
		FundingWallet:    &source,
		InputAmount:      new(big.Int).Set(begin.Amount),
		OutputAmount:     new(big.Int).Set(begin.Amount),
		Fee:              new(big.Int),
		Required:         begin.Required,
		Status:           repository.BridgePending,
		CreatedAt:        now,
	}
	if err := op.Validate(); err != nil {
		return nil, err
	}
	h.deps.Stores.Bridges.Put(ctx, key, op)
	log.Info(log.CatSaga, "transfer requested", "key", key.String(), "from", source.Hex(), "to", begin.Wallet.Hex())

	action := events.Transaction(key.String(),
		fmt.Sprintf("Move %s ETH to %s", funding.FormatEther(begin.Amount), shortAddress(begin.Wallet)), who,
		net.SourceChainID, begin.Wallet, begin.Amount, nil, &source)
	info := events.NewNotice(who, events.NoticeInfo,
		fmt.Sprintf("Step 1: move %s ETH from your smart wallet to %s. The bridge follows once it is confirmed.",
			funding.FormatEther(begin.Amount), begin.Wallet.Hex())).WithKey(key.String()).WithName(name)
	return noticeResult(key.String(), info, action), nil
}

// transferRoute handles the confirmation of the smart-wallet transfer and
// chains the bridge leg.
type transferRoute struct {
	deps *Deps
}

func (r transferRoute) respond(ctx context.Context, key correlation.Key, resp command.Response) (*command.CommandResult, error) {
	op, err := r.deps.Stores.Bridges.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	who, name := op.Requester, ens.DisplayName(op.Label)

	if op.Status != repository.BridgePending {
		return SuccessResult(&ResponseResult{Key: key.String(), Kind: key.Kind.String(), Ignored: true}), nil
	}
	r.deps.Stores.Bridges.Delete(ctx, key)
	if !resp.Succeeded() {
		return responseNotice(key, events.NewNotice(who, events.NoticeCancelled,
			"The smart wallet transfer was not sent. Request the name again to retry.").WithName(name)), nil
	}
	if err := op.Advance(repository.BridgeFilled); err != nil {
		return nil, err
	}

	tx := resp.TxHash.Hex()
	if !r.deps.Flags.Enabled(flags.FlagTransferChaining) {
		return responseNotice(key, events.NewNotice(who, events.NoticeTransferConfirmed,
			fmt.Sprintf("Funds moved to %s. Request %s again to bridge them.", op.Recipient.Hex(), name)).WithName(name).WithTx(tx)), nil
	}

	next := command.NewBeginBridgeCommand(command.SourceInternal, who, op.Label, op.Duration, op.Network.Testnet, op.Recipient, op.Required)
	transferKey := key
	next.TransferKey = &transferKey
	log.Info(log.CatSaga, "transfer confirmed, chaining bridge", "key", key.String(), "tx", tx)

	result := responseNotice(key, events.NewNotice(who, events.NoticeTransferConfirmed,
		fmt.Sprintf("Funds moved to %s. Preparing the bridge deposit.", op.Recipient.Hex())).WithName(name).WithTx(tx))
	result.FollowUp = []command.Command{next}
	return result, nil
}
