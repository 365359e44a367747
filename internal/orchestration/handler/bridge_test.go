package handler_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/namebridge/internal/across"
	"github.com/zjrosen/namebridge/internal/chain"
	"github.com/zjrosen/namebridge/internal/correlation"
	"github.com/zjrosen/namebridge/internal/flags"
	"github.com/zjrosen/namebridge/internal/orchestration/command"
	"github.com/zjrosen/namebridge/internal/orchestration/events"
	"github.com/zjrosen/namebridge/internal/orchestration/handler"
	"github.com/zjrosen/namebridge/internal/orchestration/repository"
	"github.com/zjrosen/namebridge/internal/testutil"
)

var required = testutil.Ether("0.022")

func (h *harness) beginBridge(sourceBalance *big.Int) *command.CommandResult {
	h.t.Helper()
	h.balances.EXPECT().Balance(mock.Anything, mainnet.SourceChainID, testutil.EOAWallet).Return(sourceBalance, nil).Maybe()
	cmd := command.NewBeginBridgeCommand(command.SourceInternal, alice, "alice", year, false, testutil.EOAWallet, required)
	result, err := handler.NewBeginBridgeHandler(h.deps).Handle(h.ctx, cmd)
	require.NoError(h.t, err)
	require.True(h.t, result.Success)
	return result
}

// submittedBridge starts a deposit and confirms it.
func (h *harness) submittedBridge() (correlation.Key, *repository.BridgeOperation) {
	h.t.Helper()
	h.quoted(mainnet, "0.001")
	action := onlyAction(h.t, h.beginBridge(testutil.Ether("0.5")))
	h.respond(action.ID, txHash(7), "")
	key, ok := correlation.Parse(action.ID)
	require.True(h.t, ok)
	op, err := h.deps.Stores.Bridges.Get(h.ctx, key)
	require.NoError(h.t, err)
	return key, op
}

func (h *harness) poll(key correlation.Key, generation string) (*command.CommandResult, *handler.PollResult) {
	h.t.Helper()
	result, err := handler.NewPollBridgeHandler(h.deps).Handle(h.ctx, command.NewPollBridgeCommand(command.SourceTimer, key, generation))
	require.NoError(h.t, err)
	return result, result.Data.(*handler.PollResult)
}

// ===========================================================================
// BeginBridge
// ===========================================================================

func TestBeginBridge_DepositArrivesNetOfFee(t *testing.T) {
	h := newHarness(t)
	h.quoted(mainnet, "0.001")

	result := h.beginBridge(testutil.Ether("0.5"))

	action := onlyAction(t, result)
	key, ok := correlation.Parse(action.ID)
	require.True(t, ok)
	require.Equal(t, correlation.KindBridgeEOA, key.Kind)

	op, err := h.deps.Stores.Bridges.Get(h.ctx, key)
	require.NoError(t, err)
	require.Equal(t, 0, op.InputAmount.Cmp(testutil.Ether("0.022")))
	require.Equal(t, 0, op.OutputAmount.Cmp(testutil.Ether("0.021")))
	require.Equal(t, mainnet.SourceChainID, op.SourceChain)
	require.Equal(t, mainnet.DestinationChainID, op.DestinationChain)
	require.Equal(t, testutil.EOAWallet, op.Depositor)
	require.Equal(t, testutil.EOAWallet, op.Recipient)
	require.Equal(t, repository.BridgePending, op.Status)

	require.Equal(t, mainnet.SourceChainID, action.ChainID)
	require.Equal(t, spokePool, *action.To)
	require.Equal(t, testutil.EOAWallet, *action.SignerWallet)
	require.Equal(t, 0, action.ValueWei().Cmp(op.InputAmount))
	data, err := across.DepositV3Calldata(across.Deposit{
		Depositor:          testutil.EOAWallet,
		Recipient:          testutil.EOAWallet,
		InputToken:         mainnet.SourceWETH,
		OutputToken:        mainnet.DestinationWETH,
		InputAmount:        op.InputAmount,
		OutputAmount:       op.OutputAmount,
		DestinationChainID: mainnet.DestinationChainID,
		QuoteTimestamp:     op.QuoteTimestamp,
		FillDeadline:       op.FillDeadline,
	})
	require.NoError(t, err)
	require.Equal(t, data, []byte(action.Data))
}

func TestBeginBridge_Refusals(t *testing.T) {
	tests := []struct {
		name    string
		quote   chain.Quote
		err     error
		balance string
		want    events.NoticeCode
	}{
		{"amount below bridge minimum", chain.Quote{FeeWei: testutil.Ether("0.001"), IsAmountTooLow: true}, nil, "0.5", events.NoticeBridgeAmountTooLow},
		{"fee eats the whole amount", chain.Quote{FeeWei: testutil.Ether("0.03")}, nil, "0.5", events.NoticeBridgeAmountTooLow},
		{"balance short of amount plus fee", chain.Quote{FeeWei: testutil.Ether("0.001")}, nil, "0.0225", events.NoticeInsufficientFunds},
		{"quote unavailable", chain.Quote{}, chain.ErrRPC, "0.5", events.NoticeTransientFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tt.quote.SpokePool = spokePool
			h.bridge.EXPECT().Quote(mock.Anything, mainnet, mock.Anything).Return(tt.quote, tt.err)

			result := h.beginBridge(testutil.Ether(tt.balance))

			require.Equal(t, tt.want, onlyNotice(t, result).Code)
			require.Empty(t, actionsOf(t, result))
			require.Zero(t, h.deps.Stores.Bridges.Len())
		})
	}
}

// ===========================================================================
// Bridge confirmation and polling
// ===========================================================================

func TestBridgeConfirmation_SchedulesPoll(t *testing.T) {
	h := newHarness(t)

	key, op := h.submittedBridge()

	require.Equal(t, repository.BridgeSubmitted, op.Status)
	require.Equal(t, *txHash(7), *op.TxHash)
	entry, ok := h.sched.Get(key)
	require.True(t, ok)
	require.Equal(t, 15*time.Second, entry.delay)
	require.Equal(t, op.ID, entry.cmd.(*command.PollBridgeCommand).Generation)
}

func TestBridgeConfirmation_WithoutPollingClearsRecord(t *testing.T) {
	h := newHarness(t, map[string]bool{flags.FlagBridgePolling: false})
	h.quoted(mainnet, "0.001")
	action := onlyAction(t, h.beginBridge(testutil.Ether("0.5")))

	result := h.respond(action.ID, txHash(7), "")

	notice := onlyNotice(t, result)
	require.Equal(t, events.NoticeBridgeSubmitted, notice.Code)
	require.Contains(t, notice.Message, "again")
	require.Zero(t, h.deps.Stores.Bridges.Len())
	require.Zero(t, h.sched.Len())
}

func TestBridgeConfirmation_DeclinedCancels(t *testing.T) {
	h := newHarness(t)
	h.quoted(mainnet, "0.001")
	action := onlyAction(t, h.beginBridge(testutil.Ether("0.5")))

	result := h.respond(action.ID, nil, "")

	require.Equal(t, events.NoticeCancelled, onlyNotice(t, result).Code)
	require.Zero(t, h.deps.Stores.Bridges.Len())
}

func TestPollBridge_FilledStartsCommitForRecipient(t *testing.T) {
	h := newHarness(t)
	key, op := h.submittedBridge()
	h.bridge.EXPECT().DepositStatus(mock.Anything, mainnet, *txHash(7)).Return(chain.FillFilled, nil)

	result, res := h.poll(key, op.ID)

	require.Equal(t, chain.FillFilled, res.Status)
	require.Equal(t, events.NoticeBridgeFilled, onlyNotice(t, result).Code)
	begin, ok := onlyFollowUp(t, result).(*command.BeginCommitCommand)
	require.True(t, ok)
	require.Equal(t, testutil.EOAWallet, begin.Owner)
	require.Equal(t, "alice", begin.Label)
	require.False(t, h.deps.Stores.Bridges.Has(h.ctx, key))
	require.Equal(t, repository.BridgeFilled, op.Status)
}

func TestPollBridge_PendingReschedules(t *testing.T) {
	h := newHarness(t)
	key, op := h.submittedBridge()
	h.bridge.EXPECT().DepositStatus(mock.Anything, mainnet, *txHash(7)).Return(chain.FillPending, nil).Once()
	h.bridge.EXPECT().DepositStatus(mock.Anything, mainnet, *txHash(7)).Return("", chain.ErrRPC).Once()

	for i := 1; i <= 2; i++ {
		result, res := h.poll(key, op.ID)
		require.False(t, res.Ignored)
		require.Empty(t, result.Events)
		require.Equal(t, i, op.PollAttempts)
		_, ok := h.sched.Get(key)
		require.True(t, ok)
	}
}

func TestPollBridge_GivesUpAfterMaxAttempts(t *testing.T) {
	h := newHarness(t)
	key, op := h.submittedBridge()
	h.bridge.EXPECT().DepositStatus(mock.Anything, mainnet, *txHash(7)).Return(chain.FillPending, nil)

	var last *command.CommandResult
	for range 3 {
		last, _ = h.poll(key, op.ID)
	}

	require.Equal(t, events.NoticeBridgeExpired, onlyNotice(t, last).Code)
	require.Equal(t, repository.BridgeExpired, op.Status)
	require.False(t, h.deps.Stores.Bridges.Has(h.ctx, key))
}

func TestPollBridge_GivesUpAtFillDeadline(t *testing.T) {
	h := newHarness(t)
	key, op := h.submittedBridge()
	h.bridge.EXPECT().DepositStatus(mock.Anything, mainnet, *txHash(7)).Return(chain.FillPending, nil)
	h.sched.Advance(5 * time.Hour)

	result, _ := h.poll(key, op.ID)

	require.Equal(t, events.NoticeBridgeExpired, onlyNotice(t, result).Code)
}

func TestPollBridge_RefundedExpires(t *testing.T) {
	h := newHarness(t)
	key, op := h.submittedBridge()
	h.bridge.EXPECT().DepositStatus(mock.Anything, mainnet, *txHash(7)).Return(chain.FillRefunded, nil)

	result, _ := h.poll(key, op.ID)

	require.Equal(t, events.NoticeBridgeExpired, onlyNotice(t, result).Code)
	require.Empty(t, result.FollowUp)
}

func TestPollBridge_StaleGenerationIgnored(t *testing.T) {
	h := newHarness(t)
	key, _ := h.submittedBridge()

	result, res := h.poll(key, "old")

	require.True(t, res.Ignored)
	require.Empty(t, result.Events)
}

// ===========================================================================
// Transfer then bridge
// ===========================================================================

func (h *harness) beginTransfer() events.ActionRequest {
	h.t.Helper()
	h.balances.EXPECT().Balance(mock.Anything, mainnet.SourceChainID, testutil.ContractWallet).Return(testutil.Ether("0.5"), nil).Maybe()
	cmd := command.NewBeginTransferCommand(command.SourceInternal, alice, "alice", year, false,
		testutil.EOAWallet, testutil.ContractWallet, testutil.Ether("0.023"), required)
	result, err := handler.NewBeginTransferHandler(h.deps).Handle(h.ctx, cmd)
	require.NoError(h.t, err)
	return onlyAction(h.t, result)
}

func TestBeginTransfer_SmartWalletPaysEOA(t *testing.T) {
	h := newHarness(t)

	action := h.beginTransfer()

	require.Equal(t, mainnet.SourceChainID, action.ChainID)
	require.Equal(t, testutil.EOAWallet, *action.To)
	require.Equal(t, testutil.ContractWallet, *action.SignerWallet)
	require.Equal(t, 0, action.ValueWei().Cmp(testutil.Ether("0.023")))
	require.Empty(t, action.Data)

	key, ok := correlation.Parse(action.ID)
	require.True(t, ok)
	require.Equal(t, correlation.KindTransfer, key.Kind)
	op, err := h.deps.Stores.Bridges.Get(h.ctx, key)
	require.NoError(t, err)
	require.Equal(t, repository.StageTransfer, op.Stage)
	require.Equal(t, testutil.ContractWallet, *op.FundingWallet)
}

func TestBeginTransfer_InsufficientSmartWalletBalance(t *testing.T) {
	h := newHarness(t)
	h.balances.EXPECT().Balance(mock.Anything, mainnet.SourceChainID, testutil.ContractWallet).Return(testutil.Ether("0.02"), nil)
	cmd := command.NewBeginTransferCommand(command.SourceInternal, alice, "alice", year, false,
		testutil.EOAWallet, testutil.ContractWallet, testutil.Ether("0.023"), required)

	result, err := handler.NewBeginTransferHandler(h.deps).Handle(h.ctx, cmd)

	require.NoError(t, err)
	require.Equal(t, events.NoticeInsufficientFunds, onlyNotice(t, result).Code)
	require.Zero(t, h.deps.Stores.Bridges.Len())
}

func TestTransferConfirmation_ChainsBridge(t *testing.T) {
	h := newHarness(t)
	action := h.beginTransfer()

	result := h.respond(action.ID, txHash(9), "")

	require.Equal(t, events.NoticeTransferConfirmed, onlyNotice(t, result).Code)
	next, ok := onlyFollowUp(t, result).(*command.BeginBridgeCommand)
	require.True(t, ok)
	require.Equal(t, testutil.EOAWallet, next.Wallet)
	require.Equal(t, 0, next.Required.Cmp(required))
	require.NotNil(t, next.TransferKey)
	require.Equal(t, action.ID, next.TransferKey.String())
	require.Zero(t, h.deps.Stores.Bridges.Len())
}

func TestTransferConfirmation_WithoutChaining(t *testing.T) {
	h := newHarness(t, map[string]bool{flags.FlagTransferChaining: false})
	action := h.beginTransfer()

	result := h.respond(action.ID, txHash(9), "")

	require.Equal(t, events.NoticeTransferConfirmed, onlyNotice(t, result).Code)
	require.Empty(t, result.FollowUp)
}

func TestTransferConfirmation_Declined(t *testing.T) {
	h := newHarness(t)
	action := h.beginTransfer()

	result := h.respond(action.ID, nil, "")

	require.Equal(t, events.NoticeCancelled, onlyNotice(t, result).Code)
	require.Empty(t, result.FollowUp)
	require.Zero(t, h.deps.Stores.Bridges.Len())
}
