package handler_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/namebridge/internal/correlation"
	"github.com/zjrosen/namebridge/internal/funding"
	"github.com/zjrosen/namebridge/internal/orchestration/command"
	"github.com/zjrosen/namebridge/internal/orchestration/events"
	"github.com/zjrosen/namebridge/internal/orchestration/handler"
	"github.com/zjrosen/namebridge/internal/orchestration/repository"
	"github.com/zjrosen/namebridge/internal/testutil"
)

// offer runs a registration request and returns the prompt it produced.
func (h *harness) offer(setup func(*testutil.WalletBuilder) *testutil.WalletBuilder) events.ActionRequest {
	h.t.Helper()
	h.priced(mainnet, "alice")
	h.quoted(mainnet, "0.001")
	setup(testutil.NewWalletBuilder(h.t)).Wire(mainnet, alice.UserID, h.linker, h.balances, h.kinds)
	form := onlyAction(h.t, h.request("alice", false))
	require.Equal(h.t, events.ActionForm, form.Kind)
	return form
}

func (h *harness) putSelection(candidates ...funding.Candidate) correlation.Key {
	h.t.Helper()
	key := correlation.Stamped(correlation.KindWalletSelect, alice.ChannelID, alice.UserID, "alice", h.sched.Now())
	h.deps.Stores.Selections.Put(h.ctx, key, &repository.Selection{
		ID:         repository.NewGeneration(),
		Requester:  alice,
		Label:      "alice",
		Duration:   year,
		Network:    mainnet,
		Candidates: candidates,
		Required:   testutil.Ether("0.022"),
		Fee:        testutil.Ether("0.001"),
		CreatedAt:  h.sched.Now(),
	})
	return key
}

func onlyFollowUp(t *testing.T, result *command.CommandResult) command.Command {
	t.Helper()
	require.Len(t, result.FollowUp, 1)
	return result.FollowUp[0]
}

func TestSelection_DirectStartsCommit(t *testing.T) {
	h := newHarness(t)
	form := h.offer((*testutil.WalletBuilder).WithDirectFunding)

	result := h.respond(form.ID, nil, form.Options[0].ID)

	begin, ok := onlyFollowUp(t, result).(*command.BeginCommitCommand)
	require.True(t, ok)
	require.Equal(t, testutil.EOAWallet, begin.Owner)
	require.Equal(t, "alice", begin.Label)
	require.Equal(t, year, begin.Duration)
	require.Equal(t, alice, begin.Requester)
	require.Zero(t, h.deps.Stores.Selections.Len())
}

func TestSelection_BridgeStartsDeposit(t *testing.T) {
	h := newHarness(t)
	form := h.offer((*testutil.WalletBuilder).WithBridgeFunding)

	result := h.respond(form.ID, nil, testutil.EOAWallet.Hex())

	begin, ok := onlyFollowUp(t, result).(*command.BeginBridgeCommand)
	require.True(t, ok)
	require.Equal(t, testutil.EOAWallet, begin.Wallet)
	require.Equal(t, 0, begin.Required.Cmp(testutil.Ether("0.022")))
}

func TestSelection_TransferMovesRequiredPlusFee(t *testing.T) {
	h := newHarness(t)
	form := h.offer((*testutil.WalletBuilder).WithTransferFunding)

	result := h.respond(form.ID, nil, testutil.EOAWallet.Hex())

	begin, ok := onlyFollowUp(t, result).(*command.BeginTransferCommand)
	require.True(t, ok)
	require.Equal(t, testutil.EOAWallet, begin.Wallet)
	require.Equal(t, testutil.ContractWallet, begin.Source)
	require.Equal(t, 0, begin.Amount.Cmp(testutil.Ether("0.023")))
	require.Equal(t, 0, begin.Required.Cmp(testutil.Ether("0.022")))
}

func TestSelection_RecheckedBalanceTooLow(t *testing.T) {
	h := newHarness(t)
	key := h.putSelection(funding.Candidate{
		Wallet: funding.WalletSnapshot{Address: testutil.EOAWallet, Destination: testutil.Ether("1")},
		Path:   funding.PathDirect,
	})
	// The wallet was drained while the prompt was open.
	testutil.NewWalletBuilder(t).
		WithWallet(testutil.EOAWallet, testutil.Destination(testutil.Ether("0.01"))).
		Wire(mainnet, alice.UserID, nil, h.balances, h.kinds)

	result := h.respond(key.String(), nil, testutil.EOAWallet.Hex())

	require.Empty(t, result.FollowUp)
	require.Equal(t, events.NoticeInsufficientFunds, onlyNotice(t, result).Code)
}

func TestSelection_RecheckPicksCheaperPath(t *testing.T) {
	h := newHarness(t)
	key := h.putSelection(funding.Candidate{
		Wallet: funding.WalletSnapshot{Address: testutil.EOAWallet, Source: testutil.Ether("1")},
		Path:   funding.PathBridge,
	})
	// Funds arrived on the destination chain meanwhile.
	testutil.NewWalletBuilder(t).
		WithWallet(testutil.EOAWallet, testutil.Destination(testutil.Ether("1")), testutil.Source(testutil.Ether("1"))).
		Wire(mainnet, alice.UserID, nil, h.balances, h.kinds)

	result := h.respond(key.String(), nil, testutil.EOAWallet.Hex())

	_, ok := onlyFollowUp(t, result).(*command.BeginCommitCommand)
	require.True(t, ok)
}

func TestSelection_UnknownOptionCancels(t *testing.T) {
	h := newHarness(t)
	key := h.putSelection(funding.Candidate{
		Wallet: funding.WalletSnapshot{Address: testutil.EOAWallet, Destination: testutil.Ether("1")},
	})

	result := h.respond(key.String(), nil, common.HexToAddress("0xdead").Hex())

	require.Equal(t, events.NoticeCancelled, onlyNotice(t, result).Code)
	require.False(t, h.deps.Stores.Selections.Has(h.ctx, key))
}

func TestSelection_ConsumedByFirstResponse(t *testing.T) {
	h := newHarness(t)
	form := h.offer((*testutil.WalletBuilder).WithDirectFunding)
	h.respond(form.ID, nil, form.Options[0].ID)

	result := h.respond(form.ID, nil, form.Options[0].ID)

	require.Empty(t, result.FollowUp)
	require.Equal(t, events.NoticeExpired, onlyNotice(t, result).Code)
}

func TestResponse_UnknownRecordIsExpired(t *testing.T) {
	h := newHarness(t)
	id := "bridge-eoa-c1-u1-my-name-1700000000000"

	result := h.respond(id, txHash(1), "")

	notice := onlyNotice(t, result)
	require.Equal(t, events.NoticeExpired, notice.Code)
	require.Equal(t, alice, notice.Requester)
	require.Equal(t, id, notice.Key)
}

func TestResponse_ForeignKeysAreIgnored(t *testing.T) {
	for _, id := range []string{"poll-42", "commit-c1", "wallet-select-c1-u1-alice"} {
		t.Run(id, func(t *testing.T) {
			h := newHarness(t)

			result := h.respond(id, txHash(1), "")

			res := result.Data.(*handler.ResponseResult)
			require.True(t, res.Ignored)
			require.Empty(t, result.Events)
		})
	}
}

func TestResponse_RequiresRequestID(t *testing.T) {
	h := newHarness(t)
	cmd := command.NewHandleResponseCommand(command.SourceResponse, command.Response{})

	_, err := h.responses.Handle(h.ctx, cmd)

	require.Error(t, err)
}
