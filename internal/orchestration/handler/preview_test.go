package handler_test

import (
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/namebridge/internal/chain"
	"github.com/zjrosen/namebridge/internal/funding"
	"github.com/zjrosen/namebridge/internal/orchestration/handler"
	"github.com/zjrosen/namebridge/internal/testutil"
)

func TestPreviewFunding_LeavesNoState(t *testing.T) {
	h := newHarness(t)
	h.priced(mainnet, "alice")
	h.quoted(mainnet, "0.001")
	testutil.NewWalletBuilder(t).WithBridgeFunding().Wire(mainnet, alice.UserID, h.linker, h.balances, h.kinds)

	p, err := handler.PreviewFunding(h.ctx, h.deps.Chain, mainnet, alice.UserID, "alice", year, h.deps.Tuning.Load())

	require.NoError(t, err)
	require.True(t, p.Available)
	require.Equal(t, funding.Funded, p.Analysis.Outcome)
	require.Equal(t, funding.PathBridge, p.Analysis.Candidates[0].Path)
	require.Equal(t, 0, p.Analysis.Required.Cmp(testutil.Ether("0.022")))
	require.Equal(t, 0, h.deps.Stores.Sizes()["selections"])
}

func TestPreviewFunding_Unavailable(t *testing.T) {
	h := newHarness(t)
	h.names.EXPECT().Lookup(mock.Anything, mainnet, "taken", mock.Anything).Return(chain.NameInfo{}, nil)

	p, err := handler.PreviewFunding(h.ctx, h.deps.Chain, mainnet, alice.UserID, "taken", year, h.deps.Tuning.Load())

	require.NoError(t, err)
	require.False(t, p.Available)
	require.Empty(t, p.Analysis.Candidates)
}

func TestPreviewFunding_NoWallets(t *testing.T) {
	h := newHarness(t)
	h.priced(mainnet, "alice")
	testutil.NewWalletBuilder(t).Wire(mainnet, alice.UserID, h.linker, h.balances, h.kinds)

	p, err := handler.PreviewFunding(h.ctx, h.deps.Chain, mainnet, alice.UserID, "alice", year, h.deps.Tuning.Load())

	require.NoError(t, err)
	require.Equal(t, funding.NoWallets, p.Analysis.Outcome)
}

func TestPreviewFunding_LookupFailure(t *testing.T) {
	h := newHarness(t)
	h.names.EXPECT().Lookup(mock.Anything, mainnet, "alice", mock.Anything).Return(chain.NameInfo{}, chain.ErrRPC)

	_, err := handler.PreviewFunding(h.ctx, h.deps.Chain, mainnet, alice.UserID, "alice", year, h.deps.Tuning.Load())

	require.ErrorIs(t, err, chain.ErrRPC)
}
