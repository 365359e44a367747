package handler_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/namebridge/internal/chain"
	"github.com/zjrosen/namebridge/internal/correlation"
	"github.com/zjrosen/namebridge/internal/ens"
	"github.com/zjrosen/namebridge/internal/orchestration/command"
	"github.com/zjrosen/namebridge/internal/orchestration/events"
	"github.com/zjrosen/namebridge/internal/orchestration/handler"
	"github.com/zjrosen/namebridge/internal/testutil"
)

var recipient = testutil.Wallet(0xbe)

func (h *harness) assign(label, parent string) *command.CommandResult {
	h.t.Helper()
	cmd := command.NewAssignSubdomainCommand(command.SourceUser, alice, label, parent, recipient, false)
	result, err := handler.NewAssignSubdomainHandler(h.deps).Handle(h.ctx, cmd)
	require.NoError(h.t, err)
	return result
}

func TestAssignSubdomain_OwnerSignsSetSubnodeRecord(t *testing.T) {
	h := newHarness(t)
	h.names.EXPECT().Owner(mock.Anything, mainnet, "alice.eth").Return(testutil.SecondEOA, nil)
	testutil.NewWalletBuilder(t).WithDirectFunding().WithWallet(testutil.SecondEOA).
		Wire(mainnet, alice.UserID, h.linker, h.balances, h.kinds)

	result := h.assign("Pay", "alice")

	action := onlyAction(t, result)
	require.Equal(t, mainnet.Registry, *action.To)
	require.Equal(t, mainnet.DestinationChainID, action.ChainID)
	require.Equal(t, testutil.SecondEOA, *action.SignerWallet)
	want, err := ens.SetSubnodeRecordCalldata("alice.eth", "pay", recipient, mainnet.PublicResolver)
	require.NoError(t, err)
	require.Equal(t, want, []byte(action.Data))

	key, ok := correlation.Parse(action.ID)
	require.True(t, ok)
	require.Equal(t, correlation.KindSubdomain, key.Kind)
	require.Equal(t, "pay.alice.eth", key.Label)
	require.True(t, h.deps.Stores.Subdomains.Has(h.ctx, key))
}

func TestAssignSubdomain_RequiresParentOwnership(t *testing.T) {
	h := newHarness(t)
	h.names.EXPECT().Owner(mock.Anything, mainnet, "alice.eth").Return(testutil.Wallet(0x99), nil)
	testutil.NewWalletBuilder(t).WithDirectFunding().Wire(mainnet, alice.UserID, h.linker, h.balances, h.kinds)

	result := h.assign("pay", "alice")

	require.Equal(t, events.NoticeNotParentOwner, onlyNotice(t, result).Code)
	require.Zero(t, h.deps.Stores.Subdomains.Len())
}

func TestAssignSubdomain_OwnerLookupFailure(t *testing.T) {
	h := newHarness(t)
	h.names.EXPECT().Owner(mock.Anything, mainnet, "alice.eth").Return(common.Address{}, chain.ErrRPC)

	require.Equal(t, events.NoticeTransientFailure, onlyNotice(t, h.assign("pay", "alice")).Code)
}

func TestSubdomainConfirmation(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
		want events.NoticeCode
	}{
		{"confirmed", true, events.NoticeSubdomainAssigned},
		{"declined", false, events.NoticeCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.names.EXPECT().Owner(mock.Anything, mainnet, "alice.eth").Return(testutil.EOAWallet, nil)
			testutil.NewWalletBuilder(t).WithDirectFunding().Wire(mainnet, alice.UserID, h.linker, h.balances, h.kinds)
			action := onlyAction(t, h.assign("pay", "alice"))

			tx := txHash(4)
			if !tt.ok {
				tx = nil
			}
			result := h.respond(action.ID, tx, "")

			notice := onlyNotice(t, result)
			require.Equal(t, tt.want, notice.Code)
			require.Equal(t, "pay.alice.eth", notice.Name)
			require.Zero(t, h.deps.Stores.Subdomains.Len())
		})
	}
}
