package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/namebridge/internal/chain"
	"github.com/zjrosen/namebridge/internal/funding"
	"github.com/zjrosen/namebridge/internal/mocks"
)

func TestWalletBuilder_Presets(t *testing.T) {
	required, fee := Ether("0.022"), Ether("0.0005")

	tests := []struct {
		name    string
		build   func(*WalletBuilder) *WalletBuilder
		outcome funding.Outcome
		path    funding.Path
	}{
		{"direct", (*WalletBuilder).WithDirectFunding, funding.Funded, funding.PathDirect},
		{"bridge", (*WalletBuilder).WithBridgeFunding, funding.Funded, funding.PathBridge},
		{"transfer", (*WalletBuilder).WithTransferFunding, funding.Funded, funding.PathTransferBridge},
		{"no funds", (*WalletBuilder).WithNoFunds, funding.NoFunds, 0},
		{"only contracts", (*WalletBuilder).WithOnlyContracts, funding.NoEOA, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.build(NewWalletBuilder(t))
			got := funding.Analyze(required, fee, b.Snapshots())
			require.Equal(t, tt.outcome, got.Outcome)
			if tt.outcome == funding.Funded {
				require.Equal(t, tt.path, got.Candidates[0].Path)
			}
		})
	}
}

func TestWalletBuilder_Wire(t *testing.T) {
	net := chain.Network{DestinationChainID: chain.MainnetChainID, SourceChainID: chain.BaseChainID}
	linker := mocks.NewMockWalletLinker(t)
	balances := mocks.NewMockBalanceOracle(t)
	kinds := mocks.NewMockAccountKindOracle(t)

	b := NewWalletBuilder(t).WithTransferFunding()
	b.Wire(net, "7", linker, balances, kinds)

	ctx := context.Background()
	linked, err := linker.LinkedWallets(ctx, "7")
	require.NoError(t, err)
	require.Equal(t, b.Addresses(), linked)

	src, err := balances.Balance(ctx, chain.BaseChainID, ContractWallet)
	require.NoError(t, err)
	require.Equal(t, Ether("0.5"), src)

	isContract, err := kinds.IsContract(ctx, chain.BaseChainID, ContractWallet)
	require.NoError(t, err)
	require.True(t, isContract)
	require.True(t, b.Has(EOAWallet))
}

func TestFakeClock_FiresOnAdvance(t *testing.T) {
	c := NewFakeClock()
	start := c.Now()
	timer := c.NewTimer(time.Minute)
	require.Equal(t, 1, c.Active())

	c.Advance(59 * time.Second)
	select {
	case <-timer.C():
		t.Fatal("fired early")
	default:
	}

	c.Advance(time.Second)
	require.Equal(t, start.Add(time.Minute), <-timer.C())
	require.False(t, timer.Stop())
	require.Equal(t, 0, c.Active())
}

func TestFakeClock_ZeroDelayFiresImmediately(t *testing.T) {
	c := NewFakeClock()
	timer := c.NewTimer(0)
	require.Equal(t, c.Now(), <-timer.C())
}
