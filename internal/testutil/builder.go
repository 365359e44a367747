// Package testutil provides fixtures shared by the orchestration tests: a
// fake clock, a recording command submitter and a builder that turns a list
// of wallets into snapshots and collaborator mock expectations.
package testutil

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"

	"github.com/zjrosen/namebridge/internal/chain"
	"github.com/zjrosen/namebridge/internal/funding"
	"github.com/zjrosen/namebridge/internal/mocks"
)

// WalletBuilder accumulates linked wallets for one user.
type WalletBuilder struct {
	t       *testing.T
	wallets []walletData
}

// NewWalletBuilder creates an empty builder.
func NewWalletBuilder(t *testing.T) *WalletBuilder {
	t.Helper()
	return &WalletBuilder{t: t}
}

// WithWallet adds a wallet with optional configuration. Wallets keep the
// order they were added in, which is the linkage order the analyzer sees.
func (b *WalletBuilder) WithWallet(addr common.Address, opts ...WalletOption) *WalletBuilder {
	w := walletData{address: addr}
	for _, opt := range opts {
		opt(&w)
	}
	b.wallets = append(b.wallets, w)
	return b
}

// Addresses returns the linked addresses in order.
func (b *WalletBuilder) Addresses() []common.Address {
	out := make([]common.Address, 0, len(b.wallets))
	for _, w := range b.wallets {
		out = append(out, w.address)
	}
	return out
}

// Snapshots returns what the engine should observe for these wallets.
func (b *WalletBuilder) Snapshots() []funding.WalletSnapshot {
	out := make([]funding.WalletSnapshot, 0, len(b.wallets))
	for _, w := range b.wallets {
		kind := funding.EOA
		if w.contract {
			kind = funding.Contract
		}
		out = append(out, funding.WalletSnapshot{
			Address:     w.address,
			Kind:        kind,
			Destination: orZero(w.destination),
			Source:      orZero(w.source),
		})
	}
	return out
}

// Wire registers the wallets with the collaborator mocks. Every expectation
// is optional so tests only assert on the calls they care about. linker may
// be nil when the test wires linkage itself.
func (b *WalletBuilder) Wire(net chain.Network, userID string, linker *mocks.MockWalletLinker, balances *mocks.MockBalanceOracle, kinds *mocks.MockAccountKindOracle) {
	b.t.Helper()
	if linker != nil {
		linker.EXPECT().LinkedWallets(mock.Anything, userID).Return(b.Addresses(), nil).Maybe()
	}
	for _, w := range b.wallets {
		if w.balanceErr != nil {
			balances.EXPECT().Balance(mock.Anything, mock.Anything, w.address).Return(nil, w.balanceErr).Maybe()
		} else {
			balances.EXPECT().Balance(mock.Anything, net.DestinationChainID, w.address).Return(orZero(w.destination), nil).Maybe()
			balances.EXPECT().Balance(mock.Anything, net.SourceChainID, w.address).Return(orZero(w.source), nil).Maybe()
		}
		kinds.EXPECT().IsContract(mock.Anything, mock.Anything, w.address).Return(w.contract, nil).Maybe()
	}
}
