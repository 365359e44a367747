package testutil

import (
	"github.com/ethereum/go-ethereum/common"
)

// Standard wallet addresses used by the presets.
var (
	EOAWallet      = Wallet(0xa1)
	SecondEOA      = Wallet(0xa2)
	ContractWallet = Wallet(0xc1)
)

// WithDirectFunding links one EOA holding enough on the destination chain
// for a 0.022 ETH requirement.
func (b *WalletBuilder) WithDirectFunding() *WalletBuilder {
	return b.WithWallet(EOAWallet, Destination(Ether("0.5")))
}

// WithBridgeFunding links one EOA whose funds are all on the source chain.
func (b *WalletBuilder) WithBridgeFunding() *WalletBuilder {
	return b.WithWallet(EOAWallet, Destination(Ether("0.001")), Source(Ether("0.5")))
}

// WithTransferFunding links an empty EOA and a funded smart wallet on the
// source chain, the transfer-then-bridge case.
func (b *WalletBuilder) WithTransferFunding() *WalletBuilder {
	return b.
		WithWallet(EOAWallet).
		WithWallet(ContractWallet, Contract(), Source(Ether("0.5")))
}

// WithNoFunds links one EOA and one smart wallet, both empty.
func (b *WalletBuilder) WithNoFunds() *WalletBuilder {
	return b.
		WithWallet(EOAWallet, Destination(Ether("0.001"))).
		WithWallet(ContractWallet, Contract())
}

// WithOnlyContracts links a single empty smart wallet.
func (b *WalletBuilder) WithOnlyContracts() *WalletBuilder {
	return b.WithWallet(ContractWallet, Contract())
}

// Has reports whether addr was added.
func (b *WalletBuilder) Has(addr common.Address) bool {
	for _, w := range b.wallets {
		if w.address == addr {
			return true
		}
	}
	return false
}
