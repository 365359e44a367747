package testutil

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zjrosen/namebridge/internal/funding"
)

// walletData holds everything the builder knows about one wallet.
type walletData struct {
	address     common.Address
	contract    bool
	destination *big.Int
	source      *big.Int
	balanceErr  error
}

// WalletOption configures a wallet during builder setup.
type WalletOption func(*walletData)

// Contract marks the wallet as a smart-contract account.
func Contract() WalletOption {
	return func(w *walletData) {
		w.contract = true
	}
}

// Destination sets the balance on the chain hosting the registry.
func Destination(wei *big.Int) WalletOption {
	return func(w *walletData) {
		w.destination = wei
	}
}

// Source sets the balance on the bridge source chain.
func Source(wei *big.Int) WalletOption {
	return func(w *walletData) {
		w.source = wei
	}
}

// BalanceError makes every balance lookup for the wallet fail.
func BalanceError(err error) WalletOption {
	return func(w *walletData) {
		w.balanceErr = err
	}
}

// Wallet returns a deterministic address whose last byte is n.
func Wallet(n byte) common.Address {
	return common.BytesToAddress([]byte{n})
}

// Ether parses a decimal ETH amount and panics on malformed input.
func Ether(s string) *big.Int {
	wei, err := funding.ParseEther(s)
	if err != nil {
		panic(err)
	}
	return wei
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
