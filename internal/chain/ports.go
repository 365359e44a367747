// Package chain declares the collaborators the engine consumes from the
// outside world: name pricing, balances, account kinds, bridge quotes and
// wallet linkage. Concrete RPC-backed implementations live in chain/rpc.
package chain

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ErrRPC marks failures talking to a node or the bridge API. Callers report
// these as transient and suggest a retry.
var ErrRPC = errors.New("rpc failure")

// NameInfo is what the name oracle knows about a label.
type NameInfo struct {
	Available bool
	PriceWei  *big.Int // base + premium for the requested duration
}

// NameOracle answers availability, price and ownership questions.
type NameOracle interface {
	Lookup(ctx context.Context, net Network, label string, duration *big.Int) (NameInfo, error)
	Owner(ctx context.Context, net Network, name string) (common.Address, error)
}

// BalanceOracle returns wei balances on a specific chain.
type BalanceOracle interface {
	Balance(ctx context.Context, chainID uint64, addr common.Address) (*big.Int, error)
}

// AccountKindOracle reports whether an address has code on a chain.
type AccountKindOracle interface {
	IsContract(ctx context.Context, chainID uint64, addr common.Address) (bool, error)
}

// Quote is the bridge service's answer for a route and amount.
type Quote struct {
	FeeWei         *big.Int
	EstimatedFill  time.Duration
	IsAmountTooLow bool
	Timestamp      uint32 // quote timestamp the deposit must carry
	FillDeadline   uint32
	SpokePool      common.Address
}

// FillStatus is the bridge-side lifecycle of a deposit.
type FillStatus string

const (
	FillPending  FillStatus = "pending"
	FillFilled   FillStatus = "filled"
	FillExpired  FillStatus = "expired"
	FillRefunded FillStatus = "refunded"
)

// FeeQuoter prices a bridge route and reports deposit progress.
type FeeQuoter interface {
	Quote(ctx context.Context, net Network, amount *big.Int) (Quote, error)
	DepositStatus(ctx context.Context, net Network, depositTx common.Hash) (FillStatus, error)
}

// WalletLinker lists every address a chat user has linked.
type WalletLinker interface {
	LinkedWallets(ctx context.Context, userID string) ([]common.Address, error)
}
