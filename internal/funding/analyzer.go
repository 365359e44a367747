// Package funding decides how a user can pay for a registration on the
// destination chain given the balances of their linked wallets.
package funding

import (
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/common"
)

// AccountKind distinguishes key-controlled accounts from contract accounts.
type AccountKind int

const (
	// EOA is an externally owned account. Only EOAs can originate a bridge deposit.
	EOA AccountKind = iota
	// Contract is a smart-contract wallet. It can pay on the destination chain
	// directly or act as the funding source for a transfer to an EOA.
	Contract
)

func (k AccountKind) String() string {
	if k == Contract {
		return "contract"
	}
	return "eoa"
}

// WalletSnapshot is a point-in-time view of one wallet's balances.
// Nil balances are treated as zero.
type WalletSnapshot struct {
	Address     common.Address
	Kind        AccountKind
	Destination *big.Int // balance on the chain hosting the registry
	Source      *big.Int // balance on the bridge source chain
}

// Path is a funding strategy. Lower values are preferred.
type Path int

const (
	// PathDirect pays from the destination-chain balance.
	PathDirect Path = iota
	// PathBridge bridges from the wallet's own source-chain balance.
	PathBridge
	// PathTransferBridge drains a smart wallet into the EOA, then bridges.
	PathTransferBridge
)

func (p Path) String() string {
	switch p {
	case PathDirect:
		return "direct"
	case PathBridge:
		return "bridge"
	case PathTransferBridge:
		return "transfer-then-bridge"
	default:
		return "unknown"
	}
}

// Candidate is a wallet with the cheapest path that works for it.
type Candidate struct {
	Wallet WalletSnapshot
	Path   Path
	// FundingSource is the smart wallet drained by PathTransferBridge.
	FundingSource *WalletSnapshot
	// TransferAmount is what FundingSource must send to Wallet (required + fee).
	TransferAmount *big.Int
}

// Outcome summarises an analysis. Only Funded carries candidates; the other
// outcomes are ordinary negative results, not errors.
type Outcome int

const (
	Funded Outcome = iota
	NoWallets
	NoEOA
	NoFunds
)

func (o Outcome) String() string {
	switch o {
	case Funded:
		return "funded"
	case NoWallets:
		return "no_wallets"
	case NoEOA:
		return "no_eoa"
	case NoFunds:
		return "no_funds"
	default:
		return "unknown"
	}
}

// Analysis is the result of Analyze.
type Analysis struct {
	Outcome    Outcome
	Required   *big.Int
	Fee        *big.Int
	Candidates []Candidate
}

// Analyze ranks every wallet that has at least one viable path. A wallet gets
// the first of direct, bridge, transfer-then-bridge that works for it.
// Candidates are ordered by path, then by input order.
func Analyze(required, fee *big.Int, wallets []WalletSnapshot) Analysis {
	result := Analysis{Required: orZero(required), Fee: orZero(fee)}
	if len(wallets) == 0 {
		result.Outcome = NoWallets
		return result
	}

	for _, w := range wallets {
		if c, ok := Evaluate(w, required, fee, wallets); ok {
			result.Candidates = append(result.Candidates, c)
		}
	}
	slices.SortStableFunc(result.Candidates, func(a, b Candidate) int {
		return int(a.Path) - int(b.Path)
	})

	switch {
	case len(result.Candidates) > 0:
		result.Outcome = Funded
	case !hasEOA(wallets):
		result.Outcome = NoEOA
	default:
		result.Outcome = NoFunds
	}
	return result
}

// Evaluate returns the preferred path for a single wallet. pool is the full
// wallet set, searched for a smart-wallet funding source when the wallet
// cannot fund itself. It is also used to recheck a selection right before a
// transaction is issued.
func Evaluate(w WalletSnapshot, required, fee *big.Int, pool []WalletSnapshot) (Candidate, bool) {
	required, fee = orZero(required), orZero(fee)
	withFee := new(big.Int).Add(required, fee)

	if orZero(w.Destination).Cmp(required) >= 0 {
		return Candidate{Wallet: w, Path: PathDirect}, true
	}
	if w.Kind != EOA {
		return Candidate{}, false
	}
	if orZero(w.Source).Cmp(withFee) >= 0 {
		return Candidate{Wallet: w, Path: PathBridge}, true
	}
	for i := range pool {
		src := pool[i]
		if src.Kind != Contract || src.Address == w.Address {
			continue
		}
		if orZero(src.Source).Cmp(withFee) >= 0 {
			return Candidate{
				Wallet:         w,
				Path:           PathTransferBridge,
				FundingSource:  &src,
				TransferAmount: new(big.Int).Set(withFee),
			}, true
		}
	}
	return Candidate{}, false
}

// RequiredAmount is (cost + gasReserve) inflated by bufferPercent, floored to wei.
func RequiredAmount(cost, gasReserve *big.Int, bufferPercent uint64) *big.Int {
	base := new(big.Int).Add(orZero(cost), orZero(gasReserve))
	return ApplyBuffer(base, bufferPercent)
}

// ApplyBuffer returns amount * (100 + bufferPercent) / 100.
func ApplyBuffer(amount *big.Int, bufferPercent uint64) *big.Int {
	out := new(big.Int).Mul(orZero(amount), new(big.Int).SetUint64(100+bufferPercent))
	return out.Quo(out, big.NewInt(100))
}

// BridgeOutput is the amount that arrives on the destination chain when
// required is sent and fee is withheld; never negative.
func BridgeOutput(required, fee *big.Int) *big.Int {
	out := new(big.Int).Sub(orZero(required), orZero(fee))
	if out.Sign() < 0 {
		return new(big.Int)
	}
	return out
}

func hasEOA(wallets []WalletSnapshot) bool {
	for _, w := range wallets {
		if w.Kind == EOA {
			return true
		}
	}
	return false
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
