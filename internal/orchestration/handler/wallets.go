package handler

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/zjrosen/namebridge/internal/chain"
	"github.com/zjrosen/namebridge/internal/funding"
)

// snapshotConcurrency bounds the RPC calls in flight for one request.
const snapshotConcurrency = 8

// snapshotWallets reads the kind and both balances of every address. The
// reads do not touch saga state, so they fan out; the handler resumes only
// after all of them finished. Any failure fails the whole snapshot.
func snapshotWallets(ctx context.Context, c Collaborators, net chain.Network, addrs []common.Address) ([]funding.WalletSnapshot, error) {
	snaps := make([]funding.WalletSnapshot, len(addrs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(snapshotConcurrency)

	for i, addr := range addrs {
		snaps[i].Address = addr
		g.Go(func() error {
			isContract, err := c.Kinds.IsContract(ctx, net.SourceChainID, addr)
			if err != nil {
				return fmt.Errorf("account kind of %s: %w", addr.Hex(), err)
			}
			if isContract {
				snaps[i].Kind = funding.Contract
			}
			return nil
		})
		g.Go(func() error {
			bal, err := c.Balances.Balance(ctx, net.DestinationChainID, addr)
			if err != nil {
				return fmt.Errorf("destination balance of %s: %w", addr.Hex(), err)
			}
			snaps[i].Destination = bal
			return nil
		})
		g.Go(func() error {
			bal, err := c.Balances.Balance(ctx, net.SourceChainID, addr)
			if err != nil {
				return fmt.Errorf("source balance of %s: %w", addr.Hex(), err)
			}
			snaps[i].Source = bal
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snaps, nil
}

// withoutSourceFunds hides source-chain balances, leaving only direct paths.
// It is used when no bridge quote could be fetched.
func withoutSourceFunds(snaps []funding.WalletSnapshot) []funding.WalletSnapshot {
	out := make([]funding.WalletSnapshot, len(snaps))
	for i, s := range snaps {
		s.Source = nil
		out[i] = s
	}
	return out
}

func hasDirectFunds(snaps []funding.WalletSnapshot, required *big.Int) bool {
	for _, s := range snaps {
		if s.Destination != nil && s.Destination.Cmp(required) >= 0 {
			return true
		}
	}
	return false
}
