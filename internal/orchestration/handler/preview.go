package handler

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/zjrosen/namebridge/internal/chain"
	"github.com/zjrosen/namebridge/internal/funding"
	"github.com/zjrosen/namebridge/internal/orchestration/command"
)

// Preview is a funding analysis computed without creating any saga state.
type Preview struct {
	Label     string
	Available bool
	PriceWei  *big.Int
	Analysis  funding.Analysis
}

// PreviewFunding runs the same lookups and analysis as a registration request
// for userID but stops before prompting. It backs the CLI dry run.
func PreviewFunding(ctx context.Context, c Collaborators, net chain.Network, userID, label string, duration time.Duration, t command.Tunables) (Preview, error) {
	p := Preview{Label: label}
	info, err := c.Names.Lookup(ctx, net, label, durationSeconds(duration))
	if err != nil {
		return p, fmt.Errorf("looking up %s: %w", label, err)
	}
	p.Available, p.PriceWei = info.Available, info.PriceWei
	if !info.Available {
		return p, nil
	}

	required := funding.RequiredAmount(info.PriceWei, t.GasReserve, t.BufferPercent)
	addrs, err := c.Wallets.LinkedWallets(ctx, userID)
	if err != nil {
		return p, fmt.Errorf("linked wallets: %w", err)
	}
	snaps, err := snapshotWallets(ctx, c, net, addrs)
	if err != nil {
		return p, err
	}
	if len(snaps) > 0 {
		var fee *big.Int
		fee, snaps, err = quoteFee(ctx, c, net, required, snaps)
		if err != nil {
			return p, fmt.Errorf("bridge quote: %w", err)
		}
		p.Analysis = funding.Analyze(required, fee, snaps)
		return p, nil
	}
	p.Analysis = funding.Analyze(required, nil, nil)
	return p, nil
}
