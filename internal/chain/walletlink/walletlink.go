// Package walletlink provides the wallet linkage collaborator backed by the
// wallets section of the config file.
package walletlink

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zjrosen/namebridge/internal/chain"
	"github.com/zjrosen/namebridge/internal/log"
)

// Registry maps chat user ids to linked addresses. Linkage order is kept;
// the funding analyzer breaks ties by it.
type Registry struct {
	mu    sync.RWMutex
	links map[string][]common.Address
}

var _ chain.WalletLinker = (*Registry)(nil)

// FromConfig parses user id -> hex address lists. Duplicate addresses for a
// user are dropped, keeping the first occurrence.
func FromConfig(wallets map[string][]string) (*Registry, error) {
	r := &Registry{links: make(map[string][]common.Address, len(wallets))}
	for user, addrs := range wallets {
		for _, a := range addrs {
			if !common.IsHexAddress(a) {
				return nil, fmt.Errorf("wallets.%s: %q is not an address", user, a)
			}
			r.add(user, common.HexToAddress(a))
		}
	}
	return r, nil
}

// LinkedWallets returns a copy of the user's addresses, empty when none.
func (r *Registry) LinkedWallets(_ context.Context, userID string) ([]common.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.links[userID]), nil
}

// Link appends addr for userID. It reports false if it was already linked.
func (r *Registry) Link(userID string, addr common.Address) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	added := r.add(userID, addr)
	if added {
		log.Info(log.CatConfig, "wallet linked", "user", userID, "wallet", addr.Hex())
	}
	return added
}

// Unlink removes addr from userID. It reports false if it was not linked.
func (r *Registry) Unlink(userID string, addr common.Address) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur := r.links[userID]
	i := slices.Index(cur, addr)
	if i < 0 {
		return false
	}
	cur = slices.Delete(cur, i, i+1)
	if len(cur) == 0 {
		delete(r.links, userID)
	} else {
		r.links[userID] = cur
	}
	log.Info(log.CatConfig, "wallet unlinked", "user", userID, "wallet", addr.Hex())
	return true
}

// Replace swaps the whole table, used when the config file changes.
func (r *Registry) Replace(next *Registry) {
	next.mu.RLock()
	links := make(map[string][]common.Address, len(next.links))
	for user, addrs := range next.links {
		links[user] = slices.Clone(addrs)
	}
	next.mu.RUnlock()
	r.mu.Lock()
	r.links = links
	r.mu.Unlock()
}

// Export returns the table in config form.
func (r *Registry) Export() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string][]string, len(r.links))
	for user, addrs := range r.links {
		for _, a := range addrs {
			out[user] = append(out[user], a.Hex())
		}
	}
	return out
}

func (r *Registry) add(userID string, addr common.Address) bool {
	if slices.Contains(r.links[userID], addr) {
		return false
	}
	r.links[userID] = append(r.links[userID], addr)
	return true
}
