// Package rpc implements the chain ports over JSON-RPC nodes using
// go-ethereum's ethclient. One client is held per chain id.
package rpc

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/zjrosen/namebridge/internal/cachemanager"
	"github.com/zjrosen/namebridge/internal/chain"
	"github.com/zjrosen/namebridge/internal/ens"
	"github.com/zjrosen/namebridge/internal/log"
)

// DefaultCodeTTL is how long an account-kind answer is reused. Code rarely
// changes, but a counterfactual smart wallet gains code on first use.
const DefaultCodeTTL = 10 * time.Minute

// Caller is the part of ethclient.Client the oracle needs.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
}

// Oracle answers name, balance and account-kind questions for every
// configured chain.
type Oracle struct {
	clients map[uint64]Caller
	codeTTL time.Duration
	kinds   *cachemanager.ReadThroughCache[string, bool, codeQuery]
}

type codeQuery struct {
	chainID uint64
	addr    common.Address
}

var (
	_ chain.NameOracle        = (*Oracle)(nil)
	_ chain.BalanceOracle     = (*Oracle)(nil)
	_ chain.AccountKindOracle = (*Oracle)(nil)
)

// Option configures an Oracle.
type Option func(*Oracle)

// WithCodeTTL overrides DefaultCodeTTL. Zero disables the cache.
func WithCodeTTL(d time.Duration) Option {
	return func(o *Oracle) {
		o.codeTTL = d
	}
}

// New creates an Oracle over clients keyed by chain id.
func New(clients map[uint64]Caller, opts ...Option) *Oracle {
	o := &Oracle{clients: clients, codeTTL: DefaultCodeTTL}
	for _, opt := range opts {
		opt(o)
	}
	cache := cachemanager.NewInMemoryCacheManager[string, bool]("account-kinds", o.codeTTL, 2*o.codeTTL)
	o.kinds = cachemanager.NewReadThroughCache[string, bool, codeQuery](cache, o.loadKind, o.codeTTL <= 0)
	return o
}

// Dial connects to every endpoint. The returned close function releases
// all connections opened so far, including on error.
func Dial(ctx context.Context, endpoints map[uint64]string) (map[uint64]Caller, func(), error) {
	clients := make(map[uint64]Caller, len(endpoints))
	var opened []*ethclient.Client
	closeAll := func() {
		for _, c := range opened {
			c.Close()
		}
	}
	for id, url := range endpoints {
		c, err := ethclient.DialContext(ctx, url)
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("dial chain %d: %w", id, err)
		}
		opened = append(opened, c)
		clients[id] = c
		log.Debug(log.CatChain, "connected to node", "chain_id", id, "url", url)
	}
	return clients, closeAll, nil
}

func (o *Oracle) client(chainID uint64) (Caller, error) {
	c, ok := o.clients[chainID]
	if !ok {
		return nil, fmt.Errorf("%w: no node configured for chain %d", chain.ErrRPC, chainID)
	}
	return c, nil
}

func (o *Oracle) call(ctx context.Context, chainID uint64, to common.Address, data []byte) ([]byte, error) {
	c, err := o.client(chainID)
	if err != nil {
		return nil, err
	}
	out, err := c.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: eth_call %s on chain %d: %v", chain.ErrRPC, to.Hex(), chainID, err)
	}
	return out, nil
}

// Lookup asks the registrar controller whether label is free and what it
// costs for duration seconds. Price is base + premium.
func (o *Oracle) Lookup(ctx context.Context, net chain.Network, label string, duration *big.Int) (chain.NameInfo, error) {
	data, err := ens.AvailableCalldata(label)
	if err != nil {
		return chain.NameInfo{}, err
	}
	out, err := o.call(ctx, net.DestinationChainID, net.Controller, data)
	if err != nil {
		return chain.NameInfo{}, err
	}
	available, err := ens.UnpackAvailable(out)
	if err != nil {
		return chain.NameInfo{}, fmt.Errorf("%w: %v", chain.ErrRPC, err)
	}
	if !available {
		return chain.NameInfo{Available: false}, nil
	}

	if data, err = ens.RentPriceCalldata(label, duration); err != nil {
		return chain.NameInfo{}, err
	}
	if out, err = o.call(ctx, net.DestinationChainID, net.Controller, data); err != nil {
		return chain.NameInfo{}, err
	}
	price, err := ens.UnpackRentPrice(out)
	if err != nil {
		return chain.NameInfo{}, fmt.Errorf("%w: %v", chain.ErrRPC, err)
	}
	log.Debug(log.CatChain, "name priced", "label", label, "network", net.Name, "price_wei", price.String())
	return chain.NameInfo{Available: true, PriceWei: price}, nil
}

// Owner returns the registry owner of a full name such as "alice.eth".
func (o *Oracle) Owner(ctx context.Context, net chain.Network, name string) (common.Address, error) {
	data, err := ens.OwnerCalldata(name)
	if err != nil {
		return common.Address{}, err
	}
	out, err := o.call(ctx, net.DestinationChainID, net.Registry, data)
	if err != nil {
		return common.Address{}, err
	}
	owner, err := ens.UnpackOwner(out)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", chain.ErrRPC, err)
	}
	return owner, nil
}

// Balance returns the latest balance of addr on chainID.
func (o *Oracle) Balance(ctx context.Context, chainID uint64, addr common.Address) (*big.Int, error) {
	c, err := o.client(chainID)
	if err != nil {
		return nil, err
	}
	wei, err := c.BalanceAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: balance of %s on chain %d: %v", chain.ErrRPC, addr.Hex(), chainID, err)
	}
	return wei, nil
}

// IsContract reports whether addr has code on chainID. Answers are cached
// for the code TTL; failures are not.
func (o *Oracle) IsContract(ctx context.Context, chainID uint64, addr common.Address) (bool, error) {
	key := fmt.Sprintf("%d:%s", chainID, addr.Hex())
	return o.kinds.Get(ctx, key, codeQuery{chainID: chainID, addr: addr}, o.codeTTL)
}

func (o *Oracle) loadKind(ctx context.Context, q codeQuery) (bool, error) {
	c, err := o.client(q.chainID)
	if err != nil {
		return false, err
	}
	code, err := c.CodeAt(ctx, q.addr, nil)
	if err != nil {
		return false, fmt.Errorf("%w: code of %s on chain %d: %v", chain.ErrRPC, q.addr.Hex(), q.chainID, err)
	}
	return len(code) > 0, nil
}
