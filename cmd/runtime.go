package cmd

import (
	"context"
	"fmt"

	"github.com/zjrosen/namebridge/internal/across"
	"github.com/zjrosen/namebridge/internal/chain/rpc"
	"github.com/zjrosen/namebridge/internal/chain/walletlink"
	"github.com/zjrosen/namebridge/internal/config"
	"github.com/zjrosen/namebridge/internal/flags"
	"github.com/zjrosen/namebridge/internal/orchestration/command"
	"github.com/zjrosen/namebridge/internal/orchestration/engine"
	"github.com/zjrosen/namebridge/internal/orchestration/handler"
	"github.com/zjrosen/namebridge/internal/orchestration/repository"
	"github.com/zjrosen/namebridge/internal/orchestration/tracing"
)

// collaborators are the live chain, bridge and wallet adapters.
type collaborators struct {
	chain    handler.Collaborators
	networks handler.Networks
	wallets  *walletlink.Registry
	close    func()
}

func networks(c config.Config) (handler.Networks, error) {
	mainnet, err := c.ChainNetwork(config.NetworkMainnet)
	if err != nil {
		return handler.Networks{}, err
	}
	testnet, err := c.ChainNetwork(config.NetworkTestnet)
	if err != nil {
		return handler.Networks{}, err
	}
	return handler.Networks{Mainnet: mainnet, Testnet: testnet}, nil
}

// dialCollaborators connects to every configured RPC endpoint and builds the
// adapters the handlers consume.
func dialCollaborators(ctx context.Context, c config.Config) (*collaborators, error) {
	nets, err := networks(c)
	if err != nil {
		return nil, err
	}

	endpoints := map[uint64]string{}
	apis := map[string]string{}
	for name, nc := range c.Networks {
		if nc.DestinationRPC != "" {
			endpoints[nc.DestinationChainID] = nc.DestinationRPC
		}
		if nc.SourceRPC != "" {
			endpoints[nc.SourceChainID] = nc.SourceRPC
		}
		if nc.BridgeAPI != "" {
			apis[name] = nc.BridgeAPI
		}
	}
	clients, closeClients, err := rpc.Dial(ctx, endpoints)
	if err != nil {
		return nil, err
	}

	wallets, err := walletlink.FromConfig(c.Wallets)
	if err != nil {
		closeClients()
		return nil, fmt.Errorf("linked wallets: %w", err)
	}

	oracle := rpc.New(clients)
	bridge := across.NewClient(across.Options{Endpoints: apis, Timeout: c.Bridge.Timeout})
	return &collaborators{
		chain: handler.Collaborators{
			Names:    oracle,
			Balances: oracle,
			Kinds:    oracle,
			Bridge:   bridge,
			Wallets:  wallets,
		},
		networks: nets,
		wallets:  wallets,
		close:    closeClients,
	}, nil
}

func tunables(c config.Config) (command.Tunables, error) {
	reserve, err := c.Registration.GasReserveWei()
	if err != nil {
		return command.Tunables{}, err
	}
	return command.Tunables{BufferPercent: c.Registration.BufferPercent, GasReserve: reserve}, nil
}

func engineConfig(c config.Config, collab *collaborators) (engine.Config, error) {
	t, err := tunables(c)
	if err != nil {
		return engine.Config{}, err
	}
	return engine.Config{
		Chain:    collab.chain,
		Networks: collab.networks,
		Settings: handler.Settings{
			MinCommitmentAge: c.Registration.MinCommitmentAge,
			MaxCommitmentAge: c.Registration.MaxCommitmentAge,
			ReverseRecord:    c.Registration.ReverseRecord,
			PollInterval:     c.Bridge.PollInterval,
			MaxPollAttempts:  c.Bridge.MaxPollAttempts,
		},
		Tunables: t,
		TTLs: repository.TTLs{
			Commitment: c.Registration.MaxCommitmentAge,
			Bridge:     c.Store.BridgeTTL,
			Selection:  c.Store.SelectionTTL,
			Subdomain:  c.Store.SubdomainTTL,
		},
		Flags:         flags.New(c.Flags),
		SweepInterval: c.Store.SweepInterval,
		DedupTTL:      engine.DefaultDedupTTL,
	}, nil
}

func tracingConfig(c config.TracingConfig) tracing.Config {
	out := tracing.DefaultConfig()
	out.Enabled = c.Enabled
	if c.Exporter != "" {
		out.Exporter = c.Exporter
	}
	out.FilePath = c.FilePath
	if out.FilePath == "" {
		out.FilePath = config.DefaultTracesFilePath()
	}
	if c.OTLPEndpoint != "" {
		out.OTLPEndpoint = c.OTLPEndpoint
	}
	if c.SampleRate > 0 {
		out.SampleRate = c.SampleRate
	}
	return out
}
