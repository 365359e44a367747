package handler_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/namebridge/internal/chain"
	"github.com/zjrosen/namebridge/internal/correlation"
	"github.com/zjrosen/namebridge/internal/flags"
	"github.com/zjrosen/namebridge/internal/mocks"
	"github.com/zjrosen/namebridge/internal/orchestration/command"
	"github.com/zjrosen/namebridge/internal/orchestration/events"
	"github.com/zjrosen/namebridge/internal/orchestration/handler"
	"github.com/zjrosen/namebridge/internal/orchestration/repository"
	"github.com/zjrosen/namebridge/internal/orchestration/types"
	"github.com/zjrosen/namebridge/internal/testutil"
)

// ===========================================================================
// Test Helpers
// ===========================================================================

var (
	alice = types.Requester{UserID: "u1", ChannelID: "c1"}

	mainnet = chain.Network{
		Name:               "mainnet",
		DestinationChainID: chain.MainnetChainID,
		SourceChainID:      chain.BaseChainID,
		Controller:         common.HexToAddress("0x253553366Da8546fC250F225fe3d25d0C782303b"),
		Registry:           common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e"),
		PublicResolver:     common.HexToAddress("0x231b0Ee14048e9dCcD1d247744d114a4EB5E8E63"),
		SourceWETH:         common.HexToAddress("0x4200000000000000000000000000000000000006"),
		DestinationWETH:    common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
	}
	sepolia = chain.Network{
		Name:               "sepolia",
		Testnet:            true,
		DestinationChainID: chain.SepoliaChainID,
		SourceChainID:      chain.BaseSepoliaChainID,
		Controller:         common.HexToAddress("0xfb3cE5D01e0f33f41DbB39035dB9745962F1f968"),
		Registry:           common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e"),
		PublicResolver:     common.HexToAddress("0x8FADE66B79cC9f707aB26799354482EB93a5B7dD"),
		SourceWETH:         common.HexToAddress("0x4200000000000000000000000000000000000006"),
		DestinationWETH:    common.HexToAddress("0x7b79995e5f793A07Bc00c21412e50Ecae098E7f9"),
	}
	spokePool = common.HexToAddress("0x09aea4b2242abC8bb4BB78D537A67a245A7bEC64")
	year      = 365 * 24 * time.Hour
)

// fakeScheduler records continuations instead of running them.
type fakeScheduler struct {
	mu      sync.Mutex
	now     time.Time
	pending map[correlation.Key]scheduled
}

type scheduled struct {
	delay time.Duration
	cmd   command.Command
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{now: testutil.NewFakeClock().Now(), pending: map[correlation.Key]scheduled{}}
}

func (s *fakeScheduler) Schedule(key correlation.Key, d time.Duration, cmd command.Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[key] = scheduled{delay: d, cmd: cmd}
}

func (s *fakeScheduler) Cancel(key correlation.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[key]
	delete(s.pending, key)
	return ok
}

func (s *fakeScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *fakeScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(d)
}

func (s *fakeScheduler) Get(key correlation.Key) (scheduled, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.pending[key]
	return e, ok
}

type harness struct {
	t         *testing.T
	ctx       context.Context
	deps      *handler.Deps
	sched     *fakeScheduler
	names     *mocks.MockNameOracle
	balances  *mocks.MockBalanceOracle
	kinds     *mocks.MockAccountKindOracle
	bridge    *mocks.MockFeeQuoter
	linker    *mocks.MockWalletLinker
	responses *handler.ResponseHandler
}

func newHarness(t *testing.T, flagOverrides ...map[string]bool) *harness {
	t.Helper()
	fl := flags.Defaults()
	for _, o := range flagOverrides {
		for k, v := range o {
			fl[k] = v
		}
	}
	h := &harness{
		t:        t,
		ctx:      context.Background(),
		sched:    newFakeScheduler(),
		names:    mocks.NewMockNameOracle(t),
		balances: mocks.NewMockBalanceOracle(t),
		kinds:    mocks.NewMockAccountKindOracle(t),
		bridge:   mocks.NewMockFeeQuoter(t),
		linker:   mocks.NewMockWalletLinker(t),
	}
	h.deps = &handler.Deps{
		Stores: repository.NewStores(repository.TTLs{
			Commitment: 24 * time.Hour,
			Bridge:     time.Hour,
			Selection:  10 * time.Minute,
			Subdomain:  10 * time.Minute,
		}),
		Chain: handler.Collaborators{
			Names:    h.names,
			Balances: h.balances,
			Kinds:    h.kinds,
			Bridge:   h.bridge,
			Wallets:  h.linker,
		},
		Networks:  handler.Networks{Mainnet: mainnet, Testnet: sepolia},
		Scheduler: h.sched,
		Flags:     flags.New(fl),
		Settings: handler.Settings{
			MinCommitmentAge: 60 * time.Second,
			MaxCommitmentAge: 24 * time.Hour,
			PollInterval:     15 * time.Second,
			MaxPollAttempts:  3,
		},
		Tuning: handler.NewTuning(command.Tunables{BufferPercent: 10, GasReserve: testutil.Ether("0.01")}),
	}
	h.responses = handler.NewResponseHandler(h.deps)
	return h
}

func (h *harness) respond(id string, tx *common.Hash, option string) *command.CommandResult {
	h.t.Helper()
	cmd := command.NewHandleResponseCommand(command.SourceResponse, command.Response{RequestID: id, TxHash: tx, SelectedOptionID: option})
	result, err := h.responses.Handle(h.ctx, cmd)
	require.NoError(h.t, err)
	require.True(h.t, result.Success)
	return result
}

func txHash(n byte) *common.Hash {
	h := common.BytesToHash([]byte{n})
	return &h
}

func noticesOf(t *testing.T, result *command.CommandResult) []events.Notice {
	t.Helper()
	var out []events.Notice
	for _, e := range result.Events {
		if n, ok := e.(events.Notice); ok {
			out = append(out, n)
		}
	}
	return out
}

func actionsOf(t *testing.T, result *command.CommandResult) []events.ActionRequest {
	t.Helper()
	var out []events.ActionRequest
	for _, e := range result.Events {
		if a, ok := e.(events.ActionRequest); ok {
			out = append(out, a)
		}
	}
	return out
}

func onlyNotice(t *testing.T, result *command.CommandResult) events.Notice {
	t.Helper()
	ns := noticesOf(t, result)
	require.Len(t, ns, 1)
	return ns[0]
}

func onlyAction(t *testing.T, result *command.CommandResult) events.ActionRequest {
	t.Helper()
	as := actionsOf(t, result)
	require.Len(t, as, 1)
	return as[0]
}
