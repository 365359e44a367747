package engine_test

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/namebridge/internal/chain"
	"github.com/zjrosen/namebridge/internal/config"
	"github.com/zjrosen/namebridge/internal/correlation"
	"github.com/zjrosen/namebridge/internal/flags"
	"github.com/zjrosen/namebridge/internal/mocks"
	"github.com/zjrosen/namebridge/internal/orchestration/command"
	"github.com/zjrosen/namebridge/internal/orchestration/engine"
	"github.com/zjrosen/namebridge/internal/orchestration/events"
	"github.com/zjrosen/namebridge/internal/orchestration/handler"
	"github.com/zjrosen/namebridge/internal/orchestration/metrics"
	"github.com/zjrosen/namebridge/internal/orchestration/repository"
	"github.com/zjrosen/namebridge/internal/orchestration/types"
	"github.com/zjrosen/namebridge/internal/testutil"
)

var alice = types.Requester{UserID: "u1", ChannelID: "c1"}

type recordingSink struct {
	mu      sync.Mutex
	actions []events.ActionRequest
	notices []events.Notice
}

func (s *recordingSink) DeliverAction(_ context.Context, a events.ActionRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, a)
	return nil
}

func (s *recordingSink) DeliverNotice(_ context.Context, n events.Notice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, n)
	return nil
}

func (s *recordingSink) Actions() []events.ActionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]events.ActionRequest(nil), s.actions...)
}

func (s *recordingSink) Notices() []events.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]events.Notice(nil), s.notices...)
}

type fixture struct {
	cfg   engine.Config
	names *mocks.MockNameOracle
	sink  *recordingSink
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	defaults := config.Defaults()
	mainnet, err := defaults.ChainNetwork(config.NetworkMainnet)
	require.NoError(t, err)
	testnet, err := defaults.ChainNetwork(config.NetworkTestnet)
	require.NoError(t, err)

	f := &fixture{names: mocks.NewMockNameOracle(t), sink: &recordingSink{}}
	f.cfg = engine.Config{
		Chain: handler.Collaborators{
			Names:    f.names,
			Balances: mocks.NewMockBalanceOracle(t),
			Kinds:    mocks.NewMockAccountKindOracle(t),
			Bridge:   mocks.NewMockFeeQuoter(t),
			Wallets:  mocks.NewMockWalletLinker(t),
		},
		Networks: handler.Networks{Mainnet: mainnet, Testnet: testnet},
		Settings: handler.Settings{
			MinCommitmentAge: time.Minute,
			MaxCommitmentAge: 24 * time.Hour,
			PollInterval:     15 * time.Second,
			MaxPollAttempts:  3,
		},
		Tunables: command.Tunables{BufferPercent: 10, GasReserve: big.NewInt(1)},
		TTLs: repository.TTLs{
			Commitment: 24 * time.Hour,
			Bridge:     time.Hour,
			Selection:  10 * time.Minute,
			Subdomain:  10 * time.Minute,
		},
		Flags:         flags.New(flags.Defaults()),
		SweepInterval: time.Hour,
		Metrics:       metrics.New(),
		Sinks:         []engine.Sink{f.sink},
	}
	return f
}

func (f *fixture) start(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.New(f.cfg)
	require.NoError(t, err)
	require.NoError(t, e.Start(context.Background()))
	t.Cleanup(e.Drain)
	return e
}

func TestNew_RejectsIncompleteConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*engine.Config)
		errMsg string
	}{
		{"missing oracle", func(c *engine.Config) { c.Chain.Names = nil }, "name oracle"},
		{"missing linker", func(c *engine.Config) { c.Chain.Wallets = nil }, "wallet linker"},
		{"bad profile", func(c *engine.Config) { c.Networks.Testnet = chain.Network{Name: "x"} }, "testnet profile"},
		{"ages inverted", func(c *engine.Config) { c.Settings.MaxCommitmentAge = time.Second }, "commitment ages"},
		{"no poll interval", func(c *engine.Config) { c.Settings.PollInterval = 0 }, "poll interval"},
		{"buffer too large", func(c *engine.Config) { c.Tunables.BufferPercent = 101 }, "tunables"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.mutate(&f.cfg)
			_, err := engine.New(f.cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestEngine_DeliversNoticesToSinks(t *testing.T) {
	f := newFixture(t)
	e := f.start(t)

	result, err := e.SubmitAndWait(context.Background(), command.NewNotifyUserCommand(command.SourceInternal, alice, "hello"))
	require.NoError(t, err)
	require.True(t, result.Success)

	require.Eventually(t, func() bool { return len(f.sink.Notices()) == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, "hello", f.sink.Notices()[0].Message)
	require.Equal(t, alice, f.sink.Notices()[0].Requester)
}

func TestEngine_RunsRegistrationSaga(t *testing.T) {
	f := newFixture(t)
	f.names.EXPECT().Lookup(mock.Anything, f.cfg.Networks.Mainnet, "taken", mock.Anything).
		Return(chain.NameInfo{Available: false}, nil).Once()
	e := f.start(t)

	require.NoError(t, e.Submit(command.NewRequestRegistrationCommand(command.SourceUser, alice, "taken", 365*24*time.Hour, false)))

	require.Eventually(t, func() bool { return len(f.sink.Notices()) == 1 }, time.Second, 5*time.Millisecond)
	n := f.sink.Notices()[0]
	require.Equal(t, events.NoticeNameUnavailable, n.Code)
	require.Equal(t, "taken.eth", n.Name)
}

func TestEngine_RevealWaitsForMinimumAgeAfterInstantConfirmation(t *testing.T) {
	f := newFixture(t)
	clock := testutil.NewFakeClock()
	f.cfg.Clock = clock
	f.names.EXPECT().Lookup(mock.Anything, f.cfg.Networks.Mainnet, "alice", mock.Anything).
		Return(chain.NameInfo{Available: true, PriceWei: big.NewInt(1_000_000)}, nil).Once()
	e := f.start(t)
	ctx := context.Background()
	commitKey := correlation.CommitKey(alice.ChannelID, alice.UserID, "alice", false)
	revealKey, ok := commitKey.Reveal()
	require.True(t, ok)

	begin := command.NewBeginCommitCommand(command.SourceInternal, alice, "alice", 365*24*time.Hour, false, testutil.EOAWallet)
	_, err := e.SubmitAndWait(ctx, begin)
	require.NoError(t, err)
	tx := common.HexToHash("0x01")
	_, err = e.SubmitAndWait(ctx, command.NewHandleResponseCommand(command.SourceResponse,
		command.Response{RequestID: commitKey.String(), TxHash: &tx}))
	require.NoError(t, err)
	require.Equal(t, 1, clock.Active())
	due, ok := e.Scheduler.Pending(commitKey)
	require.True(t, ok)
	require.Equal(t, clock.Now().Add(f.cfg.Settings.MinCommitmentAge), due)

	clock.Advance(f.cfg.Settings.MinCommitmentAge - time.Second)
	_, err = e.SubmitAndWait(ctx, command.NewNotifyUserCommand(command.SourceInternal, alice, "barrier"))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(f.sink.Actions()) == 1 }, time.Second, 5*time.Millisecond)
	require.Never(t, func() bool { return len(f.sink.Actions()) > 1 }, 50*time.Millisecond, 5*time.Millisecond)
	require.Equal(t, commitKey.String(), f.sink.Actions()[0].ID)
	rec, err := e.Stores.Commitments.Get(ctx, commitKey)
	require.NoError(t, err)
	require.Equal(t, repository.PhaseCommitConfirmed, rec.Phase)

	clock.Advance(time.Second)

	require.Eventually(t, func() bool { return len(f.sink.Actions()) == 2 }, time.Second, 5*time.Millisecond)
	require.Equal(t, revealKey.String(), f.sink.Actions()[1].ID)
}

func TestEngine_ReloadGoesThroughProcessor(t *testing.T) {
	f := newFixture(t)
	e := f.start(t)

	require.NoError(t, e.Reload(command.Tunables{BufferPercent: 25, GasReserve: big.NewInt(7)}))

	require.Eventually(t, func() bool { return e.Tuning.Load().BufferPercent == 25 }, time.Second, 5*time.Millisecond)
	require.Equal(t, int64(7), e.Tuning.Load().GasReserve.Int64())
}

func TestEngine_SweepsOnInterval(t *testing.T) {
	f := newFixture(t)
	f.cfg.SweepInterval = 10 * time.Millisecond
	e := f.start(t)

	require.Eventually(t, func() bool { return e.Processor.ProcessedCount() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestEngine_DrainRejectsLateCommands(t *testing.T) {
	f := newFixture(t)
	e, err := engine.New(f.cfg)
	require.NoError(t, err)
	require.NoError(t, e.Start(context.Background()))

	e.Drain()

	err = e.Submit(command.NewNotifyUserCommand(command.SourceInternal, alice, "late"))
	require.ErrorIs(t, err, types.ErrProcessorNotRunning)
}
