package command

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/namebridge/internal/correlation"
	"github.com/zjrosen/namebridge/internal/orchestration/types"
)

var (
	alice   = types.Requester{UserID: "42", ChannelID: "1001"}
	year    = 365 * 24 * time.Hour
	walletA = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	walletB = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

// ===========================================================================
// BaseCommand Tests
// ===========================================================================

func TestNewBaseCommand(t *testing.T) {
	before := time.Now()
	base := NewBaseCommand(CmdSweepStores, SourceTimer)

	require.NotEmpty(t, base.ID())
	require.Equal(t, CmdSweepStores, base.Type())
	require.Equal(t, SourceTimer, base.Source())
	require.Equal(t, 0, base.Priority())
	require.False(t, base.CreatedAt().Before(before))
	require.NoError(t, base.Validate())

	other := NewBaseCommand(CmdSweepStores, SourceTimer)
	require.NotEqual(t, base.ID(), other.ID())
}

func TestBaseCommand_TraceIDPrefersSpanContext(t *testing.T) {
	base := NewBaseCommand(CmdNotifyUser, SourceInternal)
	base.SetTraceID("manual")
	require.Equal(t, "manual", base.TraceID())

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	base.SetSpanContext(trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID}))

	require.Equal(t, "0102030405060708090a0b0c0d0e0f10", base.TraceID())
}

// ===========================================================================
// Validation Tests
// ===========================================================================

func TestRequestRegistrationCommand_Validate(t *testing.T) {
	tests := []struct {
		name      string
		cmd       *RequestRegistrationCommand
		errSubstr string
	}{
		{"valid", NewRequestRegistrationCommand(SourceUser, alice, "Alice.eth", year, false), ""},
		{"bad requester", NewRequestRegistrationCommand(SourceUser, types.Requester{UserID: "a-b", ChannelID: "c"}, "alice", year, false), "userId"},
		{"short label", NewRequestRegistrationCommand(SourceUser, alice, "ab", year, false), "label"},
		{"bad characters", NewRequestRegistrationCommand(SourceUser, alice, "al ice", year, false), "label"},
		{"short duration", NewRequestRegistrationCommand(SourceUser, alice, "alice", time.Hour, false), "duration"},
		{"long duration", NewRequestRegistrationCommand(SourceUser, alice, "alice", 20*year, false), "duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if tt.errSubstr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.True(t, types.IsValidation(err))
			require.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestRequestRegistrationCommand_NormalizesLabel(t *testing.T) {
	cmd := NewRequestRegistrationCommand(SourceUser, alice, "  ABC.eth ", year, true)
	require.Equal(t, "abc", cmd.Label)
	require.Equal(t, CmdRequestRegistration, cmd.Type())
}

func TestRequestRegistrationCommand_ContentHashIgnoresIdentity(t *testing.T) {
	a := NewRequestRegistrationCommand(SourceUser, alice, "alice", year, false)
	b := NewRequestRegistrationCommand(SourceUser, alice, "alice", year, false)
	c := NewRequestRegistrationCommand(SourceUser, alice, "alice", year, true)

	require.NotEqual(t, a.ID(), b.ID())
	require.Equal(t, a.ContentHash(), b.ContentHash())
	require.NotEqual(t, a.ContentHash(), c.ContentHash())
}

func TestBeginCommitCommand_Validate(t *testing.T) {
	require.NoError(t, NewBeginCommitCommand(SourceInternal, alice, "alice", year, false, walletA).Validate())

	err := NewBeginCommitCommand(SourceInternal, alice, "alice", year, false, common.Address{}).Validate()
	require.ErrorContains(t, err, "owner")
}

func TestRevealCommitmentCommand_Validate(t *testing.T) {
	commit := correlation.CommitKey("1001", "42", "alice", false)
	require.NoError(t, NewRevealCommitmentCommand(SourceTimer, commit, "gen").Validate())

	reveal, _ := commit.Reveal()
	require.ErrorContains(t, NewRevealCommitmentCommand(SourceTimer, reveal, "gen").Validate(), "not a commit key")
	require.ErrorContains(t, NewRevealCommitmentCommand(SourceTimer, commit, "").Validate(), "generation")
}

func TestHandleResponseCommand(t *testing.T) {
	hash := common.HexToHash("0xabc")
	ok := NewHandleResponseCommand(SourceResponse, Response{RequestID: "commit-1-2-abc", TxHash: &hash})
	require.NoError(t, ok.Validate())
	require.True(t, ok.Response.Succeeded())

	declined := NewHandleResponseCommand(SourceResponse, Response{RequestID: "commit-1-2-abc"})
	require.False(t, declined.Response.Succeeded())
	require.NotEqual(t, ok.ContentHash(), declined.ContentHash())

	zero := common.Hash{}
	require.False(t, Response{RequestID: "x", TxHash: &zero}.Succeeded())

	require.Error(t, NewHandleResponseCommand(SourceResponse, Response{}).Validate())
}

func TestBeginBridgeCommand_Validate(t *testing.T) {
	require.NoError(t, NewBeginBridgeCommand(SourceInternal, alice, "alice", year, false, walletA, big.NewInt(1)).Validate())
	require.ErrorContains(t, NewBeginBridgeCommand(SourceInternal, alice, "alice", year, false, walletA, big.NewInt(0)).Validate(), "required")
	require.ErrorContains(t, NewBeginBridgeCommand(SourceInternal, alice, "alice", year, false, common.Address{}, big.NewInt(1)).Validate(), "wallet")
}

func TestBeginTransferCommand_Validate(t *testing.T) {
	one := big.NewInt(1)
	require.NoError(t, NewBeginTransferCommand(SourceInternal, alice, "alice", year, false, walletA, walletB, one, one).Validate())
	require.ErrorContains(t, NewBeginTransferCommand(SourceInternal, alice, "alice", year, false, walletA, walletA, one, one).Validate(), "differ")
	require.ErrorContains(t, NewBeginTransferCommand(SourceInternal, alice, "alice", year, false, walletA, walletB, nil, one).Validate(), "amount")
}

func TestPollBridgeCommand_Validate(t *testing.T) {
	key := correlation.Stamped(correlation.KindBridgeEOA, "1001", "42", "alice", time.UnixMilli(1))
	require.NoError(t, NewPollBridgeCommand(SourceTimer, key, "gen").Validate())

	key.Kind = correlation.KindTransfer
	require.Error(t, NewPollBridgeCommand(SourceTimer, key, "gen").Validate())
}

func TestAssignSubdomainCommand(t *testing.T) {
	cmd := NewAssignSubdomainCommand(SourceUser, alice, "Pay", "Alice.eth", walletB, false)
	require.NoError(t, cmd.Validate())
	require.Equal(t, "pay.alice.eth", cmd.FullName())

	require.ErrorContains(t, NewAssignSubdomainCommand(SourceUser, alice, "pay", "a.b.eth", walletB, false).Validate(), "parent")
	require.ErrorContains(t, NewAssignSubdomainCommand(SourceUser, alice, "pay", "alice", common.Address{}, false).Validate(), "recipient")
}

func TestReloadSettingsCommand_Validate(t *testing.T) {
	require.NoError(t, NewReloadSettingsCommand(SourceConfig, Tunables{BufferPercent: 10, GasReserve: big.NewInt(0)}).Validate())
	require.Error(t, NewReloadSettingsCommand(SourceConfig, Tunables{BufferPercent: 10}).Validate())
	require.Error(t, NewReloadSettingsCommand(SourceConfig, Tunables{BufferPercent: 101, GasReserve: big.NewInt(1)}).Validate())
}

func TestNotifyUserCommand(t *testing.T) {
	cmd := NewNotifyUserCommand(SourceInternal, alice, "a very long message that will certainly be truncated by String")
	require.NoError(t, cmd.Validate())
	require.Contains(t, cmd.String(), "...")

	require.ErrorContains(t, NewNotifyUserCommand(SourceInternal, alice, "").Validate(), "message")
}
