package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/namebridge/internal/orchestration/events"
	"github.com/zjrosen/namebridge/internal/orchestration/types"
)

func TestObserveCommand_CountsByOutcome(t *testing.T) {
	m := New()

	m.ObserveCommand("begin_commit", true, 5*time.Millisecond)
	m.ObserveCommand("begin_commit", true, time.Millisecond)
	m.ObserveCommand("begin_commit", false, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.commands.WithLabelValues("begin_commit", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commands.WithLabelValues("begin_commit", "failure")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.commandDuration))
}

func TestObserveEffect(t *testing.T) {
	m := New()
	req := types.Requester{UserID: "u1", ChannelID: "c1"}

	m.ObserveEffect(events.Form("wallet-select-c1-u1-alice-1", "Pick a wallet", req, nil))
	m.ObserveEffect(events.NewNotice(req, events.NoticeInsufficientFunds, "no funds"))
	m.ObserveEffect(events.NewNotice(req, events.NoticeInsufficientFunds, "no funds"))
	m.ObserveEffect("not an effect")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.actions.WithLabelValues("form")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.notices.WithLabelValues("insufficient_funds")))
}

func TestGauges(t *testing.T) {
	m := New()

	m.SetStoreSizes(map[string]int{"commitments": 3, "bridges": 1})
	m.SetPendingTimers(2)
	m.AddSwept("selections", 4)
	m.AddSwept("selections", 0)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.storeRecords.WithLabelValues("commitments")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeRecords.WithLabelValues("bridges")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.pendingTimers))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.sweptRecords.WithLabelValues("selections")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	require.NotPanics(t, func() {
		m.ObserveCommand("x", true, time.Second)
		m.ObserveEffect(events.Notice{})
		m.SetStoreSizes(map[string]int{"a": 1})
		m.SetPendingTimers(1)
		m.AddSwept("a", 1)
	})
	assert.Nil(t, m.Registry())
}

func TestHandler_ServesExposition(t *testing.T) {
	m := New()
	m.ObserveCommand("sweep_stores", true, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `namebridge_commands_processed_total{outcome="success",type="sweep_stores"} 1`)
}
