// Package metrics exposes engine counters and gauges to Prometheus.
//
// Every method is safe on a nil *Metrics so callers can leave metrics
// unconfigured in tests and one-shot CLI commands.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zjrosen/namebridge/internal/orchestration/events"
	"github.com/zjrosen/namebridge/internal/orchestration/processor"
)

const namespace = "namebridge"

// Metrics holds the engine collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	commands        *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	actions         *prometheus.CounterVec
	notices         *prometheus.CounterVec
	storeRecords    *prometheus.GaugeVec
	pendingTimers   prometheus.Gauge
	sweptRecords    *prometheus.CounterVec
}

var _ processor.CommandObserver = (*Metrics)(nil)

// New registers the engine collectors on a fresh registry, together with the
// Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_processed_total",
			Help:      "Commands processed by the engine, by type and outcome",
		}, []string{"type", "outcome"}),
		commandDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Time spent handling a command, including collaborator calls",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"type"}),
		actions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "action_requests_total",
			Help:      "Transaction and form requests sent to the signing collaborator",
		}, []string{"kind"}),
		notices: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notices_total",
			Help:      "User notices emitted, by code",
		}, []string{"code"}),
		storeRecords: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_records",
			Help:      "Records currently held per correlation store",
		}, []string{"store"}),
		pendingTimers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduled_continuations",
			Help:      "Deferred continuations waiting to fire",
		}),
		sweptRecords: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swept_records_total",
			Help:      "Records evicted by the store sweep after their TTL",
		}, []string{"store"}),
	}
}

// ObserveCommand records one processed command.
func (m *Metrics) ObserveCommand(cmdType string, success bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.commands.WithLabelValues(cmdType, outcome).Inc()
	m.commandDuration.WithLabelValues(cmdType).Observe(d.Seconds())
}

// ObserveEffect counts an outbound effect. Values that are neither action
// requests nor notices are ignored.
func (m *Metrics) ObserveEffect(effect any) {
	if m == nil {
		return
	}
	switch e := effect.(type) {
	case events.ActionRequest:
		m.actions.WithLabelValues(string(e.Kind)).Inc()
	case events.Notice:
		m.notices.WithLabelValues(string(e.Code)).Inc()
	}
}

// SetStoreSizes replaces the per-store record gauges.
func (m *Metrics) SetStoreSizes(sizes map[string]int) {
	if m == nil {
		return
	}
	for store, n := range sizes {
		m.storeRecords.WithLabelValues(store).Set(float64(n))
	}
}

// SetPendingTimers sets the scheduled continuation gauge.
func (m *Metrics) SetPendingTimers(n int) {
	if m == nil {
		return
	}
	m.pendingTimers.Set(float64(n))
}

// AddSwept counts records a sweep evicted from store.
func (m *Metrics) AddSwept(store string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.sweptRecords.WithLabelValues(store).Add(float64(n))
}

// Registry returns the registry backing the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
