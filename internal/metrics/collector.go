package ctapmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// -------------------------------------------------------------------------
// Prometheus Metric Constants
// -------------------------------------------------------------------------

const (
	namespace = "ctapd"
	subsystem = "ctaphid"
)

// Label names for ctaphid metrics.
const (
	labelCmd  = "cmd"
	labelKind = "kind"
)

// -------------------------------------------------------------------------
// Collector — Prometheus CTAPHID Metrics
// -------------------------------------------------------------------------

// Collector holds all ctaphid Prometheus metrics and implements
// ctaphid.MetricsReporter, so an Engine can be handed a Collector
// directly without an adapter.
type Collector struct {
	// TransactionsTotal counts completed transactions by dispatched
	// command.
	TransactionsTotal *prometheus.CounterVec

	// ErrorsTotal counts error replies emitted, keyed by error kind.
	ErrorsTotal *prometheus.CounterVec

	// ChannelsAllocated is the number of live entries in the channel
	// table. It holds the value last passed to SetChannelsAllocated; the
	// engine does not update it.
	ChannelsAllocated prometheus.Gauge

	// ChannelEvictionsTotal counts FIFO evictions from the channel
	// table.
	ChannelEvictionsTotal prometheus.Counter

	// TransactionDuration records wall time from accepted init frame to
	// dispatch completion.
	TransactionDuration *prometheus.HistogramVec
}

// NewCollector creates a Collector with all ctaphid metrics registered
// against the provided prometheus.Registerer. If reg is nil,
// prometheus.DefaultRegisterer is used.
//
// All metrics are created with the "ctapd_ctaphid_" prefix
// (namespace_subsystem) to avoid collisions with other exporters.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()

	reg.MustRegister(
		c.TransactionsTotal,
		c.ErrorsTotal,
		c.ChannelsAllocated,
		c.ChannelEvictionsTotal,
		c.TransactionDuration,
	)

	return c
}

// newMetrics creates all Prometheus metric vectors without registering them.
func newMetrics() *Collector {
	return &Collector{
		TransactionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "transactions_total",
			Help:      "Total CTAPHID transactions completed, by dispatched command.",
		}, []string{labelCmd}),

		ErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "errors_total",
			Help:      "Total CTAPHID error replies emitted, by error kind.",
		}, []string{labelKind}),

		ChannelsAllocated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "channels_allocated",
			Help:      "Current number of entries in the channel table.",
		}),

		ChannelEvictionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "channel_evictions_total",
			Help:      "Total FIFO evictions from the channel table.",
		}),

		TransactionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "transaction_duration_seconds",
			Help:      "Wall time from accepted init frame to dispatch completion.",
			Buckets:   prometheus.DefBuckets,
		}, []string{labelCmd}),
	}
}

// -------------------------------------------------------------------------
// ctaphid.MetricsReporter implementation
// -------------------------------------------------------------------------

// TransactionCompleted increments TransactionsTotal for cmd.
func (c *Collector) TransactionCompleted(cmd string) {
	c.TransactionsTotal.WithLabelValues(cmd).Inc()
}

// ErrorOccurred increments ErrorsTotal for kind.
func (c *Collector) ErrorOccurred(kind string) {
	c.ErrorsTotal.WithLabelValues(kind).Inc()
}

// ChannelEvicted increments ChannelEvictionsTotal.
func (c *Collector) ChannelEvicted() {
	c.ChannelEvictionsTotal.Inc()
}

// -------------------------------------------------------------------------
// Gauges and histograms not covered by MetricsReporter
// -------------------------------------------------------------------------

// SetChannelsAllocated updates the live channel table gauge. Callers
// poll Engine.ChannelCount and push the value here rather than the
// engine reporting it per-transaction, since it is a level, not an
// event.
func (c *Collector) SetChannelsAllocated(n int) {
	c.ChannelsAllocated.Set(float64(n))
}

// ObserveTransactionDuration records d for cmd in TransactionDuration.
func (c *Collector) ObserveTransactionDuration(cmd string, d time.Duration) {
	c.TransactionDuration.WithLabelValues(cmd).Observe(d.Seconds())
}
