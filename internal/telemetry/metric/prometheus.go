package metric

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "redkv"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Command metrics
	CommandsTotal   *prometheus.CounterVec
	CommandErrors   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
	ProtocolErrors  prometheus.Counter

	// Connection metrics
	ConnectionsActive   prometheus.Gauge
	ConnectionsTotal    prometheus.Counter
	ConnectionsRejected *prometheus.CounterVec

	// Keyspace metrics
	ExpiredKeys prometheus.Counter

	// Snapshot metrics
	SnapshotDuration prometheus.Histogram
	SnapshotSize     prometheus.Gauge
	SnapshotFailures prometheus.Counter
}

// NewRegistry creates a registry with the Go and process collectors and
// every redkv instrument registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands executed, by command name.",
		}, []string{"command"}),
		CommandErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_errors_total",
			Help:      "Commands that replied with an error, by command name.",
		}, []string{"command"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Command execution latency.",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
		}, []string{"command"}),
		ProtocolErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_errors_total",
			Help:      "Malformed frames received.",
		}),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Currently open client connections.",
		}),
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Client connections accepted.",
		}),
		ConnectionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_rejected_total",
			Help:      "Client connections or commands refused, by reason.",
		}, []string{"reason"}),
		ExpiredKeys: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expired_keys_total",
			Help:      "Keys removed because their expiry passed.",
		}),
		SnapshotDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "snapshot_duration_seconds",
			Help:      "Time taken to write a snapshot.",
			Buckets:   prometheus.DefBuckets,
		}),
		SnapshotSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_size_bytes",
			Help:      "Size of the last snapshot written.",
		}),
		SnapshotFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_failures_total",
			Help:      "Snapshot writes that failed.",
		}),
	}

	reg.MustRegister(
		r.CommandsTotal,
		r.CommandErrors,
		r.CommandDuration,
		r.ProtocolErrors,
		r.ConnectionsActive,
		r.ConnectionsTotal,
		r.ConnectionsRejected,
		r.ExpiredKeys,
		r.SnapshotDuration,
		r.SnapshotSize,
		r.SnapshotFailures,
	)
	return r
}

var (
	globalOnce     sync.Once
	globalRegistry *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		globalRegistry = NewRegistry()
	})
	return globalRegistry
}

// Handler returns an HTTP handler for the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// Handler returns an HTTP handler serving r in Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Register adds an extra collector, such as a KeyspaceCollector.
func (r *Registry) Register(c prometheus.Collector) error {
	return r.registry.Register(c)
}

// RecordCommand counts one executed command and its latency.
func (r *Registry) RecordCommand(command string, seconds float64, failed bool) {
	r.CommandsTotal.WithLabelValues(command).Inc()
	r.CommandDuration.WithLabelValues(command).Observe(seconds)
	if failed {
		r.CommandErrors.WithLabelValues(command).Inc()
	}
}

// IncProtocolErrors counts one malformed frame.
func (r *Registry) IncProtocolErrors() {
	r.ProtocolErrors.Inc()
}

// ConnOpened records an accepted connection.
func (r *Registry) ConnOpened() {
	r.ConnectionsTotal.Inc()
	r.ConnectionsActive.Inc()
}

// ConnClosed records a closed connection.
func (r *Registry) ConnClosed() {
	r.ConnectionsActive.Dec()
}

// ConnRejected records a refused connection or command.
func (r *Registry) ConnRejected(reason string) {
	r.ConnectionsRejected.WithLabelValues(reason).Inc()
}

// AddExpiredKeys counts keys reclaimed after expiry.
func (r *Registry) AddExpiredKeys(n int) {
	r.ExpiredKeys.Add(float64(n))
}

// RecordSnapshot records a finished snapshot write.
func (r *Registry) RecordSnapshot(seconds float64, size int64, err error) {
	if err != nil {
		r.SnapshotFailures.Inc()
		return
	}
	r.SnapshotDuration.Observe(seconds)
	r.SnapshotSize.Set(float64(size))
}
