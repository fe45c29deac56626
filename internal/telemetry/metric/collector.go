package metric

import "github.com/prometheus/client_golang/prometheus"

// KeyspaceStats is the read side of the keyspace the collector needs.
type KeyspaceStats interface {
	Len() int
	ExpiringLen() int
}

// KeyspaceCollector reports keyspace sizes at scrape time.
type KeyspaceCollector struct {
	stats    KeyspaceStats
	keys     *prometheus.Desc
	expiring *prometheus.Desc
}

// NewCollector creates a collector reading from stats.
func NewCollector(stats KeyspaceStats) *KeyspaceCollector {
	return &KeyspaceCollector{
		stats: stats,
		keys: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "keys"),
			"Keys currently stored.", nil, nil),
		expiring: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "expiring_keys"),
			"Keys that carry an expiry.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *KeyspaceCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keys
	ch <- c.expiring
}

// Collect implements prometheus.Collector.
func (c *KeyspaceCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(c.stats.Len()))
	ch <- prometheus.MustNewConstMetric(c.expiring, prometheus.GaugeValue, float64(c.stats.ExpiringLen()))
}
