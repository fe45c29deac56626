// Package metric provides Prometheus metrics for the keyspace server.
//
//   - prometheus.go: registry, command/connection/snapshot instruments, HTTP handler
//   - collector.go: keyspace size collector read at scrape time
//
// Metrics are exposed at /metrics when metrics.addr is configured.
package metric
