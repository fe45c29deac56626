// Package main provides the entry point for redkv-server.
//
// The server keeps a key-value store in memory and serves it over the
// Redis wire protocol. It:
//
//   - restores the keyspace from the snapshot file at startup
//   - writes snapshots on SAVE, periodically and on graceful shutdown
//   - exposes Prometheus metrics when metrics.addr is set
//   - reloads log.level when the configuration file changes
//
// Usage:
//
//	redkv-server [flags]
//	redkv-server --config /etc/redkv/config.yaml --port 6380
//
// Configuration precedence is defaults < config file < .env file <
// REDKV_* environment < flags. The process exits non-zero when a listener
// cannot bind.
package main
