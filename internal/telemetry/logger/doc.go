// Package logger provides structured logging for the keyspace server.
//
// It wraps log/slog:
//
//   - logger.go: handler selection (json, text) and the process-wide level
//   - context.go: connection ID and remote address propagation
//   - redact.go: masking of credentials such as snapshot keys
//
// Keyspace keys are logged under the kv_key attribute and are never
// redacted; values are never logged.
package logger
