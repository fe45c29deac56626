package config

import "strings"

// Sanitize returns a copy of the config with secrets masked, for logging.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg

	if sanitized.Security.SnapshotKey != "" {
		sanitized.Security.SnapshotKey = maskSecret(sanitized.Security.SnapshotKey)
	}
	if sanitized.Security.SnapshotPassphrase != "" {
		sanitized.Security.SnapshotPassphrase = maskSecret(sanitized.Security.SnapshotPassphrase)
	}

	return &sanitized
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
