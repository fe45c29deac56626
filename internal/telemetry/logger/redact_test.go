package logger

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedact_InLogOutput(t *testing.T) {
	l, buf := newBuffered(t, "info")

	l.Info("config loaded",
		"snapshot_passphrase", "correct horse",
		"snapshot_key", "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff",
		"client_secret", "s3cr3t",
		"kv_key", "user:42",
		"key_count", 7,
		"path", "/var/lib/redkv/dump.rks",
	)

	got := entries(t, buf)
	require.Len(t, got, 1)
	e := got[0]
	assert.Equal(t, redactedValue, e["snapshot_passphrase"])
	assert.Equal(t, redactedValue, e["snapshot_key"])
	assert.Equal(t, redactedValue, e["client_secret"])
	assert.Equal(t, "user:42", e["kv_key"], "keyspace keys stay visible")
	assert.Equal(t, float64(7), e["key_count"])
	assert.Equal(t, "/var/lib/redkv/dump.rks", e["path"])
}

func TestRedact_Group(t *testing.T) {
	l, buf := newBuffered(t, "info")

	l.Info("security", slog.Group("security",
		slog.String("snapshot_passphrase", "hunter2hunter2"),
		slog.String("snapshot_cipher", "aes-gcm"),
	))

	got := entries(t, buf)
	require.Len(t, got, 1)
	group, ok := got[0]["security"].(map[string]any)
	require.True(t, ok, "security group missing: %v", got[0])
	assert.Equal(t, redactedValue, group["snapshot_passphrase"])
	assert.Equal(t, "aes-gcm", group["snapshot_cipher"])
}

func TestRedact_EmptyValueKept(t *testing.T) {
	a := redactSensitive(slog.String("snapshot_key", ""))
	assert.Equal(t, "", a.Value.String())
}

func TestRedactString(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"short", "***"},
		{"exactly12chr", "***"},
		{"0011223344556677", "001...677"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RedactString(tt.in), "RedactString(%q)", tt.in)
	}
}

func TestIsSensitiveKey(t *testing.T) {
	sensitive := []string{"password", "PASSPHRASE", "snapshot_key", "api_secret", "credential", "authorization"}
	for _, k := range sensitive {
		assert.True(t, IsSensitiveKey(k), k)
	}
	plain := []string{"kv_key", "KEY_COUNT", "keys", "addr", "conn_id", "cipher"}
	for _, k := range plain {
		assert.False(t, IsSensitiveKey(k), k)
	}
}
