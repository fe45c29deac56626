package logger

import (
	"log/slog"
	"strings"
)

// sensitiveFragments mark attribute keys whose string values are masked.
var sensitiveFragments = []string{"password", "passphrase", "secret", "key", "credential", "auth"}

// plainKeys contain a sensitive fragment but never carry credentials.
var plainKeys = map[string]bool{
	"kv_key":    true,
	"key_count": true,
	"keys":      true,
}

const redactedValue = "***REDACTED***"

// redactSensitive is the handlers' ReplaceAttr. Groups are walked
// recursively; only non-empty string values are masked.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		if a.Value.String() != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	case slog.KindGroup:
		group := a.Value.Group()
		out := make([]slog.Attr, len(group))
		for i, ga := range group {
			out[i] = redactSensitive(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

// RedactString masks a credential for display, keeping the first and last
// three characters of values longer than twelve.
func RedactString(value string) string {
	switch {
	case value == "":
		return ""
	case len(value) <= 12:
		return "***"
	default:
		return value[:3] + "..." + value[len(value)-3:]
	}
}

// IsSensitiveKey reports whether an attribute key names a credential.
func IsSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	if plainKeys[key] {
		return false
	}
	for _, frag := range sensitiveFragments {
		if strings.Contains(key, frag) {
			return true
		}
	}
	return false
}
