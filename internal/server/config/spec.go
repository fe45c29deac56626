package config

import (
	"net"
	"strconv"
	"time"
)

// ServerConfig is the root configuration for redkv-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server"`
	Storage  StorageSection  `koanf:"storage"`
	Security SecuritySection `koanf:"security"`
	Metrics  MetricsSection  `koanf:"metrics"`
	Log      LogSection      `koanf:"log"`
}

// ServerSection configures the RESP listener and per-connection limits.
type ServerSection struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// ReadTimeout bounds reading one request once its first byte arrived.
	ReadTimeout time.Duration `koanf:"read_timeout"`
	// WriteTimeout bounds writing one reply.
	WriteTimeout time.Duration `koanf:"write_timeout"`
	// IdleTimeout closes connections idle between requests. 0 disables it.
	IdleTimeout time.Duration `koanf:"idle_timeout"`

	// RateLimit is the number of commands per second allowed per client
	// IP. 0 disables rate limiting.
	RateLimit int `koanf:"rate_limit"`
	// MaxClients caps concurrent connections. 0 means unlimited.
	MaxClients int `koanf:"max_clients"`
}

// Addr returns the listen address.
func (s ServerSection) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// StorageSection configures snapshot persistence.
type StorageSection struct {
	SnapshotPath string `koanf:"snapshot_path"`
	// SaveInterval triggers a background snapshot periodically. 0 disables it.
	SaveInterval   time.Duration `koanf:"save_interval"`
	SaveOnShutdown bool          `koanf:"save_on_shutdown"`
}

// SecuritySection configures snapshot encryption.
type SecuritySection struct {
	// SnapshotKey is a hex-encoded 32-byte master key.
	SnapshotKey string `koanf:"snapshot_key"`
	// SnapshotPassphrase derives the key with Argon2id; it wins over SnapshotKey.
	SnapshotPassphrase string `koanf:"snapshot_passphrase"`
	// SnapshotCipher is "aes-gcm" or "chacha20-poly1305". Empty picks the
	// platform default.
	SnapshotCipher string `koanf:"snapshot_cipher"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	// Addr serves /metrics when set.
	Addr string `koanf:"addr"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
