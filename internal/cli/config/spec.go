package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/yndnr/redkv/internal/cli/output"
)

// CLIConfig is the configuration for redkv-cli.
type CLIConfig struct {
	Connection ConnectionSection `koanf:"connection"`
	Output     OutputSection     `koanf:"output"`
	History    HistorySection    `koanf:"history"`
}

// ConnectionSection selects the server.
type ConnectionSection struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// Addr returns the server address.
func (c ConnectionSection) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// OutputSection configures reply rendering.
type OutputSection struct {
	Format string `koanf:"format"` // text, raw, json
}

// HistorySection configures the interactive history file.
type HistorySection struct {
	File     string `koanf:"file"`
	Disabled bool   `koanf:"disabled"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Connection: ConnectionSection{
			Host:    "127.0.0.1",
			Port:    6379,
			Timeout: 5 * time.Second,
		},
		Output: OutputSection{Format: string(output.FormatText)},
	}
}

// Verify checks the configuration.
func (c *CLIConfig) Verify() error {
	if c.Connection.Host == "" {
		return fmt.Errorf("connection.host is required")
	}
	if c.Connection.Port < 1 || c.Connection.Port > 65535 {
		return fmt.Errorf("connection.port %d out of range", c.Connection.Port)
	}
	if c.Connection.Timeout <= 0 {
		return fmt.Errorf("connection.timeout must be positive")
	}
	if _, err := output.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("output.format: %w", err)
	}
	return nil
}
