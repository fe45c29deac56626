package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/yndnr/redkv/internal/infra/confloader"
)

// EnvPrefix prefixes the environment variables read by the CLI, for
// example REDKV_CLI_CONNECTION_PORT.
const EnvPrefix = "REDKV_CLI_"

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".redkv", "cli.yaml")
}

// Load builds the configuration from defaults, the file at path, the
// environment and overrides. An empty path reads DefaultConfigPath when it
// exists; an explicit path must exist.
func Load(path string, overrides map[string]any) (*CLIConfig, error) {
	if path == "" {
		if p := DefaultConfigPath(); confloader.FileExists(p) {
			path = p
		}
	}

	cfg := Default()
	loader := confloader.NewLoader(
		confloader.WithEnvPrefix(EnvPrefix),
		confloader.WithConfigFile(path),
		confloader.WithOverrides(overrides),
	)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Verify(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
