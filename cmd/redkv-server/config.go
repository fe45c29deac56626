package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/redkv/internal/infra/confloader"
	"github.com/yndnr/redkv/internal/server/config"
	"github.com/yndnr/redkv/internal/telemetry/logger"
)

// loaderOptions turns the command line into loader options. Flags that
// were given override every other source.
func loaderOptions(c *cli.Context) []confloader.Option {
	var opts []confloader.Option
	if path := c.String("config"); path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}
	if path := c.String("env-file"); path != "" {
		opts = append(opts, confloader.WithDotEnv(path))
	}

	overrides := make(map[string]any)
	if c.IsSet("host") {
		overrides["server.host"] = c.String("host")
	}
	if c.IsSet("port") {
		overrides["server.port"] = c.Int("port")
	}
	if c.IsSet("snapshot") {
		overrides["storage.snapshot_path"] = c.String("snapshot")
	}
	if c.IsSet("log-level") {
		overrides["log.level"] = c.String("log-level")
	}
	if len(overrides) > 0 {
		opts = append(opts, confloader.WithOverrides(overrides))
	}
	return opts
}

// loadConfig loads and validates the configuration.
func loadConfig(opts []confloader.Option) (*config.ServerConfig, error) {
	cfg := config.Default()
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// watchConfig reloads the configuration when path changes and applies
// the new log level. Other settings need a restart.
func watchConfig(path string, opts []confloader.Option, log logger.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		w.Stop()
		return nil, err
	}
	w.OnChange(func(string) {
		reloadLogLevel(opts, log)
	})
	w.StartAsync()
	return w, nil
}

func reloadLogLevel(opts []confloader.Option, log logger.Logger) {
	cfg, err := loadConfig(opts)
	if err != nil {
		log.Warn("configuration reload failed", "error", err)
		return
	}
	level := strings.ToLower(cfg.Log.Level)
	if level == logger.GetLevel() {
		return
	}
	logger.SetLevel(level)
	log.Info("log level changed", "level", level)
}
