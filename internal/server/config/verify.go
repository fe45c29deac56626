package config

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/yndnr/redkv/internal/telemetry/logger"
	"github.com/yndnr/redkv/pkg/crypto/adaptive"
)

// SnapshotKeyLength is the decoded length of security.snapshot_key.
const SnapshotKeyLength = 32

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if err := verifySecurity(&cfg.Security); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.ReadTimeout < 0 || cfg.WriteTimeout < 0 || cfg.IdleTimeout < 0 {
		return errors.New("server timeouts must not be negative")
	}
	if cfg.RateLimit < 0 {
		return errors.New("server.rate_limit must not be negative")
	}
	if cfg.MaxClients < 0 {
		return errors.New("server.max_clients must not be negative")
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.SnapshotPath == "" {
		return errors.New("storage.snapshot_path is required")
	}
	if cfg.SaveInterval < 0 {
		return errors.New("storage.save_interval must not be negative")
	}
	return nil
}

func verifySecurity(cfg *SecuritySection) error {
	if cfg.SnapshotKey != "" {
		if _, err := cfg.SnapshotKeyBytes(); err != nil {
			return err
		}
	}
	if _, err := adaptive.ParseCipherType(cfg.SnapshotCipher); err != nil {
		return fmt.Errorf("security.snapshot_cipher: %w", err)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if !logger.ValidLevel(cfg.Level) {
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level)
	}
	if !logger.ValidFormat(cfg.Format) {
		return fmt.Errorf("log.format %q is not one of json, text", cfg.Format)
	}
	return nil
}

// SnapshotKeyBytes decodes SnapshotKey. An empty key decodes to nil.
func (s SecuritySection) SnapshotKeyBytes() ([]byte, error) {
	if s.SnapshotKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(s.SnapshotKey)
	if err != nil || len(key) != SnapshotKeyLength {
		return nil, fmt.Errorf("security.snapshot_key must be %d hex characters", SnapshotKeyLength*2)
	}
	return key, nil
}
