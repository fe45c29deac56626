package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yndnr/redkv/internal/server/config"
	"github.com/yndnr/redkv/internal/storage/memory"
	"github.com/yndnr/redkv/internal/storage/snapshot"
	"github.com/yndnr/redkv/internal/telemetry/logger"
	"github.com/yndnr/redkv/internal/telemetry/metric"
)

// snapshotter persists the store. It is the SAVE backend and also runs the
// periodic and shutdown saves.
type snapshotter struct {
	mgr     *snapshot.Manager
	store   *memory.Store
	metrics *metric.Registry
}

func newSnapshotter(cfg *config.ServerConfig, store *memory.Store, metrics *metric.Registry) (*snapshotter, error) {
	key, err := cfg.Security.SnapshotKeyBytes()
	if err != nil {
		return nil, err
	}
	mgr, err := snapshot.NewManager(snapshot.Config{
		Path: cfg.Storage.SnapshotPath,
		Encryption: snapshot.EncryptionConfig{
			Key:        key,
			Passphrase: []byte(cfg.Security.SnapshotPassphrase),
			Algorithm:  cfg.Security.SnapshotCipher,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return &snapshotter{mgr: mgr, store: store, metrics: metrics}, nil
}

// Save writes a snapshot of the whole keyspace.
func (s *snapshotter) Save(ctx context.Context) error {
	start := time.Now()
	info, err := s.mgr.Save(s.store)
	if err != nil {
		s.metrics.RecordSnapshot(time.Since(start).Seconds(), 0, err)
		return err
	}
	s.metrics.RecordSnapshot(info.Duration.Seconds(), info.Size, nil)
	logger.L(ctx).Info("snapshot saved",
		"path", info.Path,
		"keys", info.KeyCount,
		"bytes", info.Size,
		"encrypted", info.Encrypted,
		"duration", info.Duration,
	)
	return nil
}

// restore loads the snapshot file into the store. A missing file leaves
// the store empty.
func (s *snapshotter) restore(ctx context.Context) error {
	info, err := s.mgr.Load(s.store)
	if errors.Is(err, snapshot.ErrNotFound) {
		logger.L(ctx).Info("no snapshot found, starting empty", "path", s.mgr.Path())
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore snapshot %s: %w", s.mgr.Path(), err)
	}
	logger.L(ctx).Info("snapshot restored",
		"path", info.Path,
		"keys", info.KeyCount,
		"expired", info.Skipped,
		"encrypted", info.Encrypted,
	)
	return nil
}

// runPeriodic saves every interval until ctx ends. Failures are logged and
// the next tick tries again.
func (s *snapshotter) runPeriodic(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.Save(ctx); err != nil {
				logger.L(ctx).Error("periodic snapshot failed", "error", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}
