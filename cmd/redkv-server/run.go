package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yndnr/redkv/internal/core/command"
	"github.com/yndnr/redkv/internal/infra/buildinfo"
	"github.com/yndnr/redkv/internal/infra/confloader"
	"github.com/yndnr/redkv/internal/infra/shutdown"
	"github.com/yndnr/redkv/internal/server/config"
	"github.com/yndnr/redkv/internal/server/redisserver"
	"github.com/yndnr/redkv/internal/storage/memory"
	"github.com/yndnr/redkv/internal/telemetry/logger"
	"github.com/yndnr/redkv/internal/telemetry/metric"
)

const shutdownTimeout = 30 * time.Second

// run starts every component and blocks until shutdown completes.
func run(ctx context.Context, cfg *config.ServerConfig, configFile string, opts []confloader.Option) error {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	info := buildinfo.Get()
	log.Info("starting redkv-server",
		"version", info.Version,
		"commit", info.Commit,
		"go_version", info.GoVersion,
		"config", configFile)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	reg := metric.NewRegistry()
	store := memory.New(
		memory.WithLogger(log),
		memory.WithExpireHook(reg.AddExpiredKeys),
	)

	snaps, err := newSnapshotter(cfg, store, reg)
	if err != nil {
		store.Close()
		return err
	}
	if err := snaps.restore(ctx); err != nil {
		store.Close()
		return err
	}
	if err := reg.Register(metric.NewCollector(store)); err != nil {
		store.Close()
		return fmt.Errorf("register keyspace collector: %w", err)
	}

	srv := redisserver.New(&redisserver.Config{
		Addr:         cfg.Server.Addr(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		RateLimit:    cfg.Server.RateLimit,
		MaxClients:   cfg.Server.MaxClients,
	}, command.NewParser(nil), command.NewExecutor(store, snaps),
		redisserver.WithLogger(log),
		redisserver.WithMetrics(reg),
	)
	if err := srv.Listen(); err != nil {
		store.Close()
		return err
	}

	var metricsSrv *http.Server
	var metricsLn net.Listener
	if cfg.Metrics.Addr != "" {
		metricsLn, err = net.Listen("tcp", cfg.Metrics.Addr)
		if err != nil {
			_ = srv.Shutdown(context.Background())
			store.Close()
			return fmt.Errorf("listen metrics %s: %w", cfg.Metrics.Addr, err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", reg.Handler())
		metricsSrv = &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	// Hooks run in reverse: stop listeners, stop background work, final
	// snapshot, then the store.
	h := shutdown.NewHandler(shutdownTimeout)
	h.OnShutdown("store", func(context.Context) error {
		store.Close()
		return nil
	})
	if cfg.Storage.SaveOnShutdown {
		h.OnShutdown("snapshot", snaps.Save)
	}
	h.OnShutdown("background", func(context.Context) error {
		cancel()
		return nil
	})
	if configFile != "" {
		w, err := watchConfig(configFile, opts, log)
		if err != nil {
			log.Warn("configuration hot reload disabled", "error", err)
		} else {
			h.OnShutdown("config-watcher", func(context.Context) error {
				return w.Stop()
			})
		}
	}
	if metricsSrv != nil {
		h.OnShutdown("metrics", metricsSrv.Shutdown)
	}
	h.OnShutdown("redis", srv.Shutdown)

	g.Go(func() error {
		return srv.Serve(gctx)
	})
	if metricsSrv != nil {
		g.Go(func() error {
			log.Info("metrics server listening", "addr", metricsLn.Addr().String())
			if err := metricsSrv.Serve(metricsLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}
	if cfg.Storage.SaveInterval > 0 {
		g.Go(func() error {
			return snaps.runPeriodic(gctx, cfg.Storage.SaveInterval)
		})
	}
	g.Go(func() error {
		return h.Wait(gctx)
	})

	log.Info("server started", "addr", srv.Addr().String())
	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "error", err)
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}
