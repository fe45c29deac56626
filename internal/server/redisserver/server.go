package redisserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/redkv/internal/core/command"
	"github.com/yndnr/redkv/internal/core/domain"
	"github.com/yndnr/redkv/internal/telemetry/logger"
	"github.com/yndnr/redkv/internal/telemetry/metric"
	"github.com/yndnr/redkv/pkg/cmap"
	"github.com/yndnr/redkv/pkg/resp"
)

// Config holds the Redis server configuration.
type Config struct {
	// Addr is the TCP listen address.
	Addr string
	// ReadTimeout bounds reading the rest of a request once its first
	// bytes arrived. Zero means no limit.
	ReadTimeout time.Duration
	// WriteTimeout bounds writing one reply. Zero means no limit.
	WriteTimeout time.Duration
	// IdleTimeout closes connections idle between requests. Zero means
	// connections may stay idle forever.
	IdleTimeout time.Duration
	// RateLimit is the maximum number of commands per second per IP.
	// Set to 0 to disable rate limiting.
	RateLimit int
	// MaxClients caps concurrent connections. Zero means unlimited.
	MaxClients int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:         "127.0.0.1:6379",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMetrics sets the metrics registry. The global registry is used
// otherwise.
func WithMetrics(r *metric.Registry) Option {
	return func(s *Server) {
		s.metrics = r
	}
}

// Server represents the Redis protocol server.
type Server struct {
	cfg      *Config
	parser   *command.Parser
	exec     *command.Executor
	logger   logger.Logger
	metrics  *metric.Registry
	limiters *limiterRegistry

	mu      sync.Mutex
	ln      net.Listener
	conns   *cmap.Map[*conn]
	active  atomic.Int64
	closing atomic.Bool
	wg      sync.WaitGroup
	done    chan struct{}
	once    sync.Once
}

// New creates a server executing requests with exec.
func New(cfg *Config, parser *command.Parser, exec *command.Executor, opts ...Option) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if parser == nil {
		parser = command.NewParser(nil)
	}

	s := &Server{
		cfg:    cfg,
		parser: parser,
		exec:   exec,
		logger: logger.Default(),
		conns:  cmap.New[*conn](),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metric.Global()
	}
	if cfg.RateLimit > 0 {
		s.limiters = newLimiterRegistry(cfg.RateLimit)
	}
	return s
}

// Listen binds the listen address. It is separate from Serve so that a
// bind failure can be reported before anything else starts.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// ListenAndServe binds and serves until Shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve accepts connections until Shutdown is called. Listen must have
// succeeded first.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return errors.New("redisserver: Serve called before Listen")
	}

	s.logger.Info("redis server listening", "addr", ln.Addr().String())

	if s.limiters != nil {
		s.goTracked(nil, func() { s.limiters.pruneLoop(s.done) })
	}

	var tempDelay time.Duration
	for {
		nc, err := ln.Accept()
		if err != nil {
			if s.closing.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				if tempDelay == 0 {
					tempDelay = 5 * time.Millisecond
				} else {
					tempDelay = min(tempDelay*2, time.Second)
				}
				s.logger.Warn("accept error, retrying", "error", err, "delay", tempDelay)
				time.Sleep(tempDelay)
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}
		tempDelay = 0

		if s.cfg.MaxClients > 0 && s.active.Load() >= int64(s.cfg.MaxClients) {
			s.reject(nc)
			continue
		}

		c := newConn(nc)
		started := s.goTracked(func() {
			s.active.Add(1)
			s.conns.Set(c.id, c)
			s.metrics.ConnOpened()
		}, func() {
			defer s.release(c)
			s.serveConn(ctx, c)
		})
		if !started {
			_ = nc.Close()
			return nil
		}
	}
}

// goTracked runs fn on a goroutine counted by s.wg, after running the
// optional register under s.mu. It refuses once Shutdown has begun, so no
// wg.Add can follow the Wait in Shutdown.
func (s *Server) goTracked(register, fn func()) bool {
	s.mu.Lock()
	if s.closing.Load() {
		s.mu.Unlock()
		return false
	}
	if register != nil {
		register()
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		fn()
	}()
	return true
}

// reject refuses a connection over the max-clients limit.
func (s *Server) reject(nc net.Conn) {
	s.metrics.ConnRejected("max_clients")
	s.logger.Warn("connection rejected", "remote_addr", nc.RemoteAddr().String(), "reason", "max_clients")
	if s.cfg.WriteTimeout > 0 {
		_ = nc.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	_, _ = nc.Write(resp.Encode(command.ErrorReply(domain.ErrMaxClients)))
	_ = nc.Close()
}

func (s *Server) release(c *conn) {
	c.close()
	s.conns.Delete(c.id)
	s.active.Add(-1)
	s.metrics.ConnClosed()
}

// ClientCount returns the number of open client connections.
func (s *Server) ClientCount() int {
	return int(s.active.Load())
}

// Shutdown stops accepting connections and waits for open ones to finish
// the request they are executing. Connections waiting for a request are
// closed. When ctx ends first the remaining connections are closed
// forcibly and ctx's error is returned.
func (s *Server) Shutdown(ctx context.Context) error {
	var firstErr error
	s.mu.Lock()
	s.closing.Store(true)
	s.once.Do(func() { close(s.done) })
	if s.ln != nil {
		if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			firstErr = err
		}
	}
	s.mu.Unlock()

	// Wake connections blocked in a read; each exits once it sees closing.
	s.conns.Range(func(_ string, c *conn) bool {
		c.interrupt()
		return true
	})

	waited := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(waited)
	}()

	select {
	case <-waited:
	case <-ctx.Done():
		s.conns.Range(func(_ string, c *conn) bool {
			c.close()
			return true
		})
		return ctx.Err()
	}

	s.logger.Info("redis server stopped")
	return firstErr
}
