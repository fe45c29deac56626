// Package tests provides integration tests that run the server, the
// snapshot manager and the CLI client together.
package tests

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/redkv/internal/cli/connection"
	"github.com/yndnr/redkv/internal/core/command"
	"github.com/yndnr/redkv/internal/server/redisserver"
	"github.com/yndnr/redkv/internal/storage/memory"
	"github.com/yndnr/redkv/internal/storage/snapshot"
	"github.com/yndnr/redkv/internal/telemetry/logger"
	"github.com/yndnr/redkv/internal/telemetry/metric"
	"github.com/yndnr/redkv/pkg/resp"
)

// node is one server process: store, snapshot manager and listener.
type node struct {
	store  *memory.Store
	snap   *snapshot.Manager
	srv    *redisserver.Server
	served chan error
}

func startNode(t *testing.T, path, passphrase string) *node {
	t.Helper()

	cfg := snapshot.Config{Path: path}
	cfg.Encryption.Passphrase = []byte(passphrase)
	mgr, err := snapshot.NewManager(cfg)
	require.NoError(t, err)

	store := memory.New(memory.WithLogger(logger.NewNop()))
	if _, err := mgr.Load(store); err != nil && !errors.Is(err, snapshot.ErrNotFound) {
		store.Close()
		require.NoError(t, err)
	}

	saver := command.SaverFunc(func(context.Context) error {
		_, err := mgr.Save(store)
		return err
	})

	srvCfg := redisserver.DefaultConfig()
	srvCfg.Addr = "127.0.0.1:0"
	srv := redisserver.New(srvCfg, command.NewParser(nil), command.NewExecutor(store, saver),
		redisserver.WithLogger(logger.NewNop()),
		redisserver.WithMetrics(metric.NewRegistry()),
	)
	require.NoError(t, srv.Listen())

	n := &node{store: store, snap: mgr, srv: srv, served: make(chan error, 1)}
	go func() { n.served <- srv.Serve(context.Background()) }()
	return n
}

func (n *node) stop(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, n.srv.Shutdown(ctx))
	select {
	case <-n.served:
	case <-time.After(2 * time.Second):
		t.Error("Serve() did not return after Shutdown")
	}
	n.store.Close()
}

func (n *node) client(t *testing.T) *connection.Client {
	t.Helper()
	c, err := connection.Dial(context.Background(), n.srv.Addr().String(), 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func do(t *testing.T, c *connection.Client, args ...string) resp.Frame {
	t.Helper()
	reply, err := c.Do(args...)
	require.NoError(t, err)
	return reply
}

func TestIntegration_SnapshotRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.rkv")

	first := startNode(t, path, "integration-secret")
	c := first.client(t)

	assert.Equal(t, resp.OK, do(t, c, "SET", "plain", "v1"))
	assert.Equal(t, resp.OK, do(t, c, "SET", "session", "abc", "EX", "3600"))
	assert.Equal(t, resp.OK, do(t, c, "SET", "gone", "x", "PX", "1"))
	assert.Equal(t, resp.Integer(2), do(t, c, "RPUSH", "queue", "a", "b"))
	assert.Equal(t, resp.Integer(1), do(t, c, "INCR", "n"))

	// Let "gone" expire so it is skipped by the snapshot.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, resp.OK, do(t, c, "SAVE"))
	first.stop(t)

	second := startNode(t, path, "integration-secret")
	defer second.stop(t)
	c2 := second.client(t)

	assert.True(t, resp.Equal(resp.Bulk("v1"), do(t, c2, "GET", "plain")))
	assert.True(t, resp.Equal(resp.Null{}, do(t, c2, "GET", "gone")))
	assert.True(t, resp.Equal(resp.Command("a", "b"), do(t, c2, "LRANGE", "queue", "0", "-1")))

	ttl, ok := do(t, c2, "TTL", "session").(resp.Integer)
	require.True(t, ok)
	assert.Greater(t, int64(ttl), int64(3500))
	assert.Equal(t, resp.Integer(4), do(t, c2, "DBSIZE"))
}

func TestIntegration_WrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.rkv")

	n := startNode(t, path, "right")
	assert.Equal(t, resp.OK, do(t, n.client(t), "SAVE"))
	n.stop(t)

	cfg := snapshot.Config{Path: path}
	cfg.Encryption.Passphrase = []byte("wrong")
	mgr, err := snapshot.NewManager(cfg)
	require.NoError(t, err)

	store := memory.New()
	defer store.Close()
	_, err = mgr.Load(store)
	assert.Error(t, err)
	assert.Equal(t, 0, store.Len())
}

func TestIntegration_ConcurrentClients(t *testing.T) {
	n := startNode(t, filepath.Join(t.TempDir(), "dump.rkv"), "")
	defer n.stop(t)

	const clients, perClient = 10, 100
	var wg sync.WaitGroup
	for i := 0; i < clients; i++ {
		c := n.client(t)
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perClient; j++ {
				if _, err := c.Do("INCR", "shared"); err != nil {
					t.Errorf("client %d: %v", id, err)
					return
				}
				if _, err := c.Do("SET", fmt.Sprintf("k:%d:%d", id, j), "v"); err != nil {
					t.Errorf("client %d: %v", id, err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	c := n.client(t)
	assert.True(t, resp.Equal(resp.Bulk(fmt.Sprint(clients*perClient)), do(t, c, "GET", "shared")))
	assert.Equal(t, resp.Integer(clients*perClient+1), do(t, c, "DBSIZE"))
}
