package metric

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if r.registry == nil {
		t.Error("registry field is nil")
	}
	if r.CommandsTotal == nil {
		t.Error("CommandsTotal is nil")
	}
	if r.ConnectionsActive == nil {
		t.Error("ConnectionsActive is nil")
	}
	if r.SnapshotDuration == nil {
		t.Error("SnapshotDuration is nil")
	}
}

func TestGlobal(t *testing.T) {
	r1 := Global()
	r2 := Global()
	if r1 != r2 {
		t.Error("Global() should return the same instance")
	}
}

func TestHandler(t *testing.T) {
	h := Handler()
	if h == nil {
		t.Fatal("Handler() returned nil")
	}

	bodyStr := scrape(t, h)

	// Check for Go runtime metrics (from GoCollector)
	if !strings.Contains(bodyStr, "go_goroutines") {
		t.Error("expected go_goroutines metric")
	}
}

func TestCommandMetrics(t *testing.T) {
	r := NewRegistry()

	r.RecordCommand("get", 0.0001, false)
	r.RecordCommand("get", 0.0002, false)
	r.RecordCommand("incr", 0.0001, true)
	r.IncProtocolErrors()

	bodyStr := scrape(t, r.Handler())

	if !strings.Contains(bodyStr, `redkv_commands_total{command="get"} 2`) {
		t.Error(`expected redkv_commands_total{command="get"} 2`)
	}
	if !strings.Contains(bodyStr, `redkv_command_errors_total{command="incr"} 1`) {
		t.Error(`expected redkv_command_errors_total{command="incr"} 1`)
	}
	if strings.Contains(bodyStr, `redkv_command_errors_total{command="get"}`) {
		t.Error("successful commands must not count as errors")
	}
	if !strings.Contains(bodyStr, `redkv_command_duration_seconds_count{command="get"} 2`) {
		t.Error(`expected redkv_command_duration_seconds_count{command="get"} 2`)
	}
	if !strings.Contains(bodyStr, "redkv_protocol_errors_total 1") {
		t.Error("expected redkv_protocol_errors_total 1")
	}
}

func TestConnectionMetrics(t *testing.T) {
	r := NewRegistry()

	r.ConnOpened()
	r.ConnOpened()
	r.ConnClosed()
	r.ConnRejected("max_clients")

	bodyStr := scrape(t, r.Handler())

	if !strings.Contains(bodyStr, "redkv_connections_active 1") {
		t.Error("expected redkv_connections_active 1")
	}
	if !strings.Contains(bodyStr, "redkv_connections_total 2") {
		t.Error("expected redkv_connections_total 2")
	}
	if !strings.Contains(bodyStr, `redkv_connections_rejected_total{reason="max_clients"} 1`) {
		t.Error(`expected redkv_connections_rejected_total{reason="max_clients"} 1`)
	}
}

func TestSnapshotMetrics(t *testing.T) {
	r := NewRegistry()

	r.RecordSnapshot(0.25, 2048, nil)
	r.RecordSnapshot(0.1, 0, errors.New("disk full"))
	r.AddExpiredKeys(3)

	bodyStr := scrape(t, r.Handler())

	if !strings.Contains(bodyStr, "redkv_snapshot_duration_seconds_count 1") {
		t.Error("expected redkv_snapshot_duration_seconds_count 1")
	}
	if !strings.Contains(bodyStr, "redkv_snapshot_size_bytes 2048") {
		t.Error("expected redkv_snapshot_size_bytes 2048")
	}
	if !strings.Contains(bodyStr, "redkv_snapshot_failures_total 1") {
		t.Error("expected redkv_snapshot_failures_total 1")
	}
	if !strings.Contains(bodyStr, "redkv_expired_keys_total 3") {
		t.Error("expected redkv_expired_keys_total 3")
	}
}

type fakeStats struct{ keys, expiring int }

func (f fakeStats) Len() int         { return f.keys }
func (f fakeStats) ExpiringLen() int { return f.expiring }

func TestKeyspaceCollector(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(NewCollector(fakeStats{keys: 7, expiring: 2})); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	bodyStr := scrape(t, r.Handler())

	if !strings.Contains(bodyStr, "redkv_keys 7") {
		t.Error("expected redkv_keys 7")
	}
	if !strings.Contains(bodyStr, "redkv_expiring_keys 2") {
		t.Error("expected redkv_expiring_keys 2")
	}

	// A second collector with the same descriptors must be refused.
	if err := r.Register(NewCollector(fakeStats{})); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}

func TestConcurrentMetricUpdates(t *testing.T) {
	r := NewRegistry()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				r.ConnOpened()
				r.RecordCommand("set", 0.001, false)
				r.ConnClosed()
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	bodyStr := scrape(t, r.Handler())
	if !strings.Contains(bodyStr, `redkv_commands_total{command="set"} 1000`) {
		t.Error(`expected redkv_commands_total{command="set"} 1000`)
	}
	if !strings.Contains(bodyStr, "redkv_connections_active 0") {
		t.Error("expected redkv_connections_active 0")
	}
}
