package confloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Server struct {
		Host        string        `koanf:"host"`
		Port        int           `koanf:"port"`
		ReadTimeout time.Duration `koanf:"read_timeout"`
	} `koanf:"server"`
	Storage struct {
		SnapshotPath   string `koanf:"snapshot_path"`
		SaveOnShutdown bool   `koanf:"save_on_shutdown"`
	} `koanf:"storage"`
}

func defaultTestConfig() *testConfig {
	cfg := &testConfig{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 6379
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Storage.SnapshotPath = "./data/dump.rks"
	cfg.Storage.SaveOnShutdown = true
	return cfg
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}
}

func TestNewLoader_WithOptions(t *testing.T) {
	l := NewLoader(
		WithEnvPrefix("TEST_"),
		WithConfigFile("/path/to/config.yaml"),
		WithDotEnv("/path/to/.env"),
	)

	if l.envPrefix != "TEST_" {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, "TEST_")
	}
	if l.filePath != "/path/to/config.yaml" {
		t.Errorf("filePath = %q", l.filePath)
	}
	if l.dotEnvPath != "/path/to/.env" {
		t.Errorf("dotEnvPath = %q", l.dotEnvPath)
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"REDKV_SERVER_PORT", "server.port"},
		{"REDKV_SERVER_READ_TIMEOUT", "server.read_timeout"},
		{"REDKV_STORAGE_SNAPSHOT_PATH", "storage.snapshot_path"},
		{"REDKV_LOG_LEVEL", "log.level"},
		{"REDKV_PORT", ""},
		{"REDKV_", ""},
		{"REDKV__PORT", ""},
	}
	for _, tt := range tests {
		if got := EnvKey(DefaultEnvPrefix, tt.name); got != tt.want {
			t.Errorf("EnvKey(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", `
server:
  host: "0.0.0.0"
  port: 7000
storage:
  snapshot_path: "/var/lib/redkv/dump.rks"
`)

	l := NewLoader()
	if err := l.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if host := l.GetString("server.host"); host != "0.0.0.0" {
		t.Errorf("server.host = %q", host)
	}
	if port := l.GetInt("server.port"); port != 7000 {
		t.Errorf("server.port = %d", port)
	}
}

func TestLoader_LoadFile_NotFound(t *testing.T) {
	if err := NewLoader().LoadFile("/nonexistent/config.yaml"); err == nil {
		t.Error("LoadFile() should return error for nonexistent file")
	}
}

func TestLoader_LoadFile_Empty(t *testing.T) {
	if err := NewLoader().LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") should not error, got: %v", err)
	}
}

func TestLoader_LoadEnv(t *testing.T) {
	t.Setenv("REDKV_SERVER_PORT", "6380")
	t.Setenv("REDKV_STORAGE_SNAPSHOT_PATH", "/tmp/dump.rks")

	l := NewLoader()
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}

	if port := l.GetString("server.port"); port != "6380" {
		t.Errorf("server.port = %q, want %q", port, "6380")
	}
	if path := l.GetString("storage.snapshot_path"); path != "/tmp/dump.rks" {
		t.Errorf("storage.snapshot_path = %q", path)
	}
}

func TestLoader_LoadEnv_CustomPrefix(t *testing.T) {
	t.Setenv("MYAPP_SERVER_PORT", "9090")

	l := NewLoader(WithEnvPrefix("MYAPP_"))
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}

	if port := l.GetString("server.port"); port != "9090" {
		t.Errorf("server.port = %q, want %q", port, "9090")
	}
}

func TestLoader_LoadDotEnv(t *testing.T) {
	path := writeFile(t, t.TempDir(), ".env", "REDKV_SERVER_HOST=10.0.0.1\nOTHER_VAR=ignored\n")

	l := NewLoader()
	if err := l.LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if host := l.GetString("server.host"); host != "10.0.0.1" {
		t.Errorf("server.host = %q", host)
	}
	if _, set := os.LookupEnv("REDKV_SERVER_HOST"); set {
		t.Error("LoadDotEnv() should not modify the process environment")
	}
	for _, k := range l.Keys() {
		if k == "var" || k == "other.var" {
			t.Errorf("unprefixed variable loaded as %q", k)
		}
	}
}

func TestLoader_LoadMap(t *testing.T) {
	l := NewLoader()
	if err := l.LoadMap(map[string]any{"server.port": 7001}); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}

	cfg := defaultTestConfig()
	if err := l.Unmarshal(cfg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if cfg.Server.Port != 7001 {
		t.Errorf("Server.Port = %d, want 7001", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, default lost", cfg.Server.Host)
	}
}

func TestLoader_Load_Priority(t *testing.T) {
	dir := t.TempDir()
	configPath := writeFile(t, dir, "config.yaml", `
server:
  host: "file-host"
  port: 7000
  read_timeout: "5s"
storage:
  snapshot_path: "/from/file"
  save_on_shutdown: false
`)
	envPath := writeFile(t, dir, ".env", "REDKV_SERVER_PORT=7100\nREDKV_STORAGE_SNAPSHOT_PATH=/from/dotenv\n")
	t.Setenv("REDKV_STORAGE_SNAPSHOT_PATH", "/from/env")

	l := NewLoader(WithConfigFile(configPath), WithDotEnv(envPath))
	cfg := defaultTestConfig()
	if err := l.Load(cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "file-host" {
		t.Errorf("Server.Host = %q, want file value", cfg.Server.Host)
	}
	if cfg.Server.Port != 7100 {
		t.Errorf("Server.Port = %d, want .env value 7100", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 5s", cfg.Server.ReadTimeout)
	}
	if cfg.Storage.SnapshotPath != "/from/env" {
		t.Errorf("Storage.SnapshotPath = %q, want env value", cfg.Storage.SnapshotPath)
	}
	if cfg.Storage.SaveOnShutdown {
		t.Error("Storage.SaveOnShutdown should be false from file")
	}
	if !l.IsLoaded() {
		t.Error("IsLoaded() = false after Load")
	}
}

func TestLoader_Load_OverridesWin(t *testing.T) {
	configPath := writeFile(t, t.TempDir(), "config.yaml", "server:\n  port: 7000\n")
	t.Setenv("REDKV_SERVER_PORT", "7100")

	l := NewLoader(
		WithConfigFile(configPath),
		WithOverrides(map[string]any{"server.port": 7200, "server.host": "10.1.1.1"}),
	)
	cfg := defaultTestConfig()
	if err := l.Load(cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7200 {
		t.Errorf("Server.Port = %d, want override 7200", cfg.Server.Port)
	}
	if cfg.Server.Host != "10.1.1.1" {
		t.Errorf("Server.Host = %q", cfg.Server.Host)
	}
}

func TestLoader_Load_DefaultsKept(t *testing.T) {
	l := NewLoader(WithEnvPrefix("REDKV_TEST_UNUSED_"))
	cfg := defaultTestConfig()
	if err := l.Load(cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *cfg != *defaultTestConfig() {
		t.Errorf("defaults changed: %+v", cfg)
	}
}

func TestLoader_Load_MissingDotEnv(t *testing.T) {
	l := NewLoader(WithDotEnv(filepath.Join(t.TempDir(), "missing.env")))
	if err := l.Load(defaultTestConfig()); err == nil {
		t.Error("Load() should fail when the .env file is missing")
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "a: 1")
	if !FileExists(path) {
		t.Error("FileExists(file) = false")
	}
	if FileExists(dir) {
		t.Error("FileExists(dir) = true")
	}
	if FileExists(filepath.Join(dir, "nope")) {
		t.Error("FileExists(missing) = true")
	}
}
