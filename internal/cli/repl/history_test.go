package repl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewHistory(t *testing.T) {
	h := NewHistory()
	if h.maxSize != defaultHistorySize {
		t.Errorf("maxSize = %d, want %d", h.maxSize, defaultHistorySize)
	}
	if filepath.Base(h.file) != ".redkv_history" {
		t.Errorf("file = %q", h.file)
	}
}

func TestHistory_Add_MaxSize(t *testing.T) {
	h := &History{maxSize: 3}

	h.Add("cmd1")
	h.Add("cmd2")
	h.Add("cmd3")
	h.Add("cmd4")

	if h.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", h.Len())
	}
	if h.entries[0] != "cmd2" {
		t.Errorf("entries[0] = %q, want cmd2", h.entries[0])
	}
}

func TestHistory_Add_SkipsRepeat(t *testing.T) {
	h := NewHistoryFile("")
	h.Add("GET k")
	h.Add("GET k")
	h.Add("SET k v")
	h.Add("GET k")

	if h.Len() != 3 {
		t.Errorf("Len() = %d, want 3", h.Len())
	}
}

func TestHistory_Get(t *testing.T) {
	h := NewHistoryFile("")
	h.Add("first")
	h.Add("second")
	h.Add("third")

	tests := []struct {
		index int
		want  string
	}{
		{0, "third"},
		{1, "second"},
		{2, "first"},
		{3, ""},
		{-1, ""},
	}
	for _, tt := range tests {
		if got := h.Get(tt.index); got != tt.want {
			t.Errorf("Get(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}

func TestHistory_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history")

	h := NewHistoryFile(path)
	h.Add("SET k v")
	h.Add("GET k")
	if err := h.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("mode = %o, want 600", perm)
	}

	loaded := NewHistoryFile(path)
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Len() != 2 || loaded.Get(0) != "GET k" {
		t.Errorf("loaded entries = %v", loaded.entries)
	}
}

func TestHistory_Load_TrimsToMaxSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	var lines []string
	for i := 0; i < defaultHistorySize+10; i++ {
		lines = append(lines, "PING "+strings.Repeat("x", i%7)+string(rune('a'+i%26)))
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	h := NewHistoryFile(path)
	if err := h.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if h.Len() > defaultHistorySize {
		t.Errorf("Len() = %d, want at most %d", h.Len(), defaultHistorySize)
	}
	if h.Get(0) != lines[len(lines)-1] {
		t.Errorf("Get(0) = %q, want last line", h.Get(0))
	}
}

func TestHistory_Load_Missing(t *testing.T) {
	h := NewHistoryFile(filepath.Join(t.TempDir(), "absent"))
	if err := h.Load(); err != nil {
		t.Errorf("Load() error = %v", err)
	}
	if err := NewHistoryFile("").Save(); err != nil {
		t.Errorf("Save() without file error = %v", err)
	}
}
