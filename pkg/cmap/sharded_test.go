package cmap

import (
	"fmt"
	"sync"
	"testing"
)

func TestNew(t *testing.T) {
	m := New[int]()
	if m.ShardCount() != DefaultShardCount {
		t.Errorf("shard count = %d, want %d", m.ShardCount(), DefaultShardCount)
	}
}

func TestNewWithShards(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{0, DefaultShardCount},  // invalid → default
		{-1, DefaultShardCount}, // invalid → default
		{3, DefaultShardCount},  // not power of 2 → default
		{1, 1},
		{2, 2},
		{8, 8},
		{64, 64},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("shards=%d", tt.input), func(t *testing.T) {
			m := NewWithShards[int](tt.input)
			if m.ShardCount() != tt.expected {
				t.Errorf("NewWithShards(%d) shard count = %d, want %d",
					tt.input, m.ShardCount(), tt.expected)
			}
		})
	}
}

func TestSetGetDelete(t *testing.T) {
	m := New[int]()

	m.Set("key1", 100)
	m.Set("key2", 200)

	if val, ok := m.Get("key1"); !ok || val != 100 {
		t.Errorf("Get(key1) = (%d, %v), want (100, true)", val, ok)
	}
	if !m.Has("key2") {
		t.Error("Has(key2) = false")
	}

	m.Set("key1", 101)
	if val, _ := m.Get("key1"); val != 101 {
		t.Errorf("Get(key1) after overwrite = %d", val)
	}

	m.Delete("key1")
	m.Delete("key1")
	if m.Has("key1") {
		t.Error("key1 still present after Delete")
	}
	if m.Count() != 1 {
		t.Errorf("Count() = %d, want 1", m.Count())
	}
}

func TestPop(t *testing.T) {
	m := New[string]()
	m.Set("a", "x")

	if v, ok := m.Pop("a"); !ok || v != "x" {
		t.Errorf("Pop(a) = (%q, %v)", v, ok)
	}
	if _, ok := m.Pop("a"); ok {
		t.Error("second Pop(a) reported a value")
	}
}

func TestGetOrCreate(t *testing.T) {
	m := New[*int]()
	calls := 0
	create := func() *int {
		calls++
		n := calls
		return &n
	}

	first := m.GetOrCreate("k", create)
	second := m.GetOrCreate("k", create)
	if first != second {
		t.Error("GetOrCreate returned different values for the same key")
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}
}

func TestGetOrCreateConcurrent(t *testing.T) {
	m := New[*sync.Mutex]()
	var created sync.Map

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := m.GetOrCreate("shared", func() *sync.Mutex { return new(sync.Mutex) })
			created.Store(v, true)
		}()
	}
	wg.Wait()

	n := 0
	created.Range(func(_, _ any) bool { n++; return true })
	if n != 1 {
		t.Errorf("distinct values = %d, want 1", n)
	}
}

func TestClear(t *testing.T) {
	m := New[int]()
	for i := 0; i < 100; i++ {
		m.Set(fmt.Sprint(i), i)
	}
	m.Clear()
	if m.Count() != 0 {
		t.Errorf("Count() after Clear = %d", m.Count())
	}
}

func TestKeysSpreadAcrossShards(t *testing.T) {
	m := NewWithShards[int](8)
	for i := 0; i < 1000; i++ {
		m.Set(fmt.Sprintf("conn-%d", i), i)
	}

	for i, s := range m.shards {
		if len(s.items) == 0 {
			t.Errorf("shard %d is empty", i)
		}
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := New[int]()
	const goroutines, ops = 50, 200

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < ops; i++ {
				key := fmt.Sprintf("%d-%d", g, i)
				m.Set(key, i)
				if _, ok := m.Get(key); !ok {
					t.Errorf("Get(%s) missing after Set", key)
				}
				if i%2 == 0 {
					m.Delete(key)
				}
			}
		}(g)
	}
	wg.Wait()

	if want := goroutines * ops / 2; m.Count() != want {
		t.Errorf("Count() = %d, want %d", m.Count(), want)
	}
}
