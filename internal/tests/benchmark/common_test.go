package benchmark

import (
	"fmt"
	"runtime"
	"testing"
	"time"

	"github.com/yndnr/redkv/internal/storage/memory"
)

// KeyCounts defines the keyspace sizes for benchmarking.
var KeyCounts = []int{1000, 10000, 100000}

// SmallKeyCounts for quick benchmarks.
var SmallKeyCounts = []int{1000, 10000}

func keyName(i int) string {
	return fmt.Sprintf("key:%08d", i)
}

// prefillStore writes count keys. Every fourth key gets a one hour expiry.
func prefillStore(store *memory.Store, count int) {
	value := []byte("value-0123456789abcdef")
	exp := time.Now().Add(time.Hour)
	for i := 0; i < count; i++ {
		var at time.Time
		if i%4 == 0 {
			at = exp
		}
		store.Set(keyName(i), value, at)
	}
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithKeyCounts runs a benchmark function with various keyspace sizes.
func runWithKeyCounts(b *testing.B, counts []int, benchFn func(b *testing.B, count int)) {
	for _, count := range counts {
		b.Run(fmt.Sprintf("keys_%d", count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}
