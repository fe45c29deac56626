package memory

import (
	"sort"
	"time"
)

// Record is one key as captured for persistence.
type Record struct {
	Key       string
	Value     []byte
	ExpiresAt time.Time // zero when the key never expires
}

// Records returns every live key, sorted by key, as of one instant.
func (s *Store) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	out := make([]Record, 0, len(s.data))
	for key, e := range s.data {
		if e.expired(now) {
			continue
		}
		out = append(out, Record{Key: key, Value: e.value, ExpiresAt: e.expiresAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Restore replaces the whole keyspace with records. Records whose expiry has
// already passed are skipped; the number loaded is returned.
func (s *Store) Restore(records []Record) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.data = make(map[string]*entry, len(records))
	s.expiry.Clear()

	loaded := 0
	for _, r := range records {
		if old, ok := s.data[r.Key]; ok {
			s.remove(r.Key, old)
			loaded--
		}
		e := &entry{value: r.Value}
		if !r.ExpiresAt.IsZero() {
			if !now.Before(r.ExpiresAt) {
				continue
			}
			s.setExpiry(r.Key, e, r.ExpiresAt, now)
		}
		s.data[r.Key] = e
		loaded++
	}
	return loaded
}
