package memory

import "time"

// reclaimBatch bounds how many keys one pass removes before releasing the
// lock.
const reclaimBatch = 1024

// reclaimLoop removes expired keys. It sleeps until the earliest indexed
// instant, or indefinitely when nothing expires, and is woken early by
// setExpiry and Close.
func (s *Store) reclaimLoop() {
	defer close(s.done)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		s.mu.Lock()
		if s.shutdown {
			s.mu.Unlock()
			return
		}
		now := s.now()
		next, purged := s.purgeDue(now)
		s.nextWake = next
		s.noteExpired(purged)
		s.mu.Unlock()

		if purged > 0 {
			s.log.Debug("reclaimed expired keys", "key_count", purged)
		}

		if next.IsZero() {
			<-s.wake
			continue
		}

		timer.Reset(next.Sub(now))
		select {
		case <-timer.C:
		case <-s.wake:
			timer.Stop()
		}
	}
}

// purgeDue removes up to reclaimBatch keys expiring at or before now and
// returns the next instant to wake at. Caller must hold the write lock.
func (s *Store) purgeDue(now time.Time) (time.Time, int) {
	purged := 0
	for purged < reclaimBatch {
		at, key, ok := s.expiry.Earliest()
		if !ok {
			return time.Time{}, purged
		}
		if at.After(now) {
			return at, purged
		}
		s.expiry.PopEarliest()
		delete(s.data, key)
		purged++
	}
	return now, purged
}
