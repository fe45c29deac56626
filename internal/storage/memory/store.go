package memory

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/yndnr/redkv/internal/core/domain"
	"github.com/yndnr/redkv/internal/telemetry/logger"
)

// NoExpiry is the TTL reported for a key that never expires.
const NoExpiry time.Duration = -1

type entry struct {
	value     []byte
	expiresAt time.Time // zero when the key never expires
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Store is the shared keyspace.
//
// Values handed to Set are owned by the Store afterwards and values returned
// by Get must not be modified; the Store never mutates a value in place.
type Store struct {
	mu     sync.RWMutex
	data   map[string]*entry
	expiry *ExpiryIndex

	// Reclaimer state, guarded by mu.
	shutdown bool
	nextWake time.Time // zero while the reclaimer waits without deadline

	wake chan struct{}
	done chan struct{}

	now      func() time.Time
	log      logger.Logger
	onExpire func(n int)
}

// Option configures the Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the logger used by the reclaimer.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// WithExpireHook registers fn to be told how many keys each reclaim pass or
// inline purge removed. fn runs with the Store lock held and must not call
// back into the Store.
func WithExpireHook(fn func(n int)) Option {
	return func(s *Store) {
		s.onExpire = fn
	}
}

// New creates an empty store and starts its reclaimer.
func New(opts ...Option) *Store {
	s := &Store{
		data:   make(map[string]*entry),
		expiry: NewExpiryIndex(),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		now:    time.Now,
		log:    logger.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	go s.reclaimLoop()
	return s
}

// Close stops the reclaimer and waits for it to exit. The keyspace stays
// readable afterwards.
func (s *Store) Close() {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()
	s.signal()
	<-s.done
}

// Get returns the value stored at key.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[key]
	if !ok || e.expired(s.now()) {
		return nil, false
	}
	return e.value, true
}

// Set stores value at key, replacing any previous value and expiry. A zero
// expiresAt stores the key without expiry. The previous live value, if any,
// is returned.
func (s *Store) Set(key string, value []byte, expiresAt time.Time) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var prev []byte
	existed := false
	if old, ok := s.data[key]; ok {
		if !old.expired(now) {
			prev, existed = old.value, true
		}
		s.unindex(key, old)
	}

	e := &entry{value: value}
	if !expiresAt.IsZero() {
		s.setExpiry(key, e, expiresAt, now)
	}
	s.data[key] = e
	return prev, existed
}

// Delete removes keys and returns how many live keys were removed.
func (s *Store) Delete(keys ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for _, key := range keys {
		e, ok := s.data[key]
		if !ok {
			continue
		}
		if !e.expired(now) {
			removed++
		}
		s.remove(key, e)
	}
	return removed
}

// Exists returns how many of keys are present. A key named twice counts twice.
func (s *Store) Exists(keys ...string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	n := 0
	for _, key := range keys {
		if e, ok := s.data[key]; ok && !e.expired(now) {
			n++
		}
	}
	return n
}

// Incr adds delta to the integer stored at key and returns the result. An
// absent key counts as 0. The key's expiry is kept.
func (s *Store) Incr(key string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.live(key, s.now())
	var cur int64
	if e != nil {
		n, ok := parseCanonicalInt(e.value)
		if !ok {
			return 0, domain.ErrValueNotInteger
		}
		cur = n
	}

	if (delta > 0 && cur > math.MaxInt64-delta) || (delta < 0 && cur < math.MinInt64-delta) {
		return 0, domain.ErrOverflow
	}
	next := cur + delta

	value := strconv.AppendInt(nil, next, 10)
	if e != nil {
		e.value = value
	} else {
		s.data[key] = &entry{value: value}
	}
	return next, nil
}

// parseCanonicalInt accepts only the form strconv.FormatInt produces: no
// sign prefix, leading zeros or spaces.
func parseCanonicalInt(b []byte) (int64, bool) {
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil || strconv.FormatInt(n, 10) != string(b) {
		return 0, false
	}
	return n, true
}

// TTL returns the time left before key expires, or NoExpiry. ok is false
// when the key does not exist.
func (s *Store) TTL(key string) (time.Duration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	e, ok := s.data[key]
	if !ok || e.expired(now) {
		return 0, false
	}
	if e.expiresAt.IsZero() {
		return NoExpiry, true
	}
	return e.expiresAt.Sub(now), true
}

// Expire sets an absolute expiry on an existing key. An instant that is not
// in the future deletes the key. It reports whether the key existed.
func (s *Store) Expire(key string, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e := s.live(key, now)
	if e == nil {
		return false
	}
	if !now.Before(at) {
		s.remove(key, e)
		return true
	}
	s.unindex(key, e)
	s.setExpiry(key, e, at, now)
	return true
}

// Len returns the number of live keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data) - s.expiry.CountDue(s.now())
}

// ExpiringLen returns the number of keys carrying an expiry.
func (s *Store) ExpiringLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.expiry.Len()
}

// live returns the entry at key, purging it first if it has expired.
// Caller must hold the write lock.
func (s *Store) live(key string, now time.Time) *entry {
	e, ok := s.data[key]
	if !ok {
		return nil
	}
	if e.expired(now) {
		s.remove(key, e)
		s.noteExpired(1)
		return nil
	}
	return e
}

func (s *Store) remove(key string, e *entry) {
	delete(s.data, key)
	s.unindex(key, e)
}

func (s *Store) unindex(key string, e *entry) {
	if !e.expiresAt.IsZero() {
		s.expiry.Remove(e.expiresAt, key)
		e.expiresAt = time.Time{}
	}
}

// setExpiry indexes e under at and wakes the reclaimer when at is earlier
// than its current wait target. Caller must hold the write lock and must have
// unindexed e.
func (s *Store) setExpiry(key string, e *entry, at, now time.Time) {
	at = monotonic(at, now)
	e.expiresAt = at
	s.expiry.Add(at, key)
	if s.nextWake.IsZero() || at.Before(s.nextWake) {
		s.signal()
	}
}

func (s *Store) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Store) noteExpired(n int) {
	if n > 0 && s.onExpire != nil {
		s.onExpire(n)
	}
}

// monotonic re-expresses an absolute instant relative to now so that later
// comparisons against the clock use the monotonic reading when now has one.
// An instant too far away for a Duration is kept as is.
func monotonic(at, now time.Time) time.Time {
	m := now.Add(at.Sub(now))
	if !m.Equal(at) {
		return at
	}
	return m
}
