package redisserver

import (
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/redkv/pkg/cmap"
)

const (
	limiterIdleTTL       = 5 * time.Minute
	limiterPruneInterval = time.Minute
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanoseconds
}

// limiterRegistry holds one token bucket per client IP. The burst equals
// the per-second rate.
type limiterRegistry struct {
	perSecond int
	limiters  *cmap.Map[*ipLimiter]
	now       func() time.Time
}

func newLimiterRegistry(perSecond int) *limiterRegistry {
	return &limiterRegistry{
		perSecond: perSecond,
		limiters:  cmap.New[*ipLimiter](),
		now:       time.Now,
	}
}

// allow reports whether ip may run one more command now.
func (r *limiterRegistry) allow(ip string) bool {
	l := r.limiters.GetOrCreate(ip, func() *ipLimiter {
		return &ipLimiter{limiter: rate.NewLimiter(rate.Limit(r.perSecond), r.perSecond)}
	})
	now := r.now()
	l.lastSeen.Store(now.UnixNano())
	return l.limiter.AllowN(now, 1)
}

// prune drops limiters not used within ttl and returns how many went.
func (r *limiterRegistry) prune(ttl time.Duration) int {
	cutoff := r.now().Add(-ttl).UnixNano()
	return r.limiters.DeleteIf(func(_ string, l *ipLimiter) bool {
		return l.lastSeen.Load() < cutoff
	})
}

func (r *limiterRegistry) pruneLoop(done <-chan struct{}) {
	ticker := time.NewTicker(limiterPruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.prune(limiterIdleTTL)
		case <-done:
			return
		}
	}
}
