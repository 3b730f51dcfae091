package middlewares

import (
	"context"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// RateLimiter throttles requests per client address with a token bucket.
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	idle     time.Duration
	visitors *xsync.MapOf[string, *visitor]
	now      func() time.Time
}

// NewRateLimiter allows rps requests per second with the given burst to each
// client. Clients idle for longer than idle are forgotten by Run.
func NewRateLimiter(rps float64, burst int, idle time.Duration) *RateLimiter {
	if idle <= 0 {
		idle = 5 * time.Minute
	}
	return &RateLimiter{
		limit:    rate.Limit(rps),
		burst:    burst,
		idle:     idle,
		visitors: xsync.NewMapOf[string, *visitor](),
		now:      time.Now,
	}
}

func (rl *RateLimiter) allow(key string) bool {
	v, _ := rl.visitors.LoadOrCompute(key, func() *visitor {
		return &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
	})
	now := rl.now()
	v.lastSeen.Store(now.UnixNano())
	return v.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientKey(r)) {
			w.Header().Set("Retry-After", "1")
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Sweep forgets clients not seen since idle ago.
func (rl *RateLimiter) Sweep() {
	cutoff := rl.now().Add(-rl.idle).UnixNano()
	rl.visitors.Range(func(key string, v *visitor) bool {
		if v.lastSeen.Load() < cutoff {
			rl.visitors.Delete(key)
		}
		return true
	})
}

// Run sweeps idle clients until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) error {
	ticker := time.NewTicker(rl.idle)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rl.Sweep()
		}
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
