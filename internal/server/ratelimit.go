// ratelimit.go - Token-bucket rate limiter middleware by client address.
//
// Applied to the upload routes only; downloads are never limited.
package server

import (
	"net/http"
	"net/netip"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"file-drop/internal/ipaddr"
)

// visitorTTL is how long an idle client's bucket is kept.
const visitorTTL = 10 * time.Minute

type rateLimiter struct {
	mu        sync.Mutex
	visitors  map[netip.Addr]*visitor
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newRateLimiter allows rps sustained requests per client with bursts of up
// to burst.
func newRateLimiter(rps float64, burst int) *rateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &rateLimiter{
		visitors: make(map[netip.Addr]*visitor),
		limit:    rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

// middleware returns an HTTP middleware that enforces rate limits
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr, err := ipaddr.FromRemoteAddr(r.RemoteAddr)
		if err == nil && !rl.allow(addr) {
			w.Header().Set("Retry-After", "1")
			writeText(w, http.StatusTooManyRequests, bodyRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// allow checks if a request from addr should be allowed.
func (rl *rateLimiter) allow(addr netip.Addr) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > visitorTTL {
		rl.sweep(now)
	}

	v, ok := rl.visitors[addr]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[addr] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// sweep drops idle visitors. Called with rl.mu held.
func (rl *rateLimiter) sweep(now time.Time) {
	for addr, v := range rl.visitors {
		if now.Sub(v.lastSeen) > visitorTTL {
			delete(rl.visitors, addr)
		}
	}
	rl.lastSweep = now
}
