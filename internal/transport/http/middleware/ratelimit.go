package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterSweepEvery = 5 * time.Minute
	limiterIdleAfter  = 10 * time.Minute
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles abuse-prone routes such as login, registration and
// code confirmation. Each client IP gets its own token bucket per route, so
// hammering one endpoint does not lock a client out of the others.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	r       rate.Limit
	burst   int
}

// NewRateLimiter allows r requests per second with bursts of up to burst.
// Idle buckets are swept in the background for the life of the process.
func NewRateLimiter(r rate.Limit, burst int) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		r:       r,
		burst:   burst,
	}
	go rl.sweep()
	return rl
}

func (rl *RateLimiter) bucketFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := time.Now()
	if b, ok := rl.buckets[key]; ok {
		b.lastSeen = now
		return b.limiter
	}
	l := rate.NewLimiter(rl.r, rl.burst)
	rl.buckets[key] = &bucket{limiter: l, lastSeen: now}
	return l
}

func (rl *RateLimiter) sweep() {
	t := time.NewTicker(limiterSweepEvery)
	defer t.Stop()
	for now := range t.C {
		rl.mu.Lock()
		for key, b := range rl.buckets {
			if now.Sub(b.lastSeen) > limiterIdleAfter {
				delete(rl.buckets, key)
			}
		}
		rl.mu.Unlock()
	}
}

// retryAfter is the whole number of seconds until one token refills.
func (rl *RateLimiter) retryAfter() int {
	if rl.r <= 0 {
		return 60
	}
	return int(math.Ceil(1 / float64(rl.r)))
}

// Limit rejects requests over the caller's budget with 429 and a
// Retry-After hint.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := realIP(r) + " " + r.Method + " " + r.URL.Path
		if !rl.bucketFor(key).Allow() {
			w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfter()))
			reject(w, http.StatusTooManyRequests, codeRateLimited, "too many attempts, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// realIP prefers the first X-Forwarded-For hop, then X-Real-Ip, then the
// host part of RemoteAddr.
func realIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xr := r.Header.Get("X-Real-Ip"); xr != "" {
		return strings.TrimSpace(xr)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
