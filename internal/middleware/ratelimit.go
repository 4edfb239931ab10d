package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientIdleEviction is how long a client may sit idle before its
// limiter is forgotten.
const clientIdleEviction = 3 * time.Minute

// RateLimit enforces a per-client request budget keyed by remote IP.
// Exceeding the budget yields 429 with a Retry-After hint.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	rl := &rateLimiter{
		clients:   make(map[string]*rateClient),
		rps:       rate.Limit(rps),
		burst:     burst,
		lastSweep: time.Now(),
	}
	return rl.middleware
}

type rateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*rateClient
	rps       rate.Limit
	burst     int
	lastSweep time.Time
}

type rateClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func (rl *rateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastSweep) > clientIdleEviction {
		for k, c := range rl.clients {
			if now.Sub(c.lastSeen) > clientIdleEviction {
				delete(rl.clients, k)
			}
		}
		rl.lastSweep = now
	}

	c, ok := rl.clients[key]
	if !ok {
		c = &rateClient{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.Allow()
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientKey(r)) {
			w.Header().Set("Retry-After", "1")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
				"code":    http.StatusTooManyRequests,
				"message": "rate limit exceeded",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey strips the port so one client maps to one limiter no matter
// how many connections it opens.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
