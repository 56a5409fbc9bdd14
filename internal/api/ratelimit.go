package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/totoccar/SpaceSituationalAwareness/internal/httputil"
)

// RateLimitConfig holds the per-client token-bucket parameters.
type RateLimitConfig struct {
	Enabled    bool
	PerSecond  float64 // sustained requests per second per client
	Burst      int
	TrustProxy bool
}

// clientLimiters maps client IPs to their token buckets. Entries are
// never expired; the map is bounded by the practical client population
// of an internal service.
type clientLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	cfg      RateLimitConfig
}

func newClientLimiters(cfg RateLimitConfig) *clientLimiters {
	return &clientLimiters{
		limiters: make(map[string]*rate.Limiter),
		cfg:      cfg,
	}
}

func (cl *clientLimiters) get(ip string) *rate.Limiter {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	lim, ok := cl.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(cl.cfg.PerSecond), cl.cfg.Burst)
		cl.limiters[ip] = lim
	}
	return lim
}

// rateLimitMiddleware rejects requests exceeding the per-client budget
// with 429. Probe paths are never limited.
func rateLimitMiddleware(cfg RateLimitConfig) func(http.Handler) http.Handler {
	limiters := newClientLimiters(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || probePath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			ip := httputil.ClientIP(r, cfg.TrustProxy)
			if !limiters.get(ip).Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
