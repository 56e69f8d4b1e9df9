// Package auth gates the HTTP surface. The deployment model is a single
// browser frontend, so there is one key class: configure zero keys and the
// API is open (local development), configure one or more and every request
// must present one.
package auth

import (
	"net"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"carechat/pkg/logger"
	"carechat/pkg/utils"
)

// SecConfig drives authentication, CORS and rate limiting behavior.
type SecConfig struct {
	AllowedOrigins []string
	RPS            float64
	Burst          int
	APIKeys        map[string]struct{}
}

// Middleware authenticates requests, answers CORS preflights and applies
// per-key (or per-IP, when keys are not configured) rate limiting. Health
// probe paths pass through unauthenticated.
func Middleware(cfg SecConfig) func(http.Handler) http.Handler {
	lim := newLimiters(cfg.RPS, cfg.Burst)
	open := len(cfg.APIKeys) == 0
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.LogRequest(r)

			origin := r.Header.Get("Origin")
			if origin != "" && originAllowed(origin, cfg.AllowedOrigins) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
				w.Header().Set("Access-Control-Max-Age", "600")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type,X-API-Key")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			// probes stay reachable without credentials
			if (r.URL.Path == "/healthz" || r.URL.Path == "/readyz") && r.Method == http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			key, ok := presentedKey(r)
			if !open {
				if !ok {
					utils.JSONError(w, http.StatusUnauthorized, "unauthorized")
					logger.Warn("request_unauthorized", "path", r.URL.Path, "remote", r.RemoteAddr)
					return
				}
				if _, known := cfg.APIKeys[key]; !known {
					utils.JSONError(w, http.StatusUnauthorized, "unauthorized")
					logger.Warn("request_unauthorized", "reason", "unknown_key", "path", r.URL.Path)
					return
				}
			}
			if key == "" {
				key = clientIP(r)
			}

			if !lim.allow(key) {
				utils.JSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				logger.Warn("rate_limited", "path", r.URL.Path)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// limiters holds one token bucket per caller: the presented API key when
// there is one, the client IP otherwise. Buckets are never evicted; the
// caller population is one frontend plus a handful of probes.
type limiters struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	rps     rate.Limit
	burst   int
}

func newLimiters(rps float64, burst int) *limiters {
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 10
	}
	return &limiters{
		buckets: map[string]*rate.Limiter{},
		rps:     rate.Limit(rps),
		burst:   burst,
	}
}

func (l *limiters) allow(caller string) bool {
	l.mu.Lock()
	b, ok := l.buckets[caller]
	if !ok {
		b = rate.NewLimiter(l.rps, l.burst)
		l.buckets[caller] = b
	}
	l.mu.Unlock()
	return b.Allow()
}

// presentedKey extracts the API key, preferring Authorization: Bearer over
// X-API-Key.
func presentedKey(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		if k := strings.TrimSpace(authz[7:]); k != "" {
			return k, true
		}
	}
	if k := r.Header.Get("X-API-Key"); k != "" {
		return k, true
	}
	return "", false
}

func originAllowed(origin string, allowed []string) bool {
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
