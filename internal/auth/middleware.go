package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/evcraddock/visitor-desk/internal/clock"
)

const (
	rateLimitWindow  = 1 * time.Minute
	rateLimitMaxFail = 10
)

// RateLimiter tracks failed API key attempts per IP.
type RateLimiter struct {
	clock    clock.Clock
	window   time.Duration
	maxFail  int
	mu       sync.Mutex
	attempts map[string][]time.Time
}

// NewRateLimiter allows up to 10 failures per IP per minute.
func NewRateLimiter(clk clock.Clock) *RateLimiter {
	if clk == nil {
		clk = clock.Real{}
	}
	return &RateLimiter{
		clock:    clk,
		window:   rateLimitWindow,
		maxFail:  rateLimitMaxFail,
		attempts: make(map[string][]time.Time),
	}
}

// Limited reports whether ip has used up its failures for the window.
func (rl *RateLimiter) Limited(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.pruneLocked(ip)) >= rl.maxFail
}

// RecordFailure records a failed attempt from ip.
func (rl *RateLimiter) RecordFailure(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.attempts[ip] = append(rl.pruneLocked(ip), rl.clock.Now())
}

func (rl *RateLimiter) pruneLocked(ip string) []time.Time {
	cutoff := rl.clock.Now().Add(-rl.window)
	valid := rl.attempts[ip][:0]
	for _, t := range rl.attempts[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		delete(rl.attempts, ip)
		return nil
	}
	rl.attempts[ip] = valid
	return valid
}

type identityKey struct{}

// WithIdentity returns a context carrying the authenticated user.
func WithIdentity(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, identityKey{}, u)
}

// IdentityFromContext returns the user set by RequireAPIKey.
func IdentityFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(identityKey{}).(*User)
	return u, ok
}

// RequireAPIKey is middleware that validates Bearer token auth for /api/ routes.
// Non-API routes pass through untouched. The key's owner must still be an
// authorized user; the resolved user is stored in the request context.
// Returns 401 for missing/invalid keys, 429 for rate-limited IPs.
func RequireAPIKey(apiKeys *APIKeyStore, users *UserStore, limiter *RateLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r)
		if limiter.Limited(ip) {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "authorization required")
			return
		}

		key := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		email, err := apiKeys.Validate(key)
		if err != nil {
			slog.Error("validating api key", "err", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if email == "" || !users.IsAuthorized(email) {
			limiter.RecordFailure(ip)
			slog.Warn("rejected api key", "ip", ip)
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		user, err := users.Lookup(email)
		if err != nil {
			limiter.RecordFailure(ip)
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), user)))
	})
}

// RequireRole wraps a handler so only users with one of roles may call it.
// It must run inside RequireAPIKey.
func RequireRole(next http.HandlerFunc, roles ...Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "authorization required")
			return
		}
		for _, role := range roles {
			if u.Role == role {
				next(w, r)
				return
			}
		}
		writeError(w, http.StatusForbidden, "forbidden")
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		slog.Error("encoding error response", "err", err)
	}
}
