package router

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/shandysiswandi/authgate/internal/pkg/ratelimit"
)

// KeyFunc derives the rate-limit key of a request. An empty key skips limiting.
type KeyFunc func(r *http.Request) string

// KeyByIP keys requests by client address, as resolved by the IP middleware.
func KeyByIP(prefix string) KeyFunc {
	return func(r *http.Request) string {
		return prefix + ":" + r.RemoteAddr
	}
}

// RateLimit rejects requests over the limiter's budget with 429 and a
// Retry-After header. A limiter failure lets the request through so an
// outage of the counter store never locks everyone out.
func RateLimit(l ratelimit.Limiter, key KeyFunc, now func() time.Time) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, retryAfter, err := l.Allow(r.Context(), k, now())
			if err != nil {
				slog.WarnContext(r.Context(), "rate limiter unavailable, allowing request", "key", k, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				secs := int(math.Ceil(retryAfter.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
				slog.WarnContext(r.Context(), "rate limit exceeded", "key", k, "retry_after", retryAfter.String())
				writeJSON(w, errorResponse{Message: "Too many attempts, try again later"}, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
