package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/vacek-detailing/studio-api/internal/common"
)

// Config describes how to derive a limit key and the thresholds to apply.
type Config struct {
	Key    func(*http.Request) string
	Window time.Duration
	Max    int
}

// Handler enforces a rate limit before delegating to the wrapped handler.
// Limiter failures fail open; a broken Redis must not take the calculator
// down with it.
type Handler struct {
	Limiter Limiter
	Config  Config
	OnError func(error)
}

// Middleware adapts Handler into chi middleware.
func (h Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Config.Key == nil {
			next.ServeHTTP(w, r)
			return
		}

		allowed, remaining, resetAt, err := h.Limiter.Allow(r.Context(), h.Config.Key(r), h.Config.Window, h.Config.Max)
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		h.writeLimitHeaders(w, remaining, resetAt)
		if allowed {
			next.ServeHTTP(w, r)
			return
		}

		retryAfter := int(time.Until(resetAt).Seconds())
		if retryAfter < 0 {
			retryAfter = 0
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		common.JSONError(w, http.StatusTooManyRequests, common.CodeRateLimited, "too many preview requests", nil)
	})
}

func (h Handler) writeLimitHeaders(w http.ResponseWriter, remaining int, resetAt time.Time) {
	limit := h.Config.Max
	if limit < 0 {
		limit = 0
	}
	hdr := w.Header()
	hdr.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	hdr.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	hdr.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
}

// ByClientIP keys requests on the caller address.
func ByClientIP(prefix string) func(*http.Request) string {
	return func(r *http.Request) string {
		return prefix + ":" + common.ClientIP(r)
	}
}
