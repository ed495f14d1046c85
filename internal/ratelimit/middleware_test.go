package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T) Limiter {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return Limiter{Client: client, Prefix: "rl:"}
}

func TestAllowWithinLimit(t *testing.T) {
	limiter := newTestLimiter(t)

	for i := 0; i < 3; i++ {
		allowed, _, _, err := limiter.Allow(context.Background(), "ip-1", time.Minute, 3)
		require.NoError(t, err)
		require.True(t, allowed, "request %d should pass", i+1)
	}
	allowed, remaining, _, err := limiter.Allow(context.Background(), "ip-1", time.Minute, 3)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Equal(t, 0, remaining)
}

func TestAllowKeysAreIndependent(t *testing.T) {
	limiter := newTestLimiter(t)

	allowed, _, _, err := limiter.Allow(context.Background(), "ip-1", time.Minute, 1)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, _, _, err = limiter.Allow(context.Background(), "ip-2", time.Minute, 1)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestAllowDisabledWithoutClient(t *testing.T) {
	allowed, _, _, err := Limiter{}.Allow(context.Background(), "any", time.Minute, 1)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestMiddlewareRejectsOverLimit(t *testing.T) {
	limiter := newTestLimiter(t)
	h := Handler{
		Limiter: limiter,
		Config:  Config{Key: ByClientIP("preview"), Window: time.Minute, Max: 1},
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := h.Middleware(next)

	first := httptest.NewRecorder()
	srv.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/preview", nil))
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

	second := httptest.NewRecorder()
	srv.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/preview", nil))
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	require.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))
	require.NotEmpty(t, second.Header().Get("Retry-After"))
	require.Contains(t, second.Body.String(), "RATE_LIMITED")
}

func TestMiddlewareFailsOpenOnLimiterError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close() // limiter calls now error out

	var reported error
	h := Handler{
		Limiter: Limiter{Client: client},
		Config:  Config{Key: ByClientIP("preview"), Window: time.Minute, Max: 1},
		OnError: func(err error) { reported = err },
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	h.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/preview", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Error(t, reported)
}

func TestMiddlewareSkipsWithoutKeyFunc(t *testing.T) {
	h := Handler{Config: Config{Window: time.Minute, Max: 1}}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	h.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}
