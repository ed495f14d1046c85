package common

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newIdem(t *testing.T) Idem {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return Idem{R: client, TTL: time.Minute}
}

func idemRequest(key string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/quotes", nil)
	if key != "" {
		r.Header.Set("Idempotency-Key", key)
	}
	return r
}

func TestIdemRejectsReplay(t *testing.T) {
	idem := newIdem(t)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	h := idem.Middleware(next)

	first := httptest.NewRecorder()
	h.ServeHTTP(first, idemRequest("abc-123"))
	require.Equal(t, http.StatusCreated, first.Code)

	replay := httptest.NewRecorder()
	h.ServeHTTP(replay, idemRequest("abc-123"))
	require.Equal(t, http.StatusConflict, replay.Code)
	require.Contains(t, replay.Body.String(), "IDEMPOTENT_REPLAY")

	other := httptest.NewRecorder()
	h.ServeHTTP(other, idemRequest("def-456"))
	require.Equal(t, http.StatusCreated, other.Code)
}

func TestIdemPassesWithoutHeader(t *testing.T) {
	idem := newIdem(t)
	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	})
	h := idem.Middleware(next)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, idemRequest(""))
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	require.Equal(t, 2, calls)
}
