package common

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Idem rejects duplicate writes carrying the same Idempotency-Key within the
// TTL window. The calculator UI retries saves and redemptions freely, so the
// first submission wins and replays get a conflict.
type Idem struct {
	R   *redis.Client
	TTL time.Duration
}

// Middleware claims the request key with SetNX before delegating. Requests
// without a key, or with no redis configured, pass through untouched.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("Idempotency-Key")
		if key == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		claimed, err := i.R.SetNX(r.Context(), idemRedisKey(key), "locked", i.TTL).Result()
		if err != nil {
			JSONError(w, http.StatusInternalServerError, CodeInternal, "idempotency store error", nil)
			return
		}
		if !claimed {
			JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "duplicate request", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func idemRedisKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return "idem:" + hex.EncodeToString(sum[:])
}
