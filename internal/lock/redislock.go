package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Reorder actions are short, so acquisition retries quickly and locks expire
// fast rather than stalling the back office on a crashed holder.
const (
	defaultTTL     = 5 * time.Second
	defaultBackoff = 25 * time.Millisecond
)

const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`

// Locker serializes critical sections across API instances using Redis.
type Locker struct {
	R            *redis.Client
	RetryBackoff time.Duration
}

// WithLock runs fn while holding the named lock. The lock is released when fn
// returns, error or not. Acquisition keeps retrying until the context ends.
func (l Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if l.R == nil {
		return errors.New("lock: redis client not configured")
	}
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	retry := l.RetryBackoff
	if retry <= 0 {
		retry = defaultBackoff
	}
	token := uuid.NewString()

	for {
		ok, err := l.R.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return err
		}
		if ok {
			defer l.release(context.Background(), key, token)
			return fn(ctx)
		}
		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// release deletes the key only while it still holds our token, so an expired
// lock reacquired by someone else is never removed from under them.
func (l Locker) release(ctx context.Context, key, token string) {
	_ = l.R.Eval(ctx, releaseScript, []string{key}, token).Err()
}
