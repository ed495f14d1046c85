package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return Locker{R: client, RetryBackoff: time.Millisecond}, mr
}

func TestWithLockRunsAndReleases(t *testing.T) {
	locker, mr := newTestLocker(t)

	ran := false
	err := locker.WithLock(context.Background(), "studio:order:category:root", time.Second, func(context.Context) error {
		ran = true
		require.True(t, mr.Exists("studio:order:category:root"))
		return nil
	})
	require.NoError(t, err)
	require.True(t, ran)
	require.False(t, mr.Exists("studio:order:category:root"))
}

func TestWithLockReleasesOnCallbackError(t *testing.T) {
	locker, mr := newTestLocker(t)

	wantErr := context.DeadlineExceeded
	err := locker.WithLock(context.Background(), "k", time.Second, func(context.Context) error {
		return wantErr
	})
	require.ErrorIs(t, err, wantErr)
	require.False(t, mr.Exists("k"))
}

func TestWithLockSerializesSections(t *testing.T) {
	locker, _ := newTestLocker(t)

	var mu sync.Mutex
	var active, maxActive int
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.WithLock(context.Background(), "serial", time.Second, func(context.Context) error {
				mu.Lock()
				active++
				if active > maxActive {
					maxActive = active
				}
				mu.Unlock()
				time.Sleep(5 * time.Millisecond)
				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()
	require.Equal(t, 1, maxActive)
}

func TestWithLockGivesUpWhenContextEnds(t *testing.T) {
	locker, mr := newTestLocker(t)
	mr.Set("held", "someone-else")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := locker.WithLock(ctx, "held", time.Second, func(context.Context) error {
		t.Fatal("callback must not run while the lock is held elsewhere")
		return nil
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithLockLeavesForeignTokenAlone(t *testing.T) {
	locker, mr := newTestLocker(t)

	// simulate our lock expiring mid-section and another holder taking over
	err := locker.WithLock(context.Background(), "k", time.Second, func(context.Context) error {
		mr.Set("k", "other-holder-token")
		return nil
	})
	require.NoError(t, err)
	got, geterr := mr.Get("k")
	require.NoError(t, geterr)
	require.Equal(t, "other-holder-token", got)
}

func TestWithLockRequiresClient(t *testing.T) {
	err := Locker{}.WithLock(context.Background(), "k", time.Second, func(context.Context) error { return nil })
	require.Error(t, err)
}
