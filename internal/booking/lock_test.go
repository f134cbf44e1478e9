package booking

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseMutualExclusion(t *testing.T, locker Locker) {
	t.Helper()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		inside  int32
		maxSeen int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Acquire(ctx, "resource:r1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxSeen)
				if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxSeen)
}

func TestLocalLocker(t *testing.T) {
	t.Run("mutual exclusion per key", func(t *testing.T) {
		exerciseMutualExclusion(t, NewLocalLocker())
	})

	t.Run("different keys do not block", func(t *testing.T) {
		l := NewLocalLocker()
		unlockA, err := l.Acquire(context.Background(), "resource:a")
		require.NoError(t, err)
		defer unlockA()

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		unlockB, err := l.Acquire(ctx, "resource:b")
		require.NoError(t, err)
		unlockB()
	})

	t.Run("waiting respects context", func(t *testing.T) {
		l := NewLocalLocker()
		unlock, err := l.Acquire(context.Background(), "resource:a")
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err = l.Acquire(ctx, "resource:a")
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		unlock()
		unlock() // second call is a no-op

		l.mu.Lock()
		assert.Empty(t, l.locks, "released keys are forgotten")
		l.mu.Unlock()
	})
}

func TestRedisLocker(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	t.Run("mutual exclusion per key", func(t *testing.T) {
		exerciseMutualExclusion(t, NewRedisLocker(client, time.Second))
	})

	t.Run("release only deletes own token", func(t *testing.T) {
		l := NewRedisLocker(client, time.Second)
		unlock, err := l.Acquire(context.Background(), "resource:x")
		require.NoError(t, err)
		assert.True(t, s.Exists("booking-core:lock:resource:x"))

		// Simulate expiry and takeover by another holder.
		s.Set("booking-core:lock:resource:x", "someone-else")
		unlock()
		got, err := s.Get("booking-core:lock:resource:x")
		require.NoError(t, err)
		assert.Equal(t, "someone-else", got)
		s.Del("booking-core:lock:resource:x")
	})

	t.Run("held lock times out", func(t *testing.T) {
		l := NewRedisLocker(client, time.Second)
		l.wait = 50 * time.Millisecond
		unlock, err := l.Acquire(context.Background(), "resource:y")
		require.NoError(t, err)
		defer unlock()

		_, err = l.Acquire(context.Background(), "resource:y")
		assert.ErrorIs(t, err, ErrLockTimeout)
	})

	t.Run("ttl bounds a crashed holder", func(t *testing.T) {
		l := NewRedisLocker(client, time.Second)
		_, err := l.Acquire(context.Background(), "resource:z")
		require.NoError(t, err)

		s.FastForward(2 * time.Second)
		unlock, err := l.Acquire(context.Background(), "resource:z")
		require.NoError(t, err)
		unlock()
	})
}
