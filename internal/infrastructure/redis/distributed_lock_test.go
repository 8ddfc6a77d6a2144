package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/sportup/internal/domain/store"
)

func TestLockManager_AcquireLock(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	manager := NewLockManager(client)

	t.Run("同じキーのロックは取得できない", func(t *testing.T) {
		key := "test-" + uuid.NewString()
		lock1, err := manager.AcquireLock(ctx, key, 5*time.Second)
		require.NoError(t, err)
		defer lock1.Release(ctx)

		lock2, err := manager.AcquireLock(ctx, key, 5*time.Second)
		assert.ErrorIs(t, err, ErrLockNotAcquired)
		assert.Nil(t, lock2)
	})

	t.Run("解放後は再取得できる", func(t *testing.T) {
		key := "test-" + uuid.NewString()
		lock1, err := manager.AcquireLock(ctx, key, 5*time.Second)
		require.NoError(t, err)
		require.NoError(t, lock1.Release(ctx))

		lock2, err := manager.AcquireLock(ctx, key, 5*time.Second)
		require.NoError(t, err)
		defer lock2.Release(ctx)
	})

	t.Run("リトライで取得できる", func(t *testing.T) {
		key := "test-" + uuid.NewString()
		lock1, err := manager.AcquireLock(ctx, key, 5*time.Second)
		require.NoError(t, err)

		go func() {
			time.Sleep(150 * time.Millisecond)
			lock1.Release(ctx)
		}()

		lock2, err := manager.AcquireLockWithRetry(ctx, key, 5*time.Second, 10, 50*time.Millisecond)
		require.NoError(t, err)
		defer lock2.Release(ctx)
	})

	t.Run("解放後は延長できない", func(t *testing.T) {
		lock, err := manager.AcquireLock(ctx, "test-"+uuid.NewString(), time.Second)
		require.NoError(t, err)
		require.NoError(t, lock.Release(ctx))

		assert.ErrorIs(t, lock.Extend(ctx, 5*time.Second), ErrLockNotOwned)
		assert.ErrorIs(t, lock.Release(ctx), ErrLockNotOwned)
	})
}

func TestEventLocker_LockEvent(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	locker := NewEventLocker(NewLockManager(client), 5*time.Second)
	locker.maxRetries = 2
	locker.retryDelay = 10 * time.Millisecond

	eventID := uuid.NewString()
	release, err := locker.LockEvent(ctx, eventID)
	require.NoError(t, err)

	t.Run("競合時はストア利用不可として扱う", func(t *testing.T) {
		_, err := locker.LockEvent(ctx, eventID)
		assert.ErrorIs(t, err, store.ErrUnavailable)
		assert.ErrorIs(t, err, ErrLockNotAcquired)
	})

	t.Run("別イベントはブロックしない", func(t *testing.T) {
		other, err := locker.LockEvent(ctx, uuid.NewString())
		require.NoError(t, err)
		require.NoError(t, other(ctx))
	})

	require.NoError(t, release(ctx))
}

func TestEventLocker_KeepAlive(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	locker := NewEventLocker(NewLockManager(client), 200*time.Millisecond)
	locker.maxRetries = 1
	locker.retryDelay = 10 * time.Millisecond

	eventID := uuid.NewString()
	key := "lock:" + eventLockKey(eventID)
	release, err := locker.LockEvent(ctx, eventID)
	require.NoError(t, err)

	t.Run("TTLを超えて保持してもロックは失効しない", func(t *testing.T) {
		time.Sleep(500 * time.Millisecond)

		ttl, err := client.PTTL(ctx, key).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))

		_, err = locker.LockEvent(ctx, eventID)
		assert.ErrorIs(t, err, store.ErrUnavailable)
	})

	t.Run("解放後はキーが残らない", func(t *testing.T) {
		require.NoError(t, release(ctx))

		n, err := client.Exists(ctx, key).Result()
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestEventLocker_RedisDown(t *testing.T) {
	client := setupTestRedis(t)
	locker := NewEventLocker(NewLockManager(client), time.Second)
	client.Close()

	release, err := locker.LockEvent(context.Background(), "event-1")
	require.NoError(t, err, "Redis障害時はロックなしで続行する")
	assert.NoError(t, release(context.Background()))
}

func TestEventLockKey(t *testing.T) {
	assert.Equal(t, "event:e1:participants", eventLockKey("e1"))
	assert.False(t, errors.Is(ErrLockNotAcquired, store.ErrUnavailable))
}
