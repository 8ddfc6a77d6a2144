package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sanosuguru/sportup/internal/domain/store"
	"github.com/sanosuguru/sportup/internal/pkg/logger"
	"github.com/sanosuguru/sportup/internal/pkg/metrics"
)

var (
	ErrLockNotAcquired = errors.New("ロックを取得できませんでした")
	ErrLockNotOwned    = errors.New("ロックの所有者ではありません")
)

// 所有者確認と削除をアトミックに行う
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// 所有者確認と期限延長をアトミックに行う
var extendScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("PEXPIRE", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// DistributedLock は Redis を使用した分散ロック
type DistributedLock struct {
	client *redis.Client
	key    string
	value  string
	ttl    time.Duration
}

// LockManager は分散ロックを管理する
type LockManager struct {
	client *redis.Client
}

func NewLockManager(client *redis.Client) *LockManager {
	return &LockManager{client: client}
}

// AcquireLock はロックを取得する
func (m *LockManager) AcquireLock(ctx context.Context, key string, ttl time.Duration) (*DistributedLock, error) {
	lockKey := "lock:" + key
	lockValue := uuid.NewString()

	ok, err := m.client.SetNX(ctx, lockKey, lockValue, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("ロック取得に失敗: %w", err)
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}

	return &DistributedLock{
		client: m.client,
		key:    lockKey,
		value:  lockValue,
		ttl:    ttl,
	}, nil
}

// AcquireLockWithRetry はリトライ付きでロックを取得する
// 競合以外のエラーは即座に返す
func (m *LockManager) AcquireLockWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (*DistributedLock, error) {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		lock, err := m.AcquireLock(ctx, key, ttl)
		if err == nil {
			return lock, nil
		}
		lastErr = err
		if !errors.Is(err, ErrLockNotAcquired) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return nil, lastErr
}

// Release はロックを解放する
func (l *DistributedLock) Release(ctx context.Context) error {
	result, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.value).Int()
	if err != nil {
		return fmt.Errorf("ロック解放に失敗: %w", err)
	}
	if result == 0 {
		return ErrLockNotOwned
	}
	return nil
}

// Extend はロックの有効期限を延長する
func (l *DistributedLock) Extend(ctx context.Context, ttl time.Duration) error {
	result, err := extendScript.Run(ctx, l.client, []string{l.key}, l.value, ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("ロック延長に失敗: %w", err)
	}
	if result == 0 {
		return ErrLockNotOwned
	}
	l.ttl = ttl
	return nil
}

// EventLocker はイベント単位で参加・離脱の書き込みをインスタンス間で直列化する
// 容量の整合性はストアのトランザクションが保証するため、Redis障害時はロックなしで続行する
type EventLocker struct {
	manager    *LockManager
	ttl        time.Duration
	maxRetries int
	retryDelay time.Duration
}

// NewEventLocker はEventLockerを作成する
func NewEventLocker(manager *LockManager, ttl time.Duration) *EventLocker {
	return &EventLocker{
		manager:    manager,
		ttl:        ttl,
		maxRetries: 20,
		retryDelay: 25 * time.Millisecond,
	}
}

// LockEvent はイベントのロックを取得し、解放関数を返す
// 競合でロックを取得できない場合は store.ErrUnavailable を返す
func (l *EventLocker) LockEvent(ctx context.Context, eventID string) (func(context.Context) error, error) {
	start := time.Now()
	lock, err := l.manager.AcquireLockWithRetry(ctx, eventLockKey(eventID), l.ttl, l.maxRetries, l.retryDelay)
	metrics.Get().ObserveLock("acquire", start, err)
	if err != nil {
		if errors.Is(err, ErrLockNotAcquired) {
			return nil, fmt.Errorf("%w: %w", store.ErrUnavailable, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Warn("分散ロックを利用できないためロックなしで続行します",
			zap.String("event_id", eventID), zap.Error(err))
		return func(context.Context) error { return nil }, nil
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(lock, eventID, stop, done)

	return func(ctx context.Context) error {
		close(stop)
		<-done
		start := time.Now()
		err := lock.Release(ctx)
		metrics.Get().ObserveLock("release", start, err)
		return err
	}, nil
}

// keepAlive は保持中のロックを TTL の半分ごとに延長する
// 所有権を失った時点で延長をやめる
func (l *EventLocker) keepAlive(lock *DistributedLock, eventID string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	interval := l.ttl / 2
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			start := time.Now()
			err := lock.Extend(ctx, l.ttl)
			cancel()
			metrics.Get().ObserveLock("extend", start, err)
			if err != nil {
				logger.Warn("ロックの延長に失敗しました", zap.String("event_id", eventID), zap.Error(err))
				if errors.Is(err, ErrLockNotOwned) {
					return
				}
			}
		}
	}
}

func eventLockKey(eventID string) string {
	return "event:" + eventID + ":participants"
}
