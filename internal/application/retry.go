package application

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/sanosuguru/sportup/internal/domain/store"
	"github.com/sanosuguru/sportup/internal/pkg/logger"
	"github.com/sanosuguru/sportup/internal/pkg/metrics"
)

// RetryPolicy はストア障害時のリトライ設定
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy はデフォルトのリトライ設定を返す
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     time.Second,
	}
}

// retryOnUnavailable は store.ErrUnavailable の場合のみ指数バックオフでリトライする
// それ以外のエラーは即座に返す
func retryOnUnavailable[T any](ctx context.Context, policy RetryPolicy, operation string, fn func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.InitialInterval
	b.MaxInterval = policy.MaxInterval

	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	v, err := backoff.Retry(ctx, func() (T, error) {
		v, err := fn()
		if err != nil && !errors.Is(err, store.ErrUnavailable) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			metrics.Get().ObserveStoreRetry(operation)
			logger.Warn("ストアが利用できないためリトライします",
				zap.String("operation", operation),
				zap.Duration("wait", wait),
				zap.Error(err),
			)
		}),
	)
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return v, permanent.Err
	}
	return v, err
}
