package firestore

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sanosuguru/sportup/internal/domain/store"
)

// isTransient はリトライで回復し得るgRPCステータスかを判定する
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.Aborted, codes.DeadlineExceeded, codes.ResourceExhausted:
		return true
	}
	return false
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// wrapErr はエラーにメッセージを付与し、一時的な障害は store.ErrUnavailable として扱えるようにする
func wrapErr(msg string, err error) error {
	if isTransient(err) {
		return fmt.Errorf("%s: %w: %w", msg, store.ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
