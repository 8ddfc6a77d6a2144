package identity

import (
	"context"
	"errors"
)

var ErrInvalidToken = errors.New("認証トークンが不正です")

// Verifier はベアラートークンを検証し操作主体を返す
// 返す Identity にロールは含まれない（ロールはプロフィールから解決する）
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}
