package profile

import (
	"context"

	"github.com/sanosuguru/sportup/internal/domain/identity"
)

// Repository はプロフィールリポジトリのインターフェース
type Repository interface {
	// Create はプロフィールを作成する
	// 既に存在する場合は既存のプロフィールを返す
	Create(ctx context.Context, p *UserProfile) (*UserProfile, error)

	// GetByUID はUIDからプロフィールを取得する
	GetByUID(ctx context.Context, uid string) (*UserProfile, error)

	// Update は本人が変更できるフィールド（表示名・写真・お気に入り競技・スキル）を更新する
	Update(ctx context.Context, p *UserProfile) error

	// UpdateRoles はロールを更新する
	UpdateRoles(ctx context.Context, uid string, roles []identity.Role) error
}
