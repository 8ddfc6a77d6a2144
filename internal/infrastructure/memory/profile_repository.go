package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/sanosuguru/sportup/internal/domain/identity"
	"github.com/sanosuguru/sportup/internal/domain/profile"
)

// ProfileRepository はプロフィールリポジトリのインメモリ実装
type ProfileRepository struct {
	mu       sync.Mutex
	profiles map[string]*profile.UserProfile
	now      func() time.Time
}

// NewProfileRepository はProfileRepositoryを作成する
func NewProfileRepository() *ProfileRepository {
	return &ProfileRepository{
		profiles: make(map[string]*profile.UserProfile),
		now:      time.Now,
	}
}

// Create はプロフィールを作成する
// 既に存在する場合は既存のプロフィールを返す
func (r *ProfileRepository) Create(ctx context.Context, p *profile.UserProfile) (*profile.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.profiles[p.UID]; ok {
		return cloneProfile(existing), nil
	}
	stored := cloneProfile(p)
	now := r.now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.profiles[p.UID] = stored
	return cloneProfile(stored), nil
}

// GetByUID はUIDからプロフィールを取得する
func (r *ProfileRepository) GetByUID(ctx context.Context, uid string) (*profile.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[uid]
	if !ok {
		return nil, profile.ErrProfileNotFound
	}
	return cloneProfile(p), nil
}

// Update は本人が変更できるフィールドを更新する
func (r *ProfileRepository) Update(ctx context.Context, p *profile.UserProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.profiles[p.UID]
	if !ok {
		return profile.ErrProfileNotFound
	}
	stored.DisplayName = p.DisplayName
	stored.PhotoURL = p.PhotoURL
	stored.FavoriteSports = slices.Clone(p.FavoriteSports)
	stored.SkillLevel = p.SkillLevel
	stored.UpdatedAt = r.now()
	p.UpdatedAt = stored.UpdatedAt
	return nil
}

// UpdateRoles はロールを更新する
func (r *ProfileRepository) UpdateRoles(ctx context.Context, uid string, roles []identity.Role) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.profiles[uid]
	if !ok {
		return profile.ErrProfileNotFound
	}
	stored.Roles = slices.Clone(roles)
	stored.UpdatedAt = r.now()
	return nil
}

func cloneProfile(p *profile.UserProfile) *profile.UserProfile {
	c := *p
	c.Roles = slices.Clone(p.Roles)
	c.FavoriteSports = slices.Clone(p.FavoriteSports)
	if c.FavoriteSports == nil {
		c.FavoriteSports = []string{}
	}
	return &c
}

var _ profile.Repository = (*ProfileRepository)(nil)
