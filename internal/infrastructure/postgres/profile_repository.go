package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/sportup/internal/domain/identity"
	"github.com/sanosuguru/sportup/internal/domain/profile"
)

const profileColumns = `uid, email, display_name, photo_url, roles, favorite_sports, skill_level, created_at, updated_at`

type profileRow struct {
	UID            string         `db:"uid"`
	Email          string         `db:"email"`
	DisplayName    string         `db:"display_name"`
	PhotoURL       string         `db:"photo_url"`
	Roles          pq.StringArray `db:"roles"`
	FavoriteSports pq.StringArray `db:"favorite_sports"`
	SkillLevel     string         `db:"skill_level"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func (r *profileRow) toEntity() *profile.UserProfile {
	roles := make([]identity.Role, len(r.Roles))
	for i, role := range r.Roles {
		roles[i] = identity.Role(role)
	}
	favorites := []string(r.FavoriteSports)
	if favorites == nil {
		favorites = []string{}
	}
	return &profile.UserProfile{
		UID:            r.UID,
		Email:          r.Email,
		DisplayName:    r.DisplayName,
		PhotoURL:       r.PhotoURL,
		Roles:          roles,
		FavoriteSports: favorites,
		SkillLevel:     profile.SkillLevel(r.SkillLevel),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func roleStrings(roles []identity.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

// ProfileRepository はプロフィールリポジトリのPostgreSQL実装
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository はProfileRepositoryを作成する
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create はプロフィールを作成する
// 既に存在する場合は何もせず既存のプロフィールを返す
func (r *ProfileRepository) Create(ctx context.Context, p *profile.UserProfile) (*profile.UserProfile, error) {
	query := `
		INSERT INTO users (uid, email, display_name, photo_url, roles, favorite_sports, skill_level)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (uid) DO NOTHING
	`
	favorites := p.FavoriteSports
	if favorites == nil {
		favorites = []string{}
	}
	if _, err := r.db.ExecContext(ctx, query,
		p.UID, p.Email, p.DisplayName, p.PhotoURL,
		pq.Array(roleStrings(p.Roles)), pq.Array(favorites), string(p.SkillLevel),
	); err != nil {
		return nil, wrapErr("プロフィール作成に失敗しました", err)
	}
	return r.GetByUID(ctx, p.UID)
}

// GetByUID はUIDからプロフィールを取得する
func (r *ProfileRepository) GetByUID(ctx context.Context, uid string) (*profile.UserProfile, error) {
	var row profileRow
	err := r.db.GetContext(ctx, &row, `SELECT `+profileColumns+` FROM users WHERE uid = $1`, uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, profile.ErrProfileNotFound
		}
		return nil, wrapErr("プロフィール取得に失敗しました", err)
	}
	return row.toEntity(), nil
}

// Update は本人が変更できるフィールドを更新する
func (r *ProfileRepository) Update(ctx context.Context, p *profile.UserProfile) error {
	query := `
		UPDATE users
		SET display_name = $1, photo_url = $2, favorite_sports = $3, skill_level = $4, updated_at = NOW()
		WHERE uid = $5
		RETURNING updated_at
	`
	favorites := p.FavoriteSports
	if favorites == nil {
		favorites = []string{}
	}
	err := r.db.QueryRowContext(ctx, query,
		p.DisplayName, p.PhotoURL, pq.Array(favorites), string(p.SkillLevel), p.UID,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return profile.ErrProfileNotFound
		}
		return wrapErr("プロフィール更新に失敗しました", err)
	}
	return nil
}

// UpdateRoles はロールを更新する
func (r *ProfileRepository) UpdateRoles(ctx context.Context, uid string, roles []identity.Role) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET roles = $1, updated_at = NOW() WHERE uid = $2`,
		pq.Array(roleStrings(roles)), uid,
	)
	if err != nil {
		return wrapErr("ロール更新に失敗しました", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return wrapErr("更新結果の確認に失敗しました", err)
	}
	if n == 0 {
		return profile.ErrProfileNotFound
	}
	return nil
}

var _ profile.Repository = (*ProfileRepository)(nil)
