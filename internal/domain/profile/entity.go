package profile

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sanosuguru/sportup/internal/domain/identity"
)

// SkillLevel は競技スキルのレベル
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "Beginner"
	SkillIntermediate SkillLevel = "Intermediate"
	SkillAdvanced     SkillLevel = "Advanced"
	SkillProfessional SkillLevel = "Professional"
)

// 上限は users テーブルの列幅と一致させる
const (
	uidMaxLen         = 128
	emailMaxLen       = 320
	displayNameMaxLen = 100
	favoriteSportsMax = 20
)

// SkillLevels は選択可能なスキルレベル一覧
func SkillLevels() []SkillLevel {
	return []SkillLevel{SkillBeginner, SkillIntermediate, SkillAdvanced, SkillProfessional}
}

// IsValid はスキルレベルが定義済みかを返す
func (s SkillLevel) IsValid() bool {
	return slices.Contains(SkillLevels(), s)
}

// UserProfile はユーザープロフィールエンティティ
type UserProfile struct {
	UID            string
	Email          string
	DisplayName    string
	PhotoURL       string
	Roles          []identity.Role
	FavoriteSports []string
	SkillLevel     SkillLevel
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewUserProfile はサインアップ時の初期プロフィールを作成する
func NewUserProfile(uid, email, displayName string) *UserProfile {
	now := time.Now()
	return &UserProfile{
		UID:            uid,
		Email:          email,
		DisplayName:    displayName,
		Roles:          []identity.Role{identity.RoleUser},
		FavoriteSports: []string{},
		SkillLevel:     SkillBeginner,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Validate はプロフィールの検証を行う
func (p *UserProfile) Validate() error {
	if p.UID == "" {
		return NewValidationError("uid", ErrUIDRequired)
	}
	if utf8.RuneCountInString(p.UID) > uidMaxLen {
		return NewValidationError("uid", ErrUIDTooLong)
	}
	if utf8.RuneCountInString(p.Email) > emailMaxLen {
		return NewValidationError("email", ErrEmailTooLong)
	}
	if utf8.RuneCountInString(p.DisplayName) > displayNameMaxLen {
		return NewValidationError("displayName", ErrDisplayNameTooLong)
	}
	if !p.SkillLevel.IsValid() {
		return NewValidationError("skillLevel", ErrInvalidSkillLevel)
	}
	if len(p.FavoriteSports) > favoriteSportsMax {
		return NewValidationError("favoriteSports", ErrTooManyFavoriteSport)
	}
	for _, r := range p.Roles {
		if !r.IsValid() {
			return NewValidationError("roles", ErrInvalidRole)
		}
	}
	return nil
}

// Identity はプロフィールから操作主体を組み立てる
func (p *UserProfile) Identity() identity.Identity {
	return identity.Identity{
		UID:         p.UID,
		DisplayName: p.DisplayName,
		Email:       p.Email,
		Roles:       slices.Clone(p.Roles),
	}
}

// HasRole は指定ロールを持つかを返す
func (p *UserProfile) HasRole(role identity.Role) bool {
	return slices.Contains(p.Roles, role)
}

// GrantRole はロールを付与する（付与済みなら false）
func (p *UserProfile) GrantRole(role identity.Role) (bool, error) {
	if !role.IsValid() {
		return false, NewValidationError("roles", ErrInvalidRole)
	}
	if p.HasRole(role) {
		return false, nil
	}
	p.Roles = append(p.Roles, role)
	p.UpdatedAt = time.Now()
	return true, nil
}

// RevokeRole はロールを剥奪する（未付与なら false）
// user ロールは剥奪できない
func (p *UserProfile) RevokeRole(role identity.Role) (bool, error) {
	if !role.IsValid() || role == identity.RoleUser {
		return false, NewValidationError("roles", ErrInvalidRole)
	}
	idx := slices.Index(p.Roles, role)
	if idx < 0 {
		return false, nil
	}
	p.Roles = slices.Delete(p.Roles, idx, idx+1)
	p.UpdatedAt = time.Now()
	return true, nil
}

// ParseFavoriteSports はカンマ区切りの競技名を空要素を除いて分割する
func ParseFavoriteSports(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
