package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sanosuguru/sportup/internal/domain/identity"
	"github.com/sanosuguru/sportup/internal/domain/profile"
	"github.com/sanosuguru/sportup/internal/pkg/logger"
)

// プロフィール写真の最大サイズ
const maxPhotoBytes = 5 << 20

type ProfileService struct {
	profileRepo profile.Repository
	blobs       BlobStore
	retry       RetryPolicy
}

// NewProfileService はProfileServiceを作成する
// blobs が nil の場合、写真のアップロードは ErrPhotoStorageUnavailable を返す
func NewProfileService(profileRepo profile.Repository, blobs BlobStore, retry RetryPolicy) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
		blobs:       blobs,
		retry:       retry,
	}
}

// Signup は認証済みユーザーの初期プロフィールを作成する
// 既に存在する場合は既存のプロフィールを返す
func (s *ProfileService) Signup(ctx context.Context, actor identity.Identity) (*profile.UserProfile, error) {
	p := profile.NewUserProfile(actor.UID, actor.Email, actor.DisplayName)
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}

	created, err := retryOnUnavailable(ctx, s.retry, "signup", func() (*profile.UserProfile, error) {
		return s.profileRepo.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("プロフィールを作成しました", zap.String("uid", created.UID))
	return created, nil
}

func (s *ProfileService) GetProfile(ctx context.Context, uid string) (*profile.UserProfile, error) {
	return retryOnUnavailable(ctx, s.retry, "get_profile", func() (*profile.UserProfile, error) {
		return s.profileRepo.GetByUID(ctx, uid)
	})
}

// UpdateProfileInput は nil のフィールドを変更しない
type UpdateProfileInput struct {
	DisplayName    *string
	FavoriteSports *string // カンマ区切り
	SkillLevel     *string
}

// UpdateProfile は本人のプロフィールを更新する
func (s *ProfileService) UpdateProfile(ctx context.Context, actor identity.Identity, uid string, input UpdateProfileInput) (*profile.UserProfile, error) {
	if actor.UID == "" || actor.UID != uid {
		return nil, profile.ErrNotOwner
	}

	p, err := s.GetProfile(ctx, uid)
	if err != nil {
		return nil, err
	}
	if input.DisplayName != nil {
		p.DisplayName = strings.TrimSpace(*input.DisplayName)
	}
	if input.FavoriteSports != nil {
		p.FavoriteSports = profile.ParseFavoriteSports(*input.FavoriteSports)
	}
	if input.SkillLevel != nil {
		p.SkillLevel = profile.SkillLevel(*input.SkillLevel)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}

	if err := s.update(ctx, p); err != nil {
		return nil, err
	}
	logger.Info("プロフィールを更新しました", zap.String("uid", uid))
	return p, nil
}

type UploadPhotoInput struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// UploadPhoto はプロフィール写真を保存し、公開URLをプロフィールに設定する
func (s *ProfileService) UploadPhoto(ctx context.Context, actor identity.Identity, uid string, input UploadPhotoInput) (*profile.UserProfile, error) {
	if actor.UID == "" || actor.UID != uid {
		return nil, profile.ErrNotOwner
	}
	if s.blobs == nil {
		return nil, ErrPhotoStorageUnavailable
	}

	data, err := io.ReadAll(io.LimitReader(input.Body, maxPhotoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("写真の読み込みに失敗しました: %w", err)
	}
	if len(data) > maxPhotoBytes {
		return nil, profile.NewValidationError("photo", profile.ErrPhotoTooLarge)
	}
	contentType := input.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, profile.NewValidationError("photo", profile.ErrUnsupportedPhoto)
	}

	p, err := s.GetProfile(ctx, uid)
	if err != nil {
		return nil, err
	}

	key := photoKey(uid, input.Filename)
	url, err := s.blobs.Upload(ctx, key, contentType, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("写真のアップロードに失敗しました: %w", err)
	}

	p.PhotoURL = url
	if err := s.update(ctx, p); err != nil {
		return nil, err
	}
	logger.Info("プロフィール写真を更新しました", zap.String("uid", uid), zap.String("key", key))
	return p, nil
}

// GrantRole は管理操作としてロールを付与する
func (s *ProfileService) GrantRole(ctx context.Context, uid string, role identity.Role) (*profile.UserProfile, error) {
	return s.changeRole(ctx, uid, role, (*profile.UserProfile).GrantRole)
}

// RevokeRole は管理操作としてロールを剥奪する
func (s *ProfileService) RevokeRole(ctx context.Context, uid string, role identity.Role) (*profile.UserProfile, error) {
	return s.changeRole(ctx, uid, role, (*profile.UserProfile).RevokeRole)
}

func (s *ProfileService) changeRole(ctx context.Context, uid string, role identity.Role, apply func(*profile.UserProfile, identity.Role) (bool, error)) (*profile.UserProfile, error) {
	p, err := s.GetProfile(ctx, uid)
	if err != nil {
		return nil, err
	}
	changed, err := apply(p, role)
	if err != nil {
		return nil, err
	}
	if !changed {
		return p, nil
	}

	_, err = retryOnUnavailable(ctx, s.retry, "update_roles", func() (struct{}, error) {
		return struct{}{}, s.profileRepo.UpdateRoles(ctx, uid, p.Roles)
	})
	if err != nil {
		return nil, err
	}
	logger.Info("ロールを変更しました", zap.String("uid", uid), zap.Any("roles", p.Roles))
	return p, nil
}

// ResolveIdentity は検証済みトークンの主体にプロフィールのロールを付与する
// プロフィール未作成のユーザーは user ロールのみを持つ
func (s *ProfileService) ResolveIdentity(ctx context.Context, verified identity.Identity) (identity.Identity, error) {
	p, err := s.GetProfile(ctx, verified.UID)
	if errors.Is(err, profile.ErrProfileNotFound) {
		verified.Roles = []identity.Role{identity.RoleUser}
		return verified, nil
	}
	if err != nil {
		return identity.Identity{}, err
	}

	resolved := p.Identity()
	if verified.DisplayName != "" {
		resolved.DisplayName = verified.DisplayName
	}
	if verified.Email != "" {
		resolved.Email = verified.Email
	}
	return resolved, nil
}

func (s *ProfileService) update(ctx context.Context, p *profile.UserProfile) error {
	_, err := retryOnUnavailable(ctx, s.retry, "update_profile", func() (struct{}, error) {
		return struct{}{}, s.profileRepo.Update(ctx, p)
	})
	return err
}

func photoKey(uid, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "photo"
	}
	return fmt.Sprintf("profile_pictures/%s/%s-%s", uid, uuid.NewString(), name)
}
