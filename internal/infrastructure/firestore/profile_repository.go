package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/sanosuguru/sportup/internal/domain/identity"
	"github.com/sanosuguru/sportup/internal/domain/profile"
)

const usersCollection = "users"

// userDoc は users コレクションのドキュメント（ドキュメントIDはUID）
type userDoc struct {
	UID            string    `firestore:"uid"`
	Email          string    `firestore:"email"`
	DisplayName    string    `firestore:"displayName"`
	PhotoURL       string    `firestore:"photoURL"`
	Roles          []string  `firestore:"roles"`
	FavoriteSports []string  `firestore:"favoriteSports"`
	SkillLevel     string    `firestore:"skillLevel"`
	CreatedAt      time.Time `firestore:"createdAt"`
	UpdatedAt      time.Time `firestore:"updatedAt"`
}

func toUserDoc(p *profile.UserProfile) *userDoc {
	roles := make([]string, len(p.Roles))
	for i, r := range p.Roles {
		roles[i] = string(r)
	}
	favorites := p.FavoriteSports
	if favorites == nil {
		favorites = []string{}
	}
	return &userDoc{
		UID:            p.UID,
		Email:          p.Email,
		DisplayName:    p.DisplayName,
		PhotoURL:       p.PhotoURL,
		Roles:          roles,
		FavoriteSports: favorites,
		SkillLevel:     string(p.SkillLevel),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func (d *userDoc) toEntity() *profile.UserProfile {
	roles := make([]identity.Role, len(d.Roles))
	for i, r := range d.Roles {
		roles[i] = identity.Role(r)
	}
	favorites := d.FavoriteSports
	if favorites == nil {
		favorites = []string{}
	}
	return &profile.UserProfile{
		UID:            d.UID,
		Email:          d.Email,
		DisplayName:    d.DisplayName,
		PhotoURL:       d.PhotoURL,
		Roles:          roles,
		FavoriteSports: favorites,
		SkillLevel:     profile.SkillLevel(d.SkillLevel),
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

// ProfileRepository はプロフィールリポジトリのFirestore実装
type ProfileRepository struct {
	client *firestore.Client
	now    func() time.Time
}

// NewProfileRepository はProfileRepositoryを作成する
func NewProfileRepository(client *firestore.Client) *ProfileRepository {
	return &ProfileRepository{client: client, now: time.Now}
}

func (r *ProfileRepository) doc(uid string) *firestore.DocumentRef {
	return r.client.Collection(usersCollection).Doc(uid)
}

// Create はプロフィールを作成する
// 既に存在する場合は既存のプロフィールを返す
func (r *ProfileRepository) Create(ctx context.Context, p *profile.UserProfile) (*profile.UserProfile, error) {
	ref := r.doc(p.UID)
	var result *profile.UserProfile
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err == nil {
			var existing userDoc
			if err := snap.DataTo(&existing); err != nil {
				return err
			}
			existing.UID = p.UID
			result = existing.toEntity()
			return nil
		}
		if !isNotFound(err) {
			return err
		}

		doc := toUserDoc(p)
		now := r.now()
		doc.CreatedAt = now
		doc.UpdatedAt = now
		if err := tx.Create(ref, doc); err != nil {
			return err
		}
		result = doc.toEntity()
		return nil
	})
	if err != nil {
		return nil, wrapErr("プロフィール作成に失敗しました", err)
	}
	return result, nil
}

// GetByUID はUIDからプロフィールを取得する
func (r *ProfileRepository) GetByUID(ctx context.Context, uid string) (*profile.UserProfile, error) {
	if uid == "" {
		return nil, profile.ErrProfileNotFound
	}
	snap, err := r.doc(uid).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, profile.ErrProfileNotFound
		}
		return nil, wrapErr("プロフィール取得に失敗しました", err)
	}
	var doc userDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, wrapErr("プロフィールのデコードに失敗しました", err)
	}
	doc.UID = uid
	return doc.toEntity(), nil
}

// Update は本人が変更できるフィールドを更新する
func (r *ProfileRepository) Update(ctx context.Context, p *profile.UserProfile) error {
	favorites := p.FavoriteSports
	if favorites == nil {
		favorites = []string{}
	}
	now := r.now()
	_, err := r.doc(p.UID).Update(ctx, []firestore.Update{
		{Path: "displayName", Value: p.DisplayName},
		{Path: "photoURL", Value: p.PhotoURL},
		{Path: "favoriteSports", Value: favorites},
		{Path: "skillLevel", Value: string(p.SkillLevel)},
		{Path: "updatedAt", Value: now},
	})
	if err != nil {
		if isNotFound(err) {
			return profile.ErrProfileNotFound
		}
		return wrapErr("プロフィール更新に失敗しました", err)
	}
	p.UpdatedAt = now
	return nil
}

// UpdateRoles はロールを更新する
func (r *ProfileRepository) UpdateRoles(ctx context.Context, uid string, roles []identity.Role) error {
	values := make([]string, len(roles))
	for i, role := range roles {
		values[i] = string(role)
	}
	_, err := r.doc(uid).Update(ctx, []firestore.Update{
		{Path: "roles", Value: values},
		{Path: "updatedAt", Value: r.now()},
	})
	if err != nil {
		if isNotFound(err) {
			return profile.ErrProfileNotFound
		}
		return wrapErr("ロール更新に失敗しました", err)
	}
	return nil
}

var _ profile.Repository = (*ProfileRepository)(nil)
