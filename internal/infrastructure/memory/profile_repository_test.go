package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/sportup/internal/domain/identity"
	"github.com/sanosuguru/sportup/internal/domain/profile"
)

func TestProfileRepository(t *testing.T) {
	repo := NewProfileRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, profile.NewUserProfile("u1", "u1@example.com", "Alice"))
	require.NoError(t, err)
	assert.Equal(t, []identity.Role{identity.RoleUser}, created.Roles)

	t.Run("既存プロフィールがある場合は上書きしない", func(t *testing.T) {
		again, err := repo.Create(ctx, profile.NewUserProfile("u1", "other@example.com", "Mallory"))
		require.NoError(t, err)
		assert.Equal(t, "Alice", again.DisplayName)
	})

	t.Run("Updateはロールを変更しない", func(t *testing.T) {
		p, err := repo.GetByUID(ctx, "u1")
		require.NoError(t, err)
		p.DisplayName = "Alice B"
		p.Roles = []identity.Role{identity.RoleUser, identity.RoleAdmin}
		require.NoError(t, repo.Update(ctx, p))

		got, err := repo.GetByUID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "Alice B", got.DisplayName)
		assert.Equal(t, []identity.Role{identity.RoleUser}, got.Roles)
	})

	t.Run("UpdateRolesでロールを変更できる", func(t *testing.T) {
		require.NoError(t, repo.UpdateRoles(ctx, "u1", []identity.Role{identity.RoleUser, identity.RoleAdmin}))
		got, err := repo.GetByUID(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, got.HasRole(identity.RoleAdmin))
	})

	t.Run("存在しないUID", func(t *testing.T) {
		_, err := repo.GetByUID(ctx, "missing")
		assert.ErrorIs(t, err, profile.ErrProfileNotFound)
		assert.ErrorIs(t, repo.Update(ctx, profile.NewUserProfile("missing", "", "")), profile.ErrProfileNotFound)
		assert.ErrorIs(t, repo.UpdateRoles(ctx, "missing", nil), profile.ErrProfileNotFound)
	})
}

func TestBlobStore_Upload(t *testing.T) {
	store := NewBlobStore("http://localhost/blobs")

	url, err := store.Upload(context.Background(), "profile_pictures/u1/a.png", "image/png", strings.NewReader("png"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/blobs/profile_pictures/u1/a.png", url)

	b, ok := store.Object("profile_pictures/u1/a.png")
	require.True(t, ok)
	assert.Equal(t, "png", string(b))
}
