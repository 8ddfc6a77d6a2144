package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/sportup/internal/infrastructure/jwtauth"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--env-file", "testdata-missing.env"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTokenIssue(t *testing.T) {
	t.Setenv("AUTH_MODE", "jwt")
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("JWT_ISSUER", "sportup-cli")

	t.Run("発行したトークンを検証できる", func(t *testing.T) {
		out, err := execute(t, "token", "issue", "cli-user", "--name", "CLI User")
		require.NoError(t, err)

		auth, err := jwtauth.New("cli-secret", "sportup-cli", 0)
		require.NoError(t, err)
		id, err := auth.Verify(context.Background(), strings.TrimSpace(out))
		require.NoError(t, err)
		assert.Equal(t, "cli-user", id.UID)
		assert.Equal(t, "CLI User", id.DisplayName)
	})

	t.Run("firebaseモードでは発行できない", func(t *testing.T) {
		t.Setenv("AUTH_MODE", "firebase")
		_, err := execute(t, "token", "issue", "cli-user")
		assert.Error(t, err)
	})
}

func TestMigrateRequiresPostgres(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")

	_, err := execute(t, "migrate", "version")
	assert.ErrorIs(t, err, errNotPostgres)
}

func TestMigrateDownRejectsInvalidSteps(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")

	_, err := execute(t, "migrate", "down", "0")
	assert.Error(t, err)
}

func TestAdminGrantOnMemoryStore(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("REDIS_ENABLED", "false")

	// インメモリストアはコマンドごとに作り直されるため、未登録ユーザーは見つからない
	_, err := execute(t, "admin", "grant", "nobody")
	assert.Error(t, err)
}

func TestBuildAppMemoryBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("AUTH_MODE", "jwt")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("REDIS_ENABLED", "false")

	c := &cli{envFile: "testdata-missing.env"}
	require.NoError(t, c.init())

	a, err := buildApp(context.Background(), c.cfg, true)
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.events)
	assert.NotNil(t, a.profiles)
	assert.NotNil(t, a.verifier)
	assert.Nil(t, a.locker)
	assert.Nil(t, a.cache)
	assert.Nil(t, a.blobs)
	assert.Empty(t, a.pingers)
}
