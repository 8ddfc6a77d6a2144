package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/sanosuguru/sportup/internal/domain/identity"
	"github.com/sanosuguru/sportup/internal/domain/store"
)

type stubVerifier struct {
	tokens map[string]identity.Identity
}

func (v stubVerifier) Verify(_ context.Context, token string) (identity.Identity, error) {
	id, ok := v.tokens[token]
	if !ok {
		return identity.Identity{}, identity.ErrInvalidToken
	}
	return id, nil
}

type stubResolver struct {
	roles map[string][]identity.Role
	err   error
}

func (r stubResolver) ResolveIdentity(_ context.Context, verified identity.Identity) (identity.Identity, error) {
	if r.err != nil {
		return identity.Identity{}, r.err
	}
	verified.Roles = r.roles[verified.UID]
	return verified, nil
}

// errorStatus はテスト用にドメインエラーを最小限のステータスへ変換する
func errorStatus(err error, c echo.Context) {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		_ = c.NoContent(he.Code)
	case errors.Is(err, identity.ErrInvalidToken):
		_ = c.NoContent(http.StatusUnauthorized)
	case errors.Is(err, store.ErrUnavailable):
		_ = c.NoContent(http.StatusServiceUnavailable)
	default:
		_ = c.NoContent(http.StatusInternalServerError)
	}
}

func newAuthEcho(resolver IdentityResolver) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = errorStatus
	verifier := stubVerifier{tokens: map[string]identity.Identity{
		"good":  {UID: "u1", DisplayName: "Yuki"},
		"admin": {UID: "admin-1"},
	}}
	e.Use(Authenticate(verifier, resolver))

	e.GET("/public", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"uid": Actor(c).UID, "admin": Actor(c).IsAdmin()})
	})
	e.GET("/private", func(c echo.Context) error {
		return c.String(http.StatusOK, Actor(c).UID)
	}, RequireAuth())
	return e
}

func doGet(e *echo.Echo, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticate(t *testing.T) {
	resolver := stubResolver{roles: map[string][]identity.Role{
		"u1":      {identity.RoleUser},
		"admin-1": {identity.RoleUser, identity.RoleAdmin},
	}}
	e := newAuthEcho(resolver)

	t.Run("トークンなしは匿名として扱う", func(t *testing.T) {
		rec := doGet(e, "/public", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"uid":"","admin":false}`, rec.Body.String())
	})

	t.Run("有効なトークンは主体を設定する", func(t *testing.T) {
		rec := doGet(e, "/private", "Bearer good")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "u1", rec.Body.String())
	})

	t.Run("ロールは解決結果から設定する", func(t *testing.T) {
		rec := doGet(e, "/public", "Bearer admin")

		assert.JSONEq(t, `{"uid":"admin-1","admin":true}`, rec.Body.String())
	})

	t.Run("不正なトークンは 401", func(t *testing.T) {
		rec := doGet(e, "/public", "Bearer forged")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Bearer 以外の形式は 401", func(t *testing.T) {
		rec := doGet(e, "/public", "Basic dXNlcjpwYXNz")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("ロール解決の障害はそのまま返す", func(t *testing.T) {
		failing := newAuthEcho(stubResolver{err: store.ErrUnavailable})

		rec := doGet(failing, "/public", "Bearer good")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestRequireAuth(t *testing.T) {
	e := newAuthEcho(nil)

	t.Run("未認証は 401", func(t *testing.T) {
		rec := doGet(e, "/private", "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("解決器なしでも検証済みの主体を使う", func(t *testing.T) {
		rec := doGet(e, "/private", "Bearer good")

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
