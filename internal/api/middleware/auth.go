package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/sportup/internal/domain/identity"
	"github.com/sanosuguru/sportup/internal/pkg/logger"
)

const identityKey = "identity"

// IdentityResolver は検証済みトークンの主体に保存済みのロールを反映する
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, verified identity.Identity) (identity.Identity, error)
}

// Authenticate は Bearer トークンを検証し、操作主体をコンテキストに設定する
// Authorization ヘッダーがない場合は匿名として次へ進む
func Authenticate(verifier identity.Verifier, resolver IdentityResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return next(c)
			}
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Bearer トークンが必要です")
			}

			ctx := c.Request().Context()
			verified, err := verifier.Verify(ctx, strings.TrimSpace(token))
			if err != nil {
				logger.Debug("トークン検証エラー", zap.Error(err))
				return err
			}
			actor := verified
			if resolver != nil {
				actor, err = resolver.ResolveIdentity(ctx, verified)
				if err != nil {
					return err
				}
			}

			c.Set(identityKey, actor)
			return next(c)
		}
	}
}

// RequireAuth は認証済みでないリクエストを 401 で拒否する
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !Actor(c).IsAuthenticated() {
				return echo.NewHTTPError(http.StatusUnauthorized, "認証が必要です")
			}
			return next(c)
		}
	}
}

// Actor はコンテキストの操作主体を返す（未認証の場合はゼロ値）
func Actor(c echo.Context) identity.Identity {
	if id, ok := c.Get(identityKey).(identity.Identity); ok {
		return id
	}
	return identity.Identity{}
}

// SetActor は操作主体をコンテキストに設定する
func SetActor(c echo.Context, actor identity.Identity) {
	c.Set(identityKey, actor)
}
