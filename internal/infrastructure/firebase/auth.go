package firebase

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"

	"github.com/sanosuguru/sportup/internal/domain/identity"
)

// TokenVerifier はFirebase IDトークンを検証する
type TokenVerifier struct {
	client *auth.Client
}

// NewTokenVerifier はTokenVerifierを作成する
func NewTokenVerifier(ctx context.Context, app *firebase.App) (*TokenVerifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("Firebase Authクライアントの作成に失敗しました: %w", err)
	}
	return &TokenVerifier{client: client}, nil
}

// Verify はIDトークンを検証する
func (v *TokenVerifier) Verify(ctx context.Context, token string) (identity.Identity, error) {
	tok, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("%w: %w", identity.ErrInvalidToken, err)
	}
	return identityFromClaims(tok.UID, tok.Claims), nil
}

func identityFromClaims(uid string, claims map[string]interface{}) identity.Identity {
	id := identity.Identity{UID: uid}
	if name, ok := claims["name"].(string); ok {
		id.DisplayName = name
	}
	if email, ok := claims["email"].(string); ok {
		id.Email = email
	}
	return id
}

var _ identity.Verifier = (*TokenVerifier)(nil)
