// Package jwtauth はローカル開発用のHMAC署名JWTを発行・検証する
package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sanosuguru/sportup/internal/domain/identity"
)

var ErrSecretRequired = errors.New("JWTシークレットが設定されていません")

// Claims はトークンに含めるクレーム
type Claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator はHS256トークンの発行と検証を行う
type Authenticator struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// New はAuthenticatorを作成する
func New(secret, issuer string, ttl time.Duration) (*Authenticator, error) {
	if secret == "" {
		return nil, ErrSecretRequired
	}
	return &Authenticator{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue はトークンを発行する
func (a *Authenticator) Issue(uid, name, email string) (string, error) {
	if uid == "" {
		return "", errors.New("UIDは必須です")
	}
	now := a.now()
	claims := Claims{
		Name:  name,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("トークンの署名に失敗しました: %w", err)
	}
	return signed, nil
}

// Verify はトークンを検証する
func (a *Authenticator) Verify(_ context.Context, token string) (identity.Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("%w: %w", identity.ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return identity.Identity{}, fmt.Errorf("%w: subject がありません", identity.ErrInvalidToken)
	}
	return identity.Identity{
		UID:         claims.Subject,
		DisplayName: claims.Name,
		Email:       claims.Email,
	}, nil
}

var _ identity.Verifier = (*Authenticator)(nil)
