// Package jwt issues and verifies HMAC-signed access tokens for local and test deployments.
package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bissquit/blood-donation/internal/identity"
	"github.com/golang-jwt/jwt/v5"
)

// Config contains JWT configuration.
type Config struct {
	SecretKey           string
	Issuer              string
	Audience            string
	AccessTokenDuration time.Duration
}

// Claims are the claims carried by an access token.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Authenticator signs and validates HS256 tokens.
type Authenticator struct {
	config Config
	now    func() time.Time
}

// NewAuthenticator creates a new JWT authenticator.
func NewAuthenticator(cfg Config) (*Authenticator, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("jwt secret key is required")
	}
	if cfg.AccessTokenDuration <= 0 {
		cfg.AccessTokenDuration = time.Hour
	}
	return &Authenticator{config: cfg, now: time.Now}, nil
}

// IssueToken creates a signed access token for email.
func (a *Authenticator) IssueToken(email string) (string, error) {
	if email == "" {
		return "", identity.ErrEmailRequired
	}

	now := a.now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    a.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.config.AccessTokenDuration)),
		},
	}
	if a.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{a.config.Audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.config.SecretKey))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates the token and returns its email claim.
func (a *Authenticator) VerifyToken(_ context.Context, token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	}
	if a.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.config.Issuer))
	}
	if a.config.Audience != "" {
		opts = append(opts, jwt.WithAudience(a.config.Audience))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(a.config.SecretKey), nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", identity.ErrInvalidCredential, err)
	}

	if claims.Email == "" {
		return "", fmt.Errorf("%w: missing email claim", identity.ErrInvalidCredential)
	}
	return claims.Email, nil
}
