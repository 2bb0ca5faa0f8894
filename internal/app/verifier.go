package app

import (
	"context"
	"fmt"

	"github.com/bissquit/blood-donation/internal/config"
	"github.com/bissquit/blood-donation/internal/identity/firebase"
	"github.com/bissquit/blood-donation/internal/identity/jwt"
	"github.com/bissquit/blood-donation/internal/pkg/httputil"
)

// newVerifier builds the bearer token verifier for the configured auth mode.
// ctx bounds the lifetime of background key refreshes.
func newVerifier(ctx context.Context, cfg config.AuthConfig) (httputil.TokenVerifier, error) {
	switch cfg.Mode {
	case config.AuthModeFirebase:
		v, err := firebase.NewVerifier(ctx, firebase.Config{
			ProjectID: cfg.FirebaseProjectID,
			JWKSURL:   cfg.JWKSURL,
		})
		if err != nil {
			return nil, err
		}
		return v, nil
	case config.AuthModeHMAC:
		a, err := jwt.NewAuthenticator(jwt.Config{
			SecretKey:           cfg.HMACSecret,
			Issuer:              cfg.Issuer,
			Audience:            cfg.Audience,
			AccessTokenDuration: cfg.TokenTTL,
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Mode)
	}
}
