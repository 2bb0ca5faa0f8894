// Package firebase verifies Firebase Authentication ID tokens.
package firebase

import (
	"context"
	"fmt"

	"github.com/bissquit/blood-donation/internal/identity"
	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

// DefaultJWKSURL serves the public keys Firebase signs ID tokens with.
const DefaultJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

const issuerPrefix = "https://securetoken.google.com/"

// Config contains Firebase verifier configuration.
type Config struct {
	ProjectID string
	JWKSURL   string
}

// Verifier checks ID token signatures against the project's key set and
// extracts the email claim.
type Verifier struct {
	projectID string
	keys      func(ctx context.Context) (jwk.Set, error)
}

// NewVerifier creates a verifier backed by a refreshing JWKS cache.
func NewVerifier(ctx context.Context, cfg Config) (*Verifier, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("firebase project id is required")
	}
	url := cfg.JWKSURL
	if url == "" {
		url = DefaultJWKSURL
	}

	cache, err := jwk.NewCache(ctx, httprc.NewClient())
	if err != nil {
		return nil, fmt.Errorf("create jwk cache: %w", err)
	}
	if err := cache.Register(ctx, url); err != nil {
		return nil, fmt.Errorf("register jwks url: %w", err)
	}

	return &Verifier{
		projectID: cfg.ProjectID,
		keys: func(ctx context.Context) (jwk.Set, error) {
			return cache.Lookup(ctx, url)
		},
	}, nil
}

// NewVerifierWithKeySet creates a verifier for a fixed key set.
func NewVerifierWithKeySet(projectID string, set jwk.Set) *Verifier {
	return &Verifier{
		projectID: projectID,
		keys: func(context.Context) (jwk.Set, error) {
			return set, nil
		},
	}
}

// VerifyToken validates signature, issuer, audience and lifetime, then returns the email claim.
func (v *Verifier) VerifyToken(ctx context.Context, token string) (string, error) {
	set, err := v.keys(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch jwks: %w", err)
	}

	parsed, err := jwt.Parse(
		[]byte(token),
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
		jwt.WithIssuer(issuerPrefix+v.projectID),
		jwt.WithAudience(v.projectID),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", identity.ErrInvalidCredential, err)
	}

	if sub, ok := parsed.Subject(); !ok || sub == "" {
		return "", fmt.Errorf("%w: missing subject", identity.ErrInvalidCredential)
	}

	var email string
	if err := parsed.Get("email", &email); err != nil || email == "" {
		return "", fmt.Errorf("%w: missing email claim", identity.ErrInvalidCredential)
	}

	return email, nil
}
