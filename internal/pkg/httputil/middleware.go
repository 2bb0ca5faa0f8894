package httputil

import (
	"context"
	"net/http"
	"strings"

	"github.com/bissquit/blood-donation/internal/domain"
	"github.com/bissquit/blood-donation/internal/pkg/ctxlog"
	"github.com/bissquit/blood-donation/internal/pkg/metrics"
)

// CORSMiddleware creates CORS middleware that handles preflight requests
// and adds appropriate CORS headers to responses.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	originsSet := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originsSet[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if originsSet[origin] || originsSet["*"] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Error messages written by the authorization gates.
const (
	MsgUnauthorized = "unauthorized access"
	MsgForbidden    = "forbidden access"
	MsgUserNotFound = "User not found"
	MsgInternal     = "internal server error"
)

// TokenVerifier verifies a bearer credential and returns the email of the verified principal.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (email string, err error)
}

// UserLookup resolves a user record by email. found is false when no user has that email.
type UserLookup interface {
	LookupUser(ctx context.Context, email string) (user *domain.User, found bool, err error)
}

// Principal is the per-request authorization context. Authenticate creates it with
// the verified email; the first gate that needs the user record loads it and later
// gates reuse the loaded record.
type Principal struct {
	Email string

	user   *domain.User
	loaded bool
}

// User returns the loaded user record, or nil if no gate has loaded it yet or the user does not exist.
func (p *Principal) User() *domain.User {
	return p.user
}

func (p *Principal) resolve(ctx context.Context, lookup UserLookup) (*domain.User, error) {
	if p.loaded {
		return p.user, nil
	}
	user, found, err := lookup.LookupUser(ctx, p.Email)
	if err != nil {
		return nil, err
	}
	if !found {
		user = nil
	}
	p.user = user
	p.loaded = true
	return user, nil
}

type principalKey struct{}

// WithPrincipal binds a principal to the context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal bound by Authenticate.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil && p.Email != ""
}

// GetEmail extracts the authenticated email from context.
func GetEmail(ctx context.Context) string {
	if p, ok := PrincipalFromContext(ctx); ok {
		return p.Email
	}
	return ""
}

// Authenticate creates authentication middleware. It requires an
// "Authorization: Bearer <token>" header and binds the verified email to the request.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				reject(w, "authenticate", http.StatusUnauthorized, MsgUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				reject(w, "authenticate", http.StatusUnauthorized, MsgUnauthorized)
				return
			}

			email, err := verifier.VerifyToken(r.Context(), strings.TrimSpace(parts[1]))
			if err != nil || email == "" {
				ctxlog.FromContext(r.Context()).Debug("token verification failed", "error", err)
				reject(w, "authenticate", http.StatusUnauthorized, MsgUnauthorized)
				return
			}

			ctx := WithPrincipal(r.Context(), &Principal{Email: email})
			ctx = ctxlog.With(ctx, "principal", email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireActiveUser loads the principal's user record and rejects blocked accounts.
// It must run after Authenticate.
func RequireActiveUser(lookup UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				reject(w, "status", http.StatusUnauthorized, MsgUnauthorized)
				return
			}

			user, err := p.resolve(r.Context(), lookup)
			if err != nil {
				ctxlog.FromContext(r.Context()).Error("load principal", "error", err)
				Error(w, http.StatusInternalServerError, MsgInternal)
				return
			}
			if user == nil {
				reject(w, "status", http.StatusNotFound, MsgUserNotFound)
				return
			}
			if user.IsBlocked() {
				reject(w, "status", http.StatusForbidden, MsgForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole creates a role gate. It reuses the user record loaded by
// RequireActiveUser when present and loads it otherwise.
func RequireRole(lookup UserLookup, role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				reject(w, "role", http.StatusUnauthorized, MsgUnauthorized)
				return
			}

			user, err := p.resolve(r.Context(), lookup)
			if err != nil {
				ctxlog.FromContext(r.Context()).Error("load principal", "error", err)
				Error(w, http.StatusInternalServerError, MsgInternal)
				return
			}
			if user == nil || user.Role != role {
				reject(w, "role", http.StatusForbidden, MsgForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func reject(w http.ResponseWriter, stage string, status int, message string) {
	metrics.AuthRejections.WithLabelValues(stage, http.StatusText(status)).Inc()
	Error(w, status, message)
}
