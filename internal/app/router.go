package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/bissquit/blood-donation/internal/config"
	"github.com/bissquit/blood-donation/internal/dashboard"
	"github.com/bissquit/blood-donation/internal/domain"
	"github.com/bissquit/blood-donation/internal/donations"
	"github.com/bissquit/blood-donation/internal/fundings"
	"github.com/bissquit/blood-donation/internal/identity"
	"github.com/bissquit/blood-donation/internal/pkg/ctxlog"
	"github.com/bissquit/blood-donation/internal/pkg/httputil"
	"github.com/bissquit/blood-donation/internal/version"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// LivenessMessage is the body of GET /.
const LivenessMessage = "Blood Donation Server Running 🩸"

// Repositories are the storage ports the HTTP services are built on.
type Repositories struct {
	Users            identity.Repository
	DonationRequests donations.Repository
	Fundings         fundings.Repository
}

func newRouter(
	cfg *config.Config,
	logger *slog.Logger,
	repos Repositories,
	verifier httputil.TokenVerifier,
	ready func(ctx context.Context) error,
) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)

	// CORS must be early to handle preflight requests before other middleware
	r.Use(httputil.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	if cfg.RateLimit.Enabled {
		limiter := httputil.NewRateLimiter(httputil.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		})
		r.Use(limiter.Middleware)
	}

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		httputil.Text(w, http.StatusOK, LivenessMessage)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.Text(w, http.StatusOK, "OK")
	})
	r.Get("/readyz", readyzHandler(ready))
	r.Get("/version", versionHandler)
	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-yaml")
		http.ServeFile(w, r, "api/openapi/openapi.yaml")
	})

	identityService := identity.NewService(repos.Users)
	donationsService := donations.NewService(repos.DonationRequests)
	fundingsService := fundings.NewService(repos.Fundings)
	dashboardService := dashboard.NewService(identityService, donationsService, fundingsService)

	identityHandler := identity.NewHandler(identityService)
	donationsHandler := donations.NewHandler(donationsService)
	fundingsHandler := fundings.NewHandler(fundingsService)
	dashboardHandler := dashboard.NewHandler(dashboardService)

	identityHandler.RegisterPublicRoutes(r)
	donationsHandler.RegisterPublicRoutes(r)
	fundingsHandler.RegisterRoutes(r)
	dashboardHandler.RegisterRoutes(r)

	authenticate := httputil.Authenticate(verifier)
	activeUser := httputil.RequireActiveUser(identityService)

	r.Group(func(r chi.Router) {
		r.Use(authenticate)
		if cfg.Authz.EnforceAdminGates {
			r.Use(activeUser)
		}

		identityHandler.RegisterProtectedRoutes(r)
		donationsHandler.RegisterProtectedRoutes(r)
	})

	if cfg.Authz.EnforceAdminGates {
		r.Group(func(r chi.Router) {
			r.Use(authenticate, activeUser, httputil.RequireRole(identityService, domain.RoleAdmin))
			identityHandler.RegisterAccountRoutes(r)
		})
	} else {
		identityHandler.RegisterAccountRoutes(r)
	}

	return r
}

func readyzHandler(ready func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := ready(ctx); err != nil {
			ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
			httputil.Text(w, http.StatusServiceUnavailable, "Database unavailable")
			return
		}

		httputil.Text(w, http.StatusOK, "OK")
	}
}

func versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, version.Get())
}
