package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bissquit/blood-donation/internal/config"
	"github.com/bissquit/blood-donation/internal/domain"
	"github.com/bissquit/blood-donation/internal/identity/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	router   http.Handler
	users    *memUsers
	requests *memDonationRequests
	fundings *memFundings
	tokens   *jwt.Authenticator
}

func newTestEnv(t *testing.T, enforceAdminGates bool) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Auth.Mode = config.AuthModeHMAC
	cfg.Auth.HMACSecret = "test-secret"
	cfg.Authz.EnforceAdminGates = enforceAdminGates

	tokens, err := jwt.NewAuthenticator(jwt.Config{SecretKey: cfg.Auth.HMACSecret})
	require.NoError(t, err)

	env := &testEnv{
		users:    &memUsers{},
		requests: &memDonationRequests{},
		fundings: &memFundings{},
		tokens:   tokens,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env.router = newRouter(&cfg, logger, Repositories{
		Users:            env.users,
		DonationRequests: env.requests,
		Fundings:         env.fundings,
	}, tokens, func(context.Context) error { return nil })

	return env
}

func (e *testEnv) do(t *testing.T, method, path, body, email string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if email != "" {
		token, err := e.tokens.IssueToken(email)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) addUser(email string, role domain.Role, status domain.UserStatus) *domain.User {
	u := &domain.User{
		ID:         email,
		Email:      email,
		Role:       role,
		Status:     status,
		CreatedAt:  time.Now().UTC(),
		Attributes: domain.Attributes{},
	}
	e.users.users = append(e.users.users, u)
	return u
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

func TestRouter_Probes(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, LivenessMessage, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/version", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version"`)
}

func TestRouter_ReadyzReportsStorageFailure(t *testing.T) {
	cfg := config.Default()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens, err := jwt.NewAuthenticator(jwt.Config{SecretKey: "s"})
	require.NoError(t, err)
	router := newRouter(&cfg, logger, Repositories{
		Users:            &memUsers{},
		DonationRequests: &memDonationRequests{},
		Fundings:         &memFundings{},
	}, tokens, func(context.Context) error { return errors.New("connection refused") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_RegisterTwiceConflicts(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/user", `{"email":"a@x.com","name":"Alice"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/user", `{"email":"a@x.com","name":"Again"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Email is exiting!", message(t, rec))
	assert.Len(t, env.users.users, 1)
}

func TestRouter_DonationRequestStatusForcedToPending(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/donation-requests",
		`{"requesterEmail":"a@x.com","status":"done","bloodGroup":"A+"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	require.Len(t, env.requests.requests, 1)
	assert.Equal(t, domain.DonationStatusPending, env.requests.requests[0].Status)
	assert.Equal(t, "A+", env.requests.requests[0].Attributes["bloodGroup"])
}

func TestRouter_DeleteMissingDonationRequest(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodDelete, "/delete-donation-requests/does-not-exist", "", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Donation request not found", message(t, rec))
}

func TestRouter_RecentDonationRequests(t *testing.T) {
	env := newTestEnv(t, false)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		env.requests.requests = append(env.requests.requests, &domain.DonationRequest{
			ID:             string(rune('a' + i)),
			RequesterEmail: "a@x.com",
			Status:         domain.DonationStatusPending,
			CreatedAt:      base.Add(time.Duration(i) * time.Hour),
			Attributes:     domain.Attributes{},
		})
	}

	rec := env.do(t, http.MethodGet, "/donation-requests?requesterEmail=a@x.com", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []domain.DonationRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 3)
	assert.Equal(t, []string{"e", "d", "c"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestRouter_FullEditRefreshesCreatedAt(t *testing.T) {
	env := newTestEnv(t, false)
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	env.requests.requests = append(env.requests.requests, &domain.DonationRequest{
		ID:             "r1",
		RequesterEmail: "a@x.com",
		Status:         domain.DonationStatusPending,
		CreatedAt:      old,
		Attributes:     domain.Attributes{"hospital": "City"},
	})

	rec := env.do(t, http.MethodPatch, "/edit-donation-request/all/r1",
		`{"hospital":"General","createdAt":"2001-01-01T00:00:00Z"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	stored := env.requests.requests[0]
	assert.Equal(t, "General", stored.Attributes["hospital"])
	assert.True(t, stored.CreatedAt.After(old))
}

func TestRouter_AuthenticatedRoutes(t *testing.T) {
	env := newTestEnv(t, false)
	env.addUser("a@x.com", domain.RoleDonor, domain.UserStatusActive)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "no header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "not bearer", header: "Token abc", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer abc.def.ghi", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/get-user?email=a@x.com", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			env.router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "unauthorized access", message(t, rec))
		})
	}

	rec := env.do(t, http.MethodGet, "/get-user?email=a@x.com", "", "a@x.com")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"a@x.com"`)
}

func TestRouter_DashboardStatsOnEmptyStore(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodGet, "/dashboard/donor/count/stats", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"totalAdmins":0,"totalVolunteers":0,"totalDonors":0,"totalRequests":0,"totalFunding":0}`,
		rec.Body.String())
}

func TestRouter_DashboardStatsAggregates(t *testing.T) {
	env := newTestEnv(t, false)
	env.addUser("admin@x.com", domain.RoleAdmin, domain.UserStatusActive)
	env.addUser("d1@x.com", domain.RoleDonor, domain.UserStatusActive)
	env.addUser("d2@x.com", domain.RoleDonor, domain.UserStatusBlocked)

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/funding", `{"amount":25.5}`, "").Code)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/funding", `{"amount":"n/a"}`, "").Code)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/donation-requests", `{"requesterEmail":"d1@x.com"}`, "").Code)

	rec := env.do(t, http.MethodGet, "/dashboard/donor/count/stats", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var stats domain.DashboardStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(1), stats.TotalAdmins)
	assert.Equal(t, int64(2), stats.TotalDonors)
	assert.Equal(t, int64(1), stats.TotalRequests)
	assert.InDelta(t, 25.5, stats.TotalFunding, 1e-9)
}

func TestRouter_AccountRoutesOpenWithoutAdminGates(t *testing.T) {
	env := newTestEnv(t, false)
	u := env.addUser("a@x.com", domain.RoleDonor, domain.UserStatusActive)

	rec := env.do(t, http.MethodPatch, "/update-user/role/"+u.ID, `{"role":"volunteer"}`, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.RoleVolunteer, u.Role)
}

func TestRouter_AdminGates(t *testing.T) {
	env := newTestEnv(t, true)
	env.addUser("admin@x.com", domain.RoleAdmin, domain.UserStatusActive)
	env.addUser("donor@x.com", domain.RoleDonor, domain.UserStatusActive)
	env.addUser("blocked@x.com", domain.RoleAdmin, domain.UserStatusBlocked)
	target := env.addUser("target@x.com", domain.RoleDonor, domain.UserStatusActive)

	tests := []struct {
		name       string
		email      string
		wantStatus int
	}{
		{name: "anonymous", email: "", wantStatus: http.StatusUnauthorized},
		{name: "non-admin", email: "donor@x.com", wantStatus: http.StatusForbidden},
		{name: "blocked admin", email: "blocked@x.com", wantStatus: http.StatusForbidden},
		{name: "unknown principal", email: "ghost@x.com", wantStatus: http.StatusNotFound},
		{name: "admin", email: "admin@x.com", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPatch, "/update/user/status/"+target.ID, `{"status":"blocked"}`, tt.email)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}

	assert.Equal(t, domain.UserStatusBlocked, target.Status)
}

func TestRouter_AdminGatesBlockAuthenticatedRoutes(t *testing.T) {
	env := newTestEnv(t, true)
	env.addUser("blocked@x.com", domain.RoleDonor, domain.UserStatusBlocked)

	rec := env.do(t, http.MethodGet, "/get-user?email=blocked@x.com", "", "blocked@x.com")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden access", message(t, rec))
}
