//go:build integration

package app

import (
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/bissquit/blood-donation/internal/config"
	"github.com/bissquit/blood-donation/internal/domain"
	"github.com/bissquit/blood-donation/internal/identity/jwt"
	"github.com/bissquit/blood-donation/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const integrationSecret = "integration-secret"

// backend is one running application wired to a real database.
type backend struct {
	name   string
	server *httptest.Server
	app    *App
}

var (
	backends      []*backend
	testValidator *testutil.OpenAPIValidator
	testTokens    *jwt.Authenticator
)

func integrationConfig(driver, url string) *config.Config {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	cfg.Server.MetricsPort = "0"
	cfg.Log.Level = "error"
	cfg.Database.Driver = driver
	cfg.Database.URL = url
	cfg.Database.Name = "blood_donation_test"
	cfg.Database.ConnectAttempts = 3
	cfg.Database.MigrationsPath = "../../migrations"
	cfg.Auth.Mode = config.AuthModeHMAC
	cfg.Auth.HMACSecret = integrationSecret
	cfg.Authz.EnforceAdminGates = true
	return &cfg
}

func TestMain(m *testing.M) {
	ctx := context.Background()

	pgContainer, err := testutil.NewPostgresContainer(ctx)
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}
	mongoContainer, err := testutil.NewMongoContainer(ctx)
	if err != nil {
		log.Fatalf("start mongo: %v", err)
	}

	testTokens, err = jwt.NewAuthenticator(jwt.Config{SecretKey: integrationSecret})
	if err != nil {
		log.Fatalf("create token issuer: %v", err)
	}

	testValidator, err = testutil.LoadOpenAPIValidator(openAPISpecPath)
	if err != nil {
		log.Fatalf("load OpenAPI validator: %v", err)
	}

	for _, b := range []struct{ name, driver, url string }{
		{name: "postgres", driver: config.DriverPostgres, url: pgContainer.ConnectionString},
		{name: "mongo", driver: config.DriverMongo, url: mongoContainer.URI},
	} {
		application, err := New(integrationConfig(b.driver, b.url))
		if err != nil {
			log.Fatalf("create %s app: %v", b.name, err)
		}
		backends = append(backends, &backend{
			name:   b.name,
			server: httptest.NewServer(application.Router()),
			app:    application,
		})
	}

	code := m.Run()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	for _, b := range backends {
		b.server.Close()
		if err := b.app.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown %s app: %v", b.name, err)
		}
	}
	cancel()

	if err := pgContainer.Terminate(ctx); err != nil {
		log.Printf("terminate postgres: %v", err)
	}
	if err := mongoContainer.Terminate(ctx); err != nil {
		log.Printf("terminate mongo: %v", err)
	}

	os.Exit(code)
}

// forEachBackend runs fn against every storage driver with an OpenAPI validating client.
func forEachBackend(t *testing.T, fn func(t *testing.T, client *testutil.Client)) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			client := testutil.NewClientWithValidator(b.server.URL, testTokens.IssueToken, testValidator)
			client.SetT(t)
			fn(t, client)
		})
	}
}

func register(t *testing.T, client *testutil.Client, email string) string {
	t.Helper()
	resp, err := client.POST("/user", map[string]any{"email": email, "name": "Test Donor", "bloodGroup": "O+"})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result domain.InsertResult
	testutil.DecodeJSON(t, resp, &result)
	require.NotEmpty(t, result.InsertedID)
	return result.InsertedID
}

func TestIntegration_RegisterAndFetchUser(t *testing.T) {
	forEachBackend(t, func(t *testing.T, client *testutil.Client) {
		email := testutil.RandomEmail()
		id := register(t, client, email)

		resp, err := client.WithoutValidation().POST("/user", map[string]any{"email": email})
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Contains(t, testutil.ReadBody(t, resp), "Email is exiting!")

		resp, err = client.As(t, email).GET("/get-user?email=" + email)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var user map[string]any
		testutil.DecodeJSON(t, resp, &user)
		assert.Equal(t, id, user["id"])
		assert.Equal(t, "donor", user["role"])
		assert.Equal(t, "active", user["status"])
		assert.Equal(t, "O+", user["bloodGroup"])

		resp, err = client.GET("/user-single/" + email + "/role")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, testutil.ReadBody(t, resp), `"role":"donor"`)
	})
}

func TestIntegration_ProfileUpdateMergesFields(t *testing.T) {
	forEachBackend(t, func(t *testing.T, client *testutil.Client) {
		email := testutil.RandomEmail()
		id := register(t, client, email)
		user := client.As(t, email)

		resp, err := user.PATCH("/update-user/"+id, map[string]any{"district": "Dhaka"})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result domain.UpdateResult
		testutil.DecodeJSON(t, resp, &result)
		assert.Equal(t, int64(1), result.MatchedCount)

		resp, err = user.GET("/get-user?email=" + email)
		require.NoError(t, err)
		var stored map[string]any
		testutil.DecodeJSON(t, resp, &stored)
		assert.Equal(t, "Dhaka", stored["district"])
		assert.Equal(t, "O+", stored["bloodGroup"])
	})
}

func TestIntegration_AdminGates(t *testing.T) {
	forEachBackend(t, func(t *testing.T, client *testutil.Client) {
		adminEmail := testutil.RandomEmail()
		adminID := register(t, client, adminEmail)
		targetEmail := testutil.RandomEmail()
		targetID := register(t, client, targetEmail)

		resp, err := client.As(t, targetEmail).WithoutValidation().PATCH("/update-user/role/"+adminID, map[string]any{"role": "admin"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, "donors cannot promote")
		_ = resp.Body.Close()

		promoteDirectly(t, client, adminEmail, adminID)

		admin := client.As(t, adminEmail)
		resp, err = admin.PATCH("/update/user/status/"+targetID, map[string]any{"status": "blocked"})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()

		resp, err = client.As(t, targetEmail).WithoutValidation().GET("/all-blood/donations/request")
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, "blocked users are rejected")
		_ = resp.Body.Close()
	})
}

// promoteDirectly grants the admin role through the repositories, bypassing the HTTP gates.
func promoteDirectly(t *testing.T, client *testutil.Client, email, id string) {
	t.Helper()
	for _, b := range backends {
		if b.server.URL != client.BaseURL {
			continue
		}
		role := domain.RoleAdmin
		_, err := b.app.storage.repos.Users.UpdateUser(context.Background(), id, domain.UserPatch{Role: &role})
		require.NoError(t, err, "promote %s", email)
		return
	}
	t.Fatalf("no backend serves %s", client.BaseURL)
}

func TestIntegration_DonationRequestLifecycle(t *testing.T) {
	forEachBackend(t, func(t *testing.T, client *testutil.Client) {
		requester := testutil.RandomEmail()

		var lastID string
		for i := 0; i < 5; i++ {
			resp, err := client.POST("/donation-requests", map[string]any{
				"requesterEmail": requester,
				"status":         "done",
				"bloodGroup":     "A+",
				"sequence":       i,
			})
			require.NoError(t, err)
			require.Equal(t, http.StatusCreated, resp.StatusCode)
			var created domain.InsertResult
			testutil.DecodeJSON(t, resp, &created)
			lastID = created.InsertedID
			time.Sleep(5 * time.Millisecond)
		}

		resp, err := client.GET("/donation-requests?requesterEmail=" + requester)
		require.NoError(t, err)
		var recent []domain.DonationRequest
		testutil.DecodeJSON(t, resp, &recent)
		require.Len(t, recent, 3)
		assert.Equal(t, lastID, recent[0].ID)
		for _, r := range recent {
			assert.Equal(t, domain.DonationStatusPending, r.Status)
		}

		resp, err = client.GET("/donation-requests/all?email=" + requester)
		require.NoError(t, err)
		var all []domain.DonationRequest
		testutil.DecodeJSON(t, resp, &all)
		assert.Len(t, all, 5)

		resp, err = client.PATCH("/update-donation-status/"+lastID, map[string]any{"status": "inprogress"})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()

		resp, err = client.GET("/single-donation-requests/" + lastID)
		require.NoError(t, err)
		var single domain.DonationRequest
		testutil.DecodeJSON(t, resp, &single)
		assert.Equal(t, domain.DonationStatusInProgress, single.Status)
		assert.Equal(t, "A+", single.Attributes["bloodGroup"])

		resp, err = client.DELETE("/delete-donation-requests/" + lastID)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()

		resp, err = client.DELETE("/delete-donation-requests/" + lastID)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Contains(t, testutil.ReadBody(t, resp), "Donation request not found")
	})
}

func TestIntegration_FundingsAndStats(t *testing.T) {
	forEachBackend(t, func(t *testing.T, client *testutil.Client) {
		resp, err := client.GET("/dashboard/donor/count/stats")
		require.NoError(t, err)
		var before domain.DashboardStats
		testutil.DecodeJSON(t, resp, &before)

		for _, amount := range []any{100, 50.5, "not a number"} {
			resp, err := client.POST("/funding", map[string]any{"amount": amount, "name": "Supporter"})
			require.NoError(t, err)
			require.Equal(t, http.StatusCreated, resp.StatusCode)
			_ = resp.Body.Close()
		}
		register(t, client, testutil.RandomEmail())

		resp, err = client.GET("/get-funding")
		require.NoError(t, err)
		var fundings []domain.Funding
		testutil.DecodeJSON(t, resp, &fundings)
		assert.GreaterOrEqual(t, len(fundings), 3)

		resp, err = client.GET("/dashboard/donor/count/stats")
		require.NoError(t, err)
		var after domain.DashboardStats
		testutil.DecodeJSON(t, resp, &after)
		assert.InDelta(t, before.TotalFunding+150.5, after.TotalFunding, 1e-9)
		assert.Equal(t, before.TotalDonors+1, after.TotalDonors)
	})
}

func TestIntegration_Probes(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			client := testutil.NewClient(b.server.URL, testTokens.IssueToken)

			resp, err := client.GET("/readyz")
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			_ = resp.Body.Close()

			resp, err = client.GET("/")
			require.NoError(t, err)
			assert.Equal(t, LivenessMessage, testutil.ReadBody(t, resp))
		})
	}
}
