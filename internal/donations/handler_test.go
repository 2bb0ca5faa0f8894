package donations

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bissquit/blood-donation/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(repo *mockRepository) http.Handler {
	h := NewHandler(NewService(repo))
	r := chi.NewRouter()
	h.RegisterPublicRoutes(r)
	h.RegisterProtectedRoutes(r)
	return r
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandler_CreateAndGet(t *testing.T) {
	repo := newMockRepository()
	router := newTestRouter(repo)

	rec := doRequest(t, router, http.MethodPost, "/donation-requests",
		`{"requesterEmail":"a@x.com","status":"done","recipientName":"Bob"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created domain.InsertResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.InsertedID)

	rec = doRequest(t, router, http.MethodGet, "/single-donation-requests/"+created.InsertedID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, created.InsertedID, body["id"])
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, "Bob", body["recipientName"])
}

func TestHandler_GetByID_NotFound(t *testing.T) {
	router := newTestRouter(newMockRepository())

	rec := doRequest(t, router, http.MethodGet, "/single-donation-requests/missing", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Donation request not found"}`, rec.Body.String())
}

func TestHandler_ListRecent(t *testing.T) {
	repo := newMockRepository()
	seed(repo, "a@x.com", 5, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	router := newTestRouter(repo)

	rec := doRequest(t, router, http.MethodGet, "/donation-requests?requesterEmail=a@x.com", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var requests []domain.DonationRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &requests))
	require.Len(t, requests, 3)
	assert.True(t, requests[0].CreatedAt.After(requests[1].CreatedAt))
	assert.True(t, requests[1].CreatedAt.After(requests[2].CreatedAt))
}

func TestHandler_ListAllForDonor_RequiresEmail(t *testing.T) {
	repo := newMockRepository()
	seed(repo, "a@x.com", 5, time.Now())
	router := newTestRouter(repo)

	rec := doRequest(t, router, http.MethodGet, "/donation-requests/all", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/donation-requests/all?email=a@x.com", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var requests []domain.DonationRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &requests))
	assert.Len(t, requests, 5)
}

func TestHandler_ListAll_EmptyIsArray(t *testing.T) {
	router := newTestRouter(newMockRepository())

	rec := doRequest(t, router, http.MethodGet, "/all-blood/donations/request", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHandler_UpdateStatus(t *testing.T) {
	repo := newMockRepository()
	seed(repo, "a@x.com", 1, time.Now())
	router := newTestRouter(repo)

	rec := doRequest(t, router, http.MethodPatch, "/update-donation-status/req-1", `{"status":"inprogress"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.DonationStatusInProgress, repo.requests[0].Status)

	rec = doRequest(t, router, http.MethodPatch, "/update-donation-status/req-1", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_FullEdit(t *testing.T) {
	repo := newMockRepository()
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seed(repo, "a@x.com", 1, created)
	router := newTestRouter(repo)

	rec := doRequest(t, router, http.MethodPatch, "/edit-donation-request/all/req-1", `{"district":"Khulna"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Khulna", repo.requests[0].Attributes["district"])
	assert.True(t, repo.requests[0].CreatedAt.After(created))
}

func TestHandler_Delete(t *testing.T) {
	repo := newMockRepository()
	seed(repo, "a@x.com", 1, time.Now())
	router := newTestRouter(repo)

	rec := doRequest(t, router, http.MethodDelete, "/delete-donation-requests/req-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"acknowledged":true,"deletedCount":1}`, rec.Body.String())

	rec = doRequest(t, router, http.MethodDelete, "/delete-donation-requests/req-1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Donation request not found"}`, rec.Body.String())
}
