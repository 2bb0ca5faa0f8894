package donations

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bissquit/blood-donation/internal/domain"
	"github.com/bissquit/blood-donation/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// MsgDonationRequestNotFound is the body message for unknown request ids.
const MsgDonationRequestNotFound = "Donation request not found"

// Handler handles HTTP requests for the donations module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new donations handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterPublicRoutes registers routes that need no credentials.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/donation-requests", h.Create)
	r.Get("/donation-requests", h.ListRecent)
	r.Get("/donation-requests/all", h.ListAllForDonor)
	r.Get("/single-donation-requests/{id}", h.GetByID)
	r.Patch("/update-donation-status/{id}", h.UpdateStatus)
	r.Patch("/edit-donation-request/all/{id}", h.FullEdit)
	r.Delete("/delete-donation-requests/{id}", h.Delete)
}

// RegisterProtectedRoutes registers routes that require authentication.
func (h *Handler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/all-blood/donations/request", h.ListAll)
}

// Create handles POST /donation-requests.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	payload, ok := httputil.DecodePatch(w, r)
	if !ok {
		return
	}

	result, err := h.service.Create(r.Context(), payload)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, result)
}

// ListRecent handles GET /donation-requests?requesterEmail=.
func (h *Handler) ListRecent(w http.ResponseWriter, r *http.Request) {
	requests, err := h.service.ListRecent(r.Context(), r.URL.Query().Get("requesterEmail"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, requests)
}

// ListAllForDonor handles GET /donation-requests/all?email=.
func (h *Handler) ListAllForDonor(w http.ResponseWriter, r *http.Request) {
	requests, err := h.service.ListAllForDonor(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, requests)
}

// ListAll handles GET /all-blood/donations/request.
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	requests, err := h.service.ListAll(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, requests)
}

// GetByID handles GET /single-donation-requests/{id}.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	req, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, req)
}

// UpdateStatusRequest represents the body of PATCH /update-donation-status/{id}.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateStatus handles PATCH /update-donation-status/{id}.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	result, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), domain.DonationStatus(req.Status))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

// FullEdit handles PATCH /edit-donation-request/all/{id}.
func (h *Handler) FullEdit(w http.ResponseWriter, r *http.Request) {
	payload, ok := httputil.DecodePatch(w, r)
	if !ok {
		return
	}

	result, err := h.service.FullEdit(r.Context(), chi.URLParam(r, "id"), payload)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

// Delete handles DELETE /delete-donation-requests/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrInvalidFieldType) {
		httputil.ValidationError(w, err)
		return
	}
	httputil.HandleError(r.Context(), w, err, []httputil.ErrorMapping{
		{Error: ErrDonationRequestNotFound, Status: http.StatusNotFound, Message: MsgDonationRequestNotFound},
		{Error: ErrEmailRequired, Status: http.StatusBadRequest},
	})
}
