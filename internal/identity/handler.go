package identity

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bissquit/blood-donation/internal/domain"
	"github.com/bissquit/blood-donation/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Handler handles HTTP requests for the identity module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new identity handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterPublicRoutes registers routes that need no credentials.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/user", h.Register)
	r.Get("/user-single/{email}/role", h.GetRole)
	r.Get("/user/status/filter", h.ListByStatus)
}

// RegisterProtectedRoutes registers routes that require authentication.
func (h *Handler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/get-user", h.GetUser)
	r.Patch("/update-user/{id}", h.UpdateProfile)
}

// RegisterAccountRoutes registers the role and status mutation routes.
// The caller decides which gates guard them.
func (h *Handler) RegisterAccountRoutes(r chi.Router) {
	r.Patch("/update-user/role/{id}", h.UpdateRole)
	r.Patch("/update/user/status/{id}", h.UpdateStatus)
}

// RegisterRequest represents the fields of a registration body that are validated.
// The whole body is stored as the user profile.
type RegisterRequest struct {
	Email string `validate:"required,email"`
}

// Register handles POST /user.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	payload, ok := httputil.DecodePatch(w, r)
	if !ok {
		return
	}

	email, _ := payload["email"].(string)
	if err := h.validator.Struct(RegisterRequest{Email: email}); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	result, err := h.service.Register(r.Context(), payload)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, result)
}

// GetUser handles GET /get-user?email=.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUserByEmail(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, user)
}

// RoleResponse is the body of GET /user-single/{email}/role.
type RoleResponse struct {
	Role domain.Role `json:"role"`
}

// GetRole handles GET /user-single/{email}/role.
func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.service.GetRoleByEmail(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, RoleResponse{Role: role})
}

// UpdateProfile handles PATCH /update-user/{id}.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	payload, ok := httputil.DecodePatch(w, r)
	if !ok {
		return
	}

	result, err := h.service.UpdateProfile(r.Context(), chi.URLParam(r, "id"), payload)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

// ListByStatus handles GET /user/status/filter?status=.
func (h *Handler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	status := domain.UserStatus(r.URL.Query().Get("status"))

	users, err := h.service.ListUsers(r.Context(), status)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, users)
}

// UpdateRoleRequest represents the body of PATCH /update-user/role/{id}.
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// UpdateRole handles PATCH /update-user/role/{id}.
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	result, err := h.service.UpdateRole(r.Context(), chi.URLParam(r, "id"), domain.Role(req.Role))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

// UpdateStatusRequest represents the body of PATCH /update/user/status/{id}.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateStatus handles PATCH /update/user/status/{id}.
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

	result, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), domain.UserStatus(req.Status))
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
		{Error: ErrUserNotFound, Status: http.StatusNotFound, Message: httputil.MsgUserNotFound},
		{Error: ErrEmailExists, Status: http.StatusConflict, Message: "Email is exiting!"},
		{Error: ErrEmailRequired, Status: http.StatusBadRequest},
		{Error: ErrEmptyUpdate, Status: http.StatusBadRequest},
	})
}
