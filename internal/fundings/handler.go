package fundings

import (
	"net/http"

	"github.com/bissquit/blood-donation/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
)

// Handler handles HTTP requests for the fundings module.
type Handler struct {
	service *Service
}

// NewHandler creates a new fundings handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers funding routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/funding", h.Create)
	r.Get("/get-funding", h.List)
}

// Create handles POST /funding.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	payload, ok := httputil.DecodePatch(w, r)
	if !ok {
		return
	}

	result, err := h.service.Create(r.Context(), payload)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, nil)
		return
	}

	httputil.JSON(w, http.StatusCreated, result)
}

// List handles GET /get-funding.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	fundings, err := h.service.ListAll(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, nil)
		return
	}

	httputil.JSON(w, http.StatusOK, fundings)
}
