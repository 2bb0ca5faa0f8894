package dashboard

import (
	"net/http"

	"github.com/bissquit/blood-donation/internal/pkg/ctxlog"
	"github.com/bissquit/blood-donation/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
)

// MsgStatsFailed is returned when statistics cannot be computed.
const MsgStatsFailed = "Failed to load dashboard stats"

// Handler handles HTTP requests for the dashboard module.
type Handler struct {
	service *Service
}

// NewHandler creates a new dashboard handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers dashboard routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard/donor/count/stats", h.Stats)
}

// Stats handles GET /dashboard/donor/count/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		ctxlog.FromContext(r.Context()).Error("dashboard stats", "error", err)
		httputil.Error(w, http.StatusInternalServerError, MsgStatsFailed)
		return
	}

	httputil.JSON(w, http.StatusOK, stats)
}
