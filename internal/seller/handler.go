package seller

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pitstop-ph/pitstop/internal/identity"
)

type Handler struct {
	repo   *DashboardRepository
	logger *slog.Logger
}

func NewHandler(repo *DashboardRepository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	seller := identity.FromContext(r.Context())

	dashboard, err := h.repo.Load(r.Context(), seller.ID)
	if err != nil {
		h.logger.Error("failed to load seller dashboard", "error", err, "seller_id", seller.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("seller dashboard loaded", "seller_id", seller.ID,
		"total_revenue", dashboard.TotalRevenue, "badge", dashboard.Badge.Level)
	h.writeJSON(w, http.StatusOK, dashboard)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
