package orders

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pitstop-ph/pitstop/internal/domain"
	"github.com/pitstop-ph/pitstop/internal/identity"
)

type Handler struct {
	repo   *OrderRepository
	logger *slog.Logger
}

func NewHandler(repo *OrderRepository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

type trackedOrder struct {
	domain.Order
	DeliveryStage domain.DeliveryStage `json:"delivery_stage"`
}

type trackedLine struct {
	domain.OrderLineItem
	Subtotal decimal.Decimal `json:"subtotal"`
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	customer := identity.FromContext(r.Context())

	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.repo.GetByID(r.Context(), id, customer.ID)
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	h.logger.Info("order retrieved", "order_id", order.ID)
	h.writeJSON(w, http.StatusOK, trackedOrder{
		Order:         *order,
		DeliveryStage: order.Stage(time.Now().UTC()),
	})
}

type historyOrder struct {
	trackedOrder
	Lines []trackedLine `json:"lines"`
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	customer := identity.FromContext(r.Context())

	orders, err := h.repo.ListByCustomer(r.Context(), customer.ID)
	if err != nil {
		h.logger.Error("failed to list orders", "error", err, "customer_id", customer.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	now := time.Now().UTC()
	history := make([]historyOrder, 0, len(orders))
	for i := range orders {
		order := orders[i]
		entry := historyOrder{
			trackedOrder: trackedOrder{Order: order, DeliveryStage: order.Stage(now)},
			Lines:        make([]trackedLine, 0, len(order.Items)),
		}
		for _, item := range order.Items {
			entry.Lines = append(entry.Lines, trackedLine{
				OrderLineItem: item,
				Subtotal:      item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
			})
		}
		history = append(history, entry)
	}

	h.logger.Info("orders listed", "customer_id", customer.ID, "count", len(history))
	h.writeJSON(w, http.StatusOK, history)
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
