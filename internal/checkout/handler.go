package checkout

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/pitstop-ph/pitstop/internal/cart"
	"github.com/pitstop-ph/pitstop/internal/domain"
	"github.com/pitstop-ph/pitstop/internal/identity"
	"github.com/pitstop-ph/pitstop/internal/messaging"
)

type Handler struct {
	service  *Service
	sessions cart.Store
	producer *messaging.Producer
	logger   *slog.Logger
}

func NewHandler(service *Service, sessions cart.Store, producer *messaging.Producer, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		sessions: sessions,
		producer: producer,
		logger:   logger,
	}
}

type paymentRequest struct {
	PaymentMethod string `json:"payment_method"`
}

// HandlePayment commits the session's pending checkout. The mock payment
// always succeeds; the transaction either fully applies or the pending
// checkout stays intact for a retry.
func (h *Handler) HandlePayment(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Session-ID")
	if token == "" {
		h.writeError(w, http.StatusBadRequest, "missing session id")
		return
	}

	customer := identity.FromContext(r.Context())

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.PaymentMethod == "" {
		req.PaymentMethod = "COD"
	}

	pending, err := h.sessions.PendingCheckout(r.Context(), token)
	if err != nil {
		h.logger.Error("failed to load pending checkout", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if pending == nil {
		h.writeError(w, http.StatusConflict, "no pending checkout")
		return
	}

	order, alerts, err := h.service.PlaceOrder(r.Context(), customer.ID, *pending, req.PaymentMethod)
	if err != nil {
		if errors.Is(err, ErrEmptyCart) {
			h.writeError(w, http.StatusBadRequest, "cart is empty")
			return
		}
		h.logger.Error("failed to place order", "error", err, "customer_id", customer.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := h.sessions.Clear(r.Context(), token); err != nil {
		// the order is committed; a stale session cart is recoverable
		h.logger.Error("failed to clear session after checkout", "error", err, "order_id", order.ID)
	}

	if h.producer != nil {
		event := domain.OrderPlacedEvent{
			OrderID:     order.ID,
			CustomerID:  order.CustomerID,
			FinalTotal:  order.FinalTotal,
			Items:       order.Items,
			StockAlerts: alerts,
			Timestamp:   order.CreatedAt,
		}
		if err := h.producer.Publish(r.Context(), order.ID, event); err != nil {
			h.logger.Error("failed to publish order placed event", "error", err, "order_id", order.ID)
		}
	}

	h.logger.Info("payment accepted", "order_id", order.ID, "customer_id", customer.ID,
		"payment_method", order.PaymentMethod)
	h.writeJSON(w, http.StatusCreated, receipt{
		Order:         *order,
		DeliveryStage: order.Stage(time.Now().UTC()),
	})
}

type receipt struct {
	Order         domain.Order         `json:"order"`
	DeliveryStage domain.DeliveryStage `json:"delivery_stage"`
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
