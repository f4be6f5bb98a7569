// Package worker consumes order events and fans out notifications: a receipt
// to the customer and low-stock alerts to affected sellers.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pitstop-ph/pitstop/internal/domain"
)

type ReceiptHandler struct {
	emailServiceURL string
	httpClient      *http.Client
	logger          *slog.Logger
}

func NewReceiptHandler(emailServiceURL string, client *http.Client, logger *slog.Logger) *ReceiptHandler {
	return &ReceiptHandler{
		emailServiceURL: emailServiceURL,
		httpClient:      client,
		logger:          logger,
	}
}

// Handle processes one order.placed event. The receipt email must go out for
// the message to commit; seller alerts are best-effort.
func (h *ReceiptHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order placed event: %w", err)
	}

	h.logger.Info("processing order placed event", "order_id", event.OrderID, "customer_id", event.CustomerID)

	if err := h.sendReceipt(ctx, event); err != nil {
		h.logger.Error("failed to send receipt", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("send receipt: %w", err)
	}

	for _, alert := range event.StockAlerts {
		if err := h.sendStockAlert(ctx, alert); err != nil {
			h.logger.Error("failed to send stock alert", "error", err,
				"order_id", event.OrderID, "product_id", alert.ProductID)
		}
	}

	h.logger.Info("order notifications sent", "order_id", event.OrderID, "stock_alerts", len(event.StockAlerts))
	return nil
}

func (h *ReceiptHandler) sendReceipt(ctx context.Context, event domain.OrderPlacedEvent) error {
	units := 0
	for _, item := range event.Items {
		units += item.Quantity
	}

	return h.sendEmail(ctx, map[string]string{
		"to":      event.CustomerID + "@example.com",
		"subject": "Your Pitstop order " + event.OrderID,
		"body": fmt.Sprintf("Thanks for your order! %d item(s), total ₱%s. Track it anytime from your order history.",
			units, event.FinalTotal.StringFixed(2)),
	})
}

func (h *ReceiptHandler) sendStockAlert(ctx context.Context, alert domain.StockAlert) error {
	return h.sendEmail(ctx, map[string]string{
		"to":      alert.SellerID + "@example.com",
		"subject": "Low stock: " + alert.ProductName,
		"body": fmt.Sprintf("%s is down to %d pc(s) after a sale. Restock from your seller dashboard.",
			alert.ProductName, alert.Remaining),
	})
}

func (h *ReceiptHandler) sendEmail(ctx context.Context, body map[string]string) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.emailServiceURL+"/send", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}
