package cart

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/pitstop-ph/pitstop/internal/catalog"
	"github.com/pitstop-ph/pitstop/internal/domain"
	"github.com/pitstop-ph/pitstop/internal/identity"
	"github.com/pitstop-ph/pitstop/internal/pricing"
)

type Handler struct {
	store    Store
	products *catalog.ProductRepository
	ledgers  *pricing.LedgerRepository
	logger   *slog.Logger
}

func NewHandler(store Store, products *catalog.ProductRepository, ledgers *pricing.LedgerRepository, logger *slog.Logger) *Handler {
	return &Handler{
		store:    store,
		products: products,
		ledgers:  ledgers,
		logger:   logger,
	}
}

type cartView struct {
	Lines    []domain.CartLine `json:"lines"`
	Subtotal decimal.Decimal   `json:"subtotal"`
	Vouchers []pricing.Offer   `json:"available_vouchers"`
	Notice   string            `json:"notice,omitempty"`
}

func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	token, ok := h.sessionToken(w, r)
	if !ok {
		return
	}

	lines, err := h.store.Cart(r.Context(), token)
	if err != nil {
		h.logger.Error("failed to load cart", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeView(w, r, lines, "")
}

type addRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	token, ok := h.sessionToken(w, r)
	if !ok {
		return
	}

	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ProductID == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	// invalid quantities default to one
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	product, err := h.products.GetByID(r.Context(), req.ProductID)
	if err != nil {
		h.logger.Error("failed to get product", "error", err, "product_id", req.ProductID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if product == nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	if product.Stock == 0 {
		h.writeError(w, http.StatusConflict, "product is out of stock")
		return
	}

	lines, err := h.store.Cart(r.Context(), token)
	if err != nil {
		h.logger.Error("failed to load cart", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	notice := ""
	merged := false
	for i := range lines {
		if lines[i].ProductID != product.ID {
			continue
		}
		lines[i].Quantity += req.Quantity
		if lines[i].Quantity > product.Stock {
			lines[i].Quantity = product.Stock
			notice = stockNotice(product)
		}
		merged = true
		break
	}

	if !merged {
		quantity := req.Quantity
		if quantity > product.Stock {
			quantity = product.Stock
			notice = stockNotice(product)
		}
		lines = append(lines, domain.CartLine{
			ProductID: product.ID,
			Name:      product.Name,
			Brand:     product.Brand,
			Model:     product.Model,
			UnitPrice: product.Price,
			Quantity:  quantity,
		})
	}

	if err := h.store.SaveCart(r.Context(), token, lines); err != nil {
		h.logger.Error("failed to save cart", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("cart line added", "product_id", product.ID, "quantity", req.Quantity)
	h.writeView(w, r, lines, notice)
}

type updateRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	token, ok := h.sessionToken(w, r)
	if !ok {
		return
	}

	productID := r.PathValue("productId")
	if productID == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Quantity < 1 {
		req.Quantity = 1
	}

	lines, err := h.store.Cart(r.Context(), token)
	if err != nil {
		h.logger.Error("failed to load cart", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	idx := -1
	for i := range lines {
		if lines[i].ProductID == productID {
			idx = i
			break
		}
	}
	if idx == -1 {
		h.writeError(w, http.StatusNotFound, "product not in cart")
		return
	}

	product, err := h.products.GetByID(r.Context(), productID)
	if err != nil {
		h.logger.Error("failed to get product", "error", err, "product_id", productID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if product == nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	notice := ""
	if req.Quantity > product.Stock {
		req.Quantity = product.Stock
		notice = stockNotice(product)
	}
	lines[idx].Quantity = req.Quantity

	if err := h.store.SaveCart(r.Context(), token, lines); err != nil {
		h.logger.Error("failed to save cart", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("cart line updated", "product_id", productID, "quantity", req.Quantity)
	h.writeView(w, r, lines, notice)
}

func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	token, ok := h.sessionToken(w, r)
	if !ok {
		return
	}

	productID := r.PathValue("productId")
	if productID == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	lines, err := h.store.Cart(r.Context(), token)
	if err != nil {
		h.logger.Error("failed to load cart", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	kept := lines[:0]
	for _, line := range lines {
		if line.ProductID != productID {
			kept = append(kept, line)
		}
	}

	if err := h.store.SaveCart(r.Context(), token, kept); err != nil {
		h.logger.Error("failed to save cart", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("cart line removed", "product_id", productID)
	h.writeView(w, r, kept, "")
}

type beginCheckoutRequest struct {
	VoucherCode string `json:"voucher_code"`
}

type beginCheckoutResponse struct {
	Snapshot domain.CartSnapshot `json:"snapshot"`
	Preview  pricing.Quote       `json:"preview"`
}

// HandleBeginCheckout snapshots the cart with the chosen voucher as the
// pending checkout and returns the pricing preview the payment step will
// reproduce exactly.
func (h *Handler) HandleBeginCheckout(w http.ResponseWriter, r *http.Request) {
	token, ok := h.sessionToken(w, r)
	if !ok {
		return
	}

	customer := identity.FromContext(r.Context())

	var req beginCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lines, err := h.store.Cart(r.Context(), token)
	if err != nil {
		h.logger.Error("failed to load cart", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if len(lines) == 0 {
		h.writeError(w, http.StatusBadRequest, "cart is empty")
		return
	}

	ledger, err := h.ledgers.Get(r.Context(), customer.ID)
	if err != nil {
		h.logger.Error("failed to load ledger", "error", err, "customer_id", customer.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if ledger == nil {
		ledger = &domain.VoucherLedger{CustomerID: customer.ID}
	}

	snapshot := domain.SnapshotCart(lines, req.VoucherCode)

	if err := h.store.SavePendingCheckout(r.Context(), token, snapshot); err != nil {
		h.logger.Error("failed to save pending checkout", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	preview := pricing.Preview(snapshot.Subtotal, snapshot.VoucherCode, *ledger)

	h.logger.Info("checkout started", "customer_id", customer.ID,
		"subtotal", snapshot.Subtotal, "voucher_code", preview.VoucherCode)
	h.writeJSON(w, http.StatusOK, beginCheckoutResponse{Snapshot: snapshot, Preview: preview})
}

func (h *Handler) writeView(w http.ResponseWriter, r *http.Request, lines []domain.CartLine, notice string) {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.Subtotal())
	}

	view := cartView{Lines: lines, Subtotal: subtotal, Notice: notice}
	if view.Lines == nil {
		view.Lines = []domain.CartLine{}
	}

	if account := identity.FromContext(r.Context()); account != nil && account.Role == domain.RoleCustomer {
		ledger, err := h.ledgers.Get(r.Context(), account.ID)
		if err != nil {
			h.logger.Error("failed to load ledger", "error", err, "customer_id", account.ID)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if ledger != nil {
			view.Vouchers = pricing.AvailableOffers(*ledger)
		}
	}

	h.writeJSON(w, http.StatusOK, view)
}

func (h *Handler) sessionToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := r.Header.Get("X-Session-ID")
	if token == "" {
		h.writeError(w, http.StatusBadRequest, "missing session id")
		return "", false
	}
	return token, true
}

func stockNotice(p *domain.Product) string {
	return fmt.Sprintf("Only %d pcs available for %s.", p.Stock, p.Name)
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
