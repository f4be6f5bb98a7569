package catalog

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/pitstop-ph/pitstop/internal/badge"
	"github.com/pitstop-ph/pitstop/internal/domain"
	"github.com/pitstop-ph/pitstop/internal/identity"
)

type Handler struct {
	repo   *ProductRepository
	logger *slog.Logger
}

func NewHandler(repo *ProductRepository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

type listedProduct struct {
	domain.Product
	YearRange  string      `json:"year_range,omitempty"`
	BadgeLevel badge.Level `json:"seller_badge"`
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter := Filter{
		Brand: r.URL.Query().Get("brand"),
		Model: r.URL.Query().Get("model"),
		Year:  r.URL.Query().Get("year"),
	}

	products, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	sellerSet := make(map[string]bool)
	var sellerIDs []string
	for _, p := range products {
		if !sellerSet[p.SellerID] {
			sellerSet[p.SellerID] = true
			sellerIDs = append(sellerIDs, p.SellerID)
		}
	}

	revenues, err := h.repo.SellerRevenues(r.Context(), sellerIDs)
	if err != nil {
		h.logger.Error("failed to load seller revenues", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	listed := make([]listedProduct, 0, len(products))
	for _, p := range products {
		revenue, ok := revenues[p.SellerID]
		if !ok {
			revenue = decimal.Zero
		}
		listed = append(listed, listedProduct{
			Product:    p,
			YearRange:  p.YearRange(),
			BadgeLevel: badge.Evaluate(revenue).Level,
		})
	}

	h.logger.Info("products listed", "count", len(listed))
	h.writeJSON(w, http.StatusOK, listed)
}

type productDetail struct {
	domain.Product
	Years     []int  `json:"years"`
	YearRange string `json:"year_range,omitempty"`
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	product, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get product", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if product == nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.writeJSON(w, http.StatusOK, productDetail{
		Product:   *product,
		Years:     product.YearList(),
		YearRange: product.YearRange(),
	})
}

type productRequest struct {
	Name            string          `json:"name"`
	Brand           string          `json:"brand"`
	Model           string          `json:"model"`
	CompatibleYears string          `json:"compatible_years"`
	Price           decimal.Decimal `json:"price"`
	Stock           int             `json:"stock"`
}

func (h *Handler) HandleSellerList(w http.ResponseWriter, r *http.Request) {
	seller := identity.FromContext(r.Context())

	products, err := h.repo.ListBySeller(r.Context(), seller.ID)
	if err != nil {
		h.logger.Error("failed to list seller products", "error", err, "seller_id", seller.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, products)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	seller := identity.FromContext(r.Context())

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "product name is required")
		return
	}
	if req.Price.IsNegative() || req.Stock < 0 {
		h.writeError(w, http.StatusBadRequest, "price and stock must not be negative")
		return
	}

	product := &domain.Product{
		SellerID:        seller.ID,
		Name:            req.Name,
		Brand:           req.Brand,
		Model:           req.Model,
		CompatibleYears: req.CompatibleYears,
		Price:           req.Price,
		Stock:           req.Stock,
	}

	if err := h.repo.Create(r.Context(), product); err != nil {
		h.logger.Error("failed to create product", "error", err, "seller_id", seller.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("product created", "product_id", product.ID, "seller_id", seller.ID)
	h.writeJSON(w, http.StatusCreated, product)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	seller := identity.FromContext(r.Context())

	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Price.IsNegative() || req.Stock < 0 {
		h.writeError(w, http.StatusBadRequest, "price and stock must not be negative")
		return
	}

	product := &domain.Product{
		ID:              id,
		SellerID:        seller.ID,
		Name:            req.Name,
		Brand:           req.Brand,
		Model:           req.Model,
		CompatibleYears: req.CompatibleYears,
		Price:           req.Price,
		Stock:           req.Stock,
	}

	ok, err := h.repo.Update(r.Context(), product)
	if err != nil {
		h.logger.Error("failed to update product", "error", err, "product_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !ok {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.logger.Info("product updated", "product_id", id, "seller_id", seller.ID)
	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	seller := identity.FromContext(r.Context())

	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	ok, err := h.repo.Delete(r.Context(), id, seller.ID)
	if err != nil {
		h.logger.Error("failed to delete product", "error", err, "product_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !ok {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.logger.Info("product deleted", "product_id", id, "seller_id", seller.ID)
	w.WriteHeader(http.StatusNoContent)
}

type addStockRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) HandleAddStock(w http.ResponseWriter, r *http.Request) {
	seller := identity.FromContext(r.Context())

	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	var req addStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Quantity <= 0 {
		h.writeError(w, http.StatusBadRequest, "quantity must be positive")
		return
	}

	ok, err := h.repo.AddStock(r.Context(), id, seller.ID, req.Quantity)
	if err != nil {
		h.logger.Error("failed to add stock", "error", err, "product_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !ok {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	product, err := h.repo.GetByID(r.Context(), id)
	if err != nil || product == nil {
		h.logger.Error("failed to reload product after stock add", "error", err, "product_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("stock added", "product_id", id, "quantity", req.Quantity, "stock", product.Stock)
	h.writeJSON(w, http.StatusOK, product)
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
