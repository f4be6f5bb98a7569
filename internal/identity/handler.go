package identity

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pitstop-ph/pitstop/internal/domain"
	"github.com/pitstop-ph/pitstop/internal/pricing"
)

type Handler struct {
	repo    *AccountRepository
	ledgers *pricing.LedgerRepository
	logger  *slog.Logger
}

func NewHandler(repo *AccountRepository, ledgers *pricing.LedgerRepository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:    repo,
		ledgers: ledgers,
		logger:  logger,
	}
}

type profileResponse struct {
	domain.Account
	Ledger   *domain.VoucherLedger `json:"ledger,omitempty"`
	Vouchers []pricing.Offer       `json:"available_vouchers,omitempty"`
}

// HandleMe returns the account plus, for customers, the voucher ledger and
// the offers it currently qualifies for.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	account := FromContext(r.Context())

	resp := profileResponse{Account: *account}

	if account.Role == domain.RoleCustomer {
		ledger, err := h.ledgers.Get(r.Context(), account.ID)
		if err != nil {
			h.logger.Error("failed to load ledger", "error", err, "customer_id", account.ID)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if ledger != nil {
			resp.Ledger = ledger
			resp.Vouchers = pricing.AvailableOffers(*ledger)
		}
	}

	h.writeJSON(w, http.StatusOK, resp)
}

type saveCarRequest struct {
	Brand string `json:"brand"`
	Model string `json:"model"`
	Year  string `json:"year"`
}

func (h *Handler) HandleSaveCar(w http.ResponseWriter, r *http.Request) {
	account := FromContext(r.Context())

	var req saveCarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	car := domain.Car{Brand: req.Brand, Model: req.Model, Year: req.Year}
	if err := h.repo.SaveCar(r.Context(), account.ID, car); err != nil {
		h.logger.Error("failed to save car", "error", err, "account_id", account.ID)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	account.SavedCar = car

	h.logger.Info("car saved", "account_id", account.ID)
	h.writeJSON(w, http.StatusOK, account)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
