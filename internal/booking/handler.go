package booking

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/pitstop-ph/pitstop/internal/domain"
	"github.com/pitstop-ph/pitstop/internal/identity"
)

type Handler struct {
	repo     *BookingRepository
	accounts *identity.AccountRepository
	logger   *slog.Logger
}

func NewHandler(repo *BookingRepository, accounts *identity.AccountRepository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:     repo,
		accounts: accounts,
		logger:   logger,
	}
}

type createRequest struct {
	InstallerID   string `json:"installer_id"`
	ProductID     string `json:"product_id"`
	CarBrand      string `json:"car_brand"`
	CarModel      string `json:"car_model"`
	CarYear       string `json:"car_year"`
	ScheduledDate string `json:"scheduled_date"`
	ScheduledTime string `json:"scheduled_time"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	customer := identity.FromContext(r.Context())

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.InstallerID == "" {
		h.writeError(w, http.StatusBadRequest, "missing installer id")
		return
	}

	scheduledDate, err := time.Parse("2006-01-02", req.ScheduledDate)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid scheduled date")
		return
	}

	if _, err := time.Parse("15:04", req.ScheduledTime); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid scheduled time")
		return
	}

	installer, err := h.accounts.GetByID(r.Context(), req.InstallerID)
	if err != nil {
		h.logger.Error("failed to resolve installer", "error", err, "installer_id", req.InstallerID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if installer == nil || installer.Role != domain.RoleInstaller {
		h.writeError(w, http.StatusBadRequest, "installer not found")
		return
	}

	b := &domain.Booking{
		CustomerID:  customer.ID,
		InstallerID: installer.ID,
		ProductID:   req.ProductID,
		Car: domain.Car{
			Brand: req.CarBrand,
			Model: req.CarModel,
			Year:  req.CarYear,
		},
		ScheduledDate: scheduledDate,
		ScheduledTime: req.ScheduledTime,
	}

	if err := h.repo.Create(r.Context(), b); err != nil {
		h.logger.Error("failed to create booking", "error", err, "customer_id", customer.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("booking created", "booking_id", b.ID, "customer_id", customer.ID, "installer_id", installer.ID)
	h.writeJSON(w, http.StatusCreated, b)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	account := identity.FromContext(r.Context())

	var bookings []domain.Booking
	var err error

	if account.Role == domain.RoleInstaller {
		bookings, err = h.repo.ListByInstaller(r.Context(), account.ID)
	} else {
		bookings, err = h.repo.ListByCustomer(r.Context(), account.ID)
	}
	if err != nil {
		h.logger.Error("failed to list bookings", "error", err, "account_id", account.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if bookings == nil {
		bookings = []domain.Booking{}
	}

	h.writeJSON(w, http.StatusOK, bookings)
}

type decisionRequest struct {
	Action string `json:"action"`
}

func (h *Handler) HandleDecision(w http.ResponseWriter, r *http.Request) {
	installer := identity.FromContext(r.Context())

	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing booking id")
		return
	}

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get booking", "error", err, "booking_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if b == nil {
		h.writeError(w, http.StatusNotFound, "booking not found")
		return
	}

	switch err := Decide(b, installer.ID, req.Action); err {
	case nil:
	case ErrNotAllowed:
		h.writeError(w, http.StatusForbidden, err.Error())
		return
	case ErrAlreadyDecided:
		h.writeError(w, http.StatusConflict, err.Error())
		return
	case ErrInvalidAction:
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	default:
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// guarded update backstops a concurrent decision on the same booking
	ok, err := h.repo.Transition(r.Context(), b.ID, installer.ID, b.Status)
	if err != nil {
		h.logger.Error("failed to persist decision", "error", err, "booking_id", b.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !ok {
		h.writeError(w, http.StatusConflict, ErrAlreadyDecided.Error())
		return
	}

	h.logger.Info("booking decided", "booking_id", b.ID, "installer_id", installer.ID, "status", b.Status)
	h.writeJSON(w, http.StatusOK, b)
}

func (h *Handler) HandleInstallerDashboard(w http.ResponseWriter, r *http.Request) {
	installer := identity.FromContext(r.Context())

	summary, err := h.repo.InstallerSummary(r.Context(), installer.ID)
	if err != nil {
		h.logger.Error("failed to load installer summary", "error", err, "installer_id", installer.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
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
