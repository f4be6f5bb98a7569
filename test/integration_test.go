//go:build integration

package test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pitstop-ph/pitstop/internal/booking"
	"github.com/pitstop-ph/pitstop/internal/cart"
	"github.com/pitstop-ph/pitstop/internal/catalog"
	"github.com/pitstop-ph/pitstop/internal/checkout"
	"github.com/pitstop-ph/pitstop/internal/domain"
	"github.com/pitstop-ph/pitstop/internal/identity"
	"github.com/pitstop-ph/pitstop/internal/orders"
	"github.com/pitstop-ph/pitstop/internal/pricing"
)

// newAPI wires the handlers the way cmd/api does, minus telemetry and kafka,
// so tests exercise the same routing, identity resolution and role checks.
func newAPI(db *sql.DB) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	accountRepo := identity.NewAccountRepository(db)
	ledgerRepo := pricing.NewLedgerRepository(db)
	productRepo := catalog.NewProductRepository(db)
	orderRepo := orders.NewOrderRepository(db)
	bookingRepo := booking.NewBookingRepository(db)
	sessions := cart.NewSQLStore(db)

	checkoutService := checkout.NewService(db, ledgerRepo, logger)

	catalogHandler := catalog.NewHandler(productRepo, logger)
	cartHandler := cart.NewHandler(sessions, productRepo, ledgerRepo, logger)
	checkoutHandler := checkout.NewHandler(checkoutService, sessions, nil, logger)
	orderHandler := orders.NewHandler(orderRepo, logger)
	bookingHandler := booking.NewHandler(bookingRepo, accountRepo, logger)

	authn := identity.NewMiddleware(accountRepo, logger)
	customer := identity.Require(domain.RoleCustomer)
	installer := identity.Require(domain.RoleInstaller)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /products", catalogHandler.HandleList)
	mux.HandleFunc("GET /products/{id}", catalogHandler.HandleGet)
	mux.HandleFunc("GET /cart", cartHandler.HandleView)
	mux.HandleFunc("POST /cart/items", cartHandler.HandleAdd)
	mux.HandleFunc("POST /cart/checkout", customer(cartHandler.HandleBeginCheckout))
	mux.HandleFunc("POST /payment", customer(checkoutHandler.HandlePayment))
	mux.HandleFunc("GET /orders", customer(orderHandler.HandleList))
	mux.HandleFunc("GET /orders/{id}", customer(orderHandler.HandleGet))
	mux.HandleFunc("POST /bookings", customer(bookingHandler.HandleCreate))
	mux.HandleFunc("POST /bookings/{id}/decision", installer(bookingHandler.HandleDecision))

	return authn.Resolve(mux)
}

func doJSON(t *testing.T, api http.Handler, method, path, accountID, sessionID, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if accountID != "" {
		req.Header.Set("X-Account-ID", accountID)
	}
	if sessionID != "" {
		req.Header.Set("X-Session-ID", sessionID)
	}

	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, req)
	return rec
}

func TestCheckoutFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open DB: %v", err)
	}
	defer func() { _ = db.Close() }()

	accountRepo := identity.NewAccountRepository(db)
	productRepo := catalog.NewProductRepository(db)
	ledgerRepo := pricing.NewLedgerRepository(db)

	seller, err := accountRepo.Create(ctx, "autoparts-mnl", domain.RoleSeller)
	if err != nil {
		t.Fatalf("failed to create seller: %v", err)
	}
	customer, err := accountRepo.Create(ctx, "juan", domain.RoleCustomer)
	if err != nil {
		t.Fatalf("failed to create customer: %v", err)
	}

	product := &domain.Product{
		SellerID:        seller.ID,
		Name:            "Brake Pad Set",
		Brand:           "Toyota",
		Model:           "Vios",
		CompatibleYears: "2016,2017,2018",
		Price:           decimal.NewFromInt(3000),
		Stock:           10,
	}
	if err := productRepo.Create(ctx, product); err != nil {
		t.Fatalf("failed to create product: %v", err)
	}

	api := newAPI(db)
	session := "sess-checkout-1"

	rec := doJSON(t, api, http.MethodPost, "/cart/items", customer.ID, session,
		fmt.Sprintf(`{"product_id": %q, "quantity": 2}`, product.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("add to cart: expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = doJSON(t, api, http.MethodPost, "/cart/checkout", customer.ID, session, `{"voucher_code": ""}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("begin checkout: expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var preview struct {
		Preview pricing.Quote `json:"preview"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&preview); err != nil {
		t.Fatalf("failed to decode checkout preview: %v", err)
	}
	if !preview.Preview.Subtotal.Equal(decimal.NewFromInt(6000)) {
		t.Fatalf("expected preview subtotal 6000, got %s", preview.Preview.Subtotal)
	}
	if !preview.Preview.FinalTotal.Equal(decimal.NewFromInt(6300)) {
		t.Fatalf("expected preview final total 6300, got %s", preview.Preview.FinalTotal)
	}

	rec = doJSON(t, api, http.MethodPost, "/payment", customer.ID, session, `{"payment_method": "COD"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("payment: expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var receipt struct {
		Order         domain.Order         `json:"order"`
		DeliveryStage domain.DeliveryStage `json:"delivery_stage"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&receipt); err != nil {
		t.Fatalf("failed to decode receipt: %v", err)
	}
	if !receipt.Order.FinalTotal.Equal(decimal.NewFromInt(6300)) {
		t.Fatalf("expected final total 6300, got %s", receipt.Order.FinalTotal)
	}
	if receipt.Order.DeliveryDays < 1 || receipt.Order.DeliveryDays > 5 {
		t.Fatalf("expected delivery days in 1..5, got %d", receipt.Order.DeliveryDays)
	}
	if receipt.DeliveryStage != domain.DeliveryPacking {
		t.Fatalf("expected delivery stage %q on a fresh order, got %q", domain.DeliveryPacking, receipt.DeliveryStage)
	}

	updated, err := productRepo.GetByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("failed to fetch product: %v", err)
	}
	if updated.Stock != 8 {
		t.Fatalf("expected stock 8 after checkout, got %d", updated.Stock)
	}

	ledger, err := ledgerRepo.Get(ctx, customer.ID)
	if err != nil {
		t.Fatalf("failed to fetch ledger: %v", err)
	}
	if !ledger.TotalSpent.Equal(decimal.NewFromInt(6300)) {
		t.Fatalf("expected total spent 6300, got %s", ledger.TotalSpent)
	}

	// the pending checkout is consumed by payment
	rec = doJSON(t, api, http.MethodPost, "/payment", customer.ID, session, `{}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("repeat payment: expected status %d, got %d: %s", http.StatusConflict, rec.Code, rec.Body.String())
	}

	rec = doJSON(t, api, http.MethodGet, "/orders/"+receipt.Order.ID, customer.ID, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get order: expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	// quantities beyond remaining stock clamp, with a notice
	rec = doJSON(t, api, http.MethodPost, "/cart/items", customer.ID, session,
		fmt.Sprintf(`{"product_id": %q, "quantity": 50}`, product.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("re-add to cart: expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var view struct {
		Lines  []domain.CartLine `json:"lines"`
		Notice string            `json:"notice"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("failed to decode cart view: %v", err)
	}
	if len(view.Lines) != 1 || view.Lines[0].Quantity != 8 {
		t.Fatalf("expected quantity clamped to 8, got %+v", view.Lines)
	}
	if view.Notice == "" {
		t.Fatal("expected a stock notice when quantity clamps")
	}
}

func TestVoucherRedemptionFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open DB: %v", err)
	}
	defer func() { _ = db.Close() }()

	accountRepo := identity.NewAccountRepository(db)
	productRepo := catalog.NewProductRepository(db)
	ledgerRepo := pricing.NewLedgerRepository(db)

	seller, err := accountRepo.Create(ctx, "parts-hub", domain.RoleSeller)
	if err != nil {
		t.Fatalf("failed to create seller: %v", err)
	}
	customer, err := accountRepo.Create(ctx, "maria", domain.RoleCustomer)
	if err != nil {
		t.Fatalf("failed to create customer: %v", err)
	}

	// qualify for the 5% voucher before this order
	if _, err := db.ExecContext(ctx, `
		UPDATE voucher_ledgers SET total_spent = 6000 WHERE customer_id = $1
	`, customer.ID); err != nil {
		t.Fatalf("failed to seed ledger: %v", err)
	}

	product := &domain.Product{
		SellerID:        seller.ID,
		Name:            "Oil Filter",
		Brand:           "Honda",
		Model:           "Civic",
		CompatibleYears: "2019,2020",
		Price:           decimal.NewFromInt(1000),
		Stock:           5,
	}
	if err := productRepo.Create(ctx, product); err != nil {
		t.Fatalf("failed to create product: %v", err)
	}

	api := newAPI(db)
	session := "sess-voucher-1"

	rec := doJSON(t, api, http.MethodPost, "/cart/items", customer.ID, session,
		fmt.Sprintf(`{"product_id": %q, "quantity": 1}`, product.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("add to cart: expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = doJSON(t, api, http.MethodPost, "/cart/checkout", customer.ID, session, `{"voucher_code": "5PCT"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("begin checkout: expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = doJSON(t, api, http.MethodPost, "/payment", customer.ID, session, `{"payment_method": "COD"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("payment: expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var receipt struct {
		Order domain.Order `json:"order"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&receipt); err != nil {
		t.Fatalf("failed to decode receipt: %v", err)
	}
	if !receipt.Order.Discount.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected discount 50, got %s", receipt.Order.Discount)
	}
	if !receipt.Order.FinalTotal.Equal(decimal.RequireFromString("997.50")) {
		t.Fatalf("expected final total 997.50, got %s", receipt.Order.FinalTotal)
	}
	if receipt.Order.VoucherCode != pricing.CodeFivePct {
		t.Fatalf("expected voucher code %q, got %q", pricing.CodeFivePct, receipt.Order.VoucherCode)
	}

	ledger, err := ledgerRepo.Get(ctx, customer.ID)
	if err != nil {
		t.Fatalf("failed to fetch ledger: %v", err)
	}
	if !ledger.FivePctUsed {
		t.Fatal("expected 5% voucher to be marked used")
	}
	if !ledger.TotalSpent.Equal(decimal.RequireFromString("6997.50")) {
		t.Fatalf("expected total spent 6997.50, got %s", ledger.TotalSpent)
	}
}

func TestBookingDecisionFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open DB: %v", err)
	}
	defer func() { _ = db.Close() }()

	accountRepo := identity.NewAccountRepository(db)

	customer, err := accountRepo.Create(ctx, "pedro", domain.RoleCustomer)
	if err != nil {
		t.Fatalf("failed to create customer: %v", err)
	}
	installer, err := accountRepo.Create(ctx, "garage-qc", domain.RoleInstaller)
	if err != nil {
		t.Fatalf("failed to create installer: %v", err)
	}
	other, err := accountRepo.Create(ctx, "garage-makati", domain.RoleInstaller)
	if err != nil {
		t.Fatalf("failed to create second installer: %v", err)
	}

	api := newAPI(db)

	rec := doJSON(t, api, http.MethodPost, "/bookings", customer.ID, "", fmt.Sprintf(`{
		"installer_id": %q,
		"car_brand": "Mitsubishi",
		"car_model": "Mirage",
		"car_year": "2018",
		"scheduled_date": "2026-09-15",
		"scheduled_time": "10:00"
	}`, installer.ID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create booking: expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var created domain.Booking
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode booking: %v", err)
	}
	if created.Status != domain.BookingPending {
		t.Fatalf("expected status %q, got %q", domain.BookingPending, created.Status)
	}
	if !created.FindersFee.Equal(domain.FindersFee) {
		t.Fatalf("expected finders fee %s, got %s", domain.FindersFee, created.FindersFee)
	}

	// only the assigned installer may decide
	rec = doJSON(t, api, http.MethodPost, "/bookings/"+created.ID+"/decision", other.ID, "", `{"action": "accept"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign decision: expected status %d, got %d: %s", http.StatusForbidden, rec.Code, rec.Body.String())
	}

	rec = doJSON(t, api, http.MethodPost, "/bookings/"+created.ID+"/decision", installer.ID, "", `{"action": "accept"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("accept: expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var decided domain.Booking
	if err := json.NewDecoder(rec.Body).Decode(&decided); err != nil {
		t.Fatalf("failed to decode decided booking: %v", err)
	}
	if decided.Status != domain.BookingAccepted {
		t.Fatalf("expected status %q, got %q", domain.BookingAccepted, decided.Status)
	}

	// decisions are final
	rec = doJSON(t, api, http.MethodPost, "/bookings/"+created.ID+"/decision", installer.ID, "", `{"action": "reject"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("repeat decision: expected status %d, got %d: %s", http.StatusConflict, rec.Code, rec.Body.String())
	}
}

func TestKafkaConnection(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	brokers, cleanup := SetupKafka(ctx, t)
	defer cleanup()

	if len(brokers) == 0 {
		t.Fatal("expected at least one broker")
	}

	t.Logf("kafka brokers: %v", brokers)
}
