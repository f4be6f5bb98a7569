package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pitstop-ph/pitstop/internal/booking"
	"github.com/pitstop-ph/pitstop/internal/cart"
	"github.com/pitstop-ph/pitstop/internal/catalog"
	"github.com/pitstop-ph/pitstop/internal/checkout"
	"github.com/pitstop-ph/pitstop/internal/domain"
	"github.com/pitstop-ph/pitstop/internal/identity"
	"github.com/pitstop-ph/pitstop/internal/messaging"
	"github.com/pitstop-ph/pitstop/internal/orders"
	"github.com/pitstop-ph/pitstop/internal/pricing"
	"github.com/pitstop-ph/pitstop/internal/seller"
	"github.com/pitstop-ph/pitstop/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	metricsHandler, shutdownTelemetry, err := telemetry.Setup(ctx, "pitstop-api", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTelemetry(ctx) }()

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	db, err := telemetry.OpenDB("postgres", postgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	var producer *messaging.Producer
	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers != "" {
		brokers := strings.Split(kafkaBrokers, ",")
		producer = messaging.NewProducer(brokers, messaging.TopicOrderPlaced)
		defer func() { _ = producer.Close() }()
	}

	accountRepo := identity.NewAccountRepository(db)
	ledgerRepo := pricing.NewLedgerRepository(db)
	productRepo := catalog.NewProductRepository(db)
	orderRepo := orders.NewOrderRepository(db)
	bookingRepo := booking.NewBookingRepository(db)
	dashboardRepo := seller.NewDashboardRepository(db)
	sessions := cart.NewSQLStore(db)

	checkoutService := checkout.NewService(db, ledgerRepo, logger)

	catalogHandler := catalog.NewHandler(productRepo, logger)
	cartHandler := cart.NewHandler(sessions, productRepo, ledgerRepo, logger)
	checkoutHandler := checkout.NewHandler(checkoutService, sessions, producer, logger)
	orderHandler := orders.NewHandler(orderRepo, logger)
	bookingHandler := booking.NewHandler(bookingRepo, accountRepo, logger)
	sellerHandler := seller.NewHandler(dashboardRepo, logger)
	profileHandler := identity.NewHandler(accountRepo, ledgerRepo, logger)

	authn := identity.NewMiddleware(accountRepo, logger)
	customer := identity.Require(domain.RoleCustomer)
	sellerOnly := identity.Require(domain.RoleSeller)
	installer := identity.Require(domain.RoleInstaller)
	anyRole := identity.Require(domain.RoleCustomer, domain.RoleSeller, domain.RoleInstaller)

	route := telemetry.WithHTTPRoute

	mux := http.NewServeMux()
	mux.HandleFunc("GET /products", route(catalogHandler.HandleList))
	mux.HandleFunc("GET /products/{id}", route(catalogHandler.HandleGet))

	mux.HandleFunc("GET /seller/products", route(sellerOnly(catalogHandler.HandleSellerList)))
	mux.HandleFunc("POST /seller/products", route(sellerOnly(catalogHandler.HandleCreate)))
	mux.HandleFunc("PUT /seller/products/{id}", route(sellerOnly(catalogHandler.HandleUpdate)))
	mux.HandleFunc("DELETE /seller/products/{id}", route(sellerOnly(catalogHandler.HandleDelete)))
	mux.HandleFunc("POST /seller/products/{id}/stock", route(sellerOnly(catalogHandler.HandleAddStock)))
	mux.HandleFunc("GET /seller/dashboard", route(sellerOnly(sellerHandler.HandleDashboard)))

	mux.HandleFunc("GET /cart", route(cartHandler.HandleView))
	mux.HandleFunc("POST /cart/items", route(cartHandler.HandleAdd))
	mux.HandleFunc("PUT /cart/items/{productId}", route(cartHandler.HandleUpdate))
	mux.HandleFunc("DELETE /cart/items/{productId}", route(cartHandler.HandleRemove))
	mux.HandleFunc("POST /cart/checkout", route(customer(cartHandler.HandleBeginCheckout)))
	mux.HandleFunc("POST /payment", route(customer(checkoutHandler.HandlePayment)))

	mux.HandleFunc("GET /orders", route(customer(orderHandler.HandleList)))
	mux.HandleFunc("GET /orders/{id}", route(customer(orderHandler.HandleGet)))

	mux.HandleFunc("POST /bookings", route(customer(bookingHandler.HandleCreate)))
	mux.HandleFunc("GET /bookings", route(anyRole(bookingHandler.HandleList)))
	mux.HandleFunc("POST /bookings/{id}/decision", route(installer(bookingHandler.HandleDecision)))
	mux.HandleFunc("GET /installer/dashboard", route(installer(bookingHandler.HandleInstallerDashboard)))

	mux.HandleFunc("GET /me", route(anyRole(profileHandler.HandleMe)))
	mux.HandleFunc("PUT /me/car", route(customer(profileHandler.HandleSaveCar)))

	mux.Handle("GET /metrics", metricsHandler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(authn.Resolve(mux), "pitstop-api",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting api service", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
