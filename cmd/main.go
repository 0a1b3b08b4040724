package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httphandler "property-brokerage-system/internal/adapters/http"
	"property-brokerage-system/internal/adapters/messaging/kafka"
	"property-brokerage-system/internal/adapters/messaging/mock"
	"property-brokerage-system/internal/adapters/payment"
	"property-brokerage-system/internal/adapters/storage/postgres"
	redisadapter "property-brokerage-system/internal/adapters/storage/redis"
	"property-brokerage-system/internal/app"
	"property-brokerage-system/internal/config"
	"property-brokerage-system/internal/core/ports"
	"property-brokerage-system/internal/observability"
	"property-brokerage-system/internal/screening"
)

func main() {
	// --- 1. Configuration and Logging ---
	fallbackLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fallbackLogger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg.App.Env)
	logger.Info("Application starting", "env", cfg.App.Env, "port", cfg.Server.Port)

	// --- 2. Validate critical config ---
	jwtSecret := cfg.JWT.Secret
	if jwtSecret == "" {
		logger.Error("JWT secret is not set")
		os.Exit(1)
	}

	// --- 3. Observability ---
	shutdownTracer, err := observability.InitTracer(cfg.Jaeger.Port, "brokerage-api")
	if err != nil {
		logger.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Warn("Failed to shutdown tracer", "error", err)
		}
	}()

	// --- 4. Dependencies ---
	ctx := context.Background()

	store, err := postgres.NewStore(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("Connected to PostgreSQL")

	rdb, err := redisadapter.NewClient(cfg.Redis.Addr)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("Failed to close Redis client", "error", err)
		}
	}()

	var broker ports.EventPublisher
	if cfg.Kafka.BootstrapServers == "" {
		logger.Warn("Kafka bootstrap servers not configured, events will be logged only")
		broker = mock.NewBroker(logger)
	} else {
		kafkaBroker, err := kafka.NewBroker(strings.Split(cfg.Kafka.BootstrapServers, ","), cfg.Kafka.Topic, logger)
		if err != nil {
			logger.Error("Failed to create Kafka broker", "error", err)
			os.Exit(1)
		}
		defer kafkaBroker.Close()
		logger.Info("Kafka broker created")
		broker = kafkaBroker
	}

	gateway := payment.NewClient(cfg.Payment.BaseURL, cfg.Payment.Secret, cfg.Payment.CallbackURL)
	screener := screening.NewCachingRuleEngine(rdb, cfg.Screening, logger)
	rateLimiter := redisadapter.NewRateLimiterAdapter(rdb)

	// --- 5. Service Layer ---
	listingService := app.NewListingService(store.Properties(), broker, logger)
	orderService := app.NewOrderService(store.Properties(), store.Orders(), gateway, broker, screener, logger)
	paymentService := app.NewPaymentService(store.Properties(), store.Orders(), gateway, broker,
		cfg.Settlement.AutoSettle, logger)
	moderationService := app.NewModerationService(store.Properties(), store.Orders(), broker, logger)
	assignmentService := app.NewAssignmentService(store.Properties(), store.Assignments(), store.Users(), broker, logger)

	propertyHandler := httphandler.NewPropertyHandler(listingService, orderService, moderationService, assignmentService, logger)
	paymentHandler := httphandler.NewPaymentHandler(paymentService, logger)

	rlWindow := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
	if rlWindow <= 0 {
		rlWindow = time.Minute
	}
	rlLimit := cfg.RateLimit.Limit
	if rlLimit <= 0 {
		rlLimit = 100
	}
	rateLimiterMiddleware := httphandler.NewRateLimiterMiddleware(rateLimiter, rlLimit, rlWindow, logger)

	// --- 6. HTTP Router ---
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		rateLimiterMiddleware.Handler,
		middleware.Logger,
		middleware.Recoverer,
		observability.NewLoggerMiddleware(logger),
		observability.NewMetricsMiddleware("brokerage-api"),
		observability.NewTracingMiddleware("brokerage-api"),
	)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(map[string]string{
			"status":  "healthy",
			"service": "brokerage-api",
		}); err != nil {
			logger.Error("Failed to write health response", "error", err)
		}
	})
	r.Handle("/metrics", promhttp.Handler())

	// The gateway's callback carries no user token; it is keyed by the
	// opaque payment reference.
	r.Post("/api/payments/webhook", paymentHandler.HandleWebhook)

	// Authenticated API. Paths are kept exactly as the collaborating UI
	// consumes them.
	r.Group(func(r chi.Router) {
		r.Use(httphandler.JWTMiddleware([]byte(jwtSecret), logger))

		r.Route("/api/property", func(r chi.Router) {
			r.Get("/", propertyHandler.HandleList)
			r.Post("/", propertyHandler.HandleCreate)
			r.Get("/my", propertyHandler.HandleListMine)
			r.Get("/view/{id}", propertyHandler.HandleView)
			r.Get("/admin/all-properties", propertyHandler.HandleAdminListAll)
			r.Get("/broker/assigned", propertyHandler.HandleBrokerAssigned)

			r.Post("/{id}/order", propertyHandler.HandlePlaceOrder)
			r.Patch("/{id}/approve", propertyHandler.HandleApprove)
			r.Patch("/{id}/assign-broker", propertyHandler.HandleAssignBroker)
			r.Patch("/{id}/complete", propertyHandler.HandleComplete)
			r.Get("/{id}/commission", propertyHandler.HandleCommission)
			r.Patch("/{id}", propertyHandler.HandleUpdateStatus)
			r.Delete("/{id}", propertyHandler.HandleDelete)
		})

		r.Post("/api/payments/initialize", paymentHandler.HandleInitialize)
	})

	// --- 7. HTTP Server ---
	serverAddr := cfg.Server.Port
	if serverAddr == "" {
		serverAddr = ":8080"
	}

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Server exited properly")
}
