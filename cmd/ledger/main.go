package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/storefront-checkout/internal/config"
	"github.com/joao-fontenele/storefront-checkout/internal/domain"
	"github.com/joao-fontenele/storefront-checkout/internal/ledger"
	"github.com/joao-fontenele/storefront-checkout/internal/messaging"
	"github.com/joao-fontenele/storefront-checkout/internal/telemetry"
)

const serviceVersion = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.ValidateLedger(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "checkout-ledger", serviceVersion)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("checkout-ledger", serviceVersion)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(context.Background()) }()

	dsn, err := cfg.Postgres.DSN()
	if err != nil {
		logger.Error("invalid postgres url", "error", err)
		os.Exit(1)
	}
	db, err := telemetry.OpenDB("postgres", dsn)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	repo := ledger.NewRepository(db)
	recorder := ledger.NewRecorder(repo, logger)

	consumer := messaging.NewConsumer(cfg.Kafka.Brokers, domain.TopicOrderPlaced, cfg.Kafka.GroupID, logger)
	defer func() { _ = consumer.Close() }()

	consumeDone := make(chan error, 1)
	go func() {
		logger.Info("consuming order_placed events", "topic", domain.TopicOrderPlaced, "group_id", cfg.Kafka.GroupID)
		consumeDone <- consumer.Consume(ctx, recorder.Handle)
	}()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(telemetry.HTTPRoute)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", metricsHandler)
	ledger.NewHandler(repo, logger).Routes(r)

	server := &http.Server{
		Addr:         ":" + cfg.Server.LedgerPort,
		Handler:      otelhttp.NewHandler(r, "checkout-ledger"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("starting ledger service", "port", cfg.Server.LedgerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-consumeDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("consumer stopped", "error", err)
		}
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
