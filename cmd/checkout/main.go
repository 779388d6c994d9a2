package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/storefront-checkout/internal/address"
	"github.com/joao-fontenele/storefront-checkout/internal/backend"
	"github.com/joao-fontenele/storefront-checkout/internal/cart"
	"github.com/joao-fontenele/storefront-checkout/internal/checkout"
	"github.com/joao-fontenele/storefront-checkout/internal/config"
	"github.com/joao-fontenele/storefront-checkout/internal/domain"
	"github.com/joao-fontenele/storefront-checkout/internal/httpapi"
	"github.com/joao-fontenele/storefront-checkout/internal/location"
	"github.com/joao-fontenele/storefront-checkout/internal/messaging"
	"github.com/joao-fontenele/storefront-checkout/internal/pricing"
	"github.com/joao-fontenele/storefront-checkout/internal/session"
	"github.com/joao-fontenele/storefront-checkout/internal/telemetry"
)

const serviceVersion = "0.1.0"

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.ValidateCheckout(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "checkout", serviceVersion)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("checkout", serviceVersion)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	shop := backend.NewClient(cfg.Backend.URL, telemetry.NewHTTPClient(cfg.Backend.Timeout),
		backend.WithHalfOpenRequests(cfg.Checkout.CleanupConcurrency))
	ghn := location.NewClient(cfg.Shipping.URL, cfg.Shipping.Token, cfg.Shipping.ShopID,
		cfg.Shipping.ServiceTypeID, telemetry.NewHTTPClient(cfg.Shipping.Timeout))
	resolver := location.NewResolver(ghn, logger)
	addresses := address.NewStore(shop, resolver, logger)
	calculator := pricing.NewCalculator(cfg.Shipping.DefaultFee)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = rdb.Close() }()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	// A nil *Producer stored in the interface would not read as "no publisher".
	var publisher checkout.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer := messaging.NewProducer(cfg.Kafka.Brokers, domain.TopicOrderPlaced)
		defer func() { _ = producer.Close() }()
		publisher = producer
	} else {
		logger.Warn("KAFKA_BROKERS not set, order_placed events are disabled")
	}

	workflow, err := checkout.NewWorkflow(checkout.Deps{
		Orders:             shop,
		Cart:               shop,
		Addresses:          addresses,
		Publisher:          publisher,
		Calculator:         calculator,
		CleanupConcurrency: cfg.Checkout.CleanupConcurrency,
		Logger:             logger,
	})
	if err != nil {
		logger.Error("failed to build checkout workflow", "error", err)
		os.Exit(1)
	}

	handler := httpapi.NewHandler(httpapi.Deps{
		Locations:       resolver,
		Shipping:        ghn,
		Addresses:       addresses,
		Vouchers:        shop,
		Cart:            cart.NewProvider(shop),
		Sessions:        session.NewRedisStore(rdb, cfg.Checkout.SessionTTL, cfg.Checkout.SubmitLockTTL),
		Workflow:        workflow,
		Calculator:      calculator,
		ItemWeightGrams: cfg.Shipping.ItemWeightGrams,
		Logger:          logger,
	})

	router := handler.Router(cfg.Server.WriteTimeout, cfg.Checkout.SubmitTimeout)
	router.Handle("/metrics", metricsHandler)

	server := &http.Server{
		Addr: ":" + cfg.Server.Port,
		Handler: otelhttp.NewHandler(router, "checkout",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout(),
	}

	go func() {
		logger.Info("starting checkout service", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
