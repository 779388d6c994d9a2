package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		t.Setenv("BACKEND_URL", "http://backend/")
		t.Setenv("SHIPPING_URL", "http://ghn")
		t.Setenv("SHIPPING_TOKEN", "token")
		for _, key := range []string{"PORT", "LEDGER_PORT", "BACKEND_TIMEOUT", "SHIPPING_DEFAULT_FEE", "CHECKOUT_SESSION_TTL", "CHECKOUT_SUBMIT_TIMEOUT", "CHECKOUT_SUBMIT_LOCK_TTL", "SERVER_WRITE_TIMEOUT", "KAFKA_BROKERS"} {
			t.Setenv(key, "")
		}

		cfg := Load()

		assert.Equal(t, "8080", cfg.Server.Port)
		assert.Equal(t, "8083", cfg.Server.LedgerPort)
		assert.Equal(t, "http://backend", cfg.Backend.URL)
		assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
		assert.Equal(t, int64(30000), cfg.Shipping.DefaultFee)
		assert.Equal(t, 30*time.Minute, cfg.Checkout.SessionTTL)
		assert.Equal(t, 45*time.Second, cfg.Checkout.SubmitTimeout)
		assert.Equal(t, 50*time.Second, cfg.ServerWriteTimeout())
		assert.Empty(t, cfg.Kafka.Brokers)
		require.NoError(t, cfg.ValidateCheckout())
	})

	t.Run("reads overrides", func(t *testing.T) {
		t.Setenv("PORT", "9000")
		t.Setenv("LEDGER_PORT", "9100")
		t.Setenv("BACKEND_TIMEOUT", "3s")
		t.Setenv("SHIPPING_DEFAULT_FEE", "25000")
		t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
		t.Setenv("CHECKOUT_CLEANUP_CONCURRENCY", "2")

		cfg := Load()

		assert.Equal(t, "9000", cfg.Server.Port)
		assert.Equal(t, "9100", cfg.Server.LedgerPort)
		assert.Equal(t, 3*time.Second, cfg.Backend.Timeout)
		assert.Equal(t, int64(25000), cfg.Shipping.DefaultFee)
		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
		assert.Equal(t, 2, cfg.Checkout.CleanupConcurrency)
	})

	t.Run("ignores malformed values", func(t *testing.T) {
		t.Setenv("BACKEND_TIMEOUT", "soon")
		t.Setenv("REDIS_DB", "two")

		cfg := Load()

		assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
		assert.Equal(t, 0, cfg.Redis.DB)
	})
}

func TestPostgresDSN(t *testing.T) {
	dsn, err := PostgresConfig{URL: "postgres://u:p@db:5432/shop?sslmode=disable", Schema: "checkout"}.DSN()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db:5432/shop?search_path=checkout&sslmode=disable", dsn)

	dsn, err = PostgresConfig{URL: "postgres://db/shop"}.DSN()
	require.NoError(t, err)
	assert.Equal(t, "postgres://db/shop", dsn)

	_, err = PostgresConfig{URL: "postgres://db:port/shop"}.DSN()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Run("checkout requires upstream urls", func(t *testing.T) {
		err := Config{}.ValidateCheckout()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "BACKEND_URL is required")
		assert.Contains(t, err.Error(), "SHIPPING_TOKEN is required")
	})

	t.Run("submit lock must outlive a submit", func(t *testing.T) {
		cfg := Config{
			Backend:  BackendConfig{URL: "http://backend"},
			Shipping: ShippingConfig{URL: "http://ghn", Token: "t"},
			Checkout: CheckoutConfig{SubmitTimeout: time.Minute, SubmitLockTTL: 30 * time.Second},
		}
		err := cfg.ValidateCheckout()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CHECKOUT_SUBMIT_LOCK_TTL must exceed CHECKOUT_SUBMIT_TIMEOUT")
	})

	t.Run("ledger requires postgres and kafka", func(t *testing.T) {
		err := Config{}.ValidateLedger()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "POSTGRES_URL is required")
		assert.Contains(t, err.Error(), "KAFKA_BROKERS is required")

		ok := Config{Postgres: PostgresConfig{URL: "postgres://x"}, Kafka: KafkaConfig{Brokers: []string{"k:9092"}}}
		assert.NoError(t, ok.ValidateLedger())
	})
}
