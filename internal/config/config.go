package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort               = "8080"
	defaultLedgerPort         = "8083"
	defaultRequestTimeout     = 10 * time.Second
	defaultShutdownTimeout    = 10 * time.Second
	defaultShippingFee        = 30000
	defaultItemWeightGrams    = 500
	defaultShippingServiceID  = 2
	defaultSessionTTL         = 30 * time.Minute
	defaultSubmitTimeout      = 45 * time.Second
	defaultSubmitLockTTL      = 60 * time.Second
	defaultCleanupConcurrency = 8
	defaultRedisAddr          = "localhost:6379"
)

// Config captures runtime configuration organised by concern.
type Config struct {
	Server   ServerConfig
	Backend  BackendConfig
	Shipping ShippingConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Postgres PostgresConfig
	Checkout CheckoutConfig
}

type ServerConfig struct {
	Port            string
	LedgerPort      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// BackendConfig points at the remote shop API (orders, cart, addresses, payments).
type BackendConfig struct {
	URL     string
	Timeout time.Duration
}

// ShippingConfig points at the GHN-style shipping data service.
type ShippingConfig struct {
	URL             string
	Token           string
	ShopID          string
	ServiceTypeID   int
	Timeout         time.Duration
	DefaultFee      int64
	ItemWeightGrams int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers []string
	GroupID string
}

type PostgresConfig struct {
	URL    string
	Schema string
}

// CheckoutConfig tunes sessions and submission. SubmitTimeout bounds one
// whole submit (create order, cart cleanup, payment link, publish) and must
// stay below SubmitLockTTL.
type CheckoutConfig struct {
	SessionTTL         time.Duration
	SubmitTimeout      time.Duration
	SubmitLockTTL      time.Duration
	CleanupConcurrency int
}

// DSN returns URL with search_path pinned to Schema so every pooled
// connection resolves unqualified table names the same way.
func (p PostgresConfig) DSN() (string, error) {
	u, err := url.Parse(p.URL)
	if err != nil {
		return "", fmt.Errorf("parse POSTGRES_URL: %w", err)
	}
	if p.Schema == "" {
		return u.String(), nil
	}
	q := u.Query()
	q.Set("search_path", p.Schema)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ServerWriteTimeout is the http.Server write timeout for the checkout
// service: never shorter than a whole submit plus a margin to write the
// response.
func (c Config) ServerWriteTimeout() time.Duration {
	return max(c.Server.WriteTimeout, c.Checkout.SubmitTimeout+5*time.Second)
}

// Load reads configuration from the environment, applying defaults.
func Load() Config {
	return Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", defaultPort),
			LedgerPort:      getEnv("LEDGER_PORT", defaultLedgerPort),
			ReadTimeout:     getDuration("SERVER_READ_TIMEOUT", defaultRequestTimeout),
			WriteTimeout:    getDuration("SERVER_WRITE_TIMEOUT", defaultRequestTimeout),
			ShutdownTimeout: getDuration("SERVER_SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		},
		Backend: BackendConfig{
			URL:     strings.TrimRight(os.Getenv("BACKEND_URL"), "/"),
			Timeout: getDuration("BACKEND_TIMEOUT", defaultRequestTimeout),
		},
		Shipping: ShippingConfig{
			URL:             strings.TrimRight(os.Getenv("SHIPPING_URL"), "/"),
			Token:           os.Getenv("SHIPPING_TOKEN"),
			ShopID:          os.Getenv("SHIPPING_SHOP_ID"),
			ServiceTypeID:   getInt("SHIPPING_SERVICE_TYPE_ID", defaultShippingServiceID),
			Timeout:         getDuration("SHIPPING_TIMEOUT", defaultRequestTimeout),
			DefaultFee:      getInt64("SHIPPING_DEFAULT_FEE", defaultShippingFee),
			ItemWeightGrams: getInt("SHIPPING_ITEM_WEIGHT_GRAMS", defaultItemWeightGrams),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", defaultRedisAddr),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			GroupID: getEnv("KAFKA_GROUP_ID", "checkout-ledger"),
		},
		Postgres: PostgresConfig{
			URL:    os.Getenv("POSTGRES_URL"),
			Schema: getEnv("POSTGRES_SCHEMA", "checkout"),
		},
		Checkout: CheckoutConfig{
			SessionTTL:         getDuration("CHECKOUT_SESSION_TTL", defaultSessionTTL),
			SubmitTimeout:      getDuration("CHECKOUT_SUBMIT_TIMEOUT", defaultSubmitTimeout),
			SubmitLockTTL:      getDuration("CHECKOUT_SUBMIT_LOCK_TTL", defaultSubmitLockTTL),
			CleanupConcurrency: getInt("CHECKOUT_CLEANUP_CONCURRENCY", defaultCleanupConcurrency),
		},
	}
}

// ValidateCheckout reports missing settings required by the checkout service.
func (c Config) ValidateCheckout() error {
	var errs []error
	if c.Backend.URL == "" {
		errs = append(errs, errors.New("BACKEND_URL is required"))
	}
	if c.Shipping.URL == "" {
		errs = append(errs, errors.New("SHIPPING_URL is required"))
	}
	if c.Shipping.Token == "" {
		errs = append(errs, errors.New("SHIPPING_TOKEN is required"))
	}
	if c.Shipping.DefaultFee < 0 {
		errs = append(errs, errors.New("SHIPPING_DEFAULT_FEE must not be negative"))
	}
	if c.Checkout.SubmitLockTTL <= c.Checkout.SubmitTimeout {
		errs = append(errs, errors.New("CHECKOUT_SUBMIT_LOCK_TTL must exceed CHECKOUT_SUBMIT_TIMEOUT"))
	}
	return errors.Join(errs...)
}

// ValidateLedger reports missing settings required by the ledger service.
func (c Config) ValidateLedger() error {
	var errs []error
	if c.Postgres.URL == "" {
		errs = append(errs, errors.New("POSTGRES_URL is required"))
	}
	if len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getInt64(key string, defaultValue int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return n
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
