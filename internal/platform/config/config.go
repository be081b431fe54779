// Package config reads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultEnvFile         = ".env"
	defaultPort            = "8080"
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultShutdownTimeout = 20 * time.Second

	defaultMongoURI       = "mongodb://localhost:27017"
	defaultMongoDatabase  = "fluxcart"
	defaultMongoTimeout   = 10 * time.Second
	defaultMinimumTotal   = "10.00"
	defaultMaxItems       = 100
	defaultOverdueAfter   = 24 * time.Hour
	defaultHighValue      = "1000.00"
	defaultGatewayKind    = "simulated"
	defaultIdempotencyTTL = 24 * time.Hour

	defaultSagaCardLast4      = "4242"
	defaultSagaCardType       = "Visa"
	defaultSagaCardHolder     = "Demo Customer"
	defaultSagaCardLifeYears  = 2
	defaultSagaPaymentMethod  = "credit_card"
	defaultSagaChargeOnSubmit = true
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server   ServerConfig
	Mongo    MongoConfig
	Orders   OrderPolicyConfig
	Payments PaymentPolicyConfig
	Gateway  GatewayConfig
	Saga     SagaConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// MongoConfig stores document-store connection parameters.
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// OrderPolicyConfig carries the configurable order guards.
type OrderPolicyConfig struct {
	MinimumTotal decimal.Decimal
	MaxItems     int
	OverdueAfter time.Duration
}

// PaymentPolicyConfig carries the configurable payment thresholds.
type PaymentPolicyConfig struct {
	HighValueThreshold decimal.Decimal
}

// GatewayConfig selects and configures the payment gateway provider.
type GatewayConfig struct {
	Kind         string
	StripeAPIKey string
}

// SagaConfig drives the submit→charge choreography: the default instrument
// used when the order context requests a payment, and the retention window
// for processed integration event ids.
type SagaConfig struct {
	ChargeOnSubmit bool
	PaymentMethod  string
	CardLast4      string
	CardType       string
	CardHolder     string
	CardLifeYears  int
	IdempotencyTTL time.Duration
}

// Load builds the configuration from the environment, applying defaults and
// loading the optional .env file first.
func Load() (Config, error) {
	if err := loadEnvFile(defaultEnvFile); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Server: ServerConfig{
			Port:            envOrDefault("PORT", defaultPort),
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Mongo: MongoConfig{
			URI:            envOrDefault("MONGO_URI", defaultMongoURI),
			Database:       envOrDefault("MONGO_DATABASE", defaultMongoDatabase),
			ConnectTimeout: defaultMongoTimeout,
		},
		Orders: OrderPolicyConfig{
			MaxItems:     defaultMaxItems,
			OverdueAfter: defaultOverdueAfter,
		},
		Gateway: GatewayConfig{
			Kind:         strings.ToLower(envOrDefault("GATEWAY_KIND", defaultGatewayKind)),
			StripeAPIKey: strings.TrimSpace(os.Getenv("STRIPE_API_KEY")),
		},
		Saga: SagaConfig{
			ChargeOnSubmit: defaultSagaChargeOnSubmit,
			PaymentMethod:  envOrDefault("SAGA_PAYMENT_METHOD", defaultSagaPaymentMethod),
			CardLast4:      envOrDefault("SAGA_CARD_LAST4", defaultSagaCardLast4),
			CardType:       envOrDefault("SAGA_CARD_TYPE", defaultSagaCardType),
			CardHolder:     envOrDefault("SAGA_CARD_HOLDER", defaultSagaCardHolder),
			CardLifeYears:  defaultSagaCardLifeYears,
			IdempotencyTTL: defaultIdempotencyTTL,
		},
	}

	var err error
	if cfg.Orders.MinimumTotal, err = decimalEnv("ORDER_MINIMUM_TOTAL", defaultMinimumTotal); err != nil {
		return Config{}, err
	}
	if cfg.Orders.MaxItems, err = intEnv("ORDER_MAX_ITEMS", defaultMaxItems); err != nil {
		return Config{}, err
	}
	if cfg.Orders.OverdueAfter, err = durationEnv("ORDER_OVERDUE_AFTER", defaultOverdueAfter); err != nil {
		return Config{}, err
	}
	if cfg.Payments.HighValueThreshold, err = decimalEnv("PAYMENT_HIGH_VALUE_THRESHOLD", defaultHighValue); err != nil {
		return Config{}, err
	}
	if cfg.Saga.ChargeOnSubmit, err = boolEnv("SAGA_CHARGE_ON_SUBMIT", defaultSagaChargeOnSubmit); err != nil {
		return Config{}, err
	}
	if cfg.Saga.IdempotencyTTL, err = durationEnv("SAGA_IDEMPOTENCY_TTL", defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.Server.ShutdownTimeout, err = durationEnv("SHUTDOWN_TIMEOUT", defaultShutdownTimeout); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Mongo.URI) == "" {
		return fmt.Errorf("config: MONGO_URI is required")
	}
	if strings.TrimSpace(c.Mongo.Database) == "" {
		return fmt.Errorf("config: MONGO_DATABASE is required")
	}
	if c.Orders.MaxItems < 1 {
		return fmt.Errorf("config: ORDER_MAX_ITEMS must be at least 1")
	}
	if c.Orders.MinimumTotal.IsNegative() {
		return fmt.Errorf("config: ORDER_MINIMUM_TOTAL cannot be negative")
	}
	switch c.Gateway.Kind {
	case "simulated":
	case "stripe":
		if c.Gateway.StripeAPIKey == "" {
			return fmt.Errorf("config: STRIPE_API_KEY is required for the stripe gateway")
		}
	default:
		return fmt.Errorf("config: unknown GATEWAY_KIND %q", c.Gateway.Kind)
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be an integer: %w", key, err)
	}
	return value, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("config: %s must be a boolean: %w", key, err)
	}
	return value, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be a duration: %w", key, err)
	}
	return value, nil
}

func decimalEnv(key, fallback string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		raw = fallback
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("config: %s must be a decimal: %w", key, err)
	}
	return value, nil
}

// loadEnvFile reads KEY=VALUE lines into the process environment without
// overriding variables that are already set. A missing file is not an error.
func loadEnvFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: open %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"`)
		if key == "" {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("config: set %s: %w", key, err)
		}
	}
	return scanner.Err()
}
