package config

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("port = %s", cfg.Server.Port)
	}
	if cfg.Mongo.URI != "mongodb://localhost:27017" || cfg.Mongo.Database != "fluxcart" {
		t.Fatalf("mongo = %+v", cfg.Mongo)
	}
	if !cfg.Orders.MinimumTotal.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("minimum total = %s", cfg.Orders.MinimumTotal)
	}
	if cfg.Orders.MaxItems != 100 || cfg.Orders.OverdueAfter != 24*time.Hour {
		t.Fatalf("order policy = %+v", cfg.Orders)
	}
	if !cfg.Payments.HighValueThreshold.Equal(decimal.RequireFromString("1000.00")) {
		t.Fatalf("high value = %s", cfg.Payments.HighValueThreshold)
	}
	if cfg.Gateway.Kind != "simulated" {
		t.Fatalf("gateway kind = %s", cfg.Gateway.Kind)
	}
	if !cfg.Saga.ChargeOnSubmit || cfg.Saga.PaymentMethod != "credit_card" {
		t.Fatalf("saga = %+v", cfg.Saga)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MONGO_DATABASE", "fluxcart_test")
	t.Setenv("ORDER_MINIMUM_TOTAL", "25.50")
	t.Setenv("ORDER_MAX_ITEMS", "10")
	t.Setenv("ORDER_OVERDUE_AFTER", "48h")
	t.Setenv("SAGA_CHARGE_ON_SUBMIT", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("port = %s", cfg.Server.Port)
	}
	if cfg.Mongo.Database != "fluxcart_test" {
		t.Fatalf("database = %s", cfg.Mongo.Database)
	}
	if !cfg.Orders.MinimumTotal.Equal(decimal.RequireFromString("25.50")) {
		t.Fatalf("minimum total = %s", cfg.Orders.MinimumTotal)
	}
	if cfg.Orders.MaxItems != 10 || cfg.Orders.OverdueAfter != 48*time.Hour {
		t.Fatalf("order policy = %+v", cfg.Orders)
	}
	if cfg.Saga.ChargeOnSubmit {
		t.Fatal("SAGA_CHARGE_ON_SUBMIT=false should disable auto charge")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{"bad minimum total", "ORDER_MINIMUM_TOTAL", "ten", "decimal"},
		{"bad max items", "ORDER_MAX_ITEMS", "many", "integer"},
		{"zero max items", "ORDER_MAX_ITEMS", "0", "at least 1"},
		{"negative minimum", "ORDER_MINIMUM_TOTAL", "-5", "negative"},
		{"bad overdue", "ORDER_OVERDUE_AFTER", "soon", "duration"},
		{"unknown gateway", "GATEWAY_KIND", "square", "GATEWAY_KIND"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error = %v, want mention of %q", err, tc.want)
			}
		})
	}
}

func TestLoadStripeRequiresKey(t *testing.T) {
	t.Setenv("GATEWAY_KIND", "stripe")
	t.Setenv("STRIPE_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("stripe gateway without an api key should be rejected")
	}

	t.Setenv("STRIPE_API_KEY", "sk_test_123")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gateway.Kind != "stripe" || cfg.Gateway.StripeAPIKey != "sk_test_123" {
		t.Fatalf("gateway = %+v", cfg.Gateway)
	}
}
