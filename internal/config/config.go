// Package config loads the checkout service configuration from an optional
// YAML file followed by environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/wms-platform/checkout-service/internal/infrastructure/gateway"
	"github.com/wms-platform/checkout-service/internal/shipping"
	"github.com/wms-platform/checkout-service/internal/validation"
	"github.com/wms-platform/checkout-service/pkg/resilience"
	"github.com/wms-platform/checkout-service/pkg/temporal"
	"github.com/wms-platform/checkout-service/pkg/tracing"
)

// EnvConfigPath names the variable holding the YAML file path
const EnvConfigPath = "CHECKOUT_CONFIG"

// Config holds application configuration
type Config struct {
	ServerAddr  string           `yaml:"serverAddr"`
	LogLevel    string           `yaml:"logLevel"`
	Environment string           `yaml:"environment"`
	Temporal    TemporalConfig   `yaml:"temporal"`
	Tracing     TracingConfig    `yaml:"tracing"`
	Gateway     GatewayConfig    `yaml:"gateway"`
	Fees        FeesConfig       `yaml:"fees"`
	Validation  ValidationConfig `yaml:"validation"`
}

// TemporalConfig locates the Temporal frontend
type TemporalConfig struct {
	HostPort  string `yaml:"hostPort"`
	Namespace string `yaml:"namespace"`
	TaskQueue string `yaml:"taskQueue"`
}

// TracingConfig controls OTLP export
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Endpoint   string  `yaml:"endpoint"`
	SampleRate float64 `yaml:"sampleRate"`
}

// GatewayConfig configures the settlement gateway and its circuit breaker
type GatewayConfig struct {
	MerchantID       string        `yaml:"merchantId"`
	ReturnURL        string        `yaml:"returnUrl"`
	PaymentURL       string        `yaml:"paymentUrl"`
	DeclineBanks     []string      `yaml:"declineBanks"`
	DeclineCards     []string      `yaml:"declineCards"`
	FailureThreshold uint32        `yaml:"failureThreshold"`
	OpenTimeout      time.Duration `yaml:"openTimeout"`
}

// FeesConfig is the fee schedule as written in YAML. Amounts are in Currency.
type FeesConfig struct {
	Currency              string   `yaml:"currency"`
	InnerCityBaseFee      float64  `yaml:"innerCityBaseFee"`
	InnerCityBaseWeight   float64  `yaml:"innerCityBaseWeightKg"`
	OtherRegionBaseFee    float64  `yaml:"otherRegionBaseFee"`
	OtherRegionBaseWeight float64  `yaml:"otherRegionBaseWeightKg"`
	IncrementWeight       float64  `yaml:"incrementWeightKg"`
	IncrementFee          float64  `yaml:"incrementFee"`
	InnerCityKeywords     []string `yaml:"innerCityKeywords"`
	RushZoneKeywords      []string `yaml:"rushZoneKeywords"`
	RushSurchargePerLine  float64  `yaml:"rushSurchargePerLine"`
	VolumetricDivisor     float64  `yaml:"volumetricDivisor"`
}

// ValidationConfig holds the validation thresholds
type ValidationConfig struct {
	VATRate               float64 `yaml:"vatRate"`
	Tolerance             float64 `yaml:"tolerance"`
	MaxQuantityPerLine    int     `yaml:"maxQuantityPerLine"`
	MaxInstructionsLength int     `yaml:"maxInstructionsLength"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		ServerAddr:  ":8080",
		LogLevel:    "info",
		Environment: "development",
		Temporal: TemporalConfig{
			HostPort:  "localhost:7233",
			Namespace: "default",
			TaskQueue: temporal.TaskQueue,
		},
		Tracing: TracingConfig{
			Endpoint:   "localhost:4317",
			SampleRate: 1.0,
		},
		Gateway: GatewayConfig{
			MerchantID:       "CHECKOUT-SANDBOX",
			ReturnURL:        "http://localhost:8080/payment/return",
			FailureThreshold: resilience.DefaultFailureThreshold,
			OpenTimeout:      resilience.DefaultTimeout,
		},
		Fees: FeesConfig{
			Currency:              "VND",
			InnerCityBaseFee:      22000,
			InnerCityBaseWeight:   3,
			OtherRegionBaseFee:    30000,
			OtherRegionBaseWeight: 0.5,
			IncrementWeight:       0.5,
			IncrementFee:          2500,
			InnerCityKeywords:     []string{"hanoi", "ho chi minh"},
			RushZoneKeywords:      []string{"hanoi"},
			RushSurchargePerLine:  10000,
			VolumetricDivisor:     6000,
		},
		Validation: ValidationConfig{
			VATRate:               0.10,
			Tolerance:             0.01,
			MaxQuantityPerLine:    100,
			MaxInstructionsLength: 500,
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. An empty path falls back to CHECKOUT_CONFIG; a
// missing file keeps the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.ServerAddr = getEnv("SERVER_ADDR", c.ServerAddr)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.Temporal.HostPort = getEnv("TEMPORAL_HOST", c.Temporal.HostPort)
	c.Temporal.Namespace = getEnv("TEMPORAL_NAMESPACE", c.Temporal.Namespace)
	c.Tracing.Endpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Tracing.Endpoint)
	if v, err := strconv.ParseBool(getEnv("TRACING_ENABLED", "")); err == nil {
		c.Tracing.Enabled = v
	}
	c.Gateway.MerchantID = getEnv("GATEWAY_MERCHANT_ID", c.Gateway.MerchantID)
	c.Gateway.ReturnURL = getEnv("GATEWAY_RETURN_URL", c.Gateway.ReturnURL)
}

// Validate checks the configuration is usable
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.ServerAddr) == "" {
		errs = append(errs, errors.New("serverAddr is required"))
	}
	if err := c.FeeSchedule().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("fees: %w", err))
	}
	if c.Validation.VATRate < 0 || c.Validation.VATRate >= 1 {
		errs = append(errs, errors.New("validation: vatRate must be in [0, 1)"))
	}
	if c.Validation.Tolerance < 0 {
		errs = append(errs, errors.New("validation: tolerance must not be negative"))
	}
	if c.Validation.MaxQuantityPerLine <= 0 {
		errs = append(errs, errors.New("validation: maxQuantityPerLine must be positive"))
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		errs = append(errs, errors.New("tracing: sampleRate must be in [0, 1]"))
	}

	return errors.Join(errs...)
}

// FeeSchedule converts the YAML fee table into the decimal schedule
func (c *Config) FeeSchedule() shipping.FeeSchedule {
	f := c.Fees
	return shipping.FeeSchedule{
		Currency:                f.Currency,
		InnerCityBaseFee:        decimal.NewFromFloat(f.InnerCityBaseFee),
		InnerCityBaseWeightKg:   decimal.NewFromFloat(f.InnerCityBaseWeight),
		OtherRegionBaseFee:      decimal.NewFromFloat(f.OtherRegionBaseFee),
		OtherRegionBaseWeightKg: decimal.NewFromFloat(f.OtherRegionBaseWeight),
		IncrementWeightKg:       decimal.NewFromFloat(f.IncrementWeight),
		IncrementFee:            decimal.NewFromFloat(f.IncrementFee),
		InnerCityKeywords:       f.InnerCityKeywords,
		RushZoneKeywords:        f.RushZoneKeywords,
		RushSurchargePerLine:    decimal.NewFromFloat(f.RushSurchargePerLine),
		VolumetricDivisor:       decimal.NewFromFloat(f.VolumetricDivisor),
	}
}

// ValidationRules converts the thresholds into validation.Config
func (c *Config) ValidationRules() validation.Config {
	return validation.Config{
		VATRate:               decimal.NewFromFloat(c.Validation.VATRate),
		Tolerance:             decimal.NewFromFloat(c.Validation.Tolerance),
		MaxQuantityPerLine:    c.Validation.MaxQuantityPerLine,
		MaxInstructionsLength: c.Validation.MaxInstructionsLength,
	}
}

// SandboxConfig returns the sandbox gateway settings
func (c *Config) SandboxConfig() gateway.SandboxConfig {
	return gateway.SandboxConfig{
		MerchantID:   c.Gateway.MerchantID,
		ReturnURL:    c.Gateway.ReturnURL,
		PaymentURL:   c.Gateway.PaymentURL,
		DeclineBanks: c.Gateway.DeclineBanks,
		DeclineCards: c.Gateway.DeclineCards,
	}
}

// CircuitBreakerConfig returns the breaker settings for the gateway
func (c *Config) CircuitBreakerConfig() *resilience.CircuitBreakerConfig {
	cb := resilience.DefaultCircuitBreakerConfig("payment-gateway")
	if c.Gateway.FailureThreshold > 0 {
		cb.FailureThreshold = c.Gateway.FailureThreshold
	}
	if c.Gateway.OpenTimeout > 0 {
		cb.Timeout = c.Gateway.OpenTimeout
	}
	return cb
}

// TracingSettings returns the tracer configuration for serviceName
func (c *Config) TracingSettings(serviceName string) *tracing.Config {
	tc := tracing.DefaultConfig(serviceName)
	tc.Enabled = c.Tracing.Enabled
	tc.OTLPEndpoint = c.Tracing.Endpoint
	tc.SampleRate = c.Tracing.SampleRate
	tc.Environment = c.Environment
	return tc
}

// TemporalSettings returns the Temporal client configuration
func (c *Config) TemporalSettings() *temporal.Config {
	tc := temporal.DefaultConfig()
	tc.HostPort = c.Temporal.HostPort
	tc.Namespace = c.Temporal.Namespace
	if c.Temporal.TaskQueue != "" {
		tc.TaskQueue = c.Temporal.TaskQueue
	}
	return tc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
