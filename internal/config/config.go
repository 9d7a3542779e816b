package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/kevin07696/payment-bridge/internal/adapters/secrets"
)

// Config holds all application configuration
type Config struct {
	// PaymentConfiguration is the raw JSON array of gateway entries
	PaymentConfiguration string
	Environment          string
	Metrics              MetricsConfig
	Secrets              SecretsConfig
	Logger               LoggerConfig
}

// MetricsConfig holds the optional metrics server configuration
type MetricsConfig struct {
	Addr string // empty disables the server
}

// SecretsConfig selects where secret:// gateway params are resolved
type SecretsConfig struct {
	Provider  string // none, local, aws, vault
	LocalPath string
	CacheTTL  time.Duration

	AWSRegion   string
	AWSProfile  string
	AWSEndpoint string

	VaultAddress   string
	VaultToken     string
	VaultMount     string
	VaultNamespace string
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	env := getEnv("ENVIRONMENT", "development")
	cfg := &Config{
		PaymentConfiguration: os.Getenv("PAYMENT_CONFIGURATION"),
		Environment:          env,
		Metrics: MetricsConfig{
			Addr: getEnv("METRICS_ADDR", ""),
		},
		Secrets: SecretsConfig{
			Provider:       getEnv("SECRETS_PROVIDER", secrets.ProviderNone),
			LocalPath:      getEnv("SECRETS_LOCAL_PATH", ""),
			CacheTTL:       getEnvAsDuration("SECRETS_CACHE_TTL", 5*time.Minute),
			AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
			AWSProfile:     getEnv("AWS_PROFILE", ""),
			AWSEndpoint:    getEnv("AWS_SECRETS_ENDPOINT", ""),
			VaultAddress:   getEnv("VAULT_ADDR", ""),
			VaultToken:     getEnv("VAULT_TOKEN", ""),
			VaultMount:     getEnv("VAULT_MOUNT", "secret"),
			VaultNamespace: getEnv("VAULT_NAMESPACE", ""),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", env != "production"),
		},
	}

	// Validate required fields
	switch cfg.Secrets.Provider {
	case secrets.ProviderNone:
	case secrets.ProviderLocal:
		if cfg.Secrets.LocalPath == "" {
			return nil, fmt.Errorf("SECRETS_LOCAL_PATH is required when SECRETS_PROVIDER=local")
		}
	case secrets.ProviderAWS:
	case secrets.ProviderVault:
		if cfg.Secrets.VaultAddress == "" {
			return nil, fmt.Errorf("VAULT_ADDR is required when SECRETS_PROVIDER=vault")
		}
	default:
		return nil, fmt.Errorf("SECRETS_PROVIDER must be one of none, local, aws, vault: got %q", cfg.Secrets.Provider)
	}

	return cfg, nil
}

// SecretOptions converts the secrets configuration for secrets.New.
func (c *Config) SecretOptions() secrets.Options {
	return secrets.Options{
		Provider:       c.Secrets.Provider,
		LocalPath:      c.Secrets.LocalPath,
		AWSRegion:      c.Secrets.AWSRegion,
		AWSProfile:     c.Secrets.AWSProfile,
		AWSEndpoint:    c.Secrets.AWSEndpoint,
		VaultAddress:   c.Secrets.VaultAddress,
		VaultToken:     c.Secrets.VaultToken,
		VaultMount:     c.Secrets.VaultMount,
		VaultNamespace: c.Secrets.VaultNamespace,
		CacheTTL:       c.Secrets.CacheTTL,
	}
}

// IsProduction reports whether ENVIRONMENT=production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
