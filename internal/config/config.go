// Package config handles loading and validation of service configuration.
// Supports both development (env vars) and production (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// Config holds all service configuration.
// Environment determines whether secrets load from env vars (development) or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject string
	MerchantID string

	// Public identity of the storefront
	StoreName string
	BaseURL   string // public origin, used for payment redirect URLs

	// Merchant-specific configuration (loaded from secrets)
	Merchant MerchantConfig
}

// MerchantConfig contains merchant-specific settings.
// In production, this is loaded from Secret Manager as JSON.
// In development, loaded from individual env vars or CONFIG_FILE.
type MerchantConfig struct {
	GatewayURL string `json:"gateway_url"`
	SignKey    string `json:"sign_key,omitempty"` // defaults to MerchantID when empty

	IdentityURL    string `json:"identity_url"`
	IdentityAPIKey string `json:"identity_api_key"`

	// Telegram relay credentials. Both empty disables the relay.
	TelegramBotToken string `json:"telegram_bot_token,omitempty"`
	TelegramChatID   string `json:"telegram_chat_id,omitempty"`

	// Optional infrastructure
	RedisAddr   string `json:"redis_addr,omitempty"`   // empty disables the geo cache
	StoragePath string `json:"storage_path,omitempty"` // SQLite path, defaults to hoststore.db
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) → ENV vars / Secret Manager.
// Validates all required fields and returns an error if any are missing.
func Load(ctx context.Context) (*Config, error) {
	// If CONFIG_FILE is set, load everything from the JSON file
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	// Otherwise, use ENV vars / Secret Manager approach
	cfg := &Config{
		Port:        envOrDefault("PORT", "8080"),
		Environment: envOrDefault("ENVIRONMENT", "development"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		GCPProject:  os.Getenv("GCP_PROJECT"),
		MerchantID:  os.Getenv("MERCHANT_ID"),
		StoreName:   envOrDefault("STORE_NAME", "AI Hosting Store"),
		BaseURL:     os.Getenv("BASE_URL"),
	}

	// MerchantID required in all environments
	if cfg.MerchantID == "" {
		return nil, fmt.Errorf("MERCHANT_ID environment variable required")
	}

	// Load merchant config based on environment
	var err error
	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		err = cfg.loadFromSecretManager(ctx)
	} else {
		err = cfg.loadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading merchant config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile reads all configuration from a JSON file.
// Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Use a struct that matches the JSON structure
	var fileConfig struct {
		Port        string         `json:"port"`
		Environment string         `json:"environment"`
		LogLevel    string         `json:"log_level"`
		MerchantID  string         `json:"merchant_id"`
		StoreName   string         `json:"store_name"`
		BaseURL     string         `json:"base_url"`
		Merchant    MerchantConfig `json:"merchant"`
	}

	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:        withDefault(fileConfig.Port, "8080"),
		Environment: withDefault(fileConfig.Environment, "development"),
		LogLevel:    withDefault(fileConfig.LogLevel, "info"),
		MerchantID:  fileConfig.MerchantID,
		StoreName:   withDefault(fileConfig.StoreName, "AI Hosting Store"),
		BaseURL:     fileConfig.BaseURL,
		Merchant:    fileConfig.Merchant,
	}

	if cfg.MerchantID == "" {
		return nil, fmt.Errorf("merchant_id is required")
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// loadFromSecretManager fetches merchant config from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{merchant_id}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.MerchantID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	if err := json.Unmarshal(result.Payload.Data, &c.Merchant); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}

	return nil
}

// loadFromEnv reads merchant config from individual environment variables.
// Used in development mode for local testing.
func (c *Config) loadFromEnv() error {
	c.Merchant = MerchantConfig{
		GatewayURL:       os.Getenv("GATEWAY_URL"),
		SignKey:          os.Getenv("SIGN_KEY"),
		IdentityURL:      os.Getenv("IDENTITY_URL"),
		IdentityAPIKey:   os.Getenv("IDENTITY_API_KEY"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		StoragePath:      os.Getenv("STORAGE_PATH"),
	}
	return nil
}

// applyDefaults fills in the fields that have sensible fallbacks.
// The gateway historically signs with the merchant ID when no dedicated
// key is configured; kept for wire compatibility, override with sign_key.
func (c *Config) applyDefaults() {
	if c.Merchant.SignKey == "" {
		c.Merchant.SignKey = c.MerchantID
	}
	if c.Merchant.StoragePath == "" {
		c.Merchant.StoragePath = "hoststore.db"
	}
	if c.BaseURL == "" {
		c.BaseURL = fmt.Sprintf("http://localhost:%s", c.Port)
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	if c.Merchant.GatewayURL == "" {
		return fmt.Errorf("gateway_url is required")
	}
	if _, err := url.Parse(c.Merchant.GatewayURL); err != nil {
		return fmt.Errorf("invalid gateway_url: %w", err)
	}
	if c.Merchant.IdentityURL == "" {
		return fmt.Errorf("identity_url is required")
	}
	if c.Merchant.IdentityAPIKey == "" {
		return fmt.Errorf("identity_api_key is required")
	}

	// Telegram credentials come as a pair or not at all
	hasToken := c.Merchant.TelegramBotToken != ""
	hasChat := c.Merchant.TelegramChatID != ""
	if hasToken != hasChat {
		return fmt.Errorf("telegram_bot_token and telegram_chat_id must be set together")
	}

	return nil
}

// RelayEnabled reports whether Telegram relay credentials are configured.
func (c *Config) RelayEnabled() bool {
	return c.Merchant.TelegramBotToken != "" && c.Merchant.TelegramChatID != ""
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
