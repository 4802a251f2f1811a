package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	Database    DatabaseConfig
	Redis       RedisConfig
	Shopify     ShopifyConfig
	Exact       ExactConfig
	FailureLog  string
	LogLevel    string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type ShopifyConfig struct {
	// WebhookSecret signs webhook deliveries. Empty disables HMAC
	// verification (local development).
	WebhookSecret string
}

type ExactConfig struct {
	BaseURL       string
	AccessToken   string
	Division      int
	WarehouseID   string
	SalespersonID string
	Currency      string

	// Shipping-fee synthesis
	ShippingItemCode      string
	ShippingFallbackPrice string

	// Shipping method GUIDs: pickup is the default, carrier is selected
	// when the order carries a carrier shipping line and an address.
	PickupMethodID  string
	CarrierMethodID string
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("EXACT_CURRENCY", "EUR")
	viper.SetDefault("EXACT_DIVISION", 0)
	viper.SetDefault("SHIPPING_ITEM_CODE", "VERZENDKOSTEN")
	viper.SetDefault("SHIPPING_FALLBACK_PRICE", "6.95")
	viper.SetDefault("FAILURE_LOG_PATH", "failed_orders.log")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "exactsync"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvOrViper("REDIS_ENABLED", "true") == "true",
			Host:     getEnvOrViper("REDIS_HOST", "localhost"),
			Port:     getEnvOrViper("REDIS_PORT", "6379"),
			Password: getEnvOrViper("REDIS_PASSWORD", ""),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Shopify: ShopifyConfig{
			WebhookSecret: getEnvOrViper("SHOPIFY_WEBHOOK_SECRET", ""),
		},
		Exact: ExactConfig{
			BaseURL:               getEnvOrViper("EXACT_BASE_URL", "https://start.exactonline.nl"),
			AccessToken:           getEnvOrViper("EXACT_ACCESS_TOKEN", ""),
			Division:              viper.GetInt("EXACT_DIVISION"),
			WarehouseID:           getEnvOrViper("EXACT_WAREHOUSE_ID", ""),
			SalespersonID:         getEnvOrViper("EXACT_SALESPERSON_ID", ""),
			Currency:              getEnvOrViper("EXACT_CURRENCY", "EUR"),
			ShippingItemCode:      getEnvOrViper("SHIPPING_ITEM_CODE", "VERZENDKOSTEN"),
			ShippingFallbackPrice: getEnvOrViper("SHIPPING_FALLBACK_PRICE", "6.95"),
			PickupMethodID:        getEnvOrViper("EXACT_PICKUP_METHOD_ID", ""),
			CarrierMethodID:       getEnvOrViper("EXACT_CARRIER_METHOD_ID", ""),
		},
		FailureLog: getEnvOrViper("FAILURE_LOG_PATH", "failed_orders.log"),
		LogLevel:   getEnvOrViper("LOG_LEVEL", "info"),
	}

	// Validate required fields
	if cfg.Exact.BaseURL == "" {
		return nil, fmt.Errorf("EXACT_BASE_URL is required")
	}

	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}
