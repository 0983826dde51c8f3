package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DatabaseDriverPostgres = "postgres"
	DatabaseDriverSQLite   = "sqlite"

	DevnetRPCURL = "https://api.devnet.solana.com"
)

type Config struct {
	Development bool
	// API configuration
	APIPort int

	// Solana configuration
	RPCURL string
	// FeePayerPrivateKey is the base58 secret key of the fee payer.
	// It may be empty at startup; requests fail with 500 until it is set.
	FeePayerPrivateKey string

	// Loyalty protocol gateway
	LoyaltyGatewayURL     string
	LoyaltyGatewayTimeout time.Duration
	BatchConcurrency      int

	// Journal database configuration
	DatabaseDriver   string
	PostgresUser     string
	PostgresPassword string
	PostgresHost     string
	PostgresPort     int
	PostgresDB       string
	SQLitePath       string

	// Alerting configuration
	TelegramBotToken    string
	TelegramAlertChatID string

	// Event publishing; empty disables it
	RabbitMQURL string

	// Rate limiting of the gasless route, per client IP
	RateLimitPerMinute float64
	RateLimitBurst     int

	// Fee payer balance watcher
	MinFeePayerLamports  uint64
	BalanceCheckInterval time.Duration
}

// LoadConfig loads the configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Development:           getEnvAsBool("DEVELOPMENT", false),
		APIPort:               getEnvAsInt("API_PORT", 6532),
		RPCURL:                getEnv("SOLANA_RPC_URL", DevnetRPCURL),
		FeePayerPrivateKey:    strings.TrimSpace(getEnv("FEE_PAYER_PRIVATE_KEY", "")),
		LoyaltyGatewayURL:     strings.TrimSuffix(getEnv("LOYALTY_GATEWAY_URL", "http://localhost:7070"), "/"),
		LoyaltyGatewayTimeout: time.Duration(getEnvAsInt("LOYALTY_GATEWAY_TIMEOUT_SECONDS", 30)) * time.Second,
		BatchConcurrency:      getEnvAsInt("BATCH_CONCURRENCY", 4),
		DatabaseDriver:        strings.ToLower(getEnv("DATABASE_DRIVER", DatabaseDriverPostgres)),
		PostgresUser:          getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword:      getEnv("POSTGRES_PASSWORD", "password"),
		PostgresHost:          getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:          getEnvAsInt("POSTGRES_PORT", 5432),
		PostgresDB:            getEnv("POSTGRES_DB", "poynt"),
		SQLitePath:            getEnv("SQLITE_PATH", "poynt-relay.db"),
		TelegramBotToken:      getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramAlertChatID:   getEnv("TELEGRAM_ALERT_CHAT_ID", ""),
		RabbitMQURL:           getEnv("RABBITMQ_URL", ""),
		RateLimitPerMinute:    getEnvAsFloat("RATE_LIMIT_PER_MINUTE", 120),
		RateLimitBurst:        getEnvAsInt("RATE_LIMIT_BURST", 20),
		MinFeePayerLamports:   getEnvAsUint64("MIN_FEE_PAYER_LAMPORTS", 50_000_000), // 0.05 SOL
		BalanceCheckInterval:  time.Duration(getEnvAsInt("BALANCE_CHECK_INTERVAL_SECONDS", 300)) * time.Second,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are properly set.
// The fee payer key is deliberately not checked here, see FeePayerPrivateKey.
func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("SOLANA_RPC_URL is required")
	}

	if c.LoyaltyGatewayURL == "" {
		return fmt.Errorf("LOYALTY_GATEWAY_URL is required")
	}

	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("API_PORT must be between 1 and 65535, got %d", c.APIPort)
	}

	if c.BatchConcurrency <= 0 {
		return fmt.Errorf("BATCH_CONCURRENCY must be positive, got %d", c.BatchConcurrency)
	}

	switch c.DatabaseDriver {
	case DatabaseDriverPostgres:
		if c.PostgresDB == "" {
			return fmt.Errorf("POSTGRES_DB is required")
		}
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required")
		}
	case DatabaseDriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required")
		}
	default:
		return fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DatabaseDriverPostgres, DatabaseDriverSQLite, c.DatabaseDriver)
	}

	if c.TelegramBotToken != "" && c.TelegramAlertChatID == "" {
		return fmt.Errorf("TELEGRAM_ALERT_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}

	if c.RateLimitPerMinute <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE and RATE_LIMIT_BURST must be positive")
	}

	if c.BalanceCheckInterval <= 0 {
		return fmt.Errorf("BALANCE_CHECK_INTERVAL_SECONDS must be positive")
	}

	return nil
}

// Helper functions to read environment variables
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsBool(name string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsFloat(name string, defaultValue float64) float64 {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsUint64(name string, defaultValue uint64) uint64 {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.ParseUint(valueStr, 10, 64); err == nil {
			return value
		}
	}
	return defaultValue
}
