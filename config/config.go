package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// Redis configuration (scheduler lock)
	RedisURL string

	// HTTP server configuration
	ListenAddr string
	BaseURL    string

	// Auth configuration
	JWTSecret         string
	TokenTTL          time.Duration
	AdminEmail        string
	AdminPasswordHash string // bcrypt hash of the admin password

	// Settlement configuration
	DefaultCommissionRate decimal.Decimal
	SettlementWindowDays  int

	// Scheduler configuration
	SchedulerEnabled  bool
	SchedulerInterval time.Duration
	SchedulerPassword string // plaintext credential the scheduler logs in with
	HTTPTimeout       time.Duration

	// Environment
	Environment string // "development" or "production"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from the environment, reading .env first when
// present.
func load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),
		RedisURL:     os.Getenv("REDIS_URL"),

		ListenAddr: ":8080",
		BaseURL:    "http://localhost:8080",

		JWTSecret:         os.Getenv("JWT_SECRET"),
		TokenTTL:          time.Hour,
		AdminEmail:        os.Getenv("ADMIN_EMAIL"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),

		DefaultCommissionRate: decimal.RequireFromString("0.10"),
		SettlementWindowDays:  7,

		SchedulerEnabled:  os.Getenv("SCHEDULER_ENABLED") == "true",
		SchedulerInterval: time.Hour,
		SchedulerPassword: os.Getenv("SCHEDULER_PASSWORD"),
		HTTPTimeout:       10 * time.Second,

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		config.ListenAddr = addr
	}
	if base := os.Getenv("BASE_URL"); base != "" {
		config.BaseURL = base
	}
	if ttl := os.Getenv("TOKEN_TTL"); ttl != "" {
		if parsed, err := time.ParseDuration(ttl); err == nil {
			config.TokenTTL = parsed
		}
	}
	if rate := os.Getenv("DEFAULT_COMMISSION_RATE"); rate != "" {
		parsed, err := decimal.NewFromString(rate)
		if err != nil {
			return nil, fmt.Errorf("invalid DEFAULT_COMMISSION_RATE %q: %w", rate, err)
		}
		config.DefaultCommissionRate = parsed
	}
	if days := os.Getenv("SETTLEMENT_WINDOW_DAYS"); days != "" {
		if parsed, err := strconv.Atoi(days); err == nil && parsed > 0 {
			config.SettlementWindowDays = parsed
		}
	}
	if interval := os.Getenv("SCHEDULER_INTERVAL"); interval != "" {
		if parsed, err := time.ParseDuration(interval); err == nil {
			config.SchedulerInterval = parsed
		}
	}
	if timeout := os.Getenv("HTTP_TIMEOUT"); timeout != "" {
		if parsed, err := time.ParseDuration(timeout); err == nil {
			config.HTTPTimeout = parsed
		}
	}

	if config.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if config.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return config, nil
}
