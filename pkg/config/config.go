package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Collaborators
	Scraper    ScraperConfig
	Memos      MemosConfig
	MarketData MarketDataConfig
	History    HistoryConfig
	Notify     NotifyConfig

	// Storage
	Database DatabaseConfig
	Redis    RedisConfig

	// Attribution policy, in percentage points
	Attribution AttributionConfig

	// Scheduler
	Schedule string // cron expression with seconds field

	// Logging
	LogLevel  string
	LogFormat string
}

// ScraperConfig holds holdings page settings
type ScraperConfig struct {
	URL       string
	Mode      string // http, browser
	Timeout   time.Duration
	UserAgent string
}

// MemosConfig holds manager memo settings; memos always need the browser
type MemosConfig struct {
	Enabled bool
	URL     string
	Path    string        // file backend document
	Settle  time.Duration // pause after each list reload
}

// MarketDataConfig holds the daily return provider settings
type MarketDataConfig struct {
	BaseURL   string
	RateLimit int // requests per second
	Workers   int // concurrent lookups
}

// HistoryConfig selects where snapshots are persisted
type HistoryConfig struct {
	Backend string // file, postgres
	Path    string
}

// NotifyConfig holds alert channel settings; empty values disable a channel
type NotifyConfig struct {
	ResendAPIKey string
	ResendURL    string
	FromEmail    string
	ToEmail      string
	WebhookURL   string
}

// AttributionConfig mirrors attribution.Thresholds
type AttributionConfig struct {
	NoiseTotal      float64
	NoiseActive     float64
	ActiveThreshold float64
	DriftMinTotal   float64
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Scraper: ScraperConfig{
			URL:       getEnv("HOLDINGS_URL", "https://petermoportfolio.com/"),
			Mode:      getEnv("SCRAPER_MODE", "http"),
			Timeout:   getEnvAsDuration("SCRAPER_TIMEOUT", "100s"),
			UserAgent: getEnv("SCRAPER_USER_AGENT", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"),
		},

		Memos: MemosConfig{
			Enabled: getEnvAsBool("MEMOS_ENABLED", false),
			URL:     getEnv("MEMOS_URL", "https://petermoportfolio.com/memos"),
			Path:    getEnv("MEMOS_PATH", "data/memos.json"),
			Settle:  getEnvAsDuration("MEMOS_SETTLE", "2s"),
		},

		MarketData: MarketDataConfig{
			BaseURL:   getEnv("MARKETDATA_BASE_URL", "https://query1.finance.yahoo.com"),
			RateLimit: getEnvAsInt("MARKETDATA_RATE_LIMIT", 5),
			Workers:   getEnvAsInt("MARKETDATA_WORKERS", 4),
		},

		History: HistoryConfig{
			Backend: getEnv("HISTORY_BACKEND", "file"),
			Path:    getEnv("HISTORY_PATH", "data/history.json"),
		},

		Notify: NotifyConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			ResendURL:    getEnv("RESEND_URL", "https://api.resend.com/emails"),
			FromEmail:    getEnv("FROM_EMAIL", ""),
			ToEmail:      getEnv("ALERT_EMAIL_TO", ""),
			WebhookURL:   getEnv("CHAT_WEBHOOK_URL", ""),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 5),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Attribution: AttributionConfig{
			NoiseTotal:      getEnvAsFloat("ATTRIBUTION_NOISE_TOTAL", 0.1),
			NoiseActive:     getEnvAsFloat("ATTRIBUTION_NOISE_ACTIVE", 0.2),
			ActiveThreshold: getEnvAsFloat("ATTRIBUTION_ACTIVE_THRESHOLD", 0.15),
			DriftMinTotal:   getEnvAsFloat("ATTRIBUTION_DRIFT_MIN_TOTAL", 0.5),
		},

		Schedule: getEnv("SCHEDULE", "0 30 6 * * 1-5"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.History.Backend {
	case "file":
		if c.History.Path == "" {
			return fmt.Errorf("HISTORY_PATH is required for the file backend")
		}
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("HISTORY_BACKEND must be one of: file, postgres")
	}

	if c.Scraper.Mode != "http" && c.Scraper.Mode != "browser" {
		return fmt.Errorf("SCRAPER_MODE must be one of: http, browser")
	}

	if c.MarketData.RateLimit <= 0 {
		return fmt.Errorf("MARKETDATA_RATE_LIMIT must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
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

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
