package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"billing-backend/logger"
)

type Config struct {
	Port string

	DBDriver      string // postgres | sqlite
	DatabaseDSN   string
	DBAutoMigrate bool

	BodyLimitBytes  int
	RateLimitMax    int // zero disables the limiter
	RateLimitWindow time.Duration
	AllowedOrigins  string

	// Zero disables the in-process overdue sweep.
	OverdueSweepInterval time.Duration

	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Default returns the configuration used when no environment is set.
func Default() Config {
	return Config{
		Port:            "8080",
		DBDriver:        "postgres",
		DBAutoMigrate:   true,
		BodyLimitBytes:  4 * 1024 * 1024,
		RateLimitMax:    60,
		RateLimitWindow: 60 * time.Second,
		AllowedOrigins:  "*",
		LogLevel:        "info",
		LogFormat:       "json",
		LogTimeFormat:   time.RFC3339,
		LogOutput:       "stdout",
	}
}

// Load reads .env (if present) and the process environment on top of Default.
func Load() (Config, error) {
	_ = godotenv.Load()

	def := Default()
	cfg := Config{
		Port:           getEnv("PORT", def.Port),
		DBDriver:       strings.ToLower(getEnv("DB_DRIVER", def.DBDriver)),
		DBAutoMigrate:  envBool("DB_AUTO_MIGRATE", def.DBAutoMigrate),
		RateLimitMax:   envInt("RATE_LIMIT_MAX", def.RateLimitMax),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", def.AllowedOrigins),
		LogLevel:       getEnv("LOG_LEVEL", def.LogLevel),
		LogFormat:      getEnv("LOG_FORMAT", def.LogFormat),
		LogTimeFormat:  getEnv("LOG_TIME_FORMAT", def.LogTimeFormat),
		LogOutput:      getEnv("LOG_OUTPUT", def.LogOutput),
	}

	// BODY_LIMIT_BYTES wins over BODY_LIMIT_MB.
	cfg.BodyLimitBytes = envInt("BODY_LIMIT_BYTES", 0)
	if cfg.BodyLimitBytes <= 0 {
		cfg.BodyLimitBytes = envInt("BODY_LIMIT_MB", 4) * 1024 * 1024
	}
	cfg.RateLimitWindow = time.Duration(envInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second

	if v := os.Getenv("OVERDUE_SWEEP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("OVERDUE_SWEEP_INTERVAL: %w", err)
		}
		cfg.OverdueSweepInterval = d
	}

	cfg.DatabaseDSN = os.Getenv("DATABASE_DSN")
	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = defaultDSN(cfg.DBDriver)
	}

	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver)
	}
	if c.RateLimitMax < 0 {
		return fmt.Errorf("RATE_LIMIT_MAX must not be negative")
	}
	if c.OverdueSweepInterval < 0 {
		return fmt.Errorf("OVERDUE_SWEEP_INTERVAL must not be negative")
	}
	return nil
}

// LoggerConfig returns the logger section of c.
func (c Config) LoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func defaultDSN(driver string) string {
	if driver == "sqlite" {
		return "billing.db"
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		getEnv("DB_HOST", "localhost"), getEnv("DB_USER", "postgres"), os.Getenv("DB_PASSWORD"),
		getEnv("DB_NAME", "billing"), getEnv("DB_PORT", "5432"))
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envInt reads an int env var with a default fallback.
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
