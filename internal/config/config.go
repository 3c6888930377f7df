package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

var (
	// ErrInvalidDriver is returned for database drivers other than sqlite3 and postgres
	ErrInvalidDriver = errors.New("invalid database driver")
	// ErrInvalidTimezone is returned when the streak time zone cannot be loaded
	ErrInvalidTimezone = errors.New("invalid timezone")
)

// Config represents the configuration of the learning engine
type Config struct {
	// Database driver: "sqlite3" or "postgres"
	DBDriver string
	// DSN for the driver; for sqlite3 defaults to <DataDir>/engcoach.db
	DBDSN string
	// Directory for the embedded database
	DataDir string
	// Time zone in which calendar days are counted for streaks
	Timezone string
	// Log mode: "prod" or "dev"
	LogMode string

	// Default number of quiz questions per session
	QuizLength int
	// Default number of items loaded for distractors
	PoolSize int

	// OpenAI-compatible grading endpoint
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	GradeTimeout  time.Duration

	// Hour of day (in Timezone) of the badge reconciliation sweep
	ReconcileHour int
	// Learners active within this many days are reconciled
	ReconcileLookbackDays int
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		DBDriver:              "sqlite3",
		DataDir:               "data",
		Timezone:              "UTC",
		LogMode:               "dev",
		QuizLength:            10,
		PoolSize:              80,
		OpenAIBaseURL:         "https://api.openai.com/v1",
		OpenAIModel:           "gpt-4o",
		GradeTimeout:          60 * time.Second,
		ReconcileHour:         3,
		ReconcileLookbackDays: 30,
	}
}

// Load reads .env (if present) and the environment on top of the defaults
func Load() (*Config, error) {
	// A missing .env file is fine; variables may come from the environment.
	_ = godotenv.Load()

	cfg := DefaultConfig()
	cfg.DBDriver = getEnvOrDefault("ENGCOACH_DB_DRIVER", cfg.DBDriver)
	cfg.DBDSN = os.Getenv("ENGCOACH_DB_DSN")
	cfg.DataDir = getEnvOrDefault("ENGCOACH_DATA_DIR", cfg.DataDir)
	cfg.Timezone = getEnvOrDefault("ENGCOACH_TIMEZONE", cfg.Timezone)
	cfg.LogMode = getEnvOrDefault("ENGCOACH_LOG_MODE", cfg.LogMode)
	cfg.QuizLength = getIntOrDefault("ENGCOACH_QUIZ_LENGTH", 1, 100, cfg.QuizLength)
	cfg.PoolSize = getIntOrDefault("ENGCOACH_POOL_SIZE", 0, 10000, cfg.PoolSize)
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAIBaseURL = getEnvOrDefault("OPENAI_BASE_URL", cfg.OpenAIBaseURL)
	cfg.OpenAIModel = getEnvOrDefault("OPENAI_MODEL", cfg.OpenAIModel)
	cfg.GradeTimeout = time.Duration(getIntOrDefault("ENGCOACH_GRADE_TIMEOUT_SECONDS", 1, 600, int(cfg.GradeTimeout/time.Second))) * time.Second
	cfg.ReconcileHour = getIntOrDefault("ENGCOACH_RECONCILE_HOUR", 0, 23, cfg.ReconcileHour)
	cfg.ReconcileLookbackDays = getIntOrDefault("ENGCOACH_RECONCILE_LOOKBACK_DAYS", 1, 3650, cfg.ReconcileLookbackDays)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the driver and time zone and fills the default DSN
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite3":
		if c.DBDSN == "" {
			c.DBDSN = filepath.Join(c.DataDir, "engcoach.db")
		}
	case "postgres":
		if c.DBDSN == "" {
			return errors.Wrap(ErrInvalidDriver, "postgres requires ENGCOACH_DB_DSN")
		}
	default:
		return errors.Wrapf(ErrInvalidDriver, "%q", c.DBDriver)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the time zone used for calendar-day arithmetic
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidTimezone, "%s: %v", c.Timezone, err)
	}
	return loc, nil
}

// GradingEnabled reports whether an API key for the grading service is set
func (c *Config) GradingEnabled() bool {
	return c.OpenAIAPIKey != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntOrDefault ignores values that do not parse or fall outside [min, max]
func getIntOrDefault(key string, min, max, defaultValue int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < min || v > max {
		return defaultValue
	}
	return v
}
