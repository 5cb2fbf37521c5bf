// Package config loads server configuration from the environment.
//
// Values are read from a .env file when present, then from the process
// environment. Command-line flags registered with RegisterFlags override both.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/warp/unit-finance/allocation"
)

// Config holds application configuration
type Config struct {
	Port               int
	DBPath             string
	LogLevel           string // debug, info, warn, error
	LogFormat          string // human or json
	WorkingDays        int    // working days per month for day-count allocation
	UseHolidayCalendar bool   // derive working days from the holiday calendar instead
	CORSAllowedOrigins []string
	AuditEnabled       bool
	AuditSchedule      string // cron expression for the allocation audit
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnvAsInt("PORT", 8080),
		DBPath:             getEnv("DB_PATH", "finance.db"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "human"),
		WorkingDays:        getEnvAsInt("WORKING_DAYS", allocation.DefaultWorkingDays),
		UseHolidayCalendar: getEnvAsBool("USE_HOLIDAY_CALENDAR", false),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:8080"}),
		AuditEnabled:       getEnvAsBool("AUDIT_ENABLED", true),
		AuditSchedule:      getEnv("AUDIT_SCHEDULE", "@hourly"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RegisterFlags binds command-line flags to cfg. Call flag.Parse afterwards,
// then Validate.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.Port, "port", c.Port, "HTTP server port")
	fs.StringVar(&c.DBPath, "db", c.DBPath, "SQLite database path (\":memory:\" for in-memory)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "log format: human or json")
	fs.IntVar(&c.WorkingDays, "working-days", c.WorkingDays, "working days per month for day-count allocation")
	fs.BoolVar(&c.AuditEnabled, "audit", c.AuditEnabled, "run the scheduled allocation audit")
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("DB_PATH is required"))
	}
	if c.WorkingDays <= 0 || c.WorkingDays > 31 {
		errs = append(errs, fmt.Errorf("WORKING_DAYS %d out of range 1-31", c.WorkingDays))
	}
	switch c.LogFormat {
	case "human", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q must be human or json", c.LogFormat))
	}
	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
