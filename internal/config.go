package internal

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Database     DatabaseConfig     `mapstructure:"database"`
	Security     SecurityConfig     `mapstructure:"security"`
	Confirmation ConfirmationConfig `mapstructure:"confirmation"`
	Reports      ReportsConfig      `mapstructure:"reports"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Source          string        `mapstructure:"source"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type SecurityConfig struct {
	BCryptCost    int           `mapstructure:"bcrypt_cost"`
	SessionSecret string        `mapstructure:"session_secret"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	SessionFile   string        `mapstructure:"session_file"`
	LoginAttempts int           `mapstructure:"login_attempts"`
}

type ConfirmationConfig struct {
	CancelToken string `mapstructure:"cancel_token"`
	MaxAttempts int    `mapstructure:"max_attempts"`
}

type ReportsConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ----------------- DEFAULTS -----------------

func DefaultConfig() Config {
	return Config{
		Database: DatabaseConfig{
			Driver:          DriverSQLite,
			Source:          "equipment.db",
			MaxOpenConns:    1,
			MaxIdleConns:    1,
			ConnMaxLifetime: time.Hour,
		},
		Security: SecurityConfig{
			BCryptCost:    12,
			SessionTTL:    8 * time.Hour,
			SessionFile:   ".equipment-session",
			LoginAttempts: 3,
		},
		Confirmation: ConfirmationConfig{
			CancelToken: "cancel",
			MaxAttempts: 3,
		},
		Reports: ReportsConfig{
			OutputDir: "reports",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Confirmation.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("confirmation config: %v", err))
	}

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("logging config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.Driver != DriverSQLite && c.Driver != DriverPostgres {
		return fmt.Errorf("driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Driver)
	}
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if len(c.SessionSecret) < 32 {
		return errors.New("session secret must be at least 32 characters")
	}
	if c.BCryptCost < 10 || c.BCryptCost > 15 {
		return errors.New("bcrypt_cost must be between 10 and 15")
	}
	if c.SessionTTL < time.Minute {
		return errors.New("session_ttl must be at least 1m")
	}
	if c.SessionFile == "" {
		return errors.New("session_file is required")
	}
	if c.LoginAttempts < 1 {
		return errors.New("login_attempts must be at least 1")
	}
	return nil
}

func (c *ConfirmationConfig) Validate() error {
	if strings.TrimSpace(c.CancelToken) == "" {
		return errors.New("cancel_token is required")
	}
	if c.MaxAttempts < 1 {
		return errors.New("max_attempts must be at least 1")
	}
	return nil
}

func (c *LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid level %q", c.Level)
	}
	if c.Format != "json" && c.Format != "text" {
		return fmt.Errorf("invalid format %q", c.Format)
	}
	return nil
}
