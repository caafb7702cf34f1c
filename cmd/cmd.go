package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/frahmantamala/equipment-inventory/internal"
)

var (
	configPath string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:           "equipment-inventory",
	Short:         "Equipment Inventory",
	Long:          `Tracks physical equipment through registration, assignment, maintenance, vendor return and renewal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI and exits with the code mapped from the error type.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if appErr, ok := internal.IsAppError(err); ok {
			fmt.Fprintln(os.Stderr, "error:", appErr.GetDetailedMessage())
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(internal.ExitCode(err))
	}
}

// loadConfig reads config.yml from path over the built-in defaults. A local
// .env is loaded first so EQUIPMENT_* variables can live there.
func loadConfig(path string) (*internal.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, internal.DefaultConfig())

	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix("EQUIPMENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg internal.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("error validating config: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that
// are absent from config.yml.
func setDefaults(v *viper.Viper, d internal.Config) {
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.source", d.Database.Source)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", d.Database.ConnMaxLifetime)

	v.SetDefault("security.bcrypt_cost", d.Security.BCryptCost)
	v.SetDefault("security.session_secret", d.Security.SessionSecret)
	v.SetDefault("security.session_ttl", d.Security.SessionTTL)
	v.SetDefault("security.session_file", d.Security.SessionFile)
	v.SetDefault("security.login_attempts", d.Security.LoginAttempts)

	v.SetDefault("confirmation.cancel_token", d.Confirmation.CancelToken)
	v.SetDefault("confirmation.max_attempts", d.Confirmation.MaxAttempts)

	v.SetDefault("reports.output_dir", d.Reports.OutputDir)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "directory containing config.yml")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, passwdCmd)
	rootCmd.AddCommand(equipmentCmd, maintenanceCmd, vendorReturnCmd, renewalCmd)
	rootCmd.AddCommand(pendingCmd, dashboardCmd, reportCmd)
	rootCmd.AddCommand(userCmd, catalogCmd, systemLogCmd)
}
