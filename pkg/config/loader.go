// Package config provides configuration loading and validation utilities.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultDir = "./configs"
	envPrefix  = "TICKET"
)

var defaults = map[string]any{
	"app_env":                "development",
	"shutdown_timeout":       "10s",
	"machine.id":             "machine-1",
	"machine.ticket_price":   "50",
	"machine.currency":       "EUR",
	"logger.level":           "info",
	"logger.format":          "text",
	"logger.file":            "",
	"logger.max_size_mb":     100,
	"logger.max_backups":     3,
	"logger.max_age_days":    28,
	"sentry.enabled":         false,
	"sentry.dsn":             "",
	"sentry.sample_rate":     1.0,
	"sentry.environment":     "",
	"redis.addr":             "localhost:6379",
	"redis.password":         "",
	"redis.db":               0,
	"redis.pool_size":        10,
	"redis.min_idle_conns":   1,
	"redis.pool_timeout":     "4s",
	"redis.idle_timeout":     "5m",
	"redis.max_retries":      3,
	"journal.enabled":        false,
	"journal.max_entries":    1000,
	"journal.ttl":            "168h",
	"journal.clear_on_start": false,
	"journal.show":           10,
	"metrics.enabled":        false,
	"metrics.addr":           ":9090",
	"i18n.lang":              "en",
}

// Load reads configuration from ./configs/<APP_ENV>.yaml and TICKET_* environment variables.
func Load() (*Config, *viper.Viper, error) {
	if err := godotenv.Load(".env.local", ".env"); err != nil {
		// env files are optional
		_ = err
	}

	return LoadFrom(defaultDir)
}

// LoadFrom is Load with an explicit config directory. A missing file is not an error;
// defaults and environment variables still apply.
func LoadFrom(dir string) (*Config, *viper.Viper, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := filepath.Join(dir, env+".yaml")
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, nil, err
	}
	cfg.AppEnv = env

	return cfg, v, nil
}

// Watch reloads the config file on change and hands the validated result to onChange.
// It is a no-op when no config file was read.
func Watch(v *viper.Viper, log *slog.Logger, onChange func(*Config)) {
	if v == nil || onChange == nil || v.ConfigFileUsed() == "" {
		return
	}
	if log == nil {
		log = slog.Default()
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}

		cfg, err := decode(v)
		if err != nil {
			log.Warn("config reload rejected", slog.String("file", e.Name), slog.Any("error", err))
			return
		}

		log.Info("config reloaded", slog.String("file", e.Name))
		onChange(cfg)
	})
	v.WatchConfig()
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	price, err := cfg.Machine.Price()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if !price.IsPositive() {
		return nil, fmt.Errorf("validate config: machine.ticket_price must be positive, got %s", price)
	}

	return &cfg, nil
}
