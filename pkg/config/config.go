package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Proton-105/ticket-machine/pkg/redis"
)

// Config holds runtime configuration for the ticket machine.
type Config struct {
	AppEnv          string        `mapstructure:"app_env"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`

	Machine MachineConfig `mapstructure:"machine"`
	Logger  LoggerConfig  `mapstructure:"logger"`
	Sentry  SentryConfig  `mapstructure:"sentry"`
	Redis   redis.Config  `mapstructure:"redis"`
	Journal JournalConfig `mapstructure:"journal"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	I18n    I18nConfig    `mapstructure:"i18n"`
}

// MachineConfig describes the vending unit itself.
type MachineConfig struct {
	ID          string `mapstructure:"id" validate:"required,max=64"`
	TicketPrice string `mapstructure:"ticket_price" validate:"required,numeric"`
	Currency    string `mapstructure:"currency" validate:"required,len=3"`
}

// Price parses TicketPrice.
func (c MachineConfig) Price() (decimal.Decimal, error) {
	price, err := decimal.NewFromString(c.TicketPrice)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse ticket price %q: %w", c.TicketPrice, err)
	}
	return price, nil
}

type LoggerConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
	// File enables rotation through lumberjack; empty means stdout.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn" validate:"required_if=Enabled true"`
	SampleRate  float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	Environment string  `mapstructure:"environment"`
}

type JournalConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxEntries   int64         `mapstructure:"max_entries" validate:"gt=0"`
	TTL          time.Duration `mapstructure:"ttl" validate:"gt=0"`
	// ClearOnStart drops the previous audit trail before the first action.
	ClearOnStart bool          `mapstructure:"clear_on_start"`
	// Show is the number of entries the driver prints after its run.
	Show         int64         `mapstructure:"show" validate:"gte=0"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr" validate:"required_if=Enabled true"`
}

type I18nConfig struct {
	Lang string `mapstructure:"lang" validate:"required"`
}
