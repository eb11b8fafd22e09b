package logger

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/Proton-105/ticket-machine/pkg/config"
)

// InitSentry configures the global Sentry hub. It does nothing when Sentry is disabled.
func InitSentry(cfg config.Config) error {
	if !cfg.Sentry.Enabled {
		return nil
	}

	env := cfg.Sentry.Environment
	if env == "" {
		env = cfg.AppEnv
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.Sentry.DSN,
		Environment:      env,
		SampleRate:       cfg.Sentry.SampleRate,
		AttachStacktrace: true,
		ServerName:       cfg.Machine.ID,
	}); err != nil {
		return fmt.Errorf("init sentry: %w", err)
	}

	return nil
}

// FlushSentry waits up to timeout for buffered events to be delivered.
func FlushSentry(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}
