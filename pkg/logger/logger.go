// Package logger builds the application slog.Logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Proton-105/ticket-machine/pkg/config"
)

// Logger wraps slog.Logger with a runtime-adjustable level and the rotating log file, if any.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
	file  io.Closer
}

// New creates a Logger according to cfg.Logger. When cfg.Sentry is enabled, error records
// are also forwarded to Sentry; InitSentry must have been called first.
func New(cfg config.Config) *Logger {
	return newWithWriter(cfg, nil)
}

func newWithWriter(cfg config.Config, w io.Writer) *Logger {
	level := new(slog.LevelVar)
	if parsed, err := ParseLevel(cfg.Logger.Level); err == nil {
		level.Set(parsed)
	}

	var file io.Closer
	if w == nil {
		w = os.Stdout
		if cfg.Logger.File != "" {
			rotating := &lumberjack.Logger{
				Filename:   cfg.Logger.File,
				MaxSize:    cfg.Logger.MaxSizeMB,
				MaxBackups: cfg.Logger.MaxBackups,
				MaxAge:     cfg.Logger.MaxAgeDays,
				Compress:   true,
			}
			w = rotating
			file = rotating
		}
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Logger.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	if cfg.Sentry.Enabled {
		handler = slogmulti.Fanout(
			handler,
			slogsentry.Option{Level: slog.LevelError, AddSource: true}.NewSentryHandler(),
		)
	}

	base := slog.New(NewMaskingHandler(handler)).With(
		slog.String("app_env", cfg.AppEnv),
		slog.String("machine_id", cfg.Machine.ID),
	)

	return &Logger{Logger: base, level: level, file: file}
}

// SetLevel changes the minimum level of every record produced by l.
func (l *Logger) SetLevel(name string) error {
	parsed, err := ParseLevel(name)
	if err != nil {
		return err
	}

	l.level.Set(parsed)
	return nil
}

// Level returns the current minimum level.
func (l *Logger) Level() slog.Level {
	return l.level.Level()
}

// Close releases the rotating log file.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}
