package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "github.com/Proton-105/ticket-machine/internal/errors"
	"github.com/Proton-105/ticket-machine/internal/health"
	"github.com/Proton-105/ticket-machine/internal/i18n"
	"github.com/Proton-105/ticket-machine/internal/journal"
	"github.com/Proton-105/ticket-machine/internal/kiosk"
	"github.com/Proton-105/ticket-machine/internal/lifecycle"
	"github.com/Proton-105/ticket-machine/internal/machine"
	"github.com/Proton-105/ticket-machine/pkg/config"
	"github.com/Proton-105/ticket-machine/pkg/graceful"
	"github.com/Proton-105/ticket-machine/pkg/logger"
	"github.com/Proton-105/ticket-machine/pkg/metrics"
	appredis "github.com/Proton-105/ticket-machine/pkg/redis"
)

const (
	stateCollectInterval = 10 * time.Second
	journalFlushTimeout  = 2 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(*cfg)
	defer func() { _ = log.Close() }()

	if err := logger.InitSentry(*cfg); err != nil {
		log.Warn("sentry disabled", "error", err)
		cfg.Sentry.Enabled = false
	}

	config.Watch(v, log.Logger, func(updated *config.Config) {
		if err := log.SetLevel(updated.Logger.Level); err != nil {
			log.Warn("ignoring invalid log level", "level", updated.Logger.Level, "error", err)
		}
	})

	errHandler := apperrors.NewHandler(log.Logger, cfg.Sentry.Enabled, metrics.RecordError)
	shutdown := lifecycle.NewShutdown(log.Logger)

	price, err := cfg.Machine.Price()
	if err != nil {
		return err
	}

	m, err := machine.New(
		machine.WithTicketPrice(price),
		machine.WithLogger(log.Logger),
		machine.WithTransitionRecorder(metrics.RecordStateTransition),
	)
	if err != nil {
		return err
	}

	translations, err := i18n.Load("en")
	if err != nil {
		return err
	}
	tr := translations.Translator(cfg.I18n.Lang)

	checker := health.NewChecker(log.Logger)
	checker.AddCheck("machine", health.NewMachineChecker(m))

	svc := kiosk.New(m, cfg.Machine.ID, log.Logger, errHandler)
	svc.Use(
		kiosk.Recovery(log.Logger),
		kiosk.Logging(log.Logger),
		kiosk.Metrics(metrics.RecordOutcome),
	)

	var (
		auditTrail *journal.Journal
		queue      *journal.Queue
	)
	if cfg.Journal.Enabled {
		client, err := appredis.New(ctx, cfg.Redis)
		if err != nil {
			// the machine keeps selling without an audit trail
			errHandler.Handle(ctx, apperrors.NewStorageError("redis connect", err))
		} else {
			rdb := appredis.NewMetricsClient(client)
			auditTrail = journal.New(rdb, cfg.Machine.ID, journal.Options{
				MaxEntries: cfg.Journal.MaxEntries,
				TTL:        cfg.Journal.TTL,
			}, log.Logger)

			if cfg.Journal.ClearOnStart {
				if err := auditTrail.Clear(ctx); err != nil {
					errHandler.Handle(ctx, err)
				}
			}

			queue = journal.NewQueue(auditTrail, 0, func(entry journal.Entry, err error) {
				errHandler.Handle(logger.WithCorrelationID(context.Background(), entry.CorrelationID), err)
			})

			svc.Use(kiosk.Journal(queue, errHandler))
			checker.AddCheck("redis", health.NewRedisChecker(rdb))
			shutdown.Register("journal", func(ctx context.Context) error {
				// drain before the client goes away
				closeErr := queue.Close(ctx)
				return errors.Join(closeErr, rdb.Close())
			})
		}
	}

	if cfg.Sentry.Enabled {
		shutdown.Register("sentry", func(context.Context) error {
			logger.FlushSentry(2 * time.Second)
			return nil
		})
	}

	fmt.Println(tr.Tf("driver.started", map[string]string{
		"machine":  cfg.Machine.ID,
		"price":    price.String(),
		"currency": cfg.Machine.Currency,
	}))

	renderer := kiosk.NewRenderer(tr, price, cfg.Machine.Currency)
	if err := runTrace(ctx, svc, renderer, os.Stdout); err != nil {
		errHandler.Handle(ctx, err)
	}

	if queue != nil && cfg.Journal.Show > 0 {
		if err := showJournal(ctx, queue, auditTrail, cfg.Journal.Show, tr.Tf("driver.journal", map[string]string{
			"machine": cfg.Machine.ID,
		})); err != nil {
			errHandler.Handle(ctx, err)
		}
	}

	fmt.Println(tr.T("driver.completed"))

	if cfg.Metrics.Enabled {
		go metrics.NewStateCollector(m, stateCollectInterval).Run(ctx)

		probes := lifecycle.NewProbes(log.Logger, checker)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.Handle("/healthz", probes.LivenessHandler())
		mux.Handle("/readyz", probes.ReadinessHandler())

		srv := graceful.NewServer(log.Logger, cfg.Metrics.Addr, logger.Middleware(mux), cfg.ShutdownTimeout)
		if err := srv.ListenAndServe(ctx); err != nil {
			log.Error("metrics server stopped", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	return shutdown.Execute(shutdownCtx)
}

func showJournal(ctx context.Context, queue *journal.Queue, j *journal.Journal, n int64, header string) error {
	flushCtx, cancel := context.WithTimeout(ctx, journalFlushTimeout)
	defer cancel()

	if err := queue.Flush(flushCtx); err != nil {
		return err
	}

	entries, err := j.Recent(ctx, n)
	if err != nil {
		return err
	}

	return printJournal(os.Stdout, header, entries)
}
