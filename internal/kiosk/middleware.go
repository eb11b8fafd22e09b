package kiosk

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	apperrors "github.com/Proton-105/ticket-machine/internal/errors"
	"github.com/Proton-105/ticket-machine/internal/journal"
	"github.com/Proton-105/ticket-machine/internal/machine"
)

// OutcomeRecorder receives every answered action. metrics.RecordOutcome satisfies it.
type OutcomeRecorder func(out machine.Outcome, duration time.Duration)

// Appender stores journal entries.
type Appender interface {
	Append(ctx context.Context, entry journal.Entry) error
}

// Recovery turns a panic inside the chain into a state error.
func Recovery(log *slog.Logger) Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next Handler) Handler {
		return func(ctx context.Context, call *Call) (out machine.Outcome, err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic recovered in kiosk action",
						slog.String("action", string(call.Action)),
						slog.Any("panic", r),
						slog.String("stack", string(debug.Stack())),
					)
					out = machine.Outcome{Action: call.Action}
					err = apperrors.NewStateError("machine action panicked", nil)
				}
			}()

			return next(ctx, call)
		}
	}
}

// Logging writes one record per action.
func Logging(log *slog.Logger) Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next Handler) Handler {
		return func(ctx context.Context, call *Call) (machine.Outcome, error) {
			out, err := next(ctx, call)

			attrs := []any{
				slog.String("action", string(call.Action)),
				slog.String("correlation_id", call.CorrelationID),
				slog.Duration("duration", time.Since(call.StartedAt)),
			}
			if call.TransactionID != "" {
				attrs = append(attrs, slog.String("transaction_id", call.TransactionID))
			}

			if err != nil {
				attrs = append(attrs, slog.Any("error", err))
				log.DebugContext(ctx, "machine action rejected", attrs...)
				return out, err
			}

			attrs = append(attrs,
				slog.String("code", string(out.Code)),
				slog.String("from", string(out.From)),
				slog.String("to", string(out.To)),
				slog.String("balance", out.Balance.String()),
			)
			if call.Action == machine.ActionInsertMoney {
				attrs = append(attrs, slog.String("amount", out.Amount.String()))
			}
			log.InfoContext(ctx, "machine action", attrs...)

			return out, nil
		}
	}
}

// Metrics reports answered actions to record.
func Metrics(record OutcomeRecorder) Middleware {
	return func(next Handler) Handler {
		if record == nil {
			return next
		}

		return func(ctx context.Context, call *Call) (machine.Outcome, error) {
			out, err := next(ctx, call)
			if err == nil {
				record(out, time.Since(call.StartedAt))
			}
			return out, err
		}
	}
}

// Journal appends every answered action to j. j must not block; wrap a *journal.Journal
// in a *journal.Queue. A failed append is passed to errHandler and never alters the
// outcome returned to the customer.
func Journal(j Appender, errHandler ErrorHandler) Middleware {
	return func(next Handler) Handler {
		if j == nil {
			return next
		}

		return func(ctx context.Context, call *Call) (machine.Outcome, error) {
			out, err := next(ctx, call)
			if err != nil {
				return out, err
			}

			entry := journal.NewEntry(out, call.TransactionID, call.CorrelationID, time.Now())
			if appendErr := j.Append(ctx, entry); appendErr != nil && errHandler != nil {
				errHandler.Handle(ctx, appendErr)
			}

			return out, nil
		}
	}
}
