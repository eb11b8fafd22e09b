// Package journal keeps an audit trail of ticket machine outcomes in Redis.
// Machine state is never restored from it.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/Proton-105/ticket-machine/internal/errors"
	"github.com/Proton-105/ticket-machine/internal/machine"
)

const (
	journalKeyPattern = "machine:%s:journal"

	defaultMaxEntries = 1000
	defaultTTL        = 7 * 24 * time.Hour
)

// ErrUnavailable is returned while the circuit breaker rejects writes.
var ErrUnavailable = errors.New("journal unavailable")

// Backend is the list storage the journal writes to. pkg/redis.Client and
// pkg/redis.MetricsClient implement it.
type Backend interface {
	AppendCapped(ctx context.Context, key string, value interface{}, maxLen int64, ttl time.Duration) error
	Range(ctx context.Context, key string, start, stop int64) ([]string, error)
	Delete(ctx context.Context, key string) error
}

// Entry is one recorded outcome.
type Entry struct {
	MachineID     string          `json:"machine_id"`
	TransactionID string          `json:"transaction_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Action        machine.Action  `json:"action"`
	Code          machine.Code    `json:"code"`
	From          machine.State   `json:"from"`
	To            machine.State   `json:"to"`
	Amount        decimal.Decimal `json:"amount"`
	Balance       decimal.Decimal `json:"balance"`
	Change        decimal.Decimal `json:"change"`
	RecordedAt    time.Time       `json:"recorded_at"`
}

// NewEntry copies out into an Entry.
func NewEntry(out machine.Outcome, transactionID, correlationID string, at time.Time) Entry {
	return Entry{
		TransactionID: transactionID,
		CorrelationID: correlationID,
		Action:        out.Action,
		Code:          out.Code,
		From:          out.From,
		To:            out.To,
		Amount:        out.Amount,
		Balance:       out.Balance,
		Change:        out.Change,
		RecordedAt:    at.UTC(),
	}
}

// Options configures a Journal. Zero values fall back to defaults.
type Options struct {
	MaxEntries int64
	TTL        time.Duration
	Breaker    *apperrors.CircuitBreaker
}

// Journal appends entries for one machine.
type Journal struct {
	backend    Backend
	machineID  string
	key        string
	maxEntries int64
	ttl        time.Duration
	breaker    *apperrors.CircuitBreaker
	log        *slog.Logger
}

// New creates a journal for machineID.
func New(backend Backend, machineID string, opts Options, log *slog.Logger) *Journal {
	if log == nil {
		log = slog.Default()
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = defaultMaxEntries
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.Breaker == nil {
		opts.Breaker = apperrors.NewCircuitBreaker()
	}

	return &Journal{
		backend:    backend,
		machineID:  machineID,
		key:        fmt.Sprintf(journalKeyPattern, machineID),
		maxEntries: opts.MaxEntries,
		ttl:        opts.TTL,
		breaker:    opts.Breaker,
		log:        log,
	}
}

// Append records entry, retrying transient backend failures.
func (j *Journal) Append(ctx context.Context, entry Entry) error {
	entry.MachineID = j.machineID
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		j.log.Error("failed to encode journal entry", "code", entry.Code, "error", err)
		return err
	}

	err = j.breaker.Call(func() error {
		return apperrors.WithRetry(ctx, func() error {
			if err := j.backend.AppendCapped(ctx, j.key, data, j.maxEntries, j.ttl); err != nil {
				return apperrors.NewStorageError("journal append", err)
			}
			return nil
		})
	})
	if errors.Is(err, apperrors.ErrCircuitOpen) || errors.Is(err, apperrors.ErrHalfOpenTooManyRequests) {
		return apperrors.NewStorageError("journal append", fmt.Errorf("%w: %w", ErrUnavailable, err))
	}

	return err
}

// Recent returns up to n entries, newest first.
func (j *Journal) Recent(ctx context.Context, n int64) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}

	values, err := j.backend.Range(ctx, j.key, 0, n-1)
	if err != nil {
		j.log.Error("failed to read journal", "key", j.key, "error", err)
		return nil, apperrors.NewStorageError("journal range", err)
	}

	entries := make([]Entry, 0, len(values))
	for _, value := range values {
		var entry Entry
		if err := json.Unmarshal([]byte(value), &entry); err != nil {
			j.log.Warn("skipping undecodable journal entry", "key", j.key, "error", err)
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// Clear removes every entry.
func (j *Journal) Clear(ctx context.Context) error {
	if err := j.backend.Delete(ctx, j.key); err != nil {
		j.log.Error("failed to clear journal", "key", j.key, "error", err)
		return apperrors.NewStorageError("journal clear", err)
	}

	return nil
}
