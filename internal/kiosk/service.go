// Package kiosk is the customer-facing front of a ticket machine. It runs machine
// actions through a middleware chain and tracks the current transaction id.
package kiosk

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Proton-105/ticket-machine/internal/machine"
	"github.com/Proton-105/ticket-machine/pkg/logger"
)

// Call describes one action travelling through the middleware chain. The core handler
// fills TransactionID once the machine has answered.
type Call struct {
	Action        machine.Action
	Amount        decimal.Decimal
	CorrelationID string
	TransactionID string
	StartedAt     time.Time
}

// Handler runs a call against the machine.
type Handler func(ctx context.Context, call *Call) (machine.Outcome, error)

// Middleware wraps handlers with additional behavior.
type Middleware func(Handler) Handler

// ErrorHandler reports errors. *errors.Handler satisfies it.
type ErrorHandler interface {
	Handle(ctx context.Context, err error) (string, bool)
}

// Snapshot is a point-in-time view of the kiosk.
type Snapshot struct {
	MachineID     string          `json:"machine_id"`
	State         machine.State   `json:"state"`
	Balance       decimal.Decimal `json:"balance"`
	TicketPrice   decimal.Decimal `json:"ticket_price"`
	TransactionID string          `json:"transaction_id,omitempty"`
}

// Service serializes customer actions on one machine.
type Service struct {
	machine    *machine.Machine
	machineID  string
	log        *slog.Logger
	errHandler ErrorHandler

	mu            sync.Mutex
	transactionID string
	middlewares   []Middleware
	chain         Handler
	now           func() time.Time
}

// New creates a kiosk bound to m.
func New(m *machine.Machine, machineID string, log *slog.Logger, errHandler ErrorHandler) *Service {
	if log == nil {
		log = slog.Default()
	}

	s := &Service{
		machine:    m,
		machineID:  machineID,
		log:        log,
		errHandler: errHandler,
		now:        time.Now,
	}
	s.chain = s.dispatch

	return s
}

// Use appends middlewares. The first registered middleware runs outermost.
func (s *Service) Use(mw ...Middleware) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range mw {
		if m != nil {
			s.middlewares = append(s.middlewares, m)
		}
	}

	h := Handler(s.dispatch)
	for i := len(s.middlewares) - 1; i >= 0; i-- {
		if wrapped := s.middlewares[i](h); wrapped != nil {
			h = wrapped
		}
	}
	s.chain = h
}

// Select chooses a ticket.
func (s *Service) Select(ctx context.Context) (machine.Outcome, error) {
	return s.run(ctx, machine.ActionSelectTicket, decimal.Zero)
}

// Insert offers amount to the machine.
func (s *Service) Insert(ctx context.Context, amount decimal.Decimal) (machine.Outcome, error) {
	return s.run(ctx, machine.ActionInsertMoney, amount)
}

// Dispense asks the machine for the ticket.
func (s *Service) Dispense(ctx context.Context) (machine.Outcome, error) {
	return s.run(ctx, machine.ActionDispenseTicket, decimal.Zero)
}

// Cancel aborts the current transaction.
func (s *Service) Cancel(ctx context.Context) (machine.Outcome, error) {
	return s.run(ctx, machine.ActionCancelTransaction, decimal.Zero)
}

// Reset returns the machine to idle and hands back the change.
func (s *Service) Reset(ctx context.Context) (machine.Outcome, error) {
	return s.run(ctx, machine.ActionReset, decimal.Zero)
}

// Snapshot reports the current machine view.
func (s *Service) Snapshot(ctx context.Context) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, balance := s.machine.Snapshot()

	return Snapshot{
		MachineID:     s.machineID,
		State:         state,
		Balance:       balance,
		TicketPrice:   s.machine.TicketPrice(),
		TransactionID: s.transactionID,
	}
}

func (s *Service) run(ctx context.Context, action machine.Action, amount decimal.Decimal) (machine.Outcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, correlationID := logger.EnsureCorrelationID(ctx)

	s.mu.Lock()
	chain := s.chain
	s.mu.Unlock()

	call := &Call{
		Action:        action,
		Amount:        amount,
		CorrelationID: correlationID,
		StartedAt:     s.now(),
	}

	out, err := chain(ctx, call)
	if err != nil && s.errHandler != nil {
		s.errHandler.Handle(ctx, err)
	}

	return out, err
}

// dispatch is the innermost handler. It keeps the transaction id in step with the
// machine outcome.
func (s *Service) dispatch(ctx context.Context, call *Call) (machine.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		out machine.Outcome
		err error
	)

	switch call.Action {
	case machine.ActionSelectTicket:
		out = s.machine.SelectTicket()
	case machine.ActionInsertMoney:
		out, err = s.machine.InsertMoney(call.Amount)
	case machine.ActionDispenseTicket:
		out = s.machine.DispenseTicket()
	case machine.ActionCancelTransaction:
		out = s.machine.CancelTransaction()
	case machine.ActionReset:
		out = s.machine.Reset()
	default:
		return machine.Outcome{Action: call.Action}, ErrUnknownAction
	}

	if err != nil {
		out.Action = call.Action
		call.TransactionID = s.transactionID
		return out, err
	}

	if out.Code == machine.CodeTicketSelected {
		s.transactionID = uuid.NewString()
	}
	call.TransactionID = s.transactionID
	if out.Code == machine.CodeTransactionReset {
		s.transactionID = ""
	}

	return out, nil
}
