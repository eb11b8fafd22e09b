package machine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	apperrors "github.com/Proton-105/ticket-machine/internal/errors"
)

var (
	// ErrInvalidAmount indicates that InsertMoney received a zero or negative amount.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInvalidPrice indicates that the machine was configured with a non-positive ticket price.
	ErrInvalidPrice = errors.New("ticket price must be positive")
)

// DefaultTicketPrice is used when no price option is supplied.
var DefaultTicketPrice = decimal.NewFromInt(50)

// TransitionRecorder observes state changes. It runs while the machine lock is held
// and must not block or call back into the machine.
type TransitionRecorder func(from, to State)

// Option configures a Machine.
type Option func(*Machine)

// WithTicketPrice overrides DefaultTicketPrice.
func WithTicketPrice(price decimal.Decimal) Option {
	return func(m *Machine) {
		m.ticketPrice = price
	}
}

// WithLogger sets the logger used for transition debug records.
func WithLogger(log *slog.Logger) Option {
	return func(m *Machine) {
		if log != nil {
			m.log = log
		}
	}
}

// WithTransitionRecorder registers a recorder notified on every state change.
func WithTransitionRecorder(recorder TransitionRecorder) Option {
	return func(m *Machine) {
		m.recorder = recorder
	}
}

// Machine is a single ticket vending unit. All actions are safe for concurrent use;
// each one runs as a single critical section.
type Machine struct {
	mu          sync.Mutex
	state       State
	balance     decimal.Decimal
	ticketPrice decimal.Decimal
	log         *slog.Logger
	recorder    TransitionRecorder
}

// New creates a machine in StateIdle with a zero balance.
func New(opts ...Option) (*Machine, error) {
	m := &Machine{
		state:       StateIdle,
		balance:     decimal.Zero,
		ticketPrice: DefaultTicketPrice,
		log:         slog.Default(),
	}

	for _, opt := range opts {
		opt(m)
	}

	if !m.ticketPrice.IsPositive() {
		return nil, apperrors.NewConfigError(
			fmt.Sprintf("ticket price must be positive, got %s", m.ticketPrice),
			ErrInvalidPrice,
		)
	}

	return m, nil
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Balance returns the money accumulated in the current transaction.
func (m *Machine) Balance() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balance
}

// Snapshot returns the state and balance read under one lock.
func (m *Machine) Snapshot() (State, decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.balance
}

// TicketPrice returns the fixed ticket price.
func (m *Machine) TicketPrice() decimal.Decimal {
	return m.ticketPrice
}

// SelectTicket starts a purchase.
func (m *Machine) SelectTicket() Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := m.begin(ActionSelectTicket)

	switch m.state {
	case StateIdle:
		m.balance = decimal.Zero
		return m.finish(out, CodeTicketSelected, StateWaitingForMoney)
	case StateWaitingForMoney:
		return m.finish(out, CodeTicketAlreadySelected, m.state)
	case StateMoneyReceived:
		return m.finish(out, CodeTicketAlreadyPaid, m.state)
	case StateTicketDispensed:
		return m.finish(out, CodeTicketProcessing, m.state)
	case StateTransactionCanceled:
		return m.finish(out, CodeStartNewTransaction, m.state)
	}

	panic(fmt.Sprintf("machine: unknown state %q", m.state))
}

// InsertMoney adds amount to the balance while waiting for money. A non-positive
// amount is rejected with an error wrapping ErrInvalidAmount and leaves the machine
// untouched; every other call returns an Outcome.
func (m *Machine) InsertMoney(amount decimal.Decimal) (Outcome, error) {
	if !amount.IsPositive() {
		return Outcome{}, apperrors.NewValidationError(
			fmt.Sprintf("amount must be positive, got %s", amount),
			ErrInvalidAmount,
		)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := m.begin(ActionInsertMoney)
	out.Amount = amount

	switch m.state {
	case StateIdle:
		return m.finish(out, CodeSelectTicketFirst, m.state), nil
	case StateWaitingForMoney:
		m.balance = m.balance.Add(amount)
		next := StateWaitingForMoney
		if m.balance.GreaterThanOrEqual(m.ticketPrice) {
			next = StateMoneyReceived
		}
		return m.finish(out, CodeMoneyInserted, next), nil
	case StateMoneyReceived:
		return m.finish(out, CodeMoneyAlreadyReceived, m.state), nil
	case StateTicketDispensed:
		return m.finish(out, CodeTransactionCompleted, m.state), nil
	case StateTransactionCanceled:
		return m.finish(out, CodeStartNewTransaction, m.state), nil
	}

	panic(fmt.Sprintf("machine: unknown state %q", m.state))
}

// DispenseTicket issues the ticket once the balance covers the price. Exactly the
// ticket price is taken; any overpayment stays in the balance until Reset.
func (m *Machine) DispenseTicket() Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := m.begin(ActionDispenseTicket)

	switch m.state {
	case StateIdle:
		return m.finish(out, CodeNoTicketSelected, m.state)
	case StateWaitingForMoney:
		return m.finish(out, CodeInsufficientFunds, m.state)
	case StateMoneyReceived:
		m.balance = m.balance.Sub(m.ticketPrice)
		return m.finish(out, CodeTicketDispensing, StateTicketDispensed)
	case StateTicketDispensed:
		return m.finish(out, CodeTicketAlreadyDispensed, m.state)
	case StateTransactionCanceled:
		return m.finish(out, CodeNothingToDispense, m.state)
	}

	panic(fmt.Sprintf("machine: unknown state %q", m.state))
}

// CancelTransaction aborts a purchase that has not been dispensed yet.
func (m *Machine) CancelTransaction() Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := m.begin(ActionCancelTransaction)

	switch m.state {
	case StateIdle:
		return m.finish(out, CodeNothingToCancel, m.state)
	case StateWaitingForMoney, StateMoneyReceived:
		m.balance = decimal.Zero
		return m.finish(out, CodeTransactionCanceled, StateTransactionCanceled)
	case StateTicketDispensed:
		return m.finish(out, CodeCannotCancelDispensed, m.state)
	case StateTransactionCanceled:
		return m.finish(out, CodeTransactionAlreadyCanceled, m.state)
	}

	panic(fmt.Sprintf("machine: unknown state %q", m.state))
}

// Reset returns a finished or canceled machine to StateIdle. The remaining balance
// is handed back as Outcome.Change.
func (m *Machine) Reset() Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := m.begin(ActionReset)

	switch m.state {
	case StateIdle:
		return m.finish(out, CodeNothingToReset, m.state)
	case StateWaitingForMoney, StateMoneyReceived:
		return m.finish(out, CodeTransactionInProgress, m.state)
	case StateTicketDispensed, StateTransactionCanceled:
		out.Change = m.balance
		m.balance = decimal.Zero
		return m.finish(out, CodeTransactionReset, StateIdle)
	}

	panic(fmt.Sprintf("machine: unknown state %q", m.state))
}

func (m *Machine) begin(action Action) Outcome {
	return Outcome{
		Action: action,
		From:   m.state,
		Amount: decimal.Zero,
		Change: decimal.Zero,
	}
}

// finish applies the transition to next and seals the outcome. Must be called with mu held.
func (m *Machine) finish(out Outcome, code Code, next State) Outcome {
	if next != m.state {
		if IsTransitionAllowed(m.state, next) {
			m.log.Debug("ticket machine transition",
				slog.String("action", string(out.Action)),
				slog.String("from", string(m.state)),
				slog.String("to", string(next)),
			)
			if m.recorder != nil {
				m.recorder(m.state, next)
			}
			m.state = next
		} else {
			m.log.Error("ticket machine transition rejected",
				slog.String("action", string(out.Action)),
				slog.String("from", string(m.state)),
				slog.String("to", string(next)),
			)
		}
	}

	out.Code = code
	out.To = m.state
	out.Balance = m.balance

	return out
}
