// Package metrics exposes Prometheus instruments for the ticket machine.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	apperrors "github.com/Proton-105/ticket-machine/internal/errors"
	"github.com/Proton-105/ticket-machine/internal/machine"
)

var (
	actionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_machine_actions_total",
			Help: "Total number of machine actions labeled by action and outcome code",
		},
		[]string{"action", "code"},
	)
	actionDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticket_machine_action_duration_seconds",
			Help:    "Duration of machine actions in seconds, including middleware",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)
	stateTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_machine_state_transitions_total",
			Help: "Total number of state transitions",
		},
		[]string{"from", "to"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_machine_errors_total",
			Help: "Total number of errors split by code and severity",
		},
		[]string{"code", "severity"},
	)
	ticketsDispensedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticket_machine_tickets_dispensed_total",
			Help: "Total number of tickets dispensed",
		},
	)
	moneyInsertedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticket_machine_money_inserted_total",
			Help: "Total money accepted into the balance",
		},
	)
	changeReturnedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticket_machine_change_returned_total",
			Help: "Total money handed back on reset",
		},
	)
	balance = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ticket_machine_balance",
			Help: "Current machine balance",
		},
	)
	currentState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ticket_machine_state",
			Help: "1 for the state the machine is in, 0 otherwise",
		},
		[]string{"state"},
	)
)

// RecordOutcome updates counters for one finished action.
func RecordOutcome(out machine.Outcome, duration time.Duration) {
	action := string(out.Action)
	if action == "" {
		action = "unknown"
	}
	code := string(out.Code)
	if code == "" {
		code = "unknown"
	}

	actionsTotal.WithLabelValues(action, code).Inc()
	actionDurationSeconds.WithLabelValues(action).Observe(duration.Seconds())

	switch out.Code {
	case machine.CodeMoneyInserted:
		moneyInsertedTotal.Add(toFloat(out.Amount))
	case machine.CodeTicketDispensing:
		ticketsDispensedTotal.Inc()
	case machine.CodeTransactionReset:
		changeReturnedTotal.Add(toFloat(out.Change))
	}

	balance.Set(toFloat(out.Balance))
}

// RecordStateTransition tracks machine transitions. It matches machine.TransitionRecorder.
func RecordStateTransition(from, to machine.State) {
	fromLabel, toLabel := string(from), string(to)
	if fromLabel == "" {
		fromLabel = "unknown"
	}
	if toLabel == "" {
		toLabel = "unknown"
	}

	stateTransitionsTotal.WithLabelValues(fromLabel, toLabel).Inc()
}

// RecordError increments error counters. It matches errors.Recorder.
func RecordError(code string, severity apperrors.Severity) {
	if code == "" {
		code = "unknown"
	}
	sev := string(severity)
	if sev == "" {
		sev = "unknown"
	}

	errorsTotal.WithLabelValues(code, sev).Inc()
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// Snapshotter is the read side of a machine.
type Snapshotter interface {
	State() machine.State
	Balance() decimal.Decimal
}

// StateCollector periodically publishes the machine state and balance gauges.
type StateCollector struct {
	source   Snapshotter
	interval time.Duration
}

// NewStateCollector builds a collector bound to source.
func NewStateCollector(source Snapshotter, interval time.Duration) *StateCollector {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &StateCollector{source: source, interval: interval}
}

// Run polls the machine every interval until ctx is cancelled.
func (c *StateCollector) Run(ctx context.Context) {
	if c == nil || c.source == nil {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		c.collect()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *StateCollector) collect() {
	active := c.source.State()
	for _, st := range machine.States {
		value := 0.0
		if st == active {
			value = 1
		}
		currentState.WithLabelValues(string(st)).Set(value)
	}

	balance.Set(toFloat(c.source.Balance()))
}
