package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/Proton-105/ticket-machine/internal/machine"
)

// StatusOK is reported for a passing component.
const StatusOK = "OK"

// ErrNoMachine is returned by a MachineChecker without a machine.
var ErrNoMachine = errors.New("machine is not initialized")

// Checkable represents a component that can report its health status.
type Checkable interface {
	HealthCheck(ctx context.Context) error
}

// CheckFunc adapts a function to Checkable.
type CheckFunc func(ctx context.Context) error

// HealthCheck calls f.
func (f CheckFunc) HealthCheck(ctx context.Context) error {
	return f(ctx)
}

// Checker aggregates health checks for multiple components.
type Checker struct {
	log *slog.Logger

	mu     sync.RWMutex
	checks map[string]Checkable
}

// NewChecker instantiates a Checker with the provided logger.
func NewChecker(log *slog.Logger) *Checker {
	return &Checker{
		log:    log,
		checks: make(map[string]Checkable),
	}
}

// AddCheck registers a checkable component by name.
func (c *Checker) AddCheck(name string, check Checkable) {
	if name == "" || check == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Names returns the registered component names, sorted.
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check runs all registered health checks and returns their statuses.
func (c *Checker) Check(ctx context.Context) map[string]string {
	c.mu.RLock()
	checks := make(map[string]Checkable, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	results := make(map[string]string, len(checks))

	for name, check := range checks {
		if err := check.HealthCheck(ctx); err != nil {
			results[name] = err.Error()
			if c.log != nil {
				c.log.Error("health check failed", slog.String("component", name), slog.Any("error", err))
			}
			continue
		}

		results[name] = StatusOK
	}

	return results
}

// Healthy runs Check and reports whether every component passed.
func (c *Checker) Healthy(ctx context.Context) (map[string]string, bool) {
	results := c.Check(ctx)
	for _, status := range results {
		if status != StatusOK {
			return results, false
		}
	}
	return results, true
}

// Pinger abstracts the subset of redis.Client used for health checks.
type Pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisChecker verifies connectivity to a Redis instance.
type RedisChecker struct {
	pinger Pinger
}

// NewRedisChecker constructs a RedisChecker.
func NewRedisChecker(pinger Pinger) *RedisChecker {
	return &RedisChecker{pinger: pinger}
}

// HealthCheck issues a PING command against Redis.
func (c *RedisChecker) HealthCheck(ctx context.Context) error {
	if c == nil || c.pinger == nil {
		return redis.ErrClosed
	}
	return c.pinger.Ping(ctx).Err()
}

// MachineReader is the read side of a ticket machine.
type MachineReader interface {
	State() machine.State
	Balance() decimal.Decimal
}

// MachineChecker verifies that the machine is in a known state with a sane balance.
type MachineChecker struct {
	machine MachineReader
}

// NewMachineChecker constructs a MachineChecker.
func NewMachineChecker(m MachineReader) *MachineChecker {
	return &MachineChecker{machine: m}
}

// HealthCheck inspects the machine state and balance.
func (c *MachineChecker) HealthCheck(ctx context.Context) error {
	if c == nil || c.machine == nil {
		return ErrNoMachine
	}

	if state := c.machine.State(); !state.Valid() {
		return fmt.Errorf("machine in unknown state %q", state)
	}
	if balance := c.machine.Balance(); balance.IsNegative() {
		return fmt.Errorf("machine balance is negative: %s", balance)
	}

	return nil
}
