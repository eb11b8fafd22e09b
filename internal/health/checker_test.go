package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/ticket-machine/internal/machine"
)

type fakeMachine struct {
	state   machine.State
	balance decimal.Decimal
}

func (f fakeMachine) State() machine.State     { return f.state }
func (f fakeMachine) Balance() decimal.Decimal { return f.balance }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRedisChecker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	checker := NewRedisChecker(client)
	require.NoError(t, checker.HealthCheck(context.Background()))

	mr.Close()
	assert.Error(t, checker.HealthCheck(context.Background()))

	var nilChecker *RedisChecker
	assert.ErrorIs(t, nilChecker.HealthCheck(context.Background()), redis.ErrClosed)
}

func TestMachineChecker(t *testing.T) {
	m, err := machine.New(machine.WithLogger(testLogger()))
	require.NoError(t, err)

	testCases := []struct {
		name    string
		reader  MachineReader
		wantErr bool
	}{
		{name: "real machine", reader: m},
		{name: "unknown state", reader: fakeMachine{state: "broken", balance: decimal.Zero}, wantErr: true},
		{name: "negative balance", reader: fakeMachine{state: machine.StateIdle, balance: decimal.NewFromInt(-1)}, wantErr: true},
		{name: "no machine", reader: nil, wantErr: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := NewMachineChecker(tc.reader).HealthCheck(context.Background())
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestChecker_Healthy(t *testing.T) {
	checker := NewChecker(testLogger())
	checker.AddCheck("ok", CheckFunc(func(context.Context) error { return nil }))
	checker.AddCheck("", CheckFunc(func(context.Context) error { return nil }))
	checker.AddCheck("nil", nil)

	results, healthy := checker.Healthy(context.Background())
	assert.True(t, healthy)
	assert.Equal(t, map[string]string{"ok": StatusOK}, results)

	checker.AddCheck("redis", CheckFunc(func(context.Context) error { return errors.New("connection refused") }))

	results, healthy = checker.Healthy(context.Background())
	assert.False(t, healthy)
	assert.Equal(t, "connection refused", results["redis"])
	assert.Equal(t, []string{"ok", "redis"}, checker.Names())
}
