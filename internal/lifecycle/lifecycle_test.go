package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/ticket-machine/internal/health"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestShutdown_Execute(t *testing.T) {
	s := NewShutdown(testLogger())

	var calls atomic.Int32
	errRedis := errors.New("close failed")

	s.Register("sentry", func(context.Context) error { calls.Add(1); return nil })
	s.Register("redis", func(context.Context) error { calls.Add(1); return errRedis })
	s.Register("nil", nil)

	err := s.Execute(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errRedis)
	assert.Contains(t, err.Error(), "redis")
	assert.Equal(t, int32(2), calls.Load())

	s.Register("late", func(context.Context) error { calls.Add(1); return nil })
	assert.NoError(t, s.Execute(context.Background()))
	assert.Equal(t, int32(2), calls.Load())
}

func TestShutdown_Empty(t *testing.T) {
	assert.NoError(t, NewShutdown(nil).Execute(context.Background()))
}

func TestProbes(t *testing.T) {
	checker := health.NewChecker(testLogger())
	checker.AddCheck("machine", health.CheckFunc(func(context.Context) error { return nil }))

	probes := NewProbes(testLogger(), checker)
	require.NoError(t, probes.Liveness(context.Background()))
	require.NoError(t, probes.Readiness(context.Background()))

	rec := httptest.NewRecorder()
	probes.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	checker.AddCheck("redis", health.CheckFunc(func(context.Context) error { return errors.New("refused") }))

	err := probes.Readiness(context.Background())
	require.Error(t, err)
	assert.Equal(t, "redis: refused", err.Error())

	rec = httptest.NewRecorder()
	probes.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body probeResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "unavailable", body.Status)
	assert.Equal(t, health.StatusOK, body.Components["machine"])
	assert.Equal(t, "refused", body.Components["redis"])

	rec = httptest.NewRecorder()
	probes.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProbes_NoChecker(t *testing.T) {
	probes := NewProbes(nil, nil)
	assert.NoError(t, probes.Readiness(context.Background()))
}

func TestProbes_ReadinessHandlerRunsChecksOnce(t *testing.T) {
	var pings atomic.Int32
	checker := health.NewChecker(testLogger())
	checker.AddCheck("redis", health.CheckFunc(func(context.Context) error {
		pings.Add(1)
		return errors.New("refused")
	}))

	var probes HealthChecker = NewProbes(testLogger(), checker)
	require.Error(t, probes.Readiness(context.Background()))
	assert.Equal(t, int32(1), pings.Load())

	rec := httptest.NewRecorder()
	probes.(*Probes).ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, int32(2), pings.Load())

	var body probeResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "redis: refused", body.Error)
	assert.Equal(t, "refused", body.Components["redis"])
}
