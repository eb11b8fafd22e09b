package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/Proton-105/ticket-machine/internal/health"
)

// HealthChecker exposes liveness and readiness probes.
type HealthChecker interface {
	Liveness(ctx context.Context) error
	Readiness(ctx context.Context) error
}

// Probes answers liveness from the process itself and readiness from a health.Checker.
type Probes struct {
	log     *slog.Logger
	checker *health.Checker
}

// NewProbes creates a new Probes instance. A nil checker makes readiness always pass.
func NewProbes(log *slog.Logger, checker *health.Checker) *Probes {
	if log == nil {
		log = slog.Default()
	}
	return &Probes{log: log, checker: checker}
}

// Liveness reports success while the process can serve requests.
func (p *Probes) Liveness(ctx context.Context) error {
	p.log.Debug("liveness probe called")
	return nil
}

var _ HealthChecker = (*Probes)(nil)

// Readiness fails when any registered component is unhealthy.
func (p *Probes) Readiness(ctx context.Context) error {
	_, err := p.readiness(ctx)
	return err
}

// LivenessHandler serves the liveness probe.
func (p *Probes) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeProbe(w, p.Liveness(r.Context()), nil)
	})
}

// ReadinessHandler serves the readiness probe with per-component statuses.
func (p *Probes) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		components, err := p.readiness(r.Context())
		writeProbe(w, err, components)
	})
}

// readiness runs every check once and derives the probe result from the statuses.
func (p *Probes) readiness(ctx context.Context) (map[string]string, error) {
	p.log.Debug("readiness probe called")

	if p.checker == nil {
		return nil, nil
	}

	results, ok := p.checker.Healthy(ctx)
	if ok {
		return results, nil
	}

	failed := make([]string, 0, len(results))
	for name, status := range results {
		if status != health.StatusOK {
			failed = append(failed, fmt.Sprintf("%s: %s", name, status))
		}
	}
	sort.Strings(failed)

	return results, errors.New(strings.Join(failed, "; "))
}

type probeResponse struct {
	Status     string            `json:"status"`
	Error      string            `json:"error,omitempty"`
	Components map[string]string `json:"components,omitempty"`
}

func writeProbe(w http.ResponseWriter, err error, components map[string]string) {
	resp := probeResponse{Status: "ok", Components: components}
	code := http.StatusOK
	if err != nil {
		resp.Status = "unavailable"
		resp.Error = err.Error()
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
