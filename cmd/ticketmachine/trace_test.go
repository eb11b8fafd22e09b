package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/ticket-machine/internal/i18n"
	"github.com/Proton-105/ticket-machine/internal/journal"
	"github.com/Proton-105/ticket-machine/internal/kiosk"
	"github.com/Proton-105/ticket-machine/internal/machine"
	appredis "github.com/Proton-105/ticket-machine/pkg/redis"
)

func newTraceKiosk(t *testing.T) (*kiosk.Service, *machine.Machine) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	m, err := machine.New(machine.WithLogger(log))
	require.NoError(t, err)

	return kiosk.New(m, "machine-1", log, nil), m
}

func TestRunTrace(t *testing.T) {
	svc, m := newTraceKiosk(t)

	translations, err := i18n.Load("en")
	require.NoError(t, err)
	renderer := kiosk.NewRenderer(translations.Translator("en"), m.TicketPrice(), "EUR")

	var buf bytes.Buffer
	require.NoError(t, runTrace(context.Background(), svc, renderer, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"Ticket selected. Please insert 50 EUR.",
		"Money inserted: 30 EUR. Current balance: 30 EUR.",
		"Money inserted: 20 EUR. Current balance: 50 EUR.",
		"Dispensing ticket...",
		"Machine ready. Please take your change: 0 EUR.",
	}, lines)

	assert.Equal(t, machine.StateIdle, m.State())
	assert.True(t, m.Balance().IsZero())
}

func TestRunTrace_CanceledContext(t *testing.T) {
	svc, m := newTraceKiosk(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := runTrace(ctx, svc, kiosk.NewRenderer(nil, m.TicketPrice(), "EUR"), &buf)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, buf.String())
	assert.Equal(t, machine.StateIdle, m.State())
}

func TestRunTrace_JournalIsPrinted(t *testing.T) {
	mr := miniredis.RunT(t)
	client := appredis.Wrap(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = client.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditTrail := journal.New(client, "machine-1", journal.Options{}, log)
	queue := journal.NewQueue(auditTrail, 0, nil)
	t.Cleanup(func() { _ = queue.Close(context.Background()) })

	svc, m := newTraceKiosk(t)
	svc.Use(kiosk.Journal(queue, nil))

	ctx := context.Background()
	require.NoError(t, runTrace(ctx, svc, kiosk.NewRenderer(nil, m.TicketPrice(), "EUR"), io.Discard))
	require.NoError(t, queue.Flush(ctx))

	entries, err := auditTrail.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 5)

	var buf bytes.Buffer
	require.NoError(t, printJournal(&buf, "Journal of machine-1, newest first:", entries))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "Journal of machine-1, newest first:", lines[0])
	assert.Contains(t, lines[1], string(machine.CodeTransactionReset))
	assert.Contains(t, lines[1], "tx=")
	assert.Contains(t, lines[5], string(machine.CodeTicketSelected))
	assert.Contains(t, lines[5], "idle -> waiting_for_money")
}
