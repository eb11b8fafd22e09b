package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Proton-105/ticket-machine/internal/journal"
	"github.com/Proton-105/ticket-machine/internal/kiosk"
	"github.com/Proton-105/ticket-machine/internal/machine"
)

// step matches the method expressions of kiosk.Service.
type step func(svc *kiosk.Service, ctx context.Context) (machine.Outcome, error)

func insert(amount int64) step {
	return func(svc *kiosk.Service, ctx context.Context) (machine.Outcome, error) {
		return svc.Insert(ctx, decimal.NewFromInt(amount))
	}
}

// referenceTrace is a complete purchase with the price paid in two parts.
var referenceTrace = []step{
	(*kiosk.Service).Select,
	insert(30),
	insert(20),
	(*kiosk.Service).Dispense,
	(*kiosk.Service).Reset,
}

// runTrace plays referenceTrace against svc and prints every outcome to w.
func runTrace(ctx context.Context, svc *kiosk.Service, renderer *kiosk.Renderer, w io.Writer) error {
	for _, s := range referenceTrace {
		if err := ctx.Err(); err != nil {
			return err
		}

		out, err := s(svc, ctx)
		if err != nil {
			return err
		}

		if _, err := fmt.Fprintln(w, renderer.Render(out)); err != nil {
			return err
		}
	}

	return nil
}

// printJournal writes header followed by one line per entry.
func printJournal(w io.Writer, header string, entries []journal.Entry) error {
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}

	for _, e := range entries {
		line := fmt.Sprintf("  %s %-18s %-24s %s -> %s balance=%s",
			e.RecordedAt.Format(time.RFC3339), e.Action, e.Code, e.From, e.To, e.Balance)
		if e.TransactionID != "" {
			line += " tx=" + e.TransactionID
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	return nil
}
