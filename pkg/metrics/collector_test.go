package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/ticket-machine/internal/machine"
)

func TestRecordOutcome(t *testing.T) {
	dispensedBefore := testutil.ToFloat64(ticketsDispensedTotal)
	insertedBefore := testutil.ToFloat64(moneyInsertedTotal)
	changeBefore := testutil.ToFloat64(changeReturnedTotal)
	codeBefore := testutil.ToFloat64(actionsTotal.WithLabelValues("insert_money", "money_inserted"))

	RecordOutcome(machine.Outcome{
		Action:  machine.ActionInsertMoney,
		Code:    machine.CodeMoneyInserted,
		Amount:  decimal.NewFromInt(30),
		Balance: decimal.NewFromInt(30),
	}, time.Millisecond)
	RecordOutcome(machine.Outcome{
		Action:  machine.ActionDispenseTicket,
		Code:    machine.CodeTicketDispensing,
		Balance: decimal.NewFromInt(20),
	}, time.Millisecond)
	RecordOutcome(machine.Outcome{
		Action:  machine.ActionReset,
		Code:    machine.CodeTransactionReset,
		Change:  decimal.NewFromInt(20),
		Balance: decimal.Zero,
	}, time.Millisecond)

	assert.Equal(t, codeBefore+1, testutil.ToFloat64(actionsTotal.WithLabelValues("insert_money", "money_inserted")))
	assert.Equal(t, insertedBefore+30, testutil.ToFloat64(moneyInsertedTotal))
	assert.Equal(t, dispensedBefore+1, testutil.ToFloat64(ticketsDispensedTotal))
	assert.Equal(t, changeBefore+20, testutil.ToFloat64(changeReturnedTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(balance))
}

func TestRecordStateTransition(t *testing.T) {
	before := testutil.ToFloat64(stateTransitionsTotal.WithLabelValues("idle", "waiting_for_money"))

	m, err := machine.New(machine.WithTransitionRecorder(RecordStateTransition))
	require.NoError(t, err)
	m.SelectTicket()

	assert.Equal(t, before+1, testutil.ToFloat64(stateTransitionsTotal.WithLabelValues("idle", "waiting_for_money")))
}

func TestRecordError(t *testing.T) {
	before := testutil.ToFloat64(errorsTotal.WithLabelValues("unknown", "unknown"))
	RecordError("", "")
	assert.Equal(t, before+1, testutil.ToFloat64(errorsTotal.WithLabelValues("unknown", "unknown")))
}

func TestStateCollector(t *testing.T) {
	m, err := machine.New()
	require.NoError(t, err)
	m.SelectTicket()
	_, err = m.InsertMoney(decimal.NewFromInt(15))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	NewStateCollector(m, time.Hour).Run(ctx)

	assert.Equal(t, 1.0, testutil.ToFloat64(currentState.WithLabelValues("waiting_for_money")))
	assert.Equal(t, 0.0, testutil.ToFloat64(currentState.WithLabelValues("idle")))
	assert.Equal(t, 15.0, testutil.ToFloat64(balance))
}
