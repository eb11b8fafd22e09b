// Package machine implements the ticket vending state machine: state tags, the
// transition table, guards and balance accounting.
package machine

// State represents a ticket machine state.
type State string

const (
	// StateIdle indicates that no purchase is in progress.
	StateIdle State = "idle"
	// StateWaitingForMoney indicates that a ticket was selected and money is being collected.
	StateWaitingForMoney State = "waiting_for_money"
	// StateMoneyReceived indicates that the balance covers the ticket price.
	StateMoneyReceived State = "money_received"
	// StateTicketDispensed indicates that the ticket was issued.
	StateTicketDispensed State = "ticket_dispensed"
	// StateTransactionCanceled indicates that the customer aborted the purchase.
	StateTransactionCanceled State = "transaction_canceled"
)

// States lists every state in lifecycle order.
var States = []State{
	StateIdle,
	StateWaitingForMoney,
	StateMoneyReceived,
	StateTicketDispensed,
	StateTransactionCanceled,
}

// IsAbsorbing reports whether s can only be left through Reset.
func (s State) IsAbsorbing() bool {
	return s == StateTicketDispensed || s == StateTransactionCanceled
}

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	for _, known := range States {
		if s == known {
			return true
		}
	}
	return false
}

func (s State) String() string {
	return string(s)
}
