package machine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Action names an operation invoked on the machine.
type Action string

const (
	ActionSelectTicket      Action = "select_ticket"
	ActionInsertMoney       Action = "insert_money"
	ActionDispenseTicket    Action = "dispense_ticket"
	ActionCancelTransaction Action = "cancel_transaction"
	ActionReset             Action = "reset"
)

// Code identifies the result of an action.
type Code string

const (
	CodeTicketSelected             Code = "ticket_selected"
	CodeSelectTicketFirst          Code = "select_ticket_first"
	CodeNoTicketSelected           Code = "no_ticket_selected"
	CodeNothingToCancel            Code = "nothing_to_cancel"
	CodeTicketAlreadySelected      Code = "ticket_already_selected"
	CodeMoneyInserted              Code = "money_inserted"
	CodeInsufficientFunds          Code = "insufficient_funds"
	CodeTransactionCanceled        Code = "transaction_canceled"
	CodeTicketAlreadyPaid          Code = "ticket_already_paid"
	CodeMoneyAlreadyReceived       Code = "money_already_received"
	CodeTicketDispensing           Code = "ticket_dispensing"
	CodeTicketProcessing           Code = "ticket_processing"
	CodeTransactionCompleted       Code = "transaction_completed"
	CodeTicketAlreadyDispensed     Code = "ticket_already_dispensed"
	CodeCannotCancelDispensed      Code = "cannot_cancel_dispensed"
	CodeStartNewTransaction        Code = "start_new_transaction"
	CodeNothingToDispense          Code = "nothing_to_dispense"
	CodeTransactionAlreadyCanceled Code = "transaction_already_canceled"
	CodeTransactionReset           Code = "transaction_reset"
	CodeNothingToReset             Code = "nothing_to_reset"
	CodeTransactionInProgress      Code = "transaction_in_progress"
)

// Codes lists every outcome code the machine can produce.
var Codes = []Code{
	CodeTicketSelected,
	CodeSelectTicketFirst,
	CodeNoTicketSelected,
	CodeNothingToCancel,
	CodeTicketAlreadySelected,
	CodeMoneyInserted,
	CodeInsufficientFunds,
	CodeTransactionCanceled,
	CodeTicketAlreadyPaid,
	CodeMoneyAlreadyReceived,
	CodeTicketDispensing,
	CodeTicketProcessing,
	CodeTransactionCompleted,
	CodeTicketAlreadyDispensed,
	CodeCannotCancelDispensed,
	CodeStartNewTransaction,
	CodeNothingToDispense,
	CodeTransactionAlreadyCanceled,
	CodeTransactionReset,
	CodeNothingToReset,
	CodeTransactionInProgress,
}

var defaultMessages = map[Code]string{
	CodeTicketSelected:             "Ticket selected. Please insert money.",
	CodeSelectTicketFirst:          "Please select a ticket first.",
	CodeNoTicketSelected:           "No ticket selected.",
	CodeNothingToCancel:            "No transaction to cancel.",
	CodeTicketAlreadySelected:      "Ticket already selected.",
	CodeMoneyInserted:              "Money inserted: %s. Current balance: %s.",
	CodeInsufficientFunds:          "Insert enough money to purchase the ticket.",
	CodeTransactionCanceled:        "Transaction canceled.",
	CodeTicketAlreadyPaid:          "Ticket already selected and money received.",
	CodeMoneyAlreadyReceived:       "Money already received.",
	CodeTicketDispensing:           "Dispensing ticket...",
	CodeTicketProcessing:           "Please wait, processing your ticket.",
	CodeTransactionCompleted:       "Transaction already completed.",
	CodeTicketAlreadyDispensed:     "Ticket already dispensed.",
	CodeCannotCancelDispensed:      "Cannot cancel, ticket already dispensed.",
	CodeStartNewTransaction:        "Transaction canceled. Please start a new transaction.",
	CodeNothingToDispense:          "No ticket to dispense. Transaction canceled.",
	CodeTransactionAlreadyCanceled: "Transaction already canceled.",
	CodeTransactionReset:           "Machine ready. Change returned: %s.",
	CodeNothingToReset:             "Machine is already idle.",
	CodeTransactionInProgress:      "Transaction in progress. Cancel it first.",
}

// Outcome is the structured result of a machine action.
type Outcome struct {
	Action Action `json:"action"`
	Code   Code   `json:"code"`
	From   State  `json:"from"`
	To     State  `json:"to"`
	// Amount is the money offered by InsertMoney; zero for other actions.
	Amount decimal.Decimal `json:"amount"`
	// Balance is the machine balance after the action.
	Balance decimal.Decimal `json:"balance"`
	// Change is the money handed back to the customer by Reset.
	Change decimal.Decimal `json:"change"`
}

// Transitioned reports whether the action moved the machine to another state.
func (o Outcome) Transitioned() bool {
	return o.From != o.To
}

// Message renders the default English text for the outcome.
func (o Outcome) Message() string {
	format, ok := defaultMessages[o.Code]
	if !ok {
		return string(o.Code)
	}

	switch o.Code {
	case CodeMoneyInserted:
		return fmt.Sprintf(format, o.Amount.String(), o.Balance.String())
	case CodeTransactionReset:
		return fmt.Sprintf(format, o.Change.String())
	default:
		return format
	}
}
