package machine

// validTransitions contains every state change an action may perform.
var validTransitions = map[State][]State{
	StateIdle: {
		StateWaitingForMoney,
	},
	StateWaitingForMoney: {
		StateMoneyReceived,
		StateTransactionCanceled,
	},
	StateMoneyReceived: {
		StateTicketDispensed,
		StateTransactionCanceled,
	},
	StateTicketDispensed: {
		StateIdle,
	},
	StateTransactionCanceled: {
		StateIdle,
	},
}

// IsTransitionAllowed reports whether moving from one state to another is valid.
// Staying in the same state is always allowed.
func IsTransitionAllowed(from, to State) bool {
	if from == to {
		return from.Valid()
	}

	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}

	for _, state := range allowed {
		if state == to {
			return true
		}
	}

	return false
}
