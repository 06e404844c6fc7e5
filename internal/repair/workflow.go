package repair

// transitions is the closed transition table. Anything absent is rejected
// with ErrInvalidTransition; there are no free-form status writes.
var transitions = map[Status][]Status{
	StatusAwaitingInspection:      {StatusUnderInspection},
	StatusUnderInspection:         {StatusProposalSubmitted},
	StatusProposalSubmitted:       {StatusAcceptedPendingSchedule, StatusReproposalRequested},
	StatusReproposalRequested:     {StatusProposalSubmitted},
	StatusAcceptedPendingSchedule: {StatusScheduled},
	StatusScheduled:               {StatusCompleted},
	StatusCompleted:               {StatusInvoiced},
	StatusInvoiced:                {},
}

// cancellable holds the states a customer may cancel from. Cancellation is
// terminal and deletes the order with its lines.
var cancellable = map[Status]bool{
	StatusAwaitingInspection:  true,
	StatusUnderInspection:     true,
	StatusProposalSubmitted:   true,
	StatusReproposalRequested: true,
}

// CanTransition reports whether from → to is in the transition table.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Cancellable reports whether a customer may cancel an order in this state.
func Cancellable(s Status) bool {
	return cancellable[s]
}

// proposalSources are the states an inspector may submit a proposal from.
func proposalSource(s Status) bool {
	return s == StatusUnderInspection || s == StatusReproposalRequested
}
