package calls

import "reservation-caller/internal/negotiate"

// Call lifecycle.
//
// Transitions are driven externally (transport events: dialing, connected,
// ended) and internally (negotiation dispositions). Terminal calls accept no
// further negotiation transitions; a recall re-arms a terminal call back into
// DIALING, modeling a new attempt rather than reopening the old one.

// Terminal reports whether no negotiation transition leaves this status.
func (s Status) Terminal() bool {
	switch s {
	case StatusConfirmed, StatusFailed, StatusEnded:
		return true
	default:
		return false
	}
}

// MaxClarifyRounds bounds how many business turns may end in a clarify
// disposition before the call escalates to the operator.
const MaxClarifyRounds = 3

// ClarifyEscalationReason is the reason recorded when the clarification
// budget is exhausted. It is deliberately distinct from the engine's own
// needs_approval reasons: escalation is a convergent route, not an engine
// verdict.
const ClarifyEscalationReason = "Ambiguous after multiple clarification attempts"

// StatusForDisposition maps an engine disposition onto the next lifecycle
// status. businessTurns is the number of business transcript entries
// including the reply that produced the disposition.
func StatusForDisposition(d negotiate.Disposition, businessTurns int) Status {
	switch d {
	case negotiate.DispositionReject:
		return StatusFailed
	case negotiate.DispositionConfirm:
		return StatusConfirmed
	case negotiate.DispositionNeedsApproval:
		return StatusWaitingUserApproval
	case negotiate.DispositionClarify:
		if businessTurns >= MaxClarifyRounds {
			return StatusWaitingUserApproval
		}
		return StatusNegotiation
	default:
		// Unknown dispositions escalate rather than guess.
		return StatusWaitingUserApproval
	}
}

// allowedTransitions is the legal negotiation-path transition graph.
// Same-status writes are always legal (idempotent webhook retries).
var allowedTransitions = map[Status][]Status{
	StatusInit:                {StatusDialing, StatusFailed, StatusEnded},
	StatusDialing:             {StatusConnected, StatusDiscovery, StatusNegotiation, StatusFailed, StatusEnded},
	StatusConnected:           {StatusDiscovery, StatusNegotiation, StatusFailed, StatusEnded},
	StatusDiscovery:           {StatusNegotiation, StatusProposedOutcome, StatusWaitingUserApproval, StatusConfirmed, StatusFailed, StatusEnded},
	StatusNegotiation:         {StatusProposedOutcome, StatusWaitingUserApproval, StatusConfirmed, StatusFailed, StatusEnded},
	StatusProposedOutcome:     {StatusWaitingUserApproval, StatusConfirmed, StatusFailed, StatusEnded},
	StatusWaitingUserApproval: {StatusNegotiation, StatusConfirmed, StatusFailed, StatusEnded},
}

// CanTransition reports whether moving from one status to another follows the
// negotiation path. Recalls bypass this check explicitly; transport events
// may also jump states, so callers treat a false result as a logging signal,
// not a hard failure.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
