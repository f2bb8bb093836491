package calls

import (
	"testing"

	"reservation-caller/internal/negotiate"
)

func TestStatusTerminal(t *testing.T) {
	for _, s := range []Status{StatusConfirmed, StatusFailed, StatusEnded} {
		if !s.Terminal() {
			t.Fatalf("expected %s terminal", s)
		}
	}
	for _, s := range []Status{StatusInit, StatusDialing, StatusNegotiation, StatusWaitingUserApproval} {
		if s.Terminal() {
			t.Fatalf("expected %s non-terminal", s)
		}
	}
}

func TestStatusForDisposition(t *testing.T) {
	if got := StatusForDisposition(negotiate.DispositionReject, 1); got != StatusFailed {
		t.Fatalf("reject: got %s", got)
	}
	if got := StatusForDisposition(negotiate.DispositionConfirm, 1); got != StatusConfirmed {
		t.Fatalf("confirm: got %s", got)
	}
	if got := StatusForDisposition(negotiate.DispositionNeedsApproval, 1); got != StatusWaitingUserApproval {
		t.Fatalf("needs_approval: got %s", got)
	}
}

func TestStatusForDisposition_ClarifyBudget(t *testing.T) {
	if got := StatusForDisposition(negotiate.DispositionClarify, MaxClarifyRounds-1); got != StatusNegotiation {
		t.Fatalf("expected another negotiation round, got %s", got)
	}
	if got := StatusForDisposition(negotiate.DispositionClarify, MaxClarifyRounds); got != StatusWaitingUserApproval {
		t.Fatalf("expected escalation at budget, got %s", got)
	}
	if got := StatusForDisposition(negotiate.DispositionClarify, MaxClarifyRounds+5); got != StatusWaitingUserApproval {
		t.Fatalf("expected escalation beyond budget, got %s", got)
	}
}

func TestCanTransition(t *testing.T) {
	if !CanTransition(StatusInit, StatusDialing) {
		t.Fatalf("expected INIT->DIALING legal")
	}
	if !CanTransition(StatusWaitingUserApproval, StatusNegotiation) {
		t.Fatalf("expected revise path legal")
	}
	if !CanTransition(StatusNegotiation, StatusNegotiation) {
		t.Fatalf("expected same-status writes legal")
	}
	if CanTransition(StatusConfirmed, StatusNegotiation) {
		t.Fatalf("expected no negotiation transition out of terminal state")
	}
}
