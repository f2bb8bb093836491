package negotiate

import (
	"testing"

	"reservation-caller/internal/reservation"
)

func testRequest() reservation.Request {
	return reservation.Request{
		RequestID:      "r1",
		BusinessName:   "Trattoria Roma",
		BusinessPhone:  "+15551234567",
		Date:           "2026-02-21",
		TimePreferred:  "19:00",
		PartySize:      2,
		NameForBooking: "Felix",
	}
}

func TestEngine_RuleOrder(t *testing.T) {
	e := NewEngine()
	want := []string{
		"reject_no_availability",
		"clarify_callback_requested",
		"clarify_ambiguous",
		"approval_risk_condition",
		"time_window_check",
		"approval_no_explicit_time",
	}
	got := e.RuleNames()
	if len(got) != len(want) {
		t.Fatalf("expected %d rules, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rule %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestEngine_NoAvailabilityDominates(t *testing.T) {
	e := NewEngine()
	// Time and risk keywords present; negative availability must still win.
	d := e.Decide(ParseReply("We're fully booked tonight, 20:00 deposit required, call back later"), testRequest())
	if d.Disposition != DispositionReject {
		t.Fatalf("expected reject, got %q (%s)", d.Disposition, d.Reason)
	}
}

func TestEngine_CallbackBeatsAvailability(t *testing.T) {
	e := NewEngine()
	d := e.Decide(ParseReply("Yes that works, but call back in an hour to confirm"), testRequest())
	if d.Disposition != DispositionClarify {
		t.Fatalf("expected clarify for callback, got %q", d.Disposition)
	}
	if d.Reason != "Business asked for callback" {
		t.Fatalf("unexpected reason %q", d.Reason)
	}
}

func TestEngine_AmbiguousClarifies(t *testing.T) {
	e := NewEngine()
	d := e.Decide(ParseReply("One moment please"), testRequest())
	if d.Disposition != DispositionClarify {
		t.Fatalf("expected clarify, got %q", d.Disposition)
	}
	if d.Reason != "Ambiguous answer" {
		t.Fatalf("unexpected reason %q", d.Reason)
	}
}

func TestEngine_RiskNeverConfirms(t *testing.T) {
	e := NewEngine()
	// Exact preferred-time match must not override the deposit condition.
	d := e.Decide(ParseReply("We require a credit card deposit, available at 19:00"), testRequest())
	if d.Disposition != DispositionNeedsApproval {
		t.Fatalf("expected needs_approval, got %q", d.Disposition)
	}
	if d.ProposedTime != "19:00" {
		t.Fatalf("expected proposed time carried, got %q", d.ProposedTime)
	}
}

func TestEngine_TimeWithinWindowConfirms(t *testing.T) {
	e := NewEngine()
	d := e.Decide(ParseReply("Yes we have a table at 19:30, no deposit needed"), testRequest())
	if d.Disposition != DispositionConfirm {
		t.Fatalf("expected confirm, got %q (%s)", d.Disposition, d.Reason)
	}
	if d.ProposedTime != "19:30" {
		t.Fatalf("expected 19:30, got %q", d.ProposedTime)
	}
}

func TestEngine_WindowBoundaryInclusive(t *testing.T) {
	e := NewEngine()
	req := testRequest()
	req.Constraints = &reservation.Constraints{TimeFlexMinutes: 30}

	// Exactly 30 minutes away: inside the window.
	d := e.Decide(ParseReply("Sure, 18:30 works"), req)
	if d.Disposition != DispositionConfirm {
		t.Fatalf("expected confirm at boundary, got %q", d.Disposition)
	}

	// 31 minutes away: outside, but never a reject.
	d = e.Decide(ParseReply("Sure, 18:29 works"), req)
	if d.Disposition != DispositionNeedsApproval {
		t.Fatalf("expected needs_approval outside window, got %q", d.Disposition)
	}
	if d.ProposedTime != "18:29" {
		t.Fatalf("expected offered time carried, got %q", d.ProposedTime)
	}
}

func TestEngine_FirstOfferedTimeWins(t *testing.T) {
	e := NewEngine()
	d := e.Decide(ParseReply("Yes, we can do 21:30 or 19:15"), testRequest())
	if d.Disposition != DispositionNeedsApproval {
		t.Fatalf("expected needs_approval for first offer 21:30, got %q", d.Disposition)
	}
	if d.ProposedTime != "21:30" {
		t.Fatalf("expected first mention to win, got %q", d.ProposedTime)
	}
}

func TestEngine_YesWithoutTimeNeedsApproval(t *testing.T) {
	e := NewEngine()
	d := e.Decide(ParseReply("Yes, we can fit you in"), testRequest())
	if d.Disposition != DispositionNeedsApproval {
		t.Fatalf("expected needs_approval, got %q", d.Disposition)
	}
	if d.Reason != "Availability yes but no explicit time extracted" {
		t.Fatalf("unexpected reason %q", d.Reason)
	}
}

func TestNeedsHumanConfirmation(t *testing.T) {
	if !NeedsHumanConfirmation("requires a card on file", false) {
		t.Fatalf("expected risk keyword to require confirmation")
	}
	if NeedsHumanConfirmation("requires a card on file", true) {
		t.Fatalf("expected auto-confirm policy to bypass confirmation")
	}
	if NeedsHumanConfirmation("outdoor seating only", false) {
		t.Fatalf("expected benign note to pass")
	}
}
