package negotiate

import "testing"

func TestParseReply_NegativeSignalsWin(t *testing.T) {
	p := ParseReply("Yes, normally we could, but tonight we're fully booked")
	if p.Availability != AvailabilityNo {
		t.Fatalf("expected no, got %q", p.Availability)
	}
	if p.Confidence != confidenceKnown {
		t.Fatalf("expected known confidence, got %v", p.Confidence)
	}
}

func TestParseReply_UnknownWhenNeitherMatches(t *testing.T) {
	p := ParseReply("Hmm, let me check with the manager")
	if p.Availability != AvailabilityUnknown {
		t.Fatalf("expected unknown, got %q", p.Availability)
	}
	if p.Confidence != confidenceUnknown {
		t.Fatalf("expected unknown confidence 0.55, got %v", p.Confidence)
	}
}

func TestParseReply_EmptyInput(t *testing.T) {
	p := ParseReply("   ")
	if p.Raw != "" {
		t.Fatalf("expected trimmed raw, got %q", p.Raw)
	}
	if p.Availability != AvailabilityUnknown {
		t.Fatalf("expected unknown for empty input")
	}
	if len(p.OfferedTimes) != 0 || p.HasDeposit || p.NeedsCallback {
		t.Fatalf("expected no signals for empty input")
	}
}

func TestParseReply_TimesNormalizedInOrder(t *testing.T) {
	p := ParseReply("We have 9:15 or 19h30, maybe 21:00 too")
	want := []string{"09:15", "19:30", "21:00"}
	if len(p.OfferedTimes) != len(want) {
		t.Fatalf("expected %d times, got %v", len(want), p.OfferedTimes)
	}
	for i, w := range want {
		if p.OfferedTimes[i] != w {
			t.Fatalf("expected %q at %d, got %v", w, i, p.OfferedTimes)
		}
	}
}

func TestParseReply_RiskFlagsIndependent(t *testing.T) {
	p := ParseReply("We're fully booked, and we charge a cancellation fee with a credit card deposit")
	if p.Availability != AvailabilityNo {
		t.Fatalf("expected no availability")
	}
	if !p.HasDeposit || !p.HasCancellationPolicy {
		t.Fatalf("expected risk flags set alongside availability, got %+v", p)
	}
}

func TestParseReply_NegatedDepositNotFlagged(t *testing.T) {
	p := ParseReply("Yes we have a table at 19:30, no deposit needed")
	if p.HasDeposit {
		t.Fatalf("expected negated deposit mention not flagged")
	}
	if p.Availability != AvailabilityYes {
		t.Fatalf("expected yes, got %q", p.Availability)
	}
}

func TestParseReply_CallbackFlag(t *testing.T) {
	p := ParseReply("Can you call back later this afternoon?")
	if !p.NeedsCallback {
		t.Fatalf("expected callback flag")
	}
}
