package reservation

import "testing"

func TestFlexMinutes_Default(t *testing.T) {
	r := Request{TimePreferred: "19:00"}
	if got := r.FlexMinutes(); got != DefaultFlexMinutes {
		t.Fatalf("expected default flex, got %d", got)
	}

	r.Constraints = &Constraints{TimeFlexMinutes: 45}
	if got := r.FlexMinutes(); got != 45 {
		t.Fatalf("expected explicit flex 45, got %d", got)
	}
}

func TestPatch_PartialMerge(t *testing.T) {
	r := Request{Date: "2026-02-20", TimePreferred: "19:00", PartySize: 4, NameForBooking: "Felix"}

	out := Patch{Date: "2026-02-22"}.Apply(r)
	if out.Date != "2026-02-22" {
		t.Fatalf("expected date overwritten, got %q", out.Date)
	}
	if out.TimePreferred != "19:00" || out.PartySize != 4 {
		t.Fatalf("expected omitted fields unchanged, got %q %d", out.TimePreferred, out.PartySize)
	}
	if out.NameForBooking != "Felix" {
		t.Fatalf("expected immutable fields untouched")
	}
}

func TestPatch_IsEmpty(t *testing.T) {
	if !(Patch{}).IsEmpty() {
		t.Fatalf("expected zero patch to be empty")
	}
	if (Patch{PartySize: 2}).IsEmpty() {
		t.Fatalf("expected party size patch to be non-empty")
	}
	if !(Patch{PartySize: -1}).IsEmpty() {
		t.Fatalf("expected non-positive party size to count as absent")
	}
}
