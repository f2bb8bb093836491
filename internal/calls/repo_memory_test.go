package calls

import (
	"context"
	"testing"
	"time"

	"reservation-caller/internal/reservation"
)

func testReservation() reservation.Request {
	return reservation.Request{
		BusinessName:   "Trattoria Roma",
		BusinessPhone:  "+15551234567",
		Date:           "2026-02-21",
		TimePreferred:  "19:00",
		PartySize:      2,
		NameForBooking: "Felix",
	}
}

func TestMemoryRepo_CreateSeedsRecord(t *testing.T) {
	repo := NewMemoryRepo()
	rec, err := repo.Create(context.Background(), testReservation())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if rec.ID == "" {
		t.Fatalf("expected generated id")
	}
	if rec.Status != StatusInit {
		t.Fatalf("expected INIT, got %s", rec.Status)
	}
	if len(rec.Transcript) != 1 || rec.Transcript[0].Speaker != SpeakerSystem {
		t.Fatalf("expected seeded system transcript entry, got %+v", rec.Transcript)
	}
	if rec.Reservation.RequestID != rec.ID {
		t.Fatalf("expected request id backfilled")
	}
}

func TestMemoryRepo_CreateKeepsCallerID(t *testing.T) {
	repo := NewMemoryRepo()
	res := testReservation()
	res.RequestID = "req-7"
	rec, err := repo.Create(context.Background(), res)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if rec.ID != "req-7" {
		t.Fatalf("expected caller id kept, got %q", rec.ID)
	}
}

func TestMemoryRepo_MutatorsAbsorbUnknownIDs(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	if err := repo.UpdateStatus(ctx, "nope", StatusFailed); err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
	if err := repo.AppendTranscript(ctx, "nope", SpeakerSystem, "x"); err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
	if err := repo.SetOutcome(ctx, "nope", Outcome{Kind: OutcomeFailed}); err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
	if _, ok, err := repo.Get(ctx, "nope"); err != nil || ok {
		t.Fatalf("expected absent, got ok=%v err=%v", ok, err)
	}
}

func TestMemoryRepo_MutationBumpsUpdatedAt(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Unix(1700000000, 0).UTC()
	repo.clock = func() time.Time { return now }

	rec, _ := repo.Create(context.Background(), testReservation())

	now = now.Add(time.Minute)
	if err := repo.UpdateStatus(context.Background(), rec.ID, StatusDialing); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	got, ok, _ := repo.Get(context.Background(), rec.ID)
	if !ok {
		t.Fatalf("expected record")
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Fatalf("expected updated_at bumped: created=%v updated=%v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestMemoryRepo_GetReturnsIsolatedCopy(t *testing.T) {
	repo := NewMemoryRepo()
	rec, _ := repo.Create(context.Background(), testReservation())

	got, _, _ := repo.Get(context.Background(), rec.ID)
	got.Transcript[0].Text = "tampered"
	got.Reservation.PartySize = 99

	again, _, _ := repo.Get(context.Background(), rec.ID)
	if again.Transcript[0].Text == "tampered" {
		t.Fatalf("expected transcript isolated from caller mutation")
	}
	if again.Reservation.PartySize == 99 {
		t.Fatalf("expected reservation isolated from caller mutation")
	}
}

func TestMemoryRepo_OutcomeReplacedNotStacked(t *testing.T) {
	repo := NewMemoryRepo()
	rec, _ := repo.Create(context.Background(), testReservation())

	_ = repo.SetOutcome(context.Background(), rec.ID, Outcome{Kind: OutcomePending, NeedsUserApproval: true})
	_ = repo.SetOutcome(context.Background(), rec.ID, Outcome{Kind: OutcomeConfirmed})

	got, _, _ := repo.Get(context.Background(), rec.ID)
	if got.Outcome == nil || got.Outcome.Kind != OutcomeConfirmed {
		t.Fatalf("expected latest outcome, got %+v", got.Outcome)
	}
	if got.Outcome.NeedsUserApproval {
		t.Fatalf("expected prior outcome fully replaced")
	}
}

func TestMemoryRepo_TranscriptOrdered(t *testing.T) {
	repo := NewMemoryRepo()
	rec, _ := repo.Create(context.Background(), testReservation())

	_ = repo.AppendTranscript(context.Background(), rec.ID, SpeakerAssistant, "first")
	_ = repo.AppendTranscript(context.Background(), rec.ID, SpeakerBusiness, "second")

	got, _, _ := repo.Get(context.Background(), rec.ID)
	if len(got.Transcript) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got.Transcript))
	}
	if got.Transcript[1].Text != "first" || got.Transcript[2].Text != "second" {
		t.Fatalf("expected append order preserved, got %+v", got.Transcript)
	}
}
