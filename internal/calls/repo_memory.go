package calls

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"reservation-caller/internal/reservation"
)

// MemoryRepo keeps call records in process memory.
//
// It backs simulation mode and tests. Records do not survive a restart;
// durable deployments use the Postgres repo instead.
type MemoryRepo struct {
	mu    sync.Mutex
	byID  map[string]*Record
	clock func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: map[string]*Record{}, clock: time.Now}
}

func (r *MemoryRepo) Create(ctx context.Context, res reservation.Request) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock().UTC()
	id := res.RequestID
	if id == "" {
		id = uuid.NewString()
	}
	res.RequestID = id

	rec := &Record{
		ID:          id,
		Reservation: res,
		Status:      StatusInit,
		Transcript:  []TranscriptEntry{{At: now, Speaker: SpeakerSystem, Text: "Call created"}},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.byID[id] = rec
	return cloneRecord(rec), nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Record, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[id]
	if !ok {
		return Record{}, false, nil
	}
	return cloneRecord(rec), true, nil
}

func (r *MemoryRepo) List(ctx context.Context) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Record, 0, len(r.byID))
	for _, rec := range r.byID {
		out = append(out, cloneRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) UpdateStatus(ctx context.Context, id string, status Status) error {
	return r.mutate(id, func(rec *Record) {
		rec.Status = status
	})
}

func (r *MemoryRepo) AppendTranscript(ctx context.Context, id string, speaker Speaker, text string) error {
	return r.mutate(id, func(rec *Record) {
		rec.Transcript = append(rec.Transcript, TranscriptEntry{At: r.clock().UTC(), Speaker: speaker, Text: text})
	})
}

func (r *MemoryRepo) SetOutcome(ctx context.Context, id string, outcome Outcome) error {
	return r.mutate(id, func(rec *Record) {
		rec.Outcome = &outcome
	})
}

func (r *MemoryRepo) UpdateReservation(ctx context.Context, id string, patch reservation.Patch) error {
	return r.mutate(id, func(rec *Record) {
		rec.Reservation = patch.Apply(rec.Reservation)
	})
}

func (r *MemoryRepo) AttachProviderSID(ctx context.Context, id, sid string) error {
	return r.mutate(id, func(rec *Record) {
		rec.ProviderCallSID = sid
	})
}

// mutate applies fn and bumps UpdatedAt; unknown ids are silently absorbed.
func (r *MemoryRepo) mutate(id string, fn func(rec *Record)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[id]
	if !ok {
		return nil
	}
	fn(rec)
	rec.UpdatedAt = r.clock().UTC()
	return nil
}

func cloneRecord(rec *Record) Record {
	out := *rec
	out.Transcript = make([]TranscriptEntry, len(rec.Transcript))
	copy(out.Transcript, rec.Transcript)
	if rec.Outcome != nil {
		o := *rec.Outcome
		if o.Confirmed != nil {
			c := *o.Confirmed
			o.Confirmed = &c
		}
		out.Outcome = &o
	}
	if rec.Reservation.Constraints != nil {
		c := *rec.Reservation.Constraints
		out.Reservation.Constraints = &c
	}
	if rec.Reservation.Policy != nil {
		p := *rec.Reservation.Policy
		out.Reservation.Policy = &p
	}
	return out
}
