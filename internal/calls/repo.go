package calls

import (
	"context"
	"errors"

	"reservation-caller/internal/reservation"
)

var (
	ErrNotFound        = errors.New("call not found")
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrTransport marks an outbound call that could not be placed.
	// The coordinator records it in the transcript and fails the call;
	// it is not retried automatically.
	ErrTransport = errors.New("call transport failed")
)

// Repo is the persistence contract for call records.
//
// Semantics:
// - Create assigns INIT status and seeds the transcript.
// - Get reports absence via the bool, not an error.
// - Mutators are silent no-ops on unknown ids; the coordinator surfaces
//   ErrNotFound to its own callers where required.
// - Writers are last-writer-wins; callers serialize access per call id.
type Repo interface {
	Create(ctx context.Context, res reservation.Request) (Record, error)
	Get(ctx context.Context, id string) (Record, bool, error)
	List(ctx context.Context) ([]Record, error)

	UpdateStatus(ctx context.Context, id string, status Status) error
	AppendTranscript(ctx context.Context, id string, speaker Speaker, text string) error
	SetOutcome(ctx context.Context, id string, outcome Outcome) error
	UpdateReservation(ctx context.Context, id string, patch reservation.Patch) error
	AttachProviderSID(ctx context.Context, id, sid string) error
}
