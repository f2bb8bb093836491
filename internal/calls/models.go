package calls

import (
	"time"

	"reservation-caller/internal/reservation"
)

// Record is the aggregate tracking one reservation attempt end-to-end.
//
// Invariants:
// - Created once at call initiation, never deleted.
// - Status and outcome stay mutually consistent (StatusConfirmed implies a
//   confirmed outcome kind).
// - The transcript is append-only and ordered.
// - Every mutation bumps UpdatedAt.
//
// Provider-specific identifiers (the Twilio call SID) live in ProviderCallSID
// rather than being mixed into the reservation model.
type Record struct {
	ID          string              `json:"id" db:"id"`
	Reservation reservation.Request `json:"reservation" db:"reservation"`

	Status Status `json:"status" db:"status"`

	Transcript []TranscriptEntry `json:"transcript"`
	Outcome    *Outcome          `json:"outcome,omitempty" db:"outcome"`

	ProviderCallSID string `json:"provider_call_sid,omitempty" db:"provider_call_sid"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// BusinessTurns counts transcript entries spoken by the business.
// It bounds the clarification loop.
func (r Record) BusinessTurns() int {
	n := 0
	for _, t := range r.Transcript {
		if t.Speaker == SpeakerBusiness {
			n++
		}
	}
	return n
}

type Status string

const (
	StatusInit                Status = "INIT"
	StatusDialing             Status = "DIALING"
	StatusConnected           Status = "CONNECTED"
	StatusDiscovery           Status = "DISCOVERY"
	StatusNegotiation         Status = "NEGOTIATION"
	StatusProposedOutcome     Status = "PROPOSED_OUTCOME"
	StatusWaitingUserApproval Status = "WAITING_USER_APPROVAL"
	StatusConfirmed           Status = "CONFIRMED"
	StatusFailed              Status = "FAILED"
	StatusEnded               Status = "ENDED"
)

type Speaker string

const (
	SpeakerAssistant Speaker = "assistant"
	SpeakerBusiness  Speaker = "business"
	SpeakerSystem    Speaker = "system"
)

type TranscriptEntry struct {
	At      time.Time `json:"at" db:"at"`
	Speaker Speaker   `json:"speaker" db:"speaker"`
	Text    string    `json:"text" db:"text"`
}

// OutcomeKind is the call's terminal-or-pending judgment.
type OutcomeKind string

const (
	OutcomeConfirmed OutcomeKind = "confirmed"
	OutcomePending   OutcomeKind = "pending"
	OutcomeFailed    OutcomeKind = "failed"
	OutcomeVoicemail OutcomeKind = "voicemail"
)

// Outcome replaces any prior outcome when set; no outcome history is kept.
type Outcome struct {
	Kind              OutcomeKind `json:"kind"`
	NeedsUserApproval bool        `json:"needs_user_approval"`
	Confidence        float64     `json:"confidence"`
	Reason            string      `json:"reason,omitempty"`

	Confirmed *ConfirmedDetails `json:"confirmed_details,omitempty"`
}

type ConfirmedDetails struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	PartySize int    `json:"party_size"`
	Name      string `json:"name"`
	Notes     string `json:"notes,omitempty"`
}
