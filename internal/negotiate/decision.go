package negotiate

// Disposition is the engine's categorical verdict for one business reply.
type Disposition string

const (
	DispositionConfirm       Disposition = "confirm"
	DispositionReject        Disposition = "reject"
	DispositionClarify       Disposition = "clarify"
	DispositionNeedsApproval Disposition = "needs_approval"
)

// Decision is the provider-agnostic output of the negotiation engine.
//
// It is transient: only its effects (outcome, status transition) are stored
// on the call record.
type Decision struct {
	Disposition Disposition `json:"disposition"`

	// Reason is a short human-readable explanation, surfaced in outcomes
	// and approval prompts.
	Reason string `json:"reason"`

	// ProposedTime is the first offered "HH:MM" when one was extracted.
	ProposedTime string `json:"proposed_time,omitempty"`

	// Notes carries the raw business reply for operator context.
	Notes string `json:"notes,omitempty"`
}
