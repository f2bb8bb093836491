package reservation

// Request captures the caller's intent for one booking attempt.
//
// Invariants:
// - A request is created once per call and owned by the call record.
// - Date, TimePreferred and PartySize may be overwritten by an explicit
//   revision patch; every other field is immutable after creation.
// - TimePreferred uses 24-hour "HH:MM"; Date is a calendar date string.
type Request struct {
	RequestID      string `json:"request_id"`
	BusinessName   string `json:"business_name"`
	BusinessPhone  string `json:"business_phone"`
	Date           string `json:"date"`
	TimePreferred  string `json:"time_preferred"`
	PartySize      int    `json:"party_size"`
	NameForBooking string `json:"name_for_booking"`

	Constraints *Constraints `json:"constraints,omitempty"`
	Policy      *Policy      `json:"policy,omitempty"`
}

type Constraints struct {
	// TimeFlexMinutes widens the acceptable offset around TimePreferred.
	// Zero means "use the default"; see FlexMinutes.
	TimeFlexMinutes  int      `json:"time_flex_minutes,omitempty"`
	OutdoorPreferred bool     `json:"outdoor_preferred,omitempty"`
	Dietary          []string `json:"dietary,omitempty"`
	Accessibility    string   `json:"accessibility,omitempty"`
	MaxWaitMinutes   int      `json:"max_wait_minutes,omitempty"`
}

type Policy struct {
	AllowAutoConfirm        bool `json:"allow_auto_confirm,omitempty"`
	AllowDeposit            bool `json:"allow_deposit,omitempty"`
	RequireHumanOnAmbiguity bool `json:"require_human_on_ambiguity,omitempty"`
}

// DefaultFlexMinutes is the time-window tolerance applied when the request
// carries no explicit flexibility constraint.
const DefaultFlexMinutes = 30

// FlexMinutes returns the effective flexibility window for this request.
func (r Request) FlexMinutes() int {
	if r.Constraints != nil && r.Constraints.TimeFlexMinutes > 0 {
		return r.Constraints.TimeFlexMinutes
	}
	return DefaultFlexMinutes
}

// AllowAutoConfirm reports whether policy permits confirming without a human.
func (r Request) AllowAutoConfirm() bool {
	return r.Policy != nil && r.Policy.AllowAutoConfirm
}

// Patch is a partial update to the mutable fields of a Request.
// Zero values mean "leave unchanged"; PartySize must be positive to apply.
type Patch struct {
	Date          string `json:"date,omitempty"`
	TimePreferred string `json:"time_preferred,omitempty"`
	PartySize     int    `json:"party_size,omitempty"`
}

// IsEmpty reports whether the patch carries no fields to apply.
func (p Patch) IsEmpty() bool {
	return p.Date == "" && p.TimePreferred == "" && p.PartySize <= 0
}

// Apply merges the patch into a copy of the request. Omitted fields retain
// their prior values.
func (p Patch) Apply(r Request) Request {
	if p.Date != "" {
		r.Date = p.Date
	}
	if p.TimePreferred != "" {
		r.TimePreferred = p.TimePreferred
	}
	if p.PartySize > 0 {
		r.PartySize = p.PartySize
	}
	return r
}
