package negotiate

import (
	"regexp"
	"strings"
)

// ParsedReply is the structured signal set extracted from one block of
// transcribed business speech.
//
// It is derived and immutable: consumed by the decision engine right away,
// never persisted on its own.
type ParsedReply struct {
	Raw          string       `json:"raw"`
	Availability Availability `json:"availability"`

	// OfferedTimes lists every "HH:MM" mention in speech order.
	// The first mention is treated as the offer.
	OfferedTimes []string `json:"offered_times"`

	HasDeposit            bool `json:"has_deposit"`
	HasCancellationPolicy bool `json:"has_cancellation_policy"`
	NeedsCallback         bool `json:"needs_callback"`

	// Confidence is a coarse heuristic in [0,1]. Downstream logic treats it
	// as informational; it never gates a disposition on its own.
	Confidence float64 `json:"confidence"`
}

type Availability string

const (
	AvailabilityYes     Availability = "yes"
	AvailabilityNo      Availability = "no"
	AvailabilityUnknown Availability = "unknown"
)

var timePattern = regexp.MustCompile(`\b([01]?\d|2[0-3])[:h]([0-5]\d)\b`)

var (
	depositPattern      = regexp.MustCompile(`\b(deposit|card hold|prepay|pre-pay|credit card)\b`)
	cancellationPattern = regexp.MustCompile(`\b(cancellation|cancel fee|no-show|penalty)\b`)
	callbackPattern     = regexp.MustCompile(`\b(call back|callback|later)\b`)

	// "no deposit needed" is reassurance, not a risk condition; negated
	// mentions are stripped before the deposit check runs.
	depositNegationPattern = regexp.MustCompile(`\b(?:no|without|not requiring?)\s+(?:a\s+)?(?:deposit|prepay|pre-pay|card hold|credit card)\b`)
)

// Negative signals are checked first and win over positive ones; a reply like
// "yes but we're fully booked" must read as unavailable.
var noSignals = []string{"not available", "fully booked", "sold out", "cannot", "can't", "no availability"}

var yesSignals = []string{"yes", "available", "we can", "sure", "ok", "okay", "works", "can do"}

const (
	confidenceKnown   = 0.82
	confidenceUnknown = 0.55
)

// ParseReply turns raw transcribed speech into a ParsedReply.
// Pure function of its input; empty text yields an unknown signal set.
func ParseReply(input string) ParsedReply {
	raw := strings.TrimSpace(input)
	lower := strings.ToLower(raw)

	availability := AvailabilityUnknown
	switch {
	case containsAny(lower, noSignals):
		availability = AvailabilityNo
	case containsAny(lower, yesSignals):
		availability = AvailabilityYes
	}

	var offered []string
	for _, m := range timePattern.FindAllStringSubmatch(lower, -1) {
		hh := m[1]
		if len(hh) == 1 {
			hh = "0" + hh
		}
		offered = append(offered, hh+":"+m[2])
	}

	confidence := confidenceKnown
	if availability == AvailabilityUnknown {
		confidence = confidenceUnknown
	}

	return ParsedReply{
		Raw:                   raw,
		Availability:          availability,
		OfferedTimes:          offered,
		HasDeposit:            depositPattern.MatchString(depositNegationPattern.ReplaceAllString(lower, "")),
		HasCancellationPolicy: cancellationPattern.MatchString(lower),
		NeedsCallback:         callbackPattern.MatchString(lower),
		Confidence:            confidence,
	}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
