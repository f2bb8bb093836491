package revision

import (
	"regexp"
	"strconv"

	"reservation-caller/internal/reservation"
)

var (
	datePattern = regexp.MustCompile(`\b(20\d{2}-\d{2}-\d{2})\b`)
	timePattern = regexp.MustCompile(`\b([01]?\d|2[0-3])[:h]([0-5]\d)\b`)

	partyPattern     = regexp.MustCompile(`(?i)(?:party|for|size)\s*(\d{1,2})`)
	partyWordPattern = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(people|persons|guests)\b`)
)

// ParsePatch extracts reservation changes from a free-text revision message
// like "2026-02-22 20:00 for 2". Fields it cannot find stay zero; an empty
// patch means nothing parseable was said.
func ParsePatch(text string) reservation.Patch {
	var patch reservation.Patch

	if m := datePattern.FindStringSubmatch(text); m != nil {
		patch.Date = m[1]
	}

	if m := timePattern.FindStringSubmatch(text); m != nil {
		hh := m[1]
		if len(hh) == 1 {
			hh = "0" + hh
		}
		patch.TimePreferred = hh + ":" + m[2]
	}

	party := partyPattern.FindStringSubmatch(text)
	if party == nil {
		party = partyWordPattern.FindStringSubmatch(text)
	}
	if party != nil {
		if n, err := strconv.Atoi(party[1]); err == nil && n > 0 {
			patch.PartySize = n
		}
	}

	return patch
}
