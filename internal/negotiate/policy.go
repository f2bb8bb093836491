package negotiate

import (
	"fmt"
	"strings"

	"reservation-caller/internal/reservation"
)

// BuildAssistantIntro renders the opening line the assistant speaks when the
// business answers.
func BuildAssistantIntro(r reservation.Request) string {
	return fmt.Sprintf(
		"Hi, I'm an assistant calling on behalf of %s. We'd like a reservation for %d on %s around %s.",
		r.NameForBooking, r.PartySize, r.Date, r.TimePreferred,
	)
}

var riskKeywords = []string{"deposit", "card", "fee", "cancellation", "prepay"}

// NeedsHumanConfirmation reports whether a free-text condition note requires
// operator sign-off before a proposed outcome can auto-confirm.
func NeedsHumanConfirmation(note string, allowAutoConfirm bool) bool {
	if allowAutoConfirm {
		return false
	}
	lower := strings.ToLower(note)
	for _, k := range riskKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
