package negotiate

import (
	"fmt"
	"strconv"
	"strings"

	"reservation-caller/internal/reservation"
)

// Engine maps a parsed business reply plus the originating reservation
// request to exactly one Decision.
//
// Priority: rules are evaluated in declared order and the first match wins;
// rules are never combined. The ordering is a conservative bias: ambiguity
// and risk escalate to a human before any time arithmetic happens, and a
// callback request makes the rest of the reply provisional.
//
// The engine never fails: every input, however degenerate, yields a
// disposition. Pure evaluation, no side effects.
type Engine struct {
	rules []rule
}

type rule struct {
	name string
	eval func(in ruleInput) (Decision, bool)
}

type ruleInput struct {
	reply ParsedReply
	req   reservation.Request
}

func NewEngine() *Engine {
	return &Engine{rules: []rule{
		{name: "reject_no_availability", eval: evalNoAvailability},
		{name: "clarify_callback_requested", eval: evalCallbackRequested},
		{name: "clarify_ambiguous", eval: evalAmbiguous},
		{name: "approval_risk_condition", eval: evalRiskCondition},
		{name: "time_window_check", eval: evalTimeWindow},
		{name: "approval_no_explicit_time", eval: evalNoExplicitTime},
	}}
}

// RuleNames returns the rule identifiers in evaluation order.
func (e *Engine) RuleNames() []string {
	out := make([]string, 0, len(e.rules))
	for _, r := range e.rules {
		out = append(out, r.name)
	}
	return out
}

// Decide evaluates the ordered rule list against reply and req.
func (e *Engine) Decide(reply ParsedReply, req reservation.Request) Decision {
	in := ruleInput{reply: reply, req: req}
	for _, r := range e.rules {
		if d, ok := r.eval(in); ok {
			return d
		}
	}
	// Unreachable with the shipped rule list, but the contract is that the
	// state machine always gets a defined next step.
	return Decision{
		Disposition: DispositionNeedsApproval,
		Reason:      "No rule matched",
		Notes:       reply.Raw,
	}
}

func evalNoAvailability(in ruleInput) (Decision, bool) {
	if in.reply.Availability != AvailabilityNo {
		return Decision{}, false
	}
	return Decision{
		Disposition: DispositionReject,
		Reason:      "Business reported no availability",
		Notes:       in.reply.Raw,
	}, true
}

func evalCallbackRequested(in ruleInput) (Decision, bool) {
	if !in.reply.NeedsCallback {
		return Decision{}, false
	}
	return Decision{
		Disposition: DispositionClarify,
		Reason:      "Business asked for callback",
		Notes:       in.reply.Raw,
	}, true
}

func evalAmbiguous(in ruleInput) (Decision, bool) {
	if in.reply.Availability != AvailabilityUnknown {
		return Decision{}, false
	}
	return Decision{
		Disposition: DispositionClarify,
		Reason:      "Ambiguous answer",
		Notes:       in.reply.Raw,
	}, true
}

// Financial and penalty terms are out of scope for autonomous confirmation,
// even when the offered time matches exactly.
func evalRiskCondition(in ruleInput) (Decision, bool) {
	if !in.reply.HasDeposit && !in.reply.HasCancellationPolicy {
		return Decision{}, false
	}
	d := Decision{
		Disposition: DispositionNeedsApproval,
		Reason:      "Deposit/cancellation condition detected",
		Notes:       in.reply.Raw,
	}
	if len(in.reply.OfferedTimes) > 0 {
		d.ProposedTime = in.reply.OfferedTimes[0]
	}
	return d, true
}

func evalTimeWindow(in ruleInput) (Decision, bool) {
	if len(in.reply.OfferedTimes) == 0 {
		return Decision{}, false
	}

	best := in.reply.OfferedTimes[0]
	flex := in.req.FlexMinutes()
	diff := minutesOfDay(best) - minutesOfDay(in.req.TimePreferred)
	if diff < 0 {
		diff = -diff
	}

	if diff > flex {
		return Decision{
			Disposition:  DispositionNeedsApproval,
			Reason:       fmt.Sprintf("Offered time %s is outside preferred window (+/-%dm)", best, flex),
			ProposedTime: best,
			Notes:        in.reply.Raw,
		}, true
	}
	return Decision{
		Disposition:  DispositionConfirm,
		Reason:       "Availability within allowed window",
		ProposedTime: best,
		Notes:        in.reply.Raw,
	}, true
}

func evalNoExplicitTime(in ruleInput) (Decision, bool) {
	return Decision{
		Disposition: DispositionNeedsApproval,
		Reason:      "Availability yes but no explicit time extracted",
		Notes:       in.reply.Raw,
	}, true
}

// minutesOfDay converts "HH:MM" to minutes since midnight.
// Inputs come from the extractor or validated requests; malformed values
// degrade to 0 rather than failing the engine.
func minutesOfDay(t string) int {
	hh, mm, ok := strings.Cut(t, ":")
	if !ok {
		return 0
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0
	}
	return h*60 + m
}
