package calls

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"reservation-caller/internal/negotiate"
	"reservation-caller/internal/reservation"
	"reservation-caller/pkg/logger"
)

// Dialer places the outbound call at the provider boundary.
// A nil Dialer on the Service means simulation mode.
type Dialer interface {
	// Start dials destination and returns the provider call reference.
	Start(ctx context.Context, destination, callID string) (string, error)
}

// ApprovalNotifier prompts a human to approve, revise, or cancel a call.
// Fire-and-forget: failures are logged, never propagated.
type ApprovalNotifier interface {
	PromptApproval(ctx context.Context, p ApprovalPrompt) error
}

type ApprovalPrompt struct {
	CallID       string `json:"call_id"`
	BusinessName string `json:"business_name"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	PartySize    int    `json:"party_size"`
	Notes        string `json:"notes,omitempty"`
}

// EventSink receives lifecycle events for external orchestration.
// Fire-and-forget: failures are logged, never propagated.
type EventSink interface {
	Notify(ctx context.Context, event string, payload map[string]any) error
}

const (
	EventApprovalRequired = "approval_required"
	EventCallConfirmed    = "call_confirmed"
	EventCallFailed       = "call_failed"
	EventCallCancelled    = "call_cancelled"
)

// Service is the outcome and revision coordinator: it applies negotiation
// decisions and human verdicts to call records, drives status through the
// lifecycle, and re-arms calls for recall attempts.
//
// Concurrency: one logical thread of control per call id. The service does
// read-modify-write sequences against the repo and relies on callers to
// serialize webhook handling per call.
type Service struct {
	repo      Repo
	dialer    Dialer
	approvals ApprovalNotifier
	events    EventSink
	engine    *negotiate.Engine
	clock     func() time.Time
}

func NewService(repo Repo, dialer Dialer, approvals ApprovalNotifier, events EventSink) *Service {
	return &Service{
		repo:      repo,
		dialer:    dialer,
		approvals: approvals,
		events:    events,
		engine:    negotiate.NewEngine(),
		clock:     time.Now,
	}
}

// Get returns a call record or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	rec, ok, err := s.repo.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// List returns all call records.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	return s.repo.List(ctx)
}

type StartResult struct {
	Call      Record
	Simulated bool
}

// StartCall creates the record, speaks the intro into the transcript, and
// places (or simulates) the outbound call.
func (s *Service) StartCall(ctx context.Context, req reservation.Request) (StartResult, error) {
	if err := validateRequest(req); err != nil {
		return StartResult{}, err
	}

	rec, err := s.repo.Create(ctx, req)
	if err != nil {
		return StartResult{}, err
	}
	s.transition(ctx, rec.ID, rec.Status, StatusDialing)
	_ = s.repo.AppendTranscript(ctx, rec.ID, SpeakerAssistant, negotiate.BuildAssistantIntro(rec.Reservation))

	if s.dialer == nil {
		_ = s.repo.AttachProviderSID(ctx, rec.ID, simulatedSID(rec.ID))
		out, _ := s.Get(ctx, rec.ID)
		return StartResult{Call: out, Simulated: true}, nil
	}

	sid, err := s.dialer.Start(ctx, rec.Reservation.BusinessPhone, rec.ID)
	if err != nil {
		s.transition(ctx, rec.ID, StatusDialing, StatusFailed)
		_ = s.repo.AppendTranscript(ctx, rec.ID, SpeakerSystem, "Outbound call error: "+err.Error())
		return StartResult{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	_ = s.repo.AttachProviderSID(ctx, rec.ID, sid)
	_ = s.repo.AppendTranscript(ctx, rec.ID, SpeakerSystem, "Outbound call created: "+sid)

	out, _ := s.Get(ctx, rec.ID)
	return StartResult{Call: out}, nil
}

// BeginDiscovery moves an answered call into the question-asking phase.
// The voice layer calls this when Twilio fetches the opening instructions.
func (s *Service) BeginDiscovery(ctx context.Context, callID string) (Record, error) {
	rec, err := s.Get(ctx, callID)
	if err != nil {
		return Record{}, err
	}
	s.transition(ctx, callID, rec.Status, StatusDiscovery)
	return s.Get(ctx, callID)
}

// ReplyAction tells the voice layer what to do after a business reply.
type ReplyAction string

const (
	// ReplyActionHangup ends the call after speaking.
	ReplyActionHangup ReplyAction = "hangup"
	// ReplyActionGather asks a follow-up question and listens again.
	ReplyActionGather ReplyAction = "gather"
)

type ReplyResult struct {
	Call Record

	// Decision is nil when no speech was captured (no engine invocation).
	Decision *negotiate.Decision

	Action ReplyAction
	// Say is the assistant's next spoken line.
	Say string
}

// HandleBusinessReply consumes one block of transcribed business speech and
// drives the call to its next state.
func (s *Service) HandleBusinessReply(ctx context.Context, callID, speech string) (ReplyResult, error) {
	rec, err := s.Get(ctx, callID)
	if err != nil {
		return ReplyResult{}, err
	}

	speech = strings.TrimSpace(speech)
	heard := speech
	if heard == "" {
		heard = "(no speech captured)"
	}
	_ = s.repo.AppendTranscript(ctx, callID, SpeakerBusiness, heard)

	if speech == "" {
		s.transition(ctx, callID, rec.Status, StatusFailed)
		_ = s.repo.SetOutcome(ctx, callID, Outcome{
			Kind:       OutcomeFailed,
			Confidence: 0.4,
			Reason:     "No speech captured",
		})
		out, _ := s.Get(ctx, callID)
		return ReplyResult{
			Call:   out,
			Action: ReplyActionHangup,
			Say:    "I did not hear a response. I will follow up later. Thank you.",
		}, nil
	}

	parsed := negotiate.ParseReply(speech)
	decision := s.engine.Decide(parsed, rec.Reservation)

	switch decision.Disposition {
	case negotiate.DispositionReject:
		return s.applyReject(ctx, callID, rec, parsed, decision)
	case negotiate.DispositionConfirm:
		return s.applyConfirm(ctx, callID, rec, parsed, decision)
	case negotiate.DispositionNeedsApproval:
		return s.applyNeedsApproval(ctx, callID, rec, parsed, decision)
	default:
		return s.applyClarify(ctx, callID, rec, parsed, decision, speech)
	}
}

func (s *Service) applyReject(ctx context.Context, callID string, rec Record, parsed negotiate.ParsedReply, decision negotiate.Decision) (ReplyResult, error) {
	s.transition(ctx, callID, rec.Status, StatusFailed)
	_ = s.repo.SetOutcome(ctx, callID, Outcome{
		Kind:       OutcomeFailed,
		Confidence: parsed.Confidence,
		Reason:     decision.Reason,
	})
	s.notify(ctx, EventCallFailed, map[string]any{
		"callId":       callID,
		"businessName": rec.Reservation.BusinessName,
		"reason":       decision.Reason,
	})

	out, _ := s.Get(ctx, callID)
	return ReplyResult{
		Call:     out,
		Decision: &decision,
		Action:   ReplyActionHangup,
		Say:      "Understood, thank you for checking. Have a great day.",
	}, nil
}

func (s *Service) applyConfirm(ctx context.Context, callID string, rec Record, parsed negotiate.ParsedReply, decision negotiate.Decision) (ReplyResult, error) {
	confirmedTime := decision.ProposedTime
	if confirmedTime == "" {
		confirmedTime = rec.Reservation.TimePreferred
	}
	_ = s.repo.SetOutcome(ctx, callID, Outcome{
		Kind:       OutcomeConfirmed,
		Confidence: parsed.Confidence,
		Reason:     decision.Reason,
		Confirmed: &ConfirmedDetails{
			Date:      rec.Reservation.Date,
			Time:      confirmedTime,
			PartySize: rec.Reservation.PartySize,
			Name:      rec.Reservation.NameForBooking,
			Notes:     decision.Notes,
		},
	})
	s.transition(ctx, callID, rec.Status, StatusConfirmed)
	s.notify(ctx, EventCallConfirmed, map[string]any{
		"callId":       callID,
		"businessName": rec.Reservation.BusinessName,
	})

	out, _ := s.Get(ctx, callID)
	return ReplyResult{
		Call:     out,
		Decision: &decision,
		Action:   ReplyActionHangup,
		Say:      fmt.Sprintf("Perfect. Please confirm the reservation under %s. Thank you.", rec.Reservation.NameForBooking),
	}, nil
}

func (s *Service) applyNeedsApproval(ctx context.Context, callID string, rec Record, parsed negotiate.ParsedReply, decision negotiate.Decision) (ReplyResult, error) {
	proposedTime := decision.ProposedTime
	if proposedTime == "" {
		proposedTime = rec.Reservation.TimePreferred
	}
	_ = s.repo.SetOutcome(ctx, callID, Outcome{
		Kind:              OutcomePending,
		NeedsUserApproval: true,
		Confidence:        parsed.Confidence,
		Reason:            decision.Reason,
		Confirmed: &ConfirmedDetails{
			Date:      rec.Reservation.Date,
			Time:      proposedTime,
			PartySize: rec.Reservation.PartySize,
			Name:      rec.Reservation.NameForBooking,
			Notes:     decision.Notes,
		},
	})
	s.transition(ctx, callID, rec.Status, StatusWaitingUserApproval)

	s.notify(ctx, EventApprovalRequired, map[string]any{
		"callId":       callID,
		"businessName": rec.Reservation.BusinessName,
		"phone":        rec.Reservation.BusinessPhone,
		"date":         rec.Reservation.Date,
		"time":         proposedTime,
		"partySize":    rec.Reservation.PartySize,
		"notes":        decision.Notes,
	})
	s.promptApproval(ctx, ApprovalPrompt{
		CallID:       callID,
		BusinessName: rec.Reservation.BusinessName,
		Date:         rec.Reservation.Date,
		Time:         proposedTime,
		PartySize:    rec.Reservation.PartySize,
		Notes:        decision.Notes,
	})

	out, _ := s.Get(ctx, callID)
	return ReplyResult{
		Call:     out,
		Decision: &decision,
		Action:   ReplyActionHangup,
		Say:      "Thank you. I need to confirm final details and will call back if needed.",
	}, nil
}

func (s *Service) applyClarify(ctx context.Context, callID string, rec Record, parsed negotiate.ParsedReply, decision negotiate.Decision, speech string) (ReplyResult, error) {
	// Includes the business turn appended above.
	updated, _ := s.Get(ctx, callID)
	next := StatusForDisposition(decision.Disposition, updated.BusinessTurns())

	if next == StatusWaitingUserApproval {
		// Clarification budget exhausted. This escalation route converges on
		// WAITING_USER_APPROVAL but carries its own reason; it does not go
		// through the engine's needs_approval rule.
		s.transition(ctx, callID, rec.Status, StatusWaitingUserApproval)
		_ = s.repo.SetOutcome(ctx, callID, Outcome{
			Kind:              OutcomePending,
			NeedsUserApproval: true,
			Confidence:        parsed.Confidence,
			Reason:            ClarifyEscalationReason,
			Confirmed: &ConfirmedDetails{
				Date:      rec.Reservation.Date,
				Time:      rec.Reservation.TimePreferred,
				PartySize: rec.Reservation.PartySize,
				Name:      rec.Reservation.NameForBooking,
				Notes:     speech,
			},
		})
		s.promptApproval(ctx, ApprovalPrompt{
			CallID:       callID,
			BusinessName: rec.Reservation.BusinessName,
			Date:         rec.Reservation.Date,
			Time:         rec.Reservation.TimePreferred,
			PartySize:    rec.Reservation.PartySize,
			Notes:        "Ambiguous response after multiple attempts",
		})

		out, _ := s.Get(ctx, callID)
		return ReplyResult{
			Call:     out,
			Decision: &decision,
			Action:   ReplyActionHangup,
			Say:      "Thank you. I will confirm details and follow up if needed.",
		}, nil
	}

	s.transition(ctx, callID, rec.Status, StatusNegotiation)
	out, _ := s.Get(ctx, callID)
	return ReplyResult{
		Call:     out,
		Decision: &decision,
		Action:   ReplyActionGather,
		Say:      "Thanks. Could you repeat the available time and any reservation conditions?",
	}, nil
}

// HandleTransportStatus applies a provider status callback to the lifecycle.
func (s *Service) HandleTransportStatus(ctx context.Context, callID, providerStatus string) error {
	rec, ok, err := s.repo.Get(ctx, callID)
	if err != nil {
		return err
	}
	if !ok {
		// Status callbacks for unknown calls are absorbed.
		return nil
	}

	var next Status
	switch providerStatus {
	case "ringing", "initiated":
		next = StatusDialing
	case "answered", "in-progress":
		next = StatusConnected
	case "completed":
		next = StatusEnded
	default:
		next = StatusNegotiation
	}

	s.transition(ctx, callID, rec.Status, next)
	_ = s.repo.AppendTranscript(ctx, callID, SpeakerSystem, "Provider status: "+providerStatus)
	return nil
}

// MarkVoicemail records that the call hit voicemail and fails the attempt.
func (s *Service) MarkVoicemail(ctx context.Context, callID string) error {
	rec, err := s.Get(ctx, callID)
	if err != nil {
		return err
	}
	_ = s.repo.SetOutcome(ctx, callID, Outcome{
		Kind:       OutcomeVoicemail,
		Confidence: 0.9,
		Reason:     "Reached voicemail",
	})
	s.transition(ctx, callID, rec.Status, StatusEnded)
	return nil
}

// HumanDecision is the operator's verdict on a pending call.
type HumanDecision string

const (
	DecisionApprove HumanDecision = "approve"
	DecisionRevise  HumanDecision = "revise"
	DecisionCancel  HumanDecision = "cancel"
)

// ParseHumanDecision validates an operator-supplied decision string.
func ParseHumanDecision(s string) (HumanDecision, error) {
	switch HumanDecision(s) {
	case DecisionApprove, DecisionRevise, DecisionCancel:
		return HumanDecision(s), nil
	default:
		return "", fmt.Errorf("%w: decision %q", ErrInvalidArgument, s)
	}
}

// ApplyDecision applies an operator verdict to the call.
//
// approve confirms using the call's current reservation fields; cancel fails
// the call; revise only notes the request and returns the call to
// NEGOTIATION. Reservation fields change through ApplyRecall, never here.
func (s *Service) ApplyDecision(ctx context.Context, callID string, decision HumanDecision, notes string) (Record, error) {
	rec, err := s.Get(ctx, callID)
	if err != nil {
		return Record{}, err
	}

	switch decision {
	case DecisionApprove:
		_ = s.repo.SetOutcome(ctx, callID, Outcome{
			Kind:       OutcomeConfirmed,
			Confidence: 0.95,
			Reason:     "Approved by user",
			Confirmed: &ConfirmedDetails{
				Date:      rec.Reservation.Date,
				Time:      rec.Reservation.TimePreferred,
				PartySize: rec.Reservation.PartySize,
				Name:      rec.Reservation.NameForBooking,
				Notes:     notes,
			},
		})
		s.transition(ctx, callID, rec.Status, StatusConfirmed)
		s.notify(ctx, EventCallConfirmed, map[string]any{
			"callId":       callID,
			"businessName": rec.Reservation.BusinessName,
			"confirmed": map[string]any{
				"date":      rec.Reservation.Date,
				"time":      rec.Reservation.TimePreferred,
				"partySize": rec.Reservation.PartySize,
				"name":      rec.Reservation.NameForBooking,
			},
		})

	case DecisionCancel:
		_ = s.repo.SetOutcome(ctx, callID, Outcome{
			Kind:       OutcomeFailed,
			Confidence: 1,
			Reason:     "Cancelled by user",
		})
		s.transition(ctx, callID, rec.Status, StatusFailed)
		s.notify(ctx, EventCallCancelled, map[string]any{
			"callId":       callID,
			"businessName": rec.Reservation.BusinessName,
		})

	case DecisionRevise:
		s.transition(ctx, callID, rec.Status, StatusNegotiation)
		note := notes
		if note == "" {
			note = "(no notes)"
		}
		_ = s.repo.AppendTranscript(ctx, callID, SpeakerSystem, "User revision requested: "+note)

	default:
		return Record{}, fmt.Errorf("%w: decision %q", ErrInvalidArgument, decision)
	}

	return s.Get(ctx, callID)
}

type RecallResult struct {
	Call      Record
	Simulated bool
}

// ApplyRecall merges a revision patch into the reservation and re-arms the
// call for a new outbound attempt.
func (s *Service) ApplyRecall(ctx context.Context, callID string, patch reservation.Patch, notes string) (RecallResult, error) {
	rec, err := s.Get(ctx, callID)
	if err != nil {
		return RecallResult{}, err
	}
	if patch.IsEmpty() {
		return RecallResult{}, fmt.Errorf("%w: recall patch is empty", ErrInvalidArgument)
	}

	if err := s.repo.UpdateReservation(ctx, callID, patch); err != nil {
		return RecallResult{}, err
	}
	_ = s.repo.AppendTranscript(ctx, callID, SpeakerSystem, "Recall requested with updates: "+describePatch(patch, notes))
	s.transition(ctx, callID, rec.Status, StatusDialing)

	if s.dialer == nil {
		_ = s.repo.AppendTranscript(ctx, callID, SpeakerSystem, "Recall simulated (no call transport configured)")
		out, _ := s.Get(ctx, callID)
		return RecallResult{Call: out, Simulated: true}, nil
	}

	updated, _ := s.Get(ctx, callID)
	sid, err := s.dialer.Start(ctx, updated.Reservation.BusinessPhone, callID)
	if err != nil {
		s.transition(ctx, callID, StatusDialing, StatusFailed)
		_ = s.repo.AppendTranscript(ctx, callID, SpeakerSystem, "Recall error: "+err.Error())
		return RecallResult{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	_ = s.repo.AttachProviderSID(ctx, callID, sid)
	_ = s.repo.AppendTranscript(ctx, callID, SpeakerSystem, "Recall call created: "+sid)

	out, _ := s.Get(ctx, callID)
	return RecallResult{Call: out}, nil
}

// ProposeOutcome records a provisional outcome for a note collected outside
// the reply flow, routing risky notes to operator approval.
func (s *Service) ProposeOutcome(ctx context.Context, callID, note string) (Record, error) {
	rec, err := s.Get(ctx, callID)
	if err != nil {
		return Record{}, err
	}
	if note == "" {
		note = "No risk noted"
	}

	requireApproval := negotiate.NeedsHumanConfirmation(note, rec.Reservation.AllowAutoConfirm())
	_ = s.repo.SetOutcome(ctx, callID, Outcome{
		Kind:              OutcomePending,
		NeedsUserApproval: requireApproval,
		Confidence:        0.78,
		Reason:            note,
		Confirmed: &ConfirmedDetails{
			Date:      rec.Reservation.Date,
			Time:      rec.Reservation.TimePreferred,
			PartySize: rec.Reservation.PartySize,
			Name:      rec.Reservation.NameForBooking,
			Notes:     note,
		},
	})

	next := StatusProposedOutcome
	if requireApproval {
		next = StatusWaitingUserApproval
	}
	s.transition(ctx, callID, rec.Status, next)

	return s.Get(ctx, callID)
}

// transition moves the call to the next status and logs the move as a system
// transcript entry. Off-graph moves are logged, not rejected: transport events
// and recalls may jump states.
func (s *Service) transition(ctx context.Context, callID string, from, to Status) {
	if from == to {
		return
	}
	if !CanTransition(from, to) {
		logger.From(ctx).Warn("off-graph status transition", "call_id", callID, "from", from, "to", to)
	}
	_ = s.repo.UpdateStatus(ctx, callID, to)
	_ = s.repo.AppendTranscript(ctx, callID, SpeakerSystem, fmt.Sprintf("Status changed to %s", to))
}

func (s *Service) notify(ctx context.Context, event string, payload map[string]any) {
	if s.events == nil {
		return
	}
	if err := s.events.Notify(ctx, event, payload); err != nil {
		logger.From(ctx).Warn("event notify failed", "event", event, "err", err)
	}
}

func (s *Service) promptApproval(ctx context.Context, p ApprovalPrompt) {
	if s.approvals == nil {
		return
	}
	if err := s.approvals.PromptApproval(ctx, p); err != nil {
		logger.From(ctx).Warn("approval prompt failed", "call_id", p.CallID, "err", err)
	}
}

func validateRequest(req reservation.Request) error {
	switch {
	case req.BusinessName == "":
		return fmt.Errorf("%w: business_name required", ErrInvalidArgument)
	case req.BusinessPhone == "":
		return fmt.Errorf("%w: business_phone required", ErrInvalidArgument)
	case req.Date == "":
		return fmt.Errorf("%w: date required", ErrInvalidArgument)
	case req.TimePreferred == "":
		return fmt.Errorf("%w: time_preferred required", ErrInvalidArgument)
	case req.PartySize <= 0:
		return fmt.Errorf("%w: party_size must be positive", ErrInvalidArgument)
	case req.NameForBooking == "":
		return fmt.Errorf("%w: name_for_booking required", ErrInvalidArgument)
	default:
		return nil
	}
}

func describePatch(patch reservation.Patch, notes string) string {
	m := map[string]any{}
	if patch.Date != "" {
		m["date"] = patch.Date
	}
	if patch.TimePreferred != "" {
		m["timePreferred"] = patch.TimePreferred
	}
	if patch.PartySize > 0 {
		m["partySize"] = patch.PartySize
	}
	if notes != "" {
		m["notes"] = notes
	}
	b, _ := json.Marshal(m)
	return string(b)
}

func simulatedSID(callID string) string {
	if len(callID) > 8 {
		callID = callID[:8]
	}
	return "SIM-" + callID
}
