// Package httpapi holds the HTTP handlers. Keep these thin: parse/validate
// input, call internal services, return JSON or TwiML.
package httpapi

import (
	"errors"
	"net/http"
	"time"

	"reservation-caller/internal/auth"
	"reservation-caller/internal/calls"
	"reservation-caller/internal/reservation"
	"reservation-caller/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
type Handlers struct {
	Calls *calls.Service
	Auth  *auth.Manager

	// TwilioConfigured is surfaced on the health endpoint so an operator can
	// tell simulation mode apart from a wiring problem.
	TwilioConfigured bool
}

func (h Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "twilioConfigured": h.TwilioConfigured})
}

// --- Auth ---

type loginRequest struct {
	OperatorID string `json:"operator_id"`
	Role       string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: This is a bootstrap endpoint for a single-operator deployment; it is
// expected to sit behind network-level access control.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.OperatorID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "operator_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.OperatorID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Calls ---

type startCallRequest struct {
	RequestID      string                   `json:"requestId"`
	BusinessName   string                   `json:"businessName"`
	BusinessPhone  string                   `json:"businessPhone"`
	Date           string                   `json:"date"`
	TimePreferred  string                   `json:"timePreferred"`
	PartySize      int                      `json:"partySize"`
	NameForBooking string                   `json:"nameForBooking"`
	Constraints    *reservation.Constraints `json:"constraints,omitempty"`
	Policy         *reservation.Policy      `json:"policy,omitempty"`
}

func (h Handlers) StartCall(c *gin.Context) {
	var req startCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	res, err := h.Calls.StartCall(c.Request.Context(), reservation.Request{
		RequestID:      req.RequestID,
		BusinessName:   req.BusinessName,
		BusinessPhone:  req.BusinessPhone,
		Date:           req.Date,
		TimePreferred:  req.TimePreferred,
		PartySize:      req.PartySize,
		NameForBooking: req.NameForBooking,
		Constraints:    req.Constraints,
		Policy:         req.Policy,
	})
	if err != nil {
		writeCallError(c, err)
		return
	}

	msg := "Call queued"
	if res.Simulated {
		msg = "Call queued (simulation mode)"
	}
	c.JSON(http.StatusAccepted, gin.H{
		"message":   msg,
		"callId":    res.Call.ID,
		"simulated": res.Simulated,
		"callSid":   res.Call.ProviderCallSID,
	})
}

func (h Handlers) ListCalls(c *gin.Context) {
	recs, err := h.Calls.List(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": recs})
}

func (h Handlers) GetCall(c *gin.Context) {
	rec, err := h.Calls.Get(c.Request.Context(), c.Param("call_id"))
	if err != nil {
		writeCallError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"call": rec})
}

type decisionRequest struct {
	Decision string `json:"decision"`
	Notes    string `json:"notes"`
}

func (h Handlers) Decision(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	decision, err := calls.ParseHumanDecision(req.Decision)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "decision must be approve, revise, or cancel"})
		return
	}

	rec, err := h.Calls.ApplyDecision(c.Request.Context(), c.Param("call_id"), decision, req.Notes)
	if err != nil {
		writeCallError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "call": rec})
}

type recallRequest struct {
	Date          string `json:"date"`
	TimePreferred string `json:"timePreferred"`
	PartySize     int    `json:"partySize"`
	Notes         string `json:"notes"`
}

func (h Handlers) Recall(c *gin.Context) {
	var req recallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	res, err := h.Calls.ApplyRecall(c.Request.Context(), c.Param("call_id"), reservation.Patch{
		Date:          req.Date,
		TimePreferred: req.TimePreferred,
		PartySize:     req.PartySize,
	}, req.Notes)
	if err != nil {
		writeCallError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"ok":        true,
		"callId":    res.Call.ID,
		"simulated": res.Simulated,
	})
}

type proposeOutcomeRequest struct {
	Note string `json:"note"`
}

func (h Handlers) ProposeOutcome(c *gin.Context) {
	var req proposeOutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	rec, err := h.Calls.ProposeOutcome(c.Request.Context(), c.Param("call_id"), req.Note)
	if err != nil {
		writeCallError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "call": rec})
}

// writeCallError maps the service error taxonomy to HTTP status codes.
func writeCallError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, calls.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Call not found"})
	case errors.Is(err, calls.ErrInvalidArgument):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, calls.ErrTransport):
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "Failed to create call"})
	default:
		logger.FromGin(c).Error("call operation failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
