package httpapi

import (
	"fmt"
	"net/http"

	"reservation-caller/internal/calls"

	"github.com/gin-gonic/gin"
)

// OrchestratorHandlers receive events back from the orchestration service
// that consumes our lifecycle callbacks. The callback endpoint echoes an
// actionable summary for approval_required so a thin client can render
// buttons without knowing our API shape.
type OrchestratorHandlers struct {
	Calls *calls.Service
}

type callbackRequest struct {
	Event  string `json:"event"`
	CallID string `json:"callId"`
}

type callbackAction struct {
	Label  string         `json:"label"`
	Method string         `json:"method"`
	Path   string         `json:"path"`
	Body   map[string]any `json:"body"`
}

func (h OrchestratorHandlers) Callback(c *gin.Context) {
	var req callbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Event == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "event required"})
		return
	}

	if req.Event == calls.EventApprovalRequired {
		rec, err := h.Calls.Get(c.Request.Context(), req.CallID)
		if err != nil {
			writeCallError(c, err)
			return
		}

		r := rec.Reservation
		actions := make([]callbackAction, 0, 3)
		for _, d := range []string{"approve", "revise", "cancel"} {
			actions = append(actions, callbackAction{
				Label:  titleCase(d),
				Method: http.MethodPost,
				Path:   "/api/orchestrator/decision",
				Body:   map[string]any{"callId": req.CallID, "decision": d},
			})
		}
		c.JSON(http.StatusOK, gin.H{
			"ok":      true,
			"message": fmt.Sprintf("Approval needed: %s for %d on %s %s.", r.BusinessName, r.PartySize, r.Date, r.TimePreferred),
			"actions": actions,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "event": req.Event, "callId": req.CallID})
}

type orchestratorDecisionRequest struct {
	CallID   string `json:"callId"`
	Decision string `json:"decision"`
	Notes    string `json:"notes"`
}

func (h OrchestratorHandlers) Decision(c *gin.Context) {
	var req orchestratorDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.CallID == "" || req.Decision == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "callId and decision required"})
		return
	}
	decision, err := calls.ParseHumanDecision(req.Decision)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid decision"})
		return
	}

	rec, err := h.Calls.ApplyDecision(c.Request.Context(), req.CallID, decision, req.Notes)
	if err != nil {
		writeCallError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "call": rec})
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
