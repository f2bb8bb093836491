package httpapi

import (
	"errors"
	"net/http"
	"net/url"

	"reservation-caller/internal/calls"
	"reservation-caller/internal/negotiate"
	"reservation-caller/internal/telephony"
	"reservation-caller/pkg/logger"

	"github.com/gin-gonic/gin"
)

// TwilioHandlers serves the provider voice webhooks: opening instructions,
// gathered speech, and status callbacks. Responses are TwiML except for the
// status callback.
type TwilioHandlers struct {
	Calls *calls.Service

	// AuthToken enables X-Twilio-Signature validation. Empty means the
	// deployment runs without Twilio and signature checks are skipped.
	AuthToken string

	// BaseURL is the externally reachable URL Twilio signed its request
	// against.
	BaseURL string
}

// VerifySignature is the gin middleware form of the webhook signature check.
func (h TwilioHandlers) VerifySignature() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.AuthToken == "" {
			c.Next()
			return
		}
		if err := c.Request.ParseForm(); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
			return
		}
		signature := c.GetHeader("X-Twilio-Signature")
		fullURL := h.BaseURL + c.Request.URL.RequestURI()
		if !telephony.ValidateSignature(h.AuthToken, signature, fullURL, c.Request.PostForm) {
			logger.FromGin(c).Warn("twilio signature rejected", "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid Twilio signature"})
			return
		}
		c.Next()
	}
}

// Voice answers Twilio's request for call instructions: speak the intro,
// ask the availability question, and gather the reply.
func (h TwilioHandlers) Voice(c *gin.Context) {
	callID := c.Query("callId")
	rec, err := h.Calls.BeginDiscovery(c.Request.Context(), callID)
	if err != nil {
		if errors.Is(err, calls.ErrNotFound) {
			c.String(http.StatusNotFound, "Unknown call")
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	// Built from the current reservation so a recall speaks the revised
	// date and time, not the parameters the call started with.
	var vr telephony.VoiceResponse
	vr.Say(negotiate.BuildAssistantIntro(rec.Reservation)).
		Say("Could you confirm availability and any important conditions like deposit or cancellation policy?").
		GatherSpeech(h.gatherURL(callID), "I am listening.").
		Say("Sorry, I did not catch that.").
		Redirect("/api/twilio/voice?callId=" + url.QueryEscape(callID))

	writeTwiML(c, vr)
}

// Gather consumes the transcribed business reply and renders the next verbs.
func (h TwilioHandlers) Gather(c *gin.Context) {
	callID := c.Query("callId")
	form, err := telephony.ParseTwilioVoiceWebhook(c.Request)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}

	res, err := h.Calls.HandleBusinessReply(c.Request.Context(), callID, form.SpeechResult)
	if err != nil {
		if errors.Is(err, calls.ErrNotFound) {
			c.String(http.StatusNotFound, "Unknown call")
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	var vr telephony.VoiceResponse
	vr.Say(res.Say)
	switch res.Action {
	case calls.ReplyActionGather:
		vr.GatherSpeech(h.gatherURL(callID), "I am listening.")
	default:
		vr.Hangup()
	}

	writeTwiML(c, vr)
}

// Status records provider lifecycle callbacks (ringing, answered, completed).
func (h TwilioHandlers) Status(c *gin.Context) {
	callID := c.Query("callId")
	if callID == "" {
		callID = c.PostForm("callId")
	}
	status := c.PostForm("CallStatus")
	if status == "" {
		status = c.PostForm("status")
	}
	if callID == "" || status == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "callId and status required"})
		return
	}

	if err := h.Calls.HandleTransportStatus(c.Request.Context(), callID, status); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h TwilioHandlers) gatherURL(callID string) string {
	return "/api/twilio/gather?callId=" + url.QueryEscape(callID)
}

func writeTwiML(c *gin.Context, vr telephony.VoiceResponse) {
	xml, err := vr.Render()
	if err != nil {
		logger.FromGin(c).Error("twiml render failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "twiml failed"})
		return
	}
	c.Header("Content-Type", "text/xml")
	c.String(http.StatusOK, xml)
}
