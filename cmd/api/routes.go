package main

import (
	"reservation-caller/internal/auth"
	"reservation-caller/internal/calls"
	"reservation-caller/internal/config"
	"reservation-caller/internal/httpapi"
	"reservation-caller/internal/notify"
	"reservation-caller/internal/revision"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type routeDeps struct {
	cfg       config.Config
	auth      *auth.Manager
	calls     *calls.Service
	telegram  *notify.Telegram
	revisions revision.Tracker
	redis     *redis.Client
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, deps routeDeps) {
	h := httpapi.Handlers{
		Calls:            deps.calls,
		Auth:             deps.auth,
		TwilioConfigured: deps.cfg.HasTwilio(),
	}

	// public
	r.GET("/health", h.Health)
	r.POST("/v1/auth/login", h.Login)

	// Provider webhooks (public, signature-checked when Twilio is configured).
	tw := httpapi.TwilioHandlers{
		Calls:     deps.calls,
		AuthToken: deps.cfg.Twilio.AuthToken,
		BaseURL:   deps.cfg.App.BaseURL,
	}
	twilio := r.Group("/api/twilio")
	twilio.Use(tw.VerifySignature(), httpapi.CallLock(deps.redis))
	{
		twilio.POST("/voice", tw.Voice)
		twilio.POST("/gather", tw.Gather)
		twilio.POST("/status", tw.Status)
	}

	// Orchestrator callbacks (public; the orchestrator authenticates us, not
	// the other way around).
	orch := httpapi.OrchestratorHandlers{Calls: deps.calls}
	r.POST("/api/orchestrator/callback", orch.Callback)
	r.POST("/api/orchestrator/decision", orch.Decision)

	// Telegram bot webhook (public, secret-token-checked).
	tg := httpapi.TelegramHandlers{
		Calls:         deps.calls,
		Telegram:      deps.telegram,
		Revisions:     deps.revisions,
		WebhookSecret: deps.cfg.Telegram.WebhookSecret,
	}
	r.POST("/api/telegram/webhook", tg.Webhook)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(auth.RequireAccessToken(deps.auth))
	{
		v1.GET("/me", func(c *gin.Context) {
			oid, _ := auth.OperatorID(c.Request.Context())
			role, _ := auth.Role(c.Request.Context())
			c.JSON(200, gin.H{"operator_id": oid, "role": role})
		})

		callsGroup := v1.Group("/calls")
		{
			callsGroup.POST("/start", h.StartCall)
			callsGroup.GET("", h.ListCalls)
			callsGroup.GET("/:call_id", h.GetCall)
			callsGroup.POST("/:call_id/decision", h.Decision)
			callsGroup.POST("/:call_id/recall", h.Recall)
			callsGroup.POST("/:call_id/proposed-outcome", h.ProposeOutcome)
		}
	}
}
