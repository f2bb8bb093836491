package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"reservation-caller/internal/calls"
	"reservation-caller/internal/notify"
	"reservation-caller/internal/revision"
	"reservation-caller/pkg/logger"

	"github.com/gin-gonic/gin"
)

// TelegramHandlers consume bot webhook updates: decision button presses and
// the free-text follow-up message of a revise flow.
type TelegramHandlers struct {
	Calls     *calls.Service
	Telegram  *notify.Telegram
	Revisions revision.Tracker

	// WebhookSecret guards the endpoint via the
	// X-Telegram-Bot-Api-Secret-Token header. Empty disables the check.
	WebhookSecret string
}

type telegramChat struct {
	ID int64 `json:"id"`
}

type telegramMessage struct {
	MessageID int64        `json:"message_id"`
	Chat      telegramChat `json:"chat"`
	Text      string       `json:"text"`
}

type telegramCallbackQuery struct {
	ID      string           `json:"id"`
	Data    string           `json:"data"`
	Message *telegramMessage `json:"message"`
}

type telegramUpdate struct {
	Message       *telegramMessage       `json:"message"`
	CallbackQuery *telegramCallbackQuery `json:"callback_query"`
}

func (h TelegramHandlers) Webhook(c *gin.Context) {
	if h.WebhookSecret != "" && c.GetHeader("X-Telegram-Bot-Api-Secret-Token") != h.WebhookSecret {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid Telegram secret"})
		return
	}

	var update telegramUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if update.Message != nil && update.Message.Text != "" {
		if h.handleRevisionMessage(c, update.Message) {
			return
		}
	}

	if update.CallbackQuery != nil {
		h.handleCallbackQuery(c, update.CallbackQuery)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// handleRevisionMessage applies a pending revision if this chat has one.
// Returns false when the message is unrelated; updates without a pending
// session fall through untouched.
func (h TelegramHandlers) handleRevisionMessage(c *gin.Context, msg *telegramMessage) bool {
	ctx := c.Request.Context()
	chatID := strconv.FormatInt(msg.Chat.ID, 10)

	callID, ok, err := h.Revisions.Get(ctx, chatID)
	if err != nil {
		logger.FromGin(c).Warn("revision session lookup failed", "err", err)
		return false
	}
	if !ok {
		return false
	}

	patch := revision.ParsePatch(msg.Text)
	if patch.IsEmpty() {
		h.send(c, chatID, "I couldn't parse changes. Try: 2026-02-22 20:00 for 2")
		c.JSON(http.StatusOK, gin.H{"ok": true, "message": "No revision fields parsed"})
		return true
	}

	res, err := h.Calls.ApplyRecall(ctx, callID, patch, msg.Text)
	_ = h.Revisions.Clear(ctx, chatID)
	if err != nil {
		reason := "Call not found"
		if !errors.Is(err, calls.ErrNotFound) {
			reason = "Failed to create recall"
		}
		h.send(c, chatID, fmt.Sprintf("Revision failed for %s: %s", callID, reason))
		c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Revision failed: " + reason})
		return true
	}

	when := "(unchanged)"
	if patch.Date != "" || patch.TimePreferred != "" {
		when = patch.Date
		if patch.TimePreferred != "" {
			if when != "" {
				when += " "
			}
			when += patch.TimePreferred
		}
	}
	party := "(unchanged)"
	if patch.PartySize > 0 {
		party = strconv.Itoa(patch.PartySize)
	}
	text := fmt.Sprintf("Recall queued for %s\nWhen: %s\nParty size: %s", callID, when, party)
	if res.Simulated {
		text += "\nMode: simulation"
	}
	h.send(c, chatID, text)

	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Revision accepted and recall queued", "callId": callID, "simulated": res.Simulated})
	return true
}

func (h TelegramHandlers) handleCallbackQuery(c *gin.Context, cb *telegramCallbackQuery) {
	ctx := c.Request.Context()

	decisionName, callID, ok := notify.ParseCallbackData(cb.Data)
	if !ok {
		h.answer(c, cb.ID, "Unknown action")
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	var chatID string
	var messageID int64
	if cb.Message != nil {
		chatID = strconv.FormatInt(cb.Message.Chat.ID, 10)
		messageID = cb.Message.MessageID
	}

	if decisionName == string(calls.DecisionRevise) {
		if chatID != "" {
			if err := h.Revisions.Set(ctx, chatID, callID); err != nil {
				logger.FromGin(c).Warn("revision session store failed", "err", err)
			}
		}
		h.answer(c, cb.ID, "Send new time/date, e.g. '2026-02-22 20:00 for 2'")
		if chatID != "" && messageID != 0 {
			h.edit(c, chatID, messageID, fmt.Sprintf("Send revised details now (example: 2026-02-22 20:00 for 2). Call %s", callID))
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "action": "revise_requested", "callId": callID})
		return
	}

	decision, err := calls.ParseHumanDecision(decisionName)
	if err != nil {
		h.answer(c, cb.ID, "Unknown action")
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	rec, err := h.Calls.ApplyDecision(ctx, callID, decision, "")
	if err != nil {
		h.answer(c, cb.ID, "Call not found")
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	h.answer(c, cb.ID, "Decision saved: "+decisionName)
	if chatID != "" && messageID != 0 {
		h.edit(c, chatID, messageID, fmt.Sprintf("Decision recorded: %s (call %s)", decisionName, callID))
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "call": rec})
}

// Outbound Telegram calls are best effort; webhook processing never fails on
// them.

func (h TelegramHandlers) send(c *gin.Context, chatID, text string) {
	if h.Telegram == nil {
		return
	}
	if err := h.Telegram.SendMessage(c.Request.Context(), chatID, text); err != nil {
		logger.FromGin(c).Warn("telegram send failed", "err", err)
	}
}

func (h TelegramHandlers) answer(c *gin.Context, callbackQueryID, text string) {
	if h.Telegram == nil {
		return
	}
	if err := h.Telegram.AnswerCallbackQuery(c.Request.Context(), callbackQueryID, text); err != nil {
		logger.FromGin(c).Warn("telegram answer failed", "err", err)
	}
}

func (h TelegramHandlers) edit(c *gin.Context, chatID string, messageID int64, text string) {
	if h.Telegram == nil {
		return
	}
	if err := h.Telegram.EditMessageText(c.Request.Context(), chatID, messageID, text); err != nil {
		logger.FromGin(c).Warn("telegram edit failed", "err", err)
	}
}
