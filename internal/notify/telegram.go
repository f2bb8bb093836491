package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"reservation-caller/internal/calls"
)

const telegramAPIBase = "https://api.telegram.org"

// Telegram sends approval prompts and decision acknowledgements through the
// Telegram Bot API. Bot API methods are plain JSON POSTs; no SDK needed.
type Telegram struct {
	botToken string
	chatID   string

	apiBase string
	client  *http.Client
}

func NewTelegram(botToken, chatID string) *Telegram {
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  telegramAPIBase,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type inlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type inlineKeyboardMarkup struct {
	InlineKeyboard [][]inlineKeyboardButton `json:"inline_keyboard"`
}

// CallbackData encodes a decision button payload for one call.
// Format: rc|<decision>|<callId>.
func CallbackData(decision, callID string) string {
	return "rc|" + decision + "|" + callID
}

// ParseCallbackData splits a button payload back into decision and call id.
func ParseCallbackData(data string) (decision, callID string, ok bool) {
	parts := strings.SplitN(data, "|", 3)
	if len(parts) != 3 || parts[0] != "rc" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

// PromptApproval posts the approval message with approve/revise/cancel
// buttons to the configured operator chat.
func (t *Telegram) PromptApproval(ctx context.Context, p calls.ApprovalPrompt) error {
	lines := []string{
		"Reservation approval needed",
		"Call: " + p.BusinessName,
		"When: " + p.Date + " " + p.Time,
		fmt.Sprintf("Party size: %d", p.PartySize),
	}
	if p.Notes != "" {
		lines = append(lines, "Notes: "+p.Notes)
	}
	lines = append(lines, "", "Call ID: "+p.CallID)

	body := map[string]any{
		"chat_id": t.chatID,
		"text":    strings.Join(lines, "\n"),
		"reply_markup": inlineKeyboardMarkup{
			InlineKeyboard: [][]inlineKeyboardButton{{
				{Text: "Approve", CallbackData: CallbackData("approve", p.CallID)},
				{Text: "Revise", CallbackData: CallbackData("revise", p.CallID)},
				{Text: "Cancel", CallbackData: CallbackData("cancel", p.CallID)},
			}},
		},
	}
	return t.post(ctx, "sendMessage", body)
}

// SendMessage posts a plain text message to a chat.
func (t *Telegram) SendMessage(ctx context.Context, chatID, text string) error {
	return t.post(ctx, "sendMessage", map[string]any{
		"chat_id": chatID,
		"text":    text,
	})
}

// EditMessageText rewrites a previously sent message, used to replace the
// approval keyboard once a decision lands.
func (t *Telegram) EditMessageText(ctx context.Context, chatID string, messageID int64, text string) error {
	return t.post(ctx, "editMessageText", map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
	})
}

// AnswerCallbackQuery acknowledges a button press so the client stops its
// loading spinner.
func (t *Telegram) AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error {
	return t.post(ctx, "answerCallbackQuery", map[string]any{
		"callback_query_id": callbackQueryID,
		"text":              text,
		"show_alert":        false,
	})
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (t *Telegram) post(ctx context.Context, method string, body map[string]any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/%s", t.apiBase, t.botToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()

	var tr telegramResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return fmt.Errorf("telegram %s: decode response: %w", method, err)
	}
	if !tr.OK {
		return fmt.Errorf("telegram %s: %s", method, tr.Description)
	}
	return nil
}
