package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// TwilioDialer places outbound calls through the Twilio REST API.
// No SDK: the Calls endpoint is a single form POST.
type TwilioDialer struct {
	accountSID string
	authToken  string
	fromNumber string

	// baseURL is this service's public address; Twilio fetches voice
	// instructions and posts status callbacks against it.
	baseURL string

	apiBase string
	client  *http.Client
}

func NewTwilioDialer(accountSID, authToken, fromNumber, baseURL string) *TwilioDialer {
	return &TwilioDialer{
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiBase:    twilioAPIBase,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

type twilioCallResponse struct {
	Sid     string `json:"sid"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Start creates the outbound call and returns the provider call sid.
func (d *TwilioDialer) Start(ctx context.Context, destination, callID string) (string, error) {
	form := url.Values{}
	form.Set("To", destination)
	form.Set("From", d.fromNumber)
	form.Set("Url", d.baseURL+"/api/twilio/voice?callId="+url.QueryEscape(callID))
	form.Set("StatusCallback", d.baseURL+"/api/twilio/status?callId="+url.QueryEscape(callID))
	form.Set("StatusCallbackMethod", "POST")
	for _, ev := range []string{"initiated", "ringing", "answered", "completed"} {
		form.Add("StatusCallbackEvent", ev)
	}

	endpoint := fmt.Sprintf("%s/Accounts/%s/Calls.json", d.apiBase, d.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(d.accountSID, d.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("twilio create call: %w", err)
	}
	defer resp.Body.Close()

	var body twilioCallResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("twilio create call: decode response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := body.Message
		if msg == "" {
			msg = resp.Status
		}
		return "", fmt.Errorf("twilio create call: %s (code %d)", msg, body.Code)
	}
	if body.Sid == "" {
		return "", fmt.Errorf("twilio create call: response missing sid")
	}
	return body.Sid, nil
}
