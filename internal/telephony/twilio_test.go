package telephony

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestDialer(srv *httptest.Server) *TwilioDialer {
	d := NewTwilioDialer("AC000", "token", "+15550000000", "https://caller.example.com")
	d.apiBase = srv.URL
	d.client = srv.Client()
	return d
}

func TestTwilioDialerStart(t *testing.T) {
	var gotPath string
	var gotForm map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = r.ParseForm()
		gotForm = r.PostForm

		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC000" || pass != "token" {
			t.Errorf("unexpected auth: %q %q", user, pass)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"CA123","status":"queued"}`))
	}))
	defer srv.Close()

	d := newTestDialer(srv)
	sid, err := d.Start(context.Background(), "+15551234567", "call-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if sid != "CA123" {
		t.Fatalf("expected sid CA123, got %q", sid)
	}
	if gotPath != "/Accounts/AC000/Calls.json" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if got := gotForm["To"]; len(got) != 1 || got[0] != "+15551234567" {
		t.Fatalf("unexpected To: %v", got)
	}
	if got := gotForm["Url"]; len(got) != 1 || got[0] != "https://caller.example.com/api/twilio/voice?callId=call-1" {
		t.Fatalf("unexpected voice url: %v", got)
	}
	if got := gotForm["StatusCallbackEvent"]; len(got) != 4 {
		t.Fatalf("expected four status callback events, got %v", got)
	}
}

func TestTwilioDialerStart_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"The 'To' number is not a valid phone number.","code":21211}`))
	}))
	defer srv.Close()

	d := newTestDialer(srv)
	_, err := d.Start(context.Background(), "bogus", "call-1")
	if err == nil {
		t.Fatalf("expected error")
	}
}
