package telephony

import (
	"strings"
	"testing"
)

func TestVoiceResponseRender(t *testing.T) {
	var vr VoiceResponse
	vr.Say("Hello there.").
		GatherSpeech("/api/twilio/gather?callId=abc", "I am listening.").
		Say("Sorry, I did not catch that.").
		Redirect("/api/twilio/voice?callId=abc")

	xml, err := vr.Render()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, want := range []string{
		"<Response>",
		`<Say voice="alice">Hello there.</Say>`,
		`input="speech"`,
		`speechTimeout="auto"`,
		`action="/api/twilio/gather?callId=abc"`,
		`<Redirect method="POST">/api/twilio/voice?callId=abc</Redirect>`,
	} {
		if !strings.Contains(xml, want) {
			t.Fatalf("expected %q in xml: %s", want, xml)
		}
	}
}

func TestVoiceResponseHangup(t *testing.T) {
	var vr VoiceResponse
	vr.Say("Goodbye.").Hangup()

	xml, err := vr.Render()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(xml, "<Hangup") {
		t.Fatalf("expected Hangup verb: %s", xml)
	}
}

func TestGatherWithoutPromptOmitsSay(t *testing.T) {
	var vr VoiceResponse
	vr.GatherSpeech("/gather", "")

	xml, err := vr.Render()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if strings.Contains(xml, "<Say") {
		t.Fatalf("expected no nested Say: %s", xml)
	}
}
