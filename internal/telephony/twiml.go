package telephony

import (
	"bytes"
	"encoding/xml"
)

// VoiceResponse is a minimal Twilio Markup Language response builder.
// It intentionally avoids any provider SDK dependency.
//
// Only include primitives we need at the adapter boundary: the outbound
// negotiation flow speaks, gathers speech, redirects, and hangs up.
type VoiceResponse struct {
	verbs []any
}

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

type twimlGather struct {
	XMLName       xml.Name `xml:"Gather"`
	Input         string   `xml:"input,attr"`
	SpeechTimeout string   `xml:"speechTimeout,attr,omitempty"`
	Action        string   `xml:"action,attr"`
	Method        string   `xml:"method,attr"`
	Say           *twimlSay
}

type twimlRedirect struct {
	XMLName xml.Name `xml:"Redirect"`
	Method  string   `xml:"method,attr,omitempty"`
	URL     string   `xml:",chardata"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// DefaultVoice is applied to every spoken line.
const DefaultVoice = "alice"

func (v *VoiceResponse) Say(text string) *VoiceResponse {
	v.verbs = append(v.verbs, twimlSay{Voice: DefaultVoice, Text: text})
	return v
}

// GatherSpeech listens for transcribed speech and posts it to action.
// prompt, when non-empty, is spoken while listening.
func (v *VoiceResponse) GatherSpeech(action, prompt string) *VoiceResponse {
	g := twimlGather{
		Input:         "speech",
		SpeechTimeout: "auto",
		Action:        action,
		Method:        "POST",
	}
	if prompt != "" {
		g.Say = &twimlSay{Voice: DefaultVoice, Text: prompt}
	}
	v.verbs = append(v.verbs, g)
	return v
}

func (v *VoiceResponse) Redirect(url string) *VoiceResponse {
	v.verbs = append(v.verbs, twimlRedirect{Method: "POST", URL: url})
	return v
}

func (v *VoiceResponse) Hangup() *VoiceResponse {
	v.verbs = append(v.verbs, twimlHangup{})
	return v
}

// Render serializes the response document.
func (v *VoiceResponse) Render() (string, error) {
	r := twimlResponse{Verbs: v.verbs}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
