package stt

// Message types for the transcription server WebSocket protocol. The server
// pushes one message per recognized utterance; partials are informational and
// never injected.
const (
	TypeUtterance = "utterance" // final transcription of one utterance
	TypePartial   = "partial"   // in-progress transcription, ignored
	TypePing      = "ping"      // keepalive
)

// Envelope wraps every WebSocket message with a type field for routing.
type Envelope struct {
	Type string `json:"type"`
}

// Utterance is a transcription result.
type Utterance struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
