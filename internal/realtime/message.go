package realtime

import (
	"bytes"
	"encoding/json"
	"strings"
)

// EventKind is the type of an event published for a match.
type EventKind string

const (
	EventScoreUpdate   EventKind = "score_update"
	EventStatusUpdate  EventKind = "status_update"
	EventNewCommentary EventKind = "new_commentary"
)

func (k EventKind) Valid() bool {
	switch k {
	case EventScoreUpdate, EventStatusUpdate, EventNewCommentary:
		return true
	default:
		return false
	}
}

// Event is what collaborators publish. Payload is routed, never inspected.
type Event struct {
	Kind    EventKind
	MatchID MatchID
	Payload any
}

// Inbound message types sent by clients
const (
	MessageTypeSubscribe   = "subscribe"
	MessageTypeUnsubscribe = "unsubscribe"
	MessageTypePing        = "ping"
)

// Control frames sent by the server
const (
	MessageTypeSubscribed   = "subscribed"
	MessageTypeUnsubscribed = "unsubscribed"
	MessageTypePong         = "pong"
	MessageTypeError        = "error"
)

// inboundMessage is a command from the client. matchId may be a JSON string
// or number.
type inboundMessage struct {
	Type    string          `json:"type"`
	MatchID json.RawMessage `json:"matchId"`
}

// outboundEvent is the envelope of a broadcast event.
type outboundEvent struct {
	Type EventKind `json:"type"`
	Data any       `json:"data"`
}

type controlMessage struct {
	Type    string  `json:"type"`
	MatchID MatchID `json:"matchId,omitempty"`
	Message string  `json:"message,omitempty"`
}

func encodeEvent(event Event) ([]byte, error) {
	return json.Marshal(outboundEvent{Type: event.Kind, Data: event.Payload})
}

func encodeControl(msg controlMessage) []byte {
	// controlMessage only holds strings
	data, _ := json.Marshal(msg)
	return data
}

// parseMatchID accepts "101" and 101 alike.
func parseMatchID(raw json.RawMessage) (MatchID, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		return MatchID(s), s != ""
	}

	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return "", false
	}
	return MatchID(n.String()), true
}
