package session

import (
	"encoding/json"
	"time"
)

// Client-to-server message types.
const (
	TypeInput      = "search:input"
	TypeClearCache = "search:clearCache"
	TypeReset      = "search:reset"
	TypeRefresh    = "search:refresh"
)

// Server-to-client message types.
const (
	TypeState = "search:state"
	TypeReady = "search:ready"
	TypeError = "search:error"
)

// Message represents a WebSocket message.
type Message struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp string      `json:"timestamp"`
}

// inbound is a message received from a client. The payload is decoded
// according to the type.
type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// InputPayload is the payload for search:input messages.
type InputPayload struct {
	Query       string          `json:"query"`
	Filters     string          `json:"filters"`
	Page        int             `json:"page"`
	HitsPerPage int             `json:"hitsPerPage"`
	Key         json.RawMessage `json:"key,omitempty"`
}

// ReadyPayload is the payload for search:ready messages.
type ReadyPayload struct {
	SessionID string `json:"sessionId"`
	Index     string `json:"index"`
}

// ErrorPayload is the payload for search:error messages.
type ErrorPayload struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func encode(msgType string, payload interface{}) ([]byte, error) {
	return json.Marshal(Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}
