package health

import (
	"encoding/json"
	"time"
)

// Status represents the health state of an index.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Item is the tracked health of one index.
type Item struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    Status     `json:"status"`
	Message   string     `json:"message,omitempty"`
	Code      string     `json:"code,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	CheckedAt *time.Time `json:"checkedAt,omitempty"`
}

// MarshalJSON omits the failure details of healthy items.
func (h Item) MarshalJSON() ([]byte, error) {
	type Alias Item
	alias := Alias(h)

	if h.Status == StatusOK {
		alias.Timestamp = nil
		alias.Message = ""
		alias.Code = ""
	}

	return json.Marshal(alias)
}

// Summary provides counts per status.
type Summary struct {
	OK        int  `json:"ok"`
	Warning   int  `json:"warning"`
	Error     int  `json:"error"`
	HasIssues bool `json:"hasIssues"`
}

// Response is the payload of the health endpoint.
type Response struct {
	Summary Summary `json:"summary"`
	Indexes []Item  `json:"indexes"`
}

// UpdatePayload is the broadcast payload for health:update messages.
type UpdatePayload struct {
	ID      string `json:"id"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}
