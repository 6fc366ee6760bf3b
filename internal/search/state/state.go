// Package state is the pure reducer behind the {loading, error, results}
// triple a search view renders.
package state

import (
	"encoding/json"

	"github.com/lazysearch/lazysearch/internal/index"
)

// Status is the active variant of a State.
type Status int

const (
	Idle Status = iota
	Fetching
	Success
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Success:
		return "success"
	case Failed:
		return "error"
	default:
		return "unknown"
	}
}

// State is exactly one of Idle, Fetching, Success or Failed.
type State struct {
	Status  Status
	Results *index.Results
	Err     error
}

// Initial returns the Idle state.
func Initial() State {
	return State{Status: Idle}
}

// Loading reports whether a search is in flight.
func (s State) Loading() bool {
	return s.Status == Fetching
}

// MarshalJSON renders the state for websocket clients.
func (s State) MarshalJSON() ([]byte, error) {
	out := struct {
		Status  string         `json:"status"`
		Loading bool           `json:"loading"`
		Error   string         `json:"error,omitempty"`
		Code    string         `json:"code,omitempty"`
		Results *index.Results `json:"results,omitempty"`
	}{
		Status:  s.Status.String(),
		Loading: s.Loading(),
		Results: s.Results,
	}
	if s.Err != nil {
		out.Error = s.Err.Error()
		out.Code = index.Code(s.Err)
	}
	return json.Marshal(out)
}

// Valid reports whether s satisfies the state invariants: never loading with
// an error, no results alongside an error, no error on success.
func Valid(s State) bool {
	if s.Loading() && s.Err != nil {
		return false
	}
	switch s.Status {
	case Idle:
		return s.Results == nil && s.Err == nil
	case Fetching:
		return s.Err == nil
	case Success:
		return s.Err == nil
	case Failed:
		return s.Results == nil && s.Err != nil
	default:
		return false
	}
}
