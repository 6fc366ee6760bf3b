package tui

import "github.com/lazysearch/lazysearch/internal/search/state"

// stateMsg carries a controller state change into the program.
type stateMsg struct {
	state state.State
}

// readyMsg is the outcome of the readiness ping.
type readyMsg struct {
	err error
}
