package state

import "github.com/lazysearch/lazysearch/internal/index"

// ActionType identifies a reducer action.
type ActionType string

const (
	ActionFetching ActionType = "fetching"
	ActionSuccess  ActionType = "success"
	ActionError    ActionType = "error"
	ActionReset    ActionType = "reset"
)

// Action is dispatched to Reduce.
type Action struct {
	Type    ActionType
	Results *index.Results
	Err     error
	// Retain keeps the previous results while fetching.
	Retain bool
}

// FetchingAction starts a search and drops whatever was displayed.
func FetchingAction() Action {
	return Action{Type: ActionFetching}
}

// RetainingFetchAction starts a search but keeps the previous results.
func RetainingFetchAction() Action {
	return Action{Type: ActionFetching, Retain: true}
}

// SuccessAction settles a search with results.
func SuccessAction(results *index.Results) Action {
	return Action{Type: ActionSuccess, Results: results}
}

// ErrorAction settles a search with a failure.
func ErrorAction(err error) Action {
	return Action{Type: ActionError, Err: err}
}

// ResetAction returns to Idle.
func ResetAction() Action {
	return Action{Type: ActionReset}
}

// Reduce returns the state that follows s after a. It has no side effects
// and returns s unchanged for unknown action types.
func Reduce(s State, a Action) State {
	switch a.Type {
	case ActionFetching:
		next := State{Status: Fetching}
		if a.Retain {
			next.Results = s.Results
		}
		return next

	case ActionSuccess:
		return State{Status: Success, Results: a.Results}

	case ActionError:
		if a.Err == nil {
			// A failure without a cause is still a failure.
			return State{Status: Failed, Err: index.ErrService}
		}
		return State{Status: Failed, Err: a.Err}

	case ActionReset:
		return Initial()

	default:
		return s
	}
}
