package state

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazysearch/lazysearch/internal/index"
)

var (
	resultsA = &index.Results{Query: "a", NbHits: 1}
	resultsB = &index.Results{Query: "b", NbHits: 2}
	failure  = index.NewServiceError("movies", 503, "")
)

func allStates() []State {
	return []State{
		Initial(),
		{Status: Fetching},
		{Status: Fetching, Results: resultsA},
		{Status: Success, Results: resultsA},
		{Status: Failed, Err: failure},
	}
}

func allActions() []Action {
	return []Action{
		FetchingAction(),
		RetainingFetchAction(),
		SuccessAction(resultsB),
		ErrorAction(failure),
		ErrorAction(nil),
		ResetAction(),
		{Type: "unknown"},
	}
}

func TestReduce_Transitions(t *testing.T) {
	tests := []struct {
		name   string
		from   State
		action Action
		want   State
	}{
		{
			name:   "fetching from success discards results",
			from:   State{Status: Success, Results: resultsA},
			action: FetchingAction(),
			want:   State{Status: Fetching},
		},
		{
			name:   "retaining fetch keeps results",
			from:   State{Status: Success, Results: resultsA},
			action: RetainingFetchAction(),
			want:   State{Status: Fetching, Results: resultsA},
		},
		{
			name:   "fetching from failure clears error",
			from:   State{Status: Failed, Err: failure},
			action: RetainingFetchAction(),
			want:   State{Status: Fetching},
		},
		{
			name:   "success clears loading",
			from:   State{Status: Fetching},
			action: SuccessAction(resultsB),
			want:   State{Status: Success, Results: resultsB},
		},
		{
			name:   "success after failure clears error",
			from:   State{Status: Failed, Err: failure},
			action: SuccessAction(resultsB),
			want:   State{Status: Success, Results: resultsB},
		},
		{
			name:   "error clears results",
			from:   State{Status: Fetching, Results: resultsA},
			action: ErrorAction(failure),
			want:   State{Status: Failed, Err: failure},
		},
		{
			name:   "reset returns to idle",
			from:   State{Status: Success, Results: resultsA},
			action: ResetAction(),
			want:   Initial(),
		},
		{
			name:   "unknown action leaves state unchanged",
			from:   State{Status: Success, Results: resultsA},
			action: Action{Type: "bogus"},
			want:   State{Status: Success, Results: resultsA},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reduce(tt.from, tt.action))
		})
	}
}

func TestReduce_TotalAndInvariantPreserving(t *testing.T) {
	for _, from := range allStates() {
		require.True(t, Valid(from), "fixture %+v must be valid", from)
		for _, action := range allActions() {
			next := Reduce(from, action)
			assert.Truef(t, Valid(next), "%s from %s produced invalid %+v", action.Type, from.Status, next)
			assert.False(t, next.Loading() && next.Err != nil)
		}
	}
}

func TestReduce_ErrorWithoutCause(t *testing.T) {
	next := Reduce(Initial(), ErrorAction(nil))

	assert.Equal(t, Failed, next.Status)
	assert.True(t, errors.Is(next.Err, index.ErrService))
}

func TestState_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(State{Status: Failed, Err: failure})
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, "error", out["status"])
	assert.Equal(t, false, out["loading"])
	assert.Equal(t, index.ErrCodeService, out["code"])
	assert.NotContains(t, out, "results")
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "fetching", Fetching.String())
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "error", Failed.String())
	assert.Equal(t, "unknown", Status(42).String())
}
