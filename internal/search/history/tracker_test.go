package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_FirstObservationReportsInitial(t *testing.T) {
	tr := NewTracker("")

	prev := tr.Observe("a")

	assert.Equal(t, "", prev)
	assert.Equal(t, "a", tr.Current())
	assert.True(t, tr.Changed())
}

func TestTracker_ObserveSequence(t *testing.T) {
	tr := NewTracker(0)

	steps := []struct {
		value    int
		previous int
		changed  bool
	}{
		{value: 0, previous: 0, changed: false},
		{value: 1, previous: 0, changed: true},
		{value: 1, previous: 1, changed: false},
		{value: 3, previous: 1, changed: true},
		{value: 2, previous: 3, changed: true},
	}

	for i, step := range steps {
		got := tr.Observe(step.value)
		assert.Equalf(t, step.previous, got, "step %d previous", i)
		assert.Equalf(t, step.changed, tr.Changed(), "step %d changed", i)
		assert.Equalf(t, step.previous, tr.Previous(), "step %d Previous()", i)
	}
}

func TestTracker_KeepsSingleSlot(t *testing.T) {
	tr := NewTracker("a")

	tr.Observe("ab")
	tr.Observe("abc")

	// Only the immediately preceding value survives.
	assert.Equal(t, "ab", tr.Previous())
}

func TestTracker_InterfaceValues(t *testing.T) {
	tr := NewTracker[any](0)

	assert.Equal(t, any(0), tr.Observe(0))
	assert.False(t, tr.Changed())

	assert.Equal(t, any(0), tr.Observe("v2"))
	assert.True(t, tr.Changed())
}
