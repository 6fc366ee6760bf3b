// Package history remembers the previous value of a watched input so callers
// can ask "did this just change" once per evaluation cycle.
package history

// Tracker holds the current and previous observation of a single value.
// It is not safe for concurrent use; the owner serialises access.
type Tracker[T comparable] struct {
	current  T
	previous T
}

// NewTracker creates a tracker whose first observation reports initial as
// the previous value.
func NewTracker[T comparable](initial T) *Tracker[T] {
	return &Tracker[T]{current: initial, previous: initial}
}

// Observe records v and returns the value seen on the immediately preceding
// observation. Only one previous slot is kept.
func (t *Tracker[T]) Observe(v T) T {
	t.previous = t.current
	t.current = v
	return t.previous
}

// Previous returns the value observed before the most recent observation.
func (t *Tracker[T]) Previous() T {
	return t.previous
}

// Current returns the most recently observed value.
func (t *Tracker[T]) Current() T {
	return t.current
}

// Changed reports whether the most recent observation differed from the one
// before it.
func (t *Tracker[T]) Changed() bool {
	return t.previous != t.current
}
