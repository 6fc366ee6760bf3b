// Package search drives a remote index from rapidly changing user input.
//
// A Controller watches a set of inputs (query, filters, page, page size,
// cache key, debounce delay, the resolved index handle and its own gate).
// Every change starts a new cycle. A cycle either fires immediately or,
// when the query just changed to a non-empty value, after a debounce delay.
// Starting a cycle tears down the previous one: its timer is stopped, its
// context is cancelled and any response it later receives is dropped, so
// results are only ever applied for the cycle that is still current.
package search

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/lazysearch/lazysearch/internal/index"
	"github.com/lazysearch/lazysearch/internal/search/history"
	"github.com/lazysearch/lazysearch/internal/search/state"
)

const (
	// DefaultDelay is the debounce delay applied to query changes.
	DefaultDelay = 800 * time.Millisecond
	// DefaultHitsPerPage is the page size used when none is given.
	DefaultHitsPerPage = 10
	// DefaultKey is the initial cache key.
	DefaultKey = 0
)

// Resolver turns an index name into a handle. It returns false while the
// index is unknown or not yet available.
type Resolver interface {
	Resolve(name string) (index.Accessor, bool)
}

// Observer receives controller events. Implementations must be safe for
// concurrent use.
type Observer interface {
	SearchDebounced(indexName string)
	SearchFired(indexName string)
	SearchSettled(indexName string, err error)
	SearchSuppressed(indexName string)
}

// Params are the watched inputs of a controller.
type Params struct {
	IndexName   string
	Query       string
	Filters     string
	Page        int
	HitsPerPage int
	// Delay is the debounce delay. Zero selects DefaultDelay; a negative
	// value debounces without waiting.
	Delay time.Duration
	// Key is an opaque cache-busting value and must hold a comparable type.
	// Any change clears the index cache before the next search. A change
	// observed while the index is unresolved is not replayed once it
	// resolves. Nil selects DefaultKey.
	Key any
}

func (p Params) withDefaults() Params {
	if p.HitsPerPage == 0 {
		p.HitsPerPage = DefaultHitsPerPage
	}
	if p.Delay == 0 {
		p.Delay = DefaultDelay
	}
	if p.Key == nil {
		p.Key = DefaultKey
	}
	return p
}

// Bundle is the externally visible result of a controller.
type Bundle struct {
	Loading bool
	Err     error
	Results *index.Results
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the clock used for debounce timers.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger.With().Str("component", "lazy-search").Logger()
	}
}

// WithObserver sets the receiver of search events.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// WithStaleResults keeps the previous results visible while a new search is
// in flight instead of clearing them.
func WithStaleResults() Option {
	return func(c *Controller) { c.retain = true }
}

// WithOnChange registers a callback invoked after state transitions. It is
// called from a dedicated goroutine, never while the controller holds a
// lock, and always with the latest state; intermediate states may be
// skipped when transitions happen faster than the callback returns.
func WithOnChange(fn func(state.State)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// deps is the set of inputs whose change starts a new cycle.
type deps struct {
	query       string
	filters     string
	page        int
	hitsPerPage int
	delay       time.Duration
	key         any
	handle      index.Accessor
	gateOpen    bool
}

// cycle is the cancellation scope of one input-change cycle. It is replaced,
// never reused, when the inputs change again.
type cycle struct {
	ctx       context.Context
	cancel    context.CancelFunc
	cancelled bool
	timer     clockwork.Timer
}

// Controller is a debounced, cancellable search over one index.
type Controller struct {
	clock    clockwork.Clock
	resolver Resolver
	logger   zerolog.Logger
	observer Observer
	retain   bool
	onChange func(state.State)

	mu       sync.Mutex
	params   Params
	gateOpen bool
	closed   bool
	current  state.State
	version  uint64
	query    *history.Tracker[string]
	key      *history.Tracker[any]
	last     deps
	ran      bool
	active   *cycle

	notifyCh  chan struct{}
	done      chan struct{}
	delivered uint64
}

// New creates a controller with a closed gate. Nothing is searched until
// Activate is called.
func New(resolver Resolver, params Params, opts ...Option) *Controller {
	params = params.withDefaults()

	c := &Controller{
		clock:    clockwork.NewRealClock(),
		resolver: resolver,
		logger:   zerolog.Nop(),
		params:   params,
		current:  state.Initial(),
		query:    history.NewTracker(params.Query),
		key:      history.NewTracker(params.Key),
		notifyCh: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.onChange != nil {
		go c.deliver()
	}

	c.mu.Lock()
	c.evaluateLocked()
	c.mu.Unlock()

	return c
}

// Activate opens the gate. It is idempotent and cannot be undone.
func (c *Controller) Activate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gateOpen {
		return
	}
	c.gateOpen = true
	c.evaluateLocked()
}

// Active reports whether the gate is open.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gateOpen
}

// Update replaces the watched inputs. A new cycle starts only if something
// actually changed.
func (c *Controller) Update(params Params) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.params = params.withDefaults()
	c.evaluateLocked()
}

// Params returns the current inputs.
func (c *Controller) Params() Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// Refresh re-evaluates the current inputs, picking up an index handle that
// has become resolvable since the last cycle.
func (c *Controller) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evaluateLocked()
}

// Result returns a snapshot of the visible state.
func (c *Controller) Result() Bundle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Bundle{
		Loading: c.current.Loading(),
		Err:     c.current.Err,
		Results: c.current.Results,
	}
}

// State returns the current reducer state.
func (c *Controller) State() state.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// ClearCache evicts the index cache. It does nothing while no index handle
// is resolved.
func (c *Controller) ClearCache() {
	c.mu.Lock()
	name := c.params.IndexName
	c.mu.Unlock()

	if handle := c.resolve(name); handle != nil {
		handle.ClearCache()
	}
}

// Reset tears down the current cycle and returns to the idle state. The
// next Update or Refresh starts a fresh cycle even if the inputs are
// unchanged.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.teardownLocked()
	c.ran = false
	c.dispatchLocked(state.ResetAction())
}

// Close tears down the current cycle. Pending timers are stopped and any
// in-flight search is cancelled and its result discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.teardownLocked()
	c.mu.Unlock()

	close(c.done)
}

func (c *Controller) resolve(name string) index.Accessor {
	if c.resolver == nil || name == "" {
		return nil
	}
	handle, ok := c.resolver.Resolve(name)
	if !ok {
		return nil
	}
	return handle
}

// evaluateLocked is one evaluation of the inputs. The change trackers
// observe on every evaluation; a cycle only starts when a dependency differs
// from the one that started the previous cycle.
func (c *Controller) evaluateLocked() {
	if c.closed {
		return
	}

	p := c.params
	handle := c.resolve(p.IndexName)
	prevQuery := c.query.Observe(p.Query)
	prevKey := c.key.Observe(p.Key)

	next := deps{
		query:       p.Query,
		filters:     p.Filters,
		page:        p.Page,
		hitsPerPage: p.HitsPerPage,
		delay:       p.Delay,
		key:         p.Key,
		handle:      handle,
		gateOpen:    c.gateOpen,
	}
	if c.ran && next == c.last {
		return
	}
	c.last = next
	c.ran = true

	c.teardownLocked()

	if handle == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	cy := &cycle{ctx: ctx, cancel: cancel}
	c.active = cy

	if prevKey != p.Key {
		handle.ClearCache()
		c.logger.Debug().Str("index", p.IndexName).Interface("key", p.Key).Msg("Cache key changed, cleared index cache")
	}

	if !c.gateOpen {
		return
	}

	req := index.Request{
		Query:       p.Query,
		Filters:     p.Filters,
		Page:        p.Page,
		HitsPerPage: p.HitsPerPage,
	}
	if req.Page < 0 {
		req.Page = 0
	}

	if prevQuery != p.Query && p.Query != "" {
		delay := p.Delay
		if delay < 0 {
			delay = 0
		}
		cy.timer = c.clock.AfterFunc(delay, func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if cy.cancelled || c.closed {
				return
			}
			c.fireLocked(cy, handle, p.IndexName, req)
		})
		if c.observer != nil {
			c.observer.SearchDebounced(p.IndexName)
		}
		return
	}

	c.fireLocked(cy, handle, p.IndexName, req)
}

// fireLocked marks the state as fetching and runs the search on its own
// goroutine. The outcome is applied only if cy is still current.
func (c *Controller) fireLocked(cy *cycle, handle index.Accessor, indexName string, req index.Request) {
	if c.retain {
		c.dispatchLocked(state.RetainingFetchAction())
	} else {
		c.dispatchLocked(state.FetchingAction())
	}
	if c.observer != nil {
		c.observer.SearchFired(indexName)
	}
	c.logger.Debug().
		Str("index", indexName).
		Str("query", req.Query).
		Str("filters", req.Filters).
		Int("page", req.Page).
		Int("hitsPerPage", req.HitsPerPage).
		Msg("Firing search")

	go func() {
		results, err := handle.Search(cy.ctx, req)

		c.mu.Lock()
		defer c.mu.Unlock()

		if cy.cancelled {
			if c.observer != nil {
				c.observer.SearchSuppressed(indexName)
			}
			return
		}
		if c.observer != nil {
			c.observer.SearchSettled(indexName, err)
		}
		if err != nil {
			c.dispatchLocked(state.ErrorAction(err))
			return
		}
		c.dispatchLocked(state.SuccessAction(results))
	}()
}

// teardownLocked cancels the active cycle, if any.
func (c *Controller) teardownLocked() {
	cy := c.active
	if cy == nil {
		return
	}
	c.active = nil
	cy.cancelled = true
	if cy.timer != nil {
		cy.timer.Stop()
	}
	cy.cancel()
}

func (c *Controller) dispatchLocked(a state.Action) {
	c.current = state.Reduce(c.current, a)
	c.version++

	if c.onChange == nil {
		return
	}
	select {
	case c.notifyCh <- struct{}{}:
	default:
	}
}

// deliver calls onChange with the latest state whenever it changes.
func (c *Controller) deliver() {
	for {
		select {
		case <-c.done:
			return
		case <-c.notifyCh:
		}

		c.mu.Lock()
		s, v := c.current, c.version
		c.mu.Unlock()

		if v <= c.delivered {
			continue
		}
		c.delivered = v
		c.onChange(s)
	}
}
