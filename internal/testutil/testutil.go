// Package testutil provides fakes and helpers shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/lazysearch/lazysearch/internal/index"
)

// NewTestLogger creates a test logger that outputs to t.Log.
func NewTestLogger(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
}

// PendingSearch is a search held by a FakeIndex until the test answers it.
type PendingSearch struct {
	Request index.Request
	Ctx     context.Context
	reply   chan reply
}

type reply struct {
	results *index.Results
	err     error
}

// Respond completes the search with results.
func (p *PendingSearch) Respond(results *index.Results) {
	p.reply <- reply{results: results}
}

// Fail completes the search with err.
func (p *PendingSearch) Fail(err error) {
	p.reply <- reply{err: err}
}

// FakeIndex is a scriptable index.Accessor. By default every search answers
// immediately with ResultsFor(request). With Hold enabled searches block
// until the test answers them through Pending, ignoring their context so
// late responses can be simulated.
type FakeIndex struct {
	mu      sync.Mutex
	calls   []index.Request
	events  []string
	clears  int
	hold    bool
	err     error
	pending []*PendingSearch
}

var _ index.Accessor = (*FakeIndex)(nil)

// NewFakeIndex creates an index that answers immediately.
func NewFakeIndex() *FakeIndex {
	return &FakeIndex{}
}

// SetHold switches between immediate and held responses.
func (f *FakeIndex) SetHold(hold bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hold = hold
}

// SetError makes immediate responses fail with err.
func (f *FakeIndex) SetError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// ResultsFor is the canned answer for req.
func ResultsFor(req index.Request) *index.Results {
	return &index.Results{
		Hits:        []index.Hit{{"objectID": fmt.Sprintf("%s-%d", req.Query, req.Page)}},
		NbHits:      1,
		Page:        req.Page,
		NbPages:     1,
		HitsPerPage: req.HitsPerPage,
		Query:       req.Query,
	}
}

// Search implements index.Accessor.
func (f *FakeIndex) Search(ctx context.Context, req index.Request) (*index.Results, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.events = append(f.events, "search:"+req.Query)
	if !f.hold {
		err := f.err
		f.mu.Unlock()
		if err != nil {
			return nil, err
		}
		return ResultsFor(req), nil
	}
	p := &PendingSearch{Request: req, Ctx: ctx, reply: make(chan reply, 1)}
	f.pending = append(f.pending, p)
	f.mu.Unlock()

	r := <-p.reply
	return r.results, r.err
}

// ClearCache implements index.Accessor.
func (f *FakeIndex) ClearCache() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	f.events = append(f.events, "clear")
}

// Calls returns every request seen so far.
func (f *FakeIndex) Calls() []index.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]index.Request, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns the number of searches seen so far.
func (f *FakeIndex) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// Clears returns how often ClearCache was called.
func (f *FakeIndex) Clears() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clears
}

// Events returns clears and searches in the order they happened.
func (f *FakeIndex) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	copy(out, f.events)
	return out
}

// PendingCount returns the number of held searches, answered or not.
func (f *FakeIndex) PendingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// Pending returns the i-th held search.
func (f *FakeIndex) Pending(i int) *PendingSearch {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending[i]
}

// Resolver is a fixed name-to-handle mapping. It is safe for concurrent use.
type Resolver struct {
	mu      sync.RWMutex
	handles map[string]index.Accessor
}

// NewResolver creates a resolver with the given handles.
func NewResolver(handles map[string]index.Accessor) *Resolver {
	r := &Resolver{handles: make(map[string]index.Accessor)}
	for name, h := range handles {
		r.handles[name] = h
	}
	return r
}

// Set registers or replaces a handle.
func (r *Resolver) Set(name string, h index.Accessor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[name] = h
}

// Resolve implements search.Resolver.
func (r *Resolver) Resolve(name string) (index.Accessor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[name]
	return h, ok
}
