package index

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSearcher struct {
	mu    sync.Mutex
	calls []Request
	err   error
	// release, when set, blocks Search until a value is received.
	release chan struct{}
}

func (s *countingSearcher) Search(ctx context.Context, req Request) (*Results, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	n := len(s.calls)
	release := s.release
	s.mu.Unlock()

	if release != nil {
		<-release
	}
	if s.err != nil {
		return nil, s.err
	}
	return &Results{Query: req.Query, Page: req.Page, NbHits: n}, nil
}

func (s *countingSearcher) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type recordingObserver struct {
	mu                   sync.Mutex
	hits, misses, clears int
}

func (o *recordingObserver) CacheHit(string)     { o.mu.Lock(); o.hits++; o.mu.Unlock() }
func (o *recordingObserver) CacheMiss(string)    { o.mu.Lock(); o.misses++; o.mu.Unlock() }
func (o *recordingObserver) CacheCleared(string) { o.mu.Lock(); o.clears++; o.mu.Unlock() }

func TestIndex_CachesIdenticalRequests(t *testing.T) {
	searcher := &countingSearcher{}
	obs := &recordingObserver{}
	idx := NewIndex("movies", searcher, DefaultCacheConfig(), zerolog.Nop())
	idx.SetObserver(obs)

	ctx := context.Background()
	first, err := idx.Search(ctx, Request{Query: "dune", HitsPerPage: 5})
	require.NoError(t, err)
	second, err := idx.Search(ctx, Request{Query: "dune", HitsPerPage: 5})
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, searcher.count())
	assert.Equal(t, 1, obs.hits)
	assert.Equal(t, 1, obs.misses)
}

func TestIndex_NormalizesBeforeForwarding(t *testing.T) {
	searcher := &countingSearcher{}
	idx := NewIndex("movies", searcher, DefaultCacheConfig(), zerolog.Nop())

	_, err := idx.Search(context.Background(), Request{Query: "x", Page: -3})
	require.NoError(t, err)

	require.Equal(t, 1, searcher.count())
	assert.Equal(t, 0, searcher.calls[0].Page)
	assert.Equal(t, DefaultHitsPerPage, searcher.calls[0].HitsPerPage)
}

func TestIndex_ClearCacheForcesRemoteCall(t *testing.T) {
	searcher := &countingSearcher{}
	obs := &recordingObserver{}
	idx := NewIndex("movies", searcher, DefaultCacheConfig(), zerolog.Nop())
	idx.SetObserver(obs)

	ctx := context.Background()
	before, err := idx.Search(ctx, Request{Query: "dune"})
	require.NoError(t, err)

	idx.ClearCache()

	after, err := idx.Search(ctx, Request{Query: "dune"})
	require.NoError(t, err)

	assert.NotSame(t, before, after)
	assert.Equal(t, 2, searcher.count())
	assert.Equal(t, 1, obs.clears)
}

func TestIndex_InFlightResultNotCachedAcrossClear(t *testing.T) {
	searcher := &countingSearcher{release: make(chan struct{})}
	idx := NewIndex("movies", searcher, DefaultCacheConfig(), zerolog.Nop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = idx.Search(context.Background(), Request{Query: "dune"})
	}()

	require.Eventually(t, func() bool { return searcher.count() == 1 }, timeout, tick)
	idx.ClearCache()
	searcher.release <- struct{}{}
	<-done

	assert.Equal(t, 0, idx.CachedEntries())
}

func TestIndex_WrapsFailures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "plain error becomes network", err: errors.New("dial tcp: refused"), wantCode: ErrCodeNetwork},
		{name: "context cancellation", err: context.Canceled, wantCode: ErrCodeCancelled},
		{name: "categorized error kept", err: NewAuthError("", 403, "bad key"), wantCode: ErrCodeAuth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := NewIndex("movies", &countingSearcher{err: tt.err}, DefaultCacheConfig(), zerolog.Nop())

			res, err := idx.Search(context.Background(), Request{Query: "x"})

			assert.Nil(t, res)
			var se *SearchError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.wantCode, se.Code)
			assert.Equal(t, "movies", se.Index)
			assert.Equal(t, 0, idx.CachedEntries())
		})
	}
}
