package index

import (
	"context"

	"github.com/rs/zerolog"
)

// Searcher is the remote search capability for one index.
type Searcher interface {
	Search(ctx context.Context, req Request) (*Results, error)
}

// Pinger is implemented by searchers that can verify connectivity before the
// first query.
type Pinger interface {
	Test(ctx context.Context) error
}

// Accessor is what consumers of an index handle need: searching and
// dropping every cached result for that index.
type Accessor interface {
	Search(ctx context.Context, req Request) (*Results, error)
	ClearCache()
}

// Observer receives cache events. Implementations must be safe for
// concurrent use.
type Observer interface {
	CacheHit(index string)
	CacheMiss(index string)
	CacheCleared(index string)
}

// Index is a caching proxy in front of a remote Searcher.
type Index struct {
	name     string
	searcher Searcher
	cache    *Cache
	observer Observer
	logger   zerolog.Logger
}

var _ Accessor = (*Index)(nil)

// NewIndex creates a caching proxy for the named index.
func NewIndex(name string, searcher Searcher, cfg CacheConfig, logger zerolog.Logger) *Index {
	return &Index{
		name:     name,
		searcher: searcher,
		cache:    NewCache(cfg),
		logger:   logger.With().Str("component", "index").Str("index", name).Logger(),
	}
}

// SetObserver sets the receiver of cache events.
func (i *Index) SetObserver(o Observer) {
	i.observer = o
}

// Name returns the index name.
func (i *Index) Name() string {
	return i.name
}

// Search answers from the cache when possible and otherwise queries the
// remote index. Failures are always returned as *SearchError.
func (i *Index) Search(ctx context.Context, req Request) (*Results, error) {
	req = req.Normalize()
	key := req.CacheKey()

	gen := i.cache.Generation()
	if cached, ok := i.cache.Get(key); ok {
		if i.observer != nil {
			i.observer.CacheHit(i.name)
		}
		return cached, nil
	}
	if i.observer != nil {
		i.observer.CacheMiss(i.name)
	}

	results, err := i.searcher.Search(ctx, req)
	if err != nil {
		return nil, AsSearchError(i.name, err)
	}

	if !i.cache.SetIfGeneration(key, results, gen) {
		i.logger.Debug().Str("query", req.Query).Msg("Dropped result fetched before cache clear")
	}
	return results, nil
}

// ClearCache evicts every cached result for this index.
func (i *Index) ClearCache() {
	i.cache.Clear()
	if i.observer != nil {
		i.observer.CacheCleared(i.name)
	}
	i.logger.Debug().Msg("Cache cleared")
}

// CachedEntries returns the number of cached responses.
func (i *Index) CachedEntries() int {
	return i.cache.Len()
}

// Test checks that the remote index is reachable. Searchers without a
// connectivity check are assumed ready.
func (i *Index) Test(ctx context.Context) error {
	p, ok := i.searcher.(Pinger)
	if !ok {
		return nil
	}
	if err := p.Test(ctx); err != nil {
		return AsSearchError(i.name, err)
	}
	return nil
}
