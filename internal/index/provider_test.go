package index

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	timeout = time.Second
	tick    = 5 * time.Millisecond
)

type pingSearcher struct {
	countingSearcher
	pingErr error
}

func (p *pingSearcher) Test(context.Context) error { return p.pingErr }

func newTestProvider(t *testing.T, searchers map[string]Searcher) *Provider {
	t.Helper()
	factory := func(app Application, name string) (Searcher, error) {
		if s, ok := searchers[name]; ok {
			return s, nil
		}
		return &countingSearcher{}, nil
	}
	return NewProvider(factory, DefaultCacheConfig(), zerolog.Nop())
}

func TestProvider_DefineAndResolve(t *testing.T) {
	p := newTestProvider(t, nil)

	require.NoError(t, p.Define(DefineApp("APP", "key", "movies", "series")))

	acc, ok := p.Resolve("movies")
	require.True(t, ok)
	assert.NotNil(t, acc)

	again, _ := p.Resolve("movies")
	assert.Same(t, acc, again, "one proxy per index name")

	_, ok = p.Resolve("unknown")
	assert.False(t, ok)

	assert.Equal(t, []string{"movies", "series"}, p.Names())
}

func TestProvider_DefineValidation(t *testing.T) {
	tests := []struct {
		name string
		apps []Application
	}{
		{name: "missing app id", apps: []Application{DefineApp("", "k", "a")}},
		{name: "no indexes", apps: []Application{DefineApp("APP", "k")}},
		{name: "empty index name", apps: []Application{DefineApp("APP", "k", "")}},
		{name: "duplicate within app", apps: []Application{DefineApp("APP", "k", "a", "a")}},
		{name: "duplicate across apps", apps: []Application{DefineApp("APP1", "k", "a"), DefineApp("APP2", "k", "a")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, nil)
			var err error
			for _, app := range tt.apps {
				if err = p.Define(app); err != nil {
					break
				}
			}
			assert.Error(t, err)
		})
	}
}

func TestProvider_FactoryErrorLeavesNothingDefined(t *testing.T) {
	factory := func(app Application, name string) (Searcher, error) {
		if name == "bad" {
			return nil, errors.New("boom")
		}
		return &countingSearcher{}, nil
	}
	p := NewProvider(factory, DefaultCacheConfig(), zerolog.Nop())

	err := p.Define(DefineApp("APP", "k", "good", "bad"))

	require.Error(t, err)
	assert.Empty(t, p.Names())
}

func TestProvider_Ping(t *testing.T) {
	failing := &pingSearcher{pingErr: NewAuthError("", 403, "invalid key")}
	p := newTestProvider(t, map[string]Searcher{
		"ready":   &pingSearcher{},
		"failing": failing,
		"plain":   &countingSearcher{},
	})
	require.NoError(t, p.Define(DefineApp("APP", "k", "ready", "failing", "plain")))

	ctx := context.Background()
	assert.NoError(t, p.Ping(ctx, "ready"))
	assert.NoError(t, p.Ping(ctx, "plain"))
	assert.True(t, IsAuthError(p.Ping(ctx, "failing")))
	assert.ErrorIs(t, p.Ping(ctx, "missing"), ErrConfiguration)
}

func TestProvider_ClearAll(t *testing.T) {
	p := newTestProvider(t, nil)
	require.NoError(t, p.Define(DefineApp("APP", "k", "a", "b")))

	ctx := context.Background()
	for _, name := range p.Names() {
		idx, _ := p.Index(name)
		_, err := idx.Search(ctx, Request{Query: "q"})
		require.NoError(t, err)
		require.Equal(t, 1, idx.CachedEntries())
	}

	p.ClearAll()

	for _, name := range p.Names() {
		idx, _ := p.Index(name)
		assert.Equal(t, 0, idx.CachedEntries())
	}
}
