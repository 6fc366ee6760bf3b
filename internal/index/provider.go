package index

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Application is a set of credentials and the indexes reachable with them.
type Application struct {
	AppID   string   `json:"appId"`
	APIKey  string   `json:"-"`
	Indexes []string `json:"indexes"`
	Hosts   []string `json:"hosts,omitempty"`
}

// DefineApp describes an application with the given index names.
func DefineApp(appID, apiKey string, indexes ...string) Application {
	return Application{AppID: appID, APIKey: apiKey, Indexes: indexes}
}

// Factory builds the remote searcher for one index of an application.
type Factory func(app Application, indexName string) (Searcher, error)

// Provider resolves index handles by name. Each name maps to exactly one
// caching proxy, shared by every consumer, so cached results outlive any
// single controller.
type Provider struct {
	factory  Factory
	cacheCfg CacheConfig
	observer Observer
	logger   zerolog.Logger

	mu      sync.RWMutex
	indexes map[string]*Index
	apps    map[string]string // index name -> app id
}

// NewProvider creates an empty provider.
func NewProvider(factory Factory, cacheCfg CacheConfig, logger zerolog.Logger) *Provider {
	return &Provider{
		factory:  factory,
		cacheCfg: cacheCfg,
		logger:   logger.With().Str("component", "provider").Logger(),
		indexes:  make(map[string]*Index),
		apps:     make(map[string]string),
	}
}

// SetObserver sets the cache observer for current and future indexes.
func (p *Provider) SetObserver(o Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observer = o
	for _, idx := range p.indexes {
		idx.SetObserver(o)
	}
}

// Define registers every index of app. Index names must be unique across
// applications.
func (p *Provider) Define(app Application) error {
	if app.AppID == "" {
		return fmt.Errorf("application id is required")
	}
	if len(app.Indexes) == 0 {
		return fmt.Errorf("application %s has no indexes", app.AppID)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	built := make(map[string]*Index, len(app.Indexes))
	for _, name := range app.Indexes {
		if name == "" {
			return fmt.Errorf("application %s has an empty index name", app.AppID)
		}
		if owner, exists := p.apps[name]; exists {
			return fmt.Errorf("index %q already defined by application %s", name, owner)
		}
		if _, dup := built[name]; dup {
			return fmt.Errorf("index %q listed twice in application %s", name, app.AppID)
		}

		searcher, err := p.factory(app, name)
		if err != nil {
			return fmt.Errorf("failed to create searcher for index %q: %w", name, err)
		}
		idx := NewIndex(name, searcher, p.cacheCfg, p.logger)
		idx.SetObserver(p.observer)
		built[name] = idx
	}

	for name, idx := range built {
		p.indexes[name] = idx
		p.apps[name] = app.AppID
	}

	p.logger.Info().
		Str("appId", app.AppID).
		Strs("indexes", app.Indexes).
		Msg("Defined application")

	return nil
}

// Resolve returns the handle for name, or false if no application defines it.
func (p *Provider) Resolve(name string) (Accessor, bool) {
	idx, ok := p.Index(name)
	if !ok {
		return nil, false
	}
	return idx, true
}

// Index returns the concrete proxy for name.
func (p *Provider) Index(name string) (*Index, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	idx, ok := p.indexes[name]
	return idx, ok
}

// Ping runs the readiness handshake for the named index.
func (p *Provider) Ping(ctx context.Context, name string) error {
	idx, ok := p.Index(name)
	if !ok {
		return NewConfigError(name, "index is not defined")
	}
	return idx.Test(ctx)
}

// Names returns every defined index name in sorted order.
func (p *Provider) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.indexes))
	for name := range p.indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ClearAll evicts the cache of every index.
func (p *Provider) ClearAll() {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, idx := range p.indexes {
		idx.ClearCache()
	}
}
