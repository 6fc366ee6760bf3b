// Package mock is an in-memory index.Searcher used in developer mode and
// tests. It matches the query as a case-insensitive substring of the title
// and supports "field:value" filters joined with AND.
package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lazysearch/lazysearch/internal/index"
)

// Client serves a fixed set of records.
type Client struct {
	name    string
	records []index.Hit

	mu      sync.RWMutex
	latency time.Duration
	failure error
}

var (
	_ index.Searcher = (*Client)(nil)
	_ index.Pinger   = (*Client)(nil)
)

// NewClient creates a mock index over the built-in catalog for name.
func NewClient(name string) *Client {
	return NewClientWithRecords(name, Catalog(name))
}

// NewClientWithRecords creates a mock index over records.
func NewClientWithRecords(name string, records []index.Hit) *Client {
	return &Client{name: name, records: records}
}

// Factory is an index.Factory producing mock clients. Every response waits
// latency first.
func Factory(latency time.Duration) index.Factory {
	return func(_ index.Application, indexName string) (index.Searcher, error) {
		c := NewClient(indexName)
		c.SetLatency(latency)
		return c, nil
	}
}

// Name returns the index name.
func (c *Client) Name() string {
	return c.name
}

// SetLatency delays every response by d.
func (c *Client) SetLatency(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latency = d
}

// SetFailure makes every search fail with err. Nil restores normal behavior.
func (c *Client) SetFailure(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failure = err
}

// Test always succeeds unless a failure is set.
func (c *Client) Test(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.failure
}

// Search implements index.Searcher.
func (c *Client) Search(ctx context.Context, req index.Request) (*index.Results, error) {
	start := time.Now()
	req = req.Normalize()

	c.mu.RLock()
	latency, failure := c.latency, c.failure
	c.mu.RUnlock()

	if latency > 0 {
		t := time.NewTimer(latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, index.AsSearchError(c.name, ctx.Err())
		case <-t.C:
		}
	}
	if failure != nil {
		return nil, failure
	}

	filters, err := parseFilters(req.Filters)
	if err != nil {
		return nil, index.NewQueryError(c.name, 400, err.Error())
	}

	query := strings.ToLower(strings.TrimSpace(req.Query))
	var matched []index.Hit
	for _, r := range c.records {
		if query != "" && !strings.Contains(strings.ToLower(fmt.Sprint(r["title"])), query) {
			continue
		}
		if !filters.match(r) {
			continue
		}
		matched = append(matched, r)
	}

	nbPages := (len(matched) + req.HitsPerPage - 1) / req.HitsPerPage
	from := req.Page * req.HitsPerPage
	hits := []index.Hit{}
	if from < len(matched) {
		to := min(from+req.HitsPerPage, len(matched))
		hits = matched[from:to]
	}

	return &index.Results{
		Hits:             hits,
		NbHits:           len(matched),
		Page:             req.Page,
		NbPages:          nbPages,
		HitsPerPage:      req.HitsPerPage,
		ProcessingTimeMS: int(time.Since(start).Milliseconds()),
		Query:            req.Query,
		Params:           req.Params(),
	}, nil
}

type filterSet []filterTerm

type filterTerm struct {
	field string
	value string
}

func parseFilters(expr string) (filterSet, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	var set filterSet
	for _, part := range strings.Split(expr, " AND ") {
		field, value, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok || field == "" || value == "" {
			return nil, fmt.Errorf("invalid filter %q", part)
		}
		set = append(set, filterTerm{
			field: strings.TrimSpace(field),
			value: strings.Trim(strings.TrimSpace(value), `"`),
		})
	}
	return set, nil
}

func (s filterSet) match(h index.Hit) bool {
	for _, f := range s {
		v, ok := h[f.field]
		if !ok || !strings.EqualFold(fmt.Sprint(v), f.value) {
			return false
		}
	}
	return true
}
