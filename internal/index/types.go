// Package index wraps remote search indexes behind a caching proxy and a
// provider that resolves index handles by name.
package index

import (
	"net/url"
	"strconv"
)

const (
	// DefaultHitsPerPage is used when a request does not ask for a positive page size.
	DefaultHitsPerPage = 10
)

// Request is a single query against one index.
type Request struct {
	Query       string `json:"query"`
	Filters     string `json:"filters"`
	Page        int    `json:"page"`
	HitsPerPage int    `json:"hitsPerPage"`
}

// Normalize clamps the page to zero and applies the default page size.
func (r Request) Normalize() Request {
	if r.Page < 0 {
		r.Page = 0
	}
	if r.HitsPerPage <= 0 {
		r.HitsPerPage = DefaultHitsPerPage
	}
	return r
}

// Params encodes the request the way the remote query endpoint expects it.
func (r Request) Params() string {
	v := url.Values{}
	v.Set("query", r.Query)
	if r.Filters != "" {
		v.Set("filters", r.Filters)
	}
	v.Set("page", strconv.Itoa(r.Page))
	v.Set("hitsPerPage", strconv.Itoa(r.HitsPerPage))
	return v.Encode()
}

// CacheKey identifies the request inside a single index cache.
func (r Request) CacheKey() string {
	return r.Normalize().Params()
}

// Hit is one matched record. Fields are whatever the index stores.
type Hit map[string]any

// ObjectID returns the record identifier if present.
func (h Hit) ObjectID() string {
	if id, ok := h["objectID"].(string); ok {
		return id
	}
	return ""
}

// Results is the response to a Request.
type Results struct {
	Hits             []Hit  `json:"hits"`
	NbHits           int    `json:"nbHits"`
	Page             int    `json:"page"`
	NbPages          int    `json:"nbPages"`
	HitsPerPage      int    `json:"hitsPerPage"`
	ProcessingTimeMS int    `json:"processingTimeMS"`
	Query            string `json:"query"`
	Params           string `json:"params,omitempty"`
}
