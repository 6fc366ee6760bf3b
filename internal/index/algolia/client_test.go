package algolia

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazysearch/lazysearch/internal/index"
)

func newTestClient(t *testing.T, hosts ...string) *Client {
	t.Helper()
	client, err := NewClient(Config{
		AppID:     "APPID",
		APIKey:    "secret",
		IndexName: "movies",
		Hosts:     hosts,
	}, zerolog.Nop())
	require.NoError(t, err)
	return client
}

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"missing app id", Config{APIKey: "k", IndexName: "i"}, ErrAppIDMissing},
		{"missing key", Config{AppID: "a", IndexName: "i"}, ErrAPIKeyMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.cfg, zerolog.Nop())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := NewClient(Config{AppID: "a", APIKey: "k"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestNewClient_DefaultHosts(t *testing.T) {
	client, err := NewClient(Config{AppID: "APPID", APIKey: "k", IndexName: "movies"}, zerolog.Nop())
	require.NoError(t, err)

	require.Len(t, client.hosts, 4)
	assert.Equal(t, "https://APPID-dsn.algolia.net", client.hosts[0])
	assert.Equal(t, "movies", client.Name())
}

func TestClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/1/indexes/movies/query", r.URL.Path)
		assert.Equal(t, "APPID", r.Header.Get("X-Algolia-Application-Id"))
		assert.Equal(t, "secret", r.Header.Get("X-Algolia-API-Key"))

		var body queryBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		params, err := url.ParseQuery(body.Params)
		require.NoError(t, err)
		assert.Equal(t, "matrix", params.Get("query"))
		assert.Equal(t, "genre:scifi", params.Get("filters"))
		assert.Equal(t, "2", params.Get("page"))
		assert.Equal(t, "5", params.Get("hitsPerPage"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hits":        []map[string]any{{"objectID": "603", "title": "The Matrix"}},
			"nbHits":      1,
			"page":        2,
			"nbPages":     3,
			"hitsPerPage": 5,
			"query":       "matrix",
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	results, err := client.Search(context.Background(), index.Request{
		Query:       "matrix",
		Filters:     "genre:scifi",
		Page:        2,
		HitsPerPage: 5,
	})
	require.NoError(t, err)

	require.Len(t, results.Hits, 1)
	assert.Equal(t, "603", results.Hits[0].ObjectID())
	assert.Equal(t, 1, results.NbHits)
	assert.Equal(t, 2, results.Page)
	assert.Equal(t, 3, results.NbPages)
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, index.ErrAuth},
		{"forbidden", http.StatusForbidden, index.ErrAuth},
		{"bad request", http.StatusBadRequest, index.ErrQuery},
		{"not found", http.StatusNotFound, index.ErrQuery},
		{"rate limited", http.StatusTooManyRequests, index.ErrRateLimit},
		{"server error", http.StatusBadGateway, index.ErrService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(errorResponse{Message: "nope", Status: tt.status})
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			_, err := client.Search(context.Background(), index.Request{Query: "x"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var se *index.SearchError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.status, se.Status)
			assert.Equal(t, "movies", se.Index)
		})
	}
}

func TestClient_FallsBackToNextHost(t *testing.T) {
	var primaryHits atomic.Int32
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		primaryHits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer primary.Close()

	secondary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"hits": []any{}, "nbHits": 0})
	}))
	defer secondary.Close()

	client := newTestClient(t, primary.URL, secondary.URL)
	results, err := client.Search(context.Background(), index.Request{Query: "x"})
	require.NoError(t, err)
	assert.Equal(t, 0, results.NbHits)
	assert.Equal(t, int32(1), primaryHits.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var secondaryHits atomic.Int32
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer primary.Close()

	secondary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secondaryHits.Add(1)
	}))
	defer secondary.Close()

	client := newTestClient(t, primary.URL, secondary.URL)
	_, err := client.Search(context.Background(), index.Request{Query: "x"})
	assert.ErrorIs(t, err, index.ErrAuth)
	assert.Equal(t, int32(0), secondaryHits.Load())
}

func TestClient_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	client := newTestClient(t, addr)
	_, err := client.Search(context.Background(), index.Request{Query: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, index.ErrNetwork)
	assert.True(t, index.IsRetryable(err))
}

func TestClient_Cancelled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := newTestClient(t, server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Search(ctx, index.Request{Query: "x"})
	require.Error(t, err)
	assert.True(t, index.IsCancelled(err))
	assert.True(t, errors.Is(err, index.ErrCancelled))
}

func TestClient_Test(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		if r.URL.Path != "/1/indexes/movies/settings" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"hitsPerPage": 20})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	assert.NoError(t, client.Test(context.Background()))
}

func TestFactory(t *testing.T) {
	factory := Factory(0, zerolog.Nop())

	s, err := factory(index.DefineApp("APPID", "secret", "movies"), "movies")
	require.NoError(t, err)
	client, ok := s.(*Client)
	require.True(t, ok)
	assert.Equal(t, "movies", client.Name())

	_, err = factory(index.Application{AppID: "APPID"}, "movies")
	assert.ErrorIs(t, err, ErrAPIKeyMissing)
}
