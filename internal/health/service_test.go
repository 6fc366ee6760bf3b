package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazysearch/lazysearch/internal/index"
)

type recordingBroadcaster struct {
	mu       sync.Mutex
	payloads []UpdatePayload
}

func (b *recordingBroadcaster) Broadcast(msgType string, payload interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if msgType == MessageUpdate {
		b.payloads = append(b.payloads, payload.(UpdatePayload))
	}
	return nil
}

type stubPinger map[string]error

func (p stubPinger) Ping(_ context.Context, name string) error {
	return p[name]
}

func TestService_StatusTransitions(t *testing.T) {
	s := NewService(zerolog.Nop())
	b := &recordingBroadcaster{}
	s.SetBroadcaster(b)

	s.Register("movies", "movies")
	assert.True(t, s.IsHealthy("movies"))

	s.SetError("movies", index.ErrCodeNetwork, "unreachable")
	item, ok := s.Get("movies")
	require.True(t, ok)
	assert.Equal(t, StatusError, item.Status)
	assert.Equal(t, index.ErrCodeNetwork, item.Code)
	assert.NotNil(t, item.Timestamp)

	s.SetError("movies", index.ErrCodeNetwork, "unreachable")
	s.ClearStatus("movies")
	assert.True(t, s.IsHealthy("movies"))

	require.Len(t, b.payloads, 2)
	assert.Equal(t, StatusError, b.payloads[0].Status)
	assert.Equal(t, StatusOK, b.payloads[1].Status)
}

func TestService_UnregisteredIsIgnored(t *testing.T) {
	s := NewService(zerolog.Nop())

	s.SetError("nope", "", "boom")
	_, ok := s.Get("nope")
	assert.False(t, ok)
	assert.False(t, s.IsHealthy("nope"))
}

func TestService_Record(t *testing.T) {
	s := NewService(zerolog.Nop())
	s.Register("a", "a")
	s.Register("b", "b")
	s.Register("c", "c")

	s.Record("a", nil)
	s.Record("b", index.NewRateLimitError("b"))
	s.Record("c", index.NewAuthError("c", http.StatusForbidden, "bad key"))

	sum := s.Summary()
	assert.Equal(t, Summary{OK: 1, Warning: 1, Error: 1, HasIssues: true}, sum)

	items := s.List()
	require.Len(t, items, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{items[0].ID, items[1].ID, items[2].ID})
	assert.Equal(t, index.ErrCodeAuth, items[2].Code)
}

func TestService_Check(t *testing.T) {
	s := NewService(zerolog.Nop())
	pinger := stubPinger{"series": errors.New("down")}

	failed := s.Check(context.Background(), pinger, []string{"movies", "series"})

	assert.Equal(t, 1, failed)
	assert.True(t, s.IsHealthy("movies"))
	assert.False(t, s.IsHealthy("series"))
	item, _ := s.Get("movies")
	assert.NotNil(t, item.CheckedAt)
}

func TestItem_MarshalJSON(t *testing.T) {
	item := Item{ID: "movies", Name: "movies", Status: StatusOK, Message: "stale", Code: "X"}

	data, err := json.Marshal(item)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")
	assert.NotContains(t, string(data), "code")
}

func TestHandlers(t *testing.T) {
	s := NewService(zerolog.Nop())
	pinger := stubPinger{"series": index.NewServiceError("series", http.StatusBadGateway, "bad gateway")}
	s.Check(context.Background(), stubPinger{}, []string{"movies", "series"})

	e := echo.New()
	NewHandlers(s, pinger).RegisterRoutes(e.Group("/api/v1/health"))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Summary.OK)
	assert.Len(t, resp.Indexes, 2)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/health/series/test", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
	assert.False(t, s.IsHealthy("series"))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/series", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), index.ErrCodeService)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
