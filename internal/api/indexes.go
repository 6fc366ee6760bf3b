package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lazysearch/lazysearch/internal/health"
	"github.com/lazysearch/lazysearch/internal/index"
)

// IndexInfo describes one configured index.
type IndexInfo struct {
	Name          string        `json:"name"`
	CachedEntries int           `json:"cachedEntries"`
	Status        health.Status `json:"status,omitempty"`
}

// IndexHandlers serves index listing, one-shot search and cache control.
type IndexHandlers struct {
	indexes *index.Provider
	health  *health.Service
	logger  zerolog.Logger
}

// NewIndexHandlers creates index handlers. health may be nil.
func NewIndexHandlers(indexes *index.Provider, healthSvc *health.Service, logger zerolog.Logger) *IndexHandlers {
	return &IndexHandlers{indexes: indexes, health: healthSvc, logger: logger}
}

// RegisterRoutes registers index routes. searchMW wraps only the search route.
func (h *IndexHandlers) RegisterRoutes(g *echo.Group, searchMW ...echo.MiddlewareFunc) {
	g.GET("", h.List)
	g.POST("/cache/clear", h.ClearAll)
	g.GET("/:name/search", h.Search, searchMW...)
	g.POST("/:name/cache/clear", h.ClearCache)
}

// List returns every configured index.
// GET /api/v1/indexes
func (h *IndexHandlers) List(c echo.Context) error {
	names := h.indexes.Names()
	out := make([]IndexInfo, 0, len(names))
	for _, name := range names {
		info := IndexInfo{Name: name}
		if idx, ok := h.indexes.Index(name); ok {
			info.CachedEntries = idx.CachedEntries()
		}
		if h.health != nil {
			if item, ok := h.health.Get(name); ok {
				info.Status = item.Status
			}
		}
		out = append(out, info)
	}
	return c.JSON(http.StatusOK, out)
}

// Search runs one query through the index cache.
// GET /api/v1/indexes/:name/search?q=&filters=&page=&hitsPerPage=
func (h *IndexHandlers) Search(c echo.Context) error {
	name := c.Param("name")
	idx, ok := h.indexes.Index(name)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown index: "+name)
	}

	req := index.Request{
		Query:   c.QueryParam("q"),
		Filters: c.QueryParam("filters"),
	}
	if req.Query == "" {
		req.Query = c.QueryParam("query")
	}
	var err error
	if req.Page, err = intParam(c, "page"); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if req.HitsPerPage, err = intParam(c, "hitsPerPage"); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid hitsPerPage")
	}

	results, err := idx.Search(c.Request().Context(), req)
	h.record(name, err)
	if err != nil {
		return searchHTTPError(err)
	}
	return c.JSON(http.StatusOK, results)
}

// ClearCache evicts the cache of one index.
// POST /api/v1/indexes/:name/cache/clear
func (h *IndexHandlers) ClearCache(c echo.Context) error {
	name := c.Param("name")
	idx, ok := h.indexes.Index(name)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown index: "+name)
	}
	idx.ClearCache()
	h.logger.Info().Str("index", name).Msg("Index cache cleared")
	return c.NoContent(http.StatusNoContent)
}

// ClearAll evicts every index cache.
// POST /api/v1/indexes/cache/clear
func (h *IndexHandlers) ClearAll(c echo.Context) error {
	h.indexes.ClearAll()
	h.logger.Info().Msg("All index caches cleared")
	return c.NoContent(http.StatusNoContent)
}

// record updates index health from failures that say something about the
// remote service. Bad queries and cancellations do not.
func (h *IndexHandlers) record(name string, err error) {
	if h.health == nil {
		return
	}
	if err != nil && (index.IsCancelled(err) || errors.Is(err, index.ErrQuery)) {
		return
	}
	if _, ok := h.health.Get(name); ok {
		h.health.Record(name, err)
	}
}

func intParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// searchHTTPError maps a search failure to the status the client sees.
func searchHTTPError(err error) *echo.HTTPError {
	status := http.StatusBadGateway
	switch index.Code(err) {
	case index.ErrCodeQuery:
		status = http.StatusBadRequest
	case index.ErrCodeRateLimit:
		status = http.StatusTooManyRequests
	case index.ErrCodeCancelled:
		status = http.StatusServiceUnavailable
	case index.ErrCodeConfiguration:
		status = http.StatusInternalServerError
	}
	return echo.NewHTTPError(status, map[string]string{
		"error": err.Error(),
		"code":  index.Code(err),
	})
}
