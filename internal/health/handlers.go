package health

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handlers provides HTTP handlers for health endpoints.
type Handlers struct {
	health *Service
	pinger Pinger
}

// NewHandlers creates new health handlers.
func NewHandlers(health *Service, pinger Pinger) *Handlers {
	return &Handlers{health: health, pinger: pinger}
}

// RegisterRoutes registers health routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetAll)
	g.GET("/:id", h.Get)
	g.POST("/:id/test", h.Test)
}

// GetAll returns all index health items with a summary.
// GET /api/v1/health
func (h *Handlers) GetAll(c echo.Context) error {
	return c.JSON(http.StatusOK, Response{
		Summary: h.health.Summary(),
		Indexes: h.health.List(),
	})
}

// Get returns the health of one index.
// GET /api/v1/health/:id
func (h *Handlers) Get(c echo.Context) error {
	item, ok := h.health.Get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "index not tracked")
	}
	return c.JSON(http.StatusOK, item)
}

// Test pings one index now and records the outcome.
// POST /api/v1/health/:id/test
func (h *Handlers) Test(c echo.Context) error {
	id := c.Param("id")
	if _, ok := h.health.Get(id); !ok {
		return echo.NewHTTPError(http.StatusNotFound, "index not tracked")
	}

	err := h.pinger.Ping(c.Request().Context(), id)
	h.health.Record(id, err)

	result := map[string]interface{}{"success": err == nil}
	if err != nil {
		result["message"] = err.Error()
	}
	return c.JSON(http.StatusOK, result)
}
