package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lazysearch/lazysearch/internal/session"
)

// SessionHandlers exposes the connected search sessions.
type SessionHandlers struct {
	hub *session.Hub
}

// NewSessionHandlers creates session handlers.
func NewSessionHandlers(hub *session.Hub) *SessionHandlers {
	return &SessionHandlers{hub: hub}
}

// RegisterRoutes registers session routes.
func (h *SessionHandlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.POST("/refresh", h.Refresh)
}

// List returns connected sessions, oldest first.
// GET /api/v1/sessions
func (h *SessionHandlers) List(c echo.Context) error {
	return c.JSON(http.StatusOK, h.hub.Sessions())
}

// Refresh bumps the cache key of every session, forcing fresh searches.
// POST /api/v1/sessions/refresh
func (h *SessionHandlers) Refresh(c echo.Context) error {
	n, err := h.hub.BumpKeys(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]int{"refreshed": n})
}
