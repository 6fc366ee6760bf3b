package api

import (
	"net/http"
	"os"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/lazysearch/lazysearch/internal/logger"
)

// LogsHandlers handles log-related HTTP endpoints.
type LogsHandlers struct {
	recent  *logger.Recent
	logFile string
}

// NewLogsHandlers creates a new logs handlers instance. logFile may be empty
// when file logging is disabled.
func NewLogsHandlers(recent *logger.Recent, logFile string) *LogsHandlers {
	return &LogsHandlers{recent: recent, logFile: logFile}
}

// RegisterRoutes registers log routes on the given group.
func (h *LogsHandlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetRecentLogs)
	g.GET("/download", h.DownloadLogFile)
}

// GetRecentLogs returns recent log entries, oldest first.
// GET /api/v1/logs?limit=N
func (h *LogsHandlers) GetRecentLogs(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	entries := h.recent.Entries(limit)
	if entries == nil {
		entries = []logger.Entry{}
	}
	return c.JSON(http.StatusOK, entries)
}

// DownloadLogFile serves the current log file for download.
// GET /api/v1/logs/download
func (h *LogsHandlers) DownloadLogFile(c echo.Context) error {
	if h.logFile == "" {
		return echo.NewHTTPError(http.StatusNotFound, "no log file configured")
	}
	if _, err := os.Stat(h.logFile); os.IsNotExist(err) {
		return echo.NewHTTPError(http.StatusNotFound, "log file not found")
	}
	return c.Attachment(h.logFile, logger.FileName)
}
