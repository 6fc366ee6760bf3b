// Package middleware holds echo middleware shared by the API.
package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// SecurityHeaders sets conservative response headers. Responses under
// apiPrefix are never cached, since they carry live search results.
func SecurityHeaders(apiPrefix string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")

			if strings.HasPrefix(c.Request().URL.Path, apiPrefix) {
				h.Set("Cache-Control", "no-store")
			}

			return next(c)
		}
	}
}
