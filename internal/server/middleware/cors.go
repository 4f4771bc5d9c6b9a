package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"
)

// corsMethods mirrors the route table; the API only serves reads,
// creates, and updates.
var corsMethods = strings.Join([]string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodOptions,
}, ", ")

// CORS allows browser clients whose Origin matches pattern. Preflight
// requests from an allowed origin are answered here without reaching
// the route handlers.
func CORS(pattern *regexp.Regexp) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			respHeader := c.Response().Header()
			respHeader.Set("Vary", "Origin")
			origin := c.Request().Header.Get("Origin")
			if origin == "" || !pattern.MatchString(origin) {
				return next(c)
			}
			respHeader.Set("Access-Control-Allow-Origin", origin)
			if c.Request().Method == http.MethodOptions {
				respHeader.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
				respHeader.Set("Access-Control-Allow-Methods", corsMethods)
				return c.NoContent(http.StatusNoContent)
			}

			return next(c)
		}
	}
}
