package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/skillswap/skillswap/internal/models"
)

// errorHandler maps domain errors onto HTTP responses: AppError carries
// its own status and code, echo errors pass through, anything else is a
// plain 500 without leaking internals.
func errorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var (
			status = http.StatusInternalServerError
			body   any
		)

		var appErr *models.AppError
		var he *echo.HTTPError
		switch {
		case errors.As(err, &appErr):
			status = appErr.Status
			body = appErr
		case errors.As(err, &he):
			status = he.Code
			body = map[string]any{"code": "http_error", "message": he.Message}
		default:
			c.Logger().Error(err)
			body = map[string]any{"code": "internal_error", "message": http.StatusText(status)}
		}

		if c.Response().Committed {
			return
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			c.Logger().Error(err)
		}
	}
}
