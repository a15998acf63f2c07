package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"apeBeacon/domain"
	"apeBeacon/internal/rest"
	"apeBeacon/pkg/logger"

	"github.com/labstack/echo/v4"
)

// CallbackResolver picks the JSONP callback name for a request.
type CallbackResolver interface {
	Callback(params url.Values) string
}

const apiPrefix = "/api/"

// ErrorHandler renders every unhandled error. Script-facing routes get a
// JSONP envelope with transport status 200; the JSON admin API gets plain JSON.
func ErrorHandler(callbacks CallbackResolver) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
		}

		if status >= http.StatusInternalServerError {
			logger.Error("Unhandled request error", "path", c.Request().URL.Path, "error", err)
		}

		if strings.HasPrefix(c.Request().URL.Path, apiPrefix) {
			message := http.StatusText(status)
			if he != nil && status < http.StatusInternalServerError {
				if m, ok := he.Message.(string); ok {
					message = m
				}
			}
			if err := c.JSON(status, rest.ResponseError{Message: message}); err != nil {
				logger.Error("Failed to write error response", "error", err)
			}
			return
		}

		callback := callbacks.Callback(c.QueryParams())
		if err := rest.RenderJSONP(c, callback, domain.ErrorEnvelope(domain.StatusError(status))); err != nil {
			logger.Error("Failed to write jsonp error response", "error", err)
		}
	}
}
