package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mamed-gasimov/event-slideshow/internal/metrics"
)

// RequestLogger returns middleware that attaches a request-scoped zerolog
// logger to the request context, logs the outcome and updates counters.
func RequestLogger(base zerolog.Logger, reg *metrics.Registry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid := req.Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, rid)

			logger := base.With().
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("remote_ip", c.RealIP()).
				Logger()

			c.SetRequest(req.WithContext(logger.WithContext(req.Context())))

			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = statusOf(err)
			}
			duration := time.Since(start)

			labels := map[string]string{
				"method": req.Method,
				"path":   c.Path(),
				"status": statusClass(status),
			}
			reg.Inc(c.Request().Context(), metrics.HTTPRequests, labels, 1)

			if status >= 500 {
				reg.Inc(c.Request().Context(), metrics.HTTPRequestErrors, labels, 1)
				logger.Error().
					Err(err).
					Int("status", status).
					Dur("duration", duration).
					Msg("http request failed")
			} else {
				logger.Info().
					Int("status", status).
					Dur("duration", duration).
					Msg("http request served")
			}

			return err
		}
	}
}

func statusOf(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

func statusClass(code int) string {
	switch {
	case code >= 100 && code < 200:
		return "1xx"
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "0"
	}
}
