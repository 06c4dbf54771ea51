package server

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/existflow/promptpicker/internal/logger"
)

// requestLogger logs every request with its outcome. Event streams are
// logged once they close, so their duration is the connection lifetime.
func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()

		logger.Debug("HTTP Request",
			logger.F("method", req.Method),
			logger.F("uri", req.RequestURI),
			logger.F("remote", c.RealIP()))

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		res := c.Response()
		fields := []logger.Field{
			logger.F("method", req.Method),
			logger.F("uri", req.RequestURI),
			logger.F("status", res.Status),
			logger.F("size", res.Size),
			logger.F("duration", time.Since(start).String()),
		}
		if id := res.Header().Get(echo.HeaderXRequestID); id != "" {
			fields = append(fields, logger.F("request_id", id))
		}

		switch {
		case res.Status >= 500:
			logger.Error("HTTP Response", fields...)
		case strings.HasSuffix(req.URL.Path, "/events/stream"):
			logger.Debug("HTTP Response", fields...)
		default:
			logger.Info("HTTP Response", fields...)
		}
		return nil
	}
}
