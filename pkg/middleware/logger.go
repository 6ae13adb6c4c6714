package middleware

import (
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/context"
)

// Logger writes one log line per request. Errors are handed to the echo error handler first
// so the logged status is the one sent to the client.
func Logger(logger ectologger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			if err := next(c); err != nil {
				c.Error(err)
			}

			fields := context.Fields(req.Context())
			fields["uri"] = req.RequestURI
			fields["status"] = res.Status
			fields["protocol"] = req.Proto
			fields["user_agent"] = req.UserAgent()
			fields["response_time_ms"] = time.Since(start).Milliseconds()
			fields["request_size"] = req.ContentLength
			fields["response_size"] = res.Size

			logger.WithContext(req.Context()).WithFields(fields).Info("Request")
			return nil
		}
	}
}
