package middleware

import (
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sage/pkg/context"
	"github.com/labstack/echo/v4"
)

// Logger writes one line per request. Probe and scrape traffic is logged at
// debug so it does not drown out imports and admin actions.
func Logger(logger ectologger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			ctx := req.Context()

			fields := map[string]any{
				"request_id":    context.GetRequestID(ctx),
				"method":        req.Method,
				"route":         c.Path(),
				"status":        res.Status,
				"remote_ip":     c.RealIP(),
				"duration_ms":   time.Since(start).Milliseconds(),
				"response_size": res.Size,
			}
			if profileID := context.GetProfileID(ctx); profileID != 0 {
				fields["profile_id"] = profileID
			}
			entry := logger.WithContext(ctx).WithFields(fields)

			switch {
			case res.Status >= 500:
				entry.Warn("request failed")
			case isProbe(c.Path()):
				entry.Debug("request")
			default:
				entry.Info("request")
			}
			return nil
		}
	}
}

func isProbe(path string) bool {
	return path == "/metrics" || strings.HasPrefix(path, "/api/v1/health")
}
