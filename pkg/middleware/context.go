package middleware

import (
	"strconv"
	"strings"

	"github.com/Ramsey-B/sage/pkg/context"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Context tags the request context with its id and, on profile routes, the
// profile being worked on.
func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			ctx := context.SetRequestID(req.Context(), requestID)
			ctx = context.SetMethod(ctx, req.Method)
			ctx = context.SetRoute(ctx, c.Path())
			ctx = context.SetRemoteIP(ctx, c.RealIP())
			if profileID, ok := profileParam(c); ok {
				ctx = context.SetProfileID(ctx, profileID)
			}

			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}

func profileParam(c echo.Context) (int64, bool) {
	if !strings.Contains(c.Path(), "/profiles/:id") {
		return 0, false
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
