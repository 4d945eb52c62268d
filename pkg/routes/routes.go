// Package routes assembles the HTTP surface.
package routes

import (
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sage/pkg/health"
	"github.com/Ramsey-B/sage/pkg/middleware"
	"github.com/Ramsey-B/sage/pkg/routes/admin"
	"github.com/Ramsey-B/sage/pkg/routes/entries"
	"github.com/Ramsey-B/sage/pkg/routes/graph"
	"github.com/Ramsey-B/sage/pkg/routes/profile"
	"github.com/Ramsey-B/sage/pkg/routes/suggestion"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

// Handlers groups the resource handlers. Graph is optional.
type Handlers struct {
	Profiles    *profile.Handler
	Entries     *entries.Handler
	Admin       *admin.Handler
	Suggestions *suggestion.Handler
	Graph       *graph.Handler
}

// New builds the echo instance with middleware, health, metrics and every
// resource route mounted.
func New(serviceName string, logger ectologger.Logger, checker *health.Checker, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(otelecho.Middleware(serviceName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	if checker != nil {
		checker.RegisterRoutes(e)
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	profiles := e.Group("/profiles")
	h.Profiles.Register(profiles)
	h.Entries.Register(profiles.Group("/:id"))
	h.Admin.Register(e.Group("/admin"))
	h.Suggestions.Register(e.Group("/suggestions"))
	if h.Graph != nil {
		h.Graph.Register(e.Group("/graph"))
	}
	return e
}
