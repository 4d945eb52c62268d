package suggestion

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectolinq"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/reconcile"
	"github.com/Ramsey-B/sage/pkg/store"
	"github.com/Ramsey-B/sage/pkg/tracing"
	"github.com/labstack/echo/v4"
)

type Constants struct {
	MaxRolesPerProject       int `json:"maxRolesPerProject"`
	ProfileDescriptionLength int `json:"profileDescriptionLength"`
}

type Handler struct {
	store    store.Store
	settings reconcile.Settings
}

func NewHandler(st store.Store, settings reconcile.Settings) *Handler {
	return &Handler{store: st, settings: settings}
}

func (h *Handler) Register(g *echo.Group) {
	g.GET("/skills", h.Skills)
	g.GET("/constants", h.Constants)
	g.GET("/:category", h.Category)
}

func (h *Handler) Skills(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "suggestion_handler.Skills")
	defer span.End()

	names, err := h.store.Skills().ListNames(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, names)
}

func (h *Handler) Constants(c echo.Context) error {
	return c.JSON(http.StatusOK, Constants{
		MaxRolesPerProject:       h.settings.MaxRolesPerProject,
		ProfileDescriptionLength: h.settings.ProfileDescriptionLength,
	})
}

// Category lists the reference values known for a category.
func (h *Handler) Category(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "suggestion_handler.Category")
	defer span.End()

	cat, ok := models.ParseCategory(c.Param("category"))
	if !ok {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown category %q", c.Param("category"))
	}

	values, err := h.store.NameEntities().ListByCategory(ctx, cat)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ectolinq.Map(values, func(ne models.NameEntity) string { return ne.Name }))
}
