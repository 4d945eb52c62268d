package graph

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Ramsey-B/sage/pkg/graph"
	"github.com/Ramsey-B/sage/pkg/tracing"
	"github.com/labstack/echo/v4"
)

type Querier interface {
	RelatedSkills(ctx context.Context, name string, limit int) ([]graph.RelatedSkill, error)
}

type Handler struct {
	querier Querier
}

func NewHandler(q Querier) *Handler {
	return &Handler{querier: q}
}

func (h *Handler) Register(g *echo.Group) {
	g.GET("/skills/:name/related", h.RelatedSkills)
}

func (h *Handler) RelatedSkills(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "graph_handler.RelatedSkills")
	defer span.End()

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return httperror.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}

	related, err := h.querier.RelatedSkills(ctx, c.Param("name"), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, related)
}
