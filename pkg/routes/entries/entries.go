package entries

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/routes/profile"
	"github.com/Ramsey-B/sage/pkg/tracing"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

type Service interface {
	UpdateBaseProfile(ctx context.Context, profileID int64, base models.BaseProfile) (models.Profile, error)
	UpdateEntry(ctx context.Context, profileID int64, category models.Category, entry models.ProfileEntry) (models.ProfileEntry, error)
	DeleteEntry(ctx context.Context, profileID int64, category models.Category, entryID int64) error
	UpdateSkill(ctx context.Context, profileID int64, skill models.Skill) (models.Skill, error)
	DeleteSkill(ctx context.Context, profileID, skillID int64) error
	UpdateProject(ctx context.Context, profileID int64, project models.Project) (models.Project, error)
	DeleteProject(ctx context.Context, profileID, projectID int64) error
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the routes under /profiles/:id.
func (h *Handler) Register(g *echo.Group) {
	g.PUT("/base", h.UpdateBase)
	g.POST("/entries/:category", h.UpdateEntry)
	g.PUT("/entries/:category", h.UpdateEntry)
	g.DELETE("/entries/:category/:entryId", h.DeleteEntry)
	g.POST("/skills", h.UpdateSkill)
	g.PUT("/skills", h.UpdateSkill)
	g.DELETE("/skills/:skillId", h.DeleteSkill)
	g.POST("/projects", h.UpdateProject)
	g.PUT("/projects", h.UpdateProject)
	g.DELETE("/projects/:projectId", h.DeleteProject)
}

func entryCategory(c echo.Context) (models.Category, error) {
	cat, ok := models.ParseCategory(c.Param("category"))
	if !ok || !cat.IsEntryCategory() {
		return "", httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown entry category %q", c.Param("category"))
	}
	return cat, nil
}

func (h *Handler) UpdateBase(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "entries_handler.UpdateBase")
	defer span.End()

	id, err := profile.ParseID(c, "id")
	if err != nil {
		return err
	}
	var req models.BaseProfile
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	p, err := h.service.UpdateBaseProfile(ctx, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateEntry(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "entries_handler.UpdateEntry")
	defer span.End()

	id, err := profile.ParseID(c, "id")
	if err != nil {
		return err
	}
	cat, err := entryCategory(c)
	if err != nil {
		return err
	}
	var req models.ProfileEntry
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.NameEntity == nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "nameEntity is required")
	}
	if err := validate.Struct(req.NameEntity); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	saved, err := h.service.UpdateEntry(ctx, id, cat, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, saved)
}

func (h *Handler) DeleteEntry(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "entries_handler.DeleteEntry")
	defer span.End()

	id, err := profile.ParseID(c, "id")
	if err != nil {
		return err
	}
	cat, err := entryCategory(c)
	if err != nil {
		return err
	}
	entryID, err := profile.ParseID(c, "entryId")
	if err != nil {
		return err
	}

	if err := h.service.DeleteEntry(ctx, id, cat, entryID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UpdateSkill(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "entries_handler.UpdateSkill")
	defer span.End()

	id, err := profile.ParseID(c, "id")
	if err != nil {
		return err
	}
	var req models.Skill
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	saved, err := h.service.UpdateSkill(ctx, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, saved)
}

func (h *Handler) DeleteSkill(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "entries_handler.DeleteSkill")
	defer span.End()

	id, err := profile.ParseID(c, "id")
	if err != nil {
		return err
	}
	skillID, err := profile.ParseID(c, "skillId")
	if err != nil {
		return err
	}

	if err := h.service.DeleteSkill(ctx, id, skillID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UpdateProject(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "entries_handler.UpdateProject")
	defer span.End()

	id, err := profile.ParseID(c, "id")
	if err != nil {
		return err
	}
	var req models.Project
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	saved, err := h.service.UpdateProject(ctx, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, saved)
}

func (h *Handler) DeleteProject(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "entries_handler.DeleteProject")
	defer span.End()

	id, err := profile.ParseID(c, "id")
	if err != nil {
		return err
	}
	projectID, err := profile.ParseID(c, "projectId")
	if err != nil {
		return err
	}

	if err := h.service.DeleteProject(ctx, id, projectID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
