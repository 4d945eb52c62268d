package admin

import (
	"context"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/routes/profile"
	"github.com/Ramsey-B/sage/pkg/tracing"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

type Notifications interface {
	ListAlive(ctx context.Context) ([]models.Notification, error)
	ListTrashed(ctx context.Context) ([]models.Notification, error)
	Trash(ctx context.Context, ids ...int64) error
	Restore(ctx context.Context, id int64) error
	PurgeTrashed(ctx context.Context) (int64, error)
	ExecuteOk(ctx context.Context, id int64) error
	ExecuteDelete(ctx context.Context, id int64) error
	ExecuteEdit(ctx context.Context, payload models.NotificationRecord) error
}

type Renamer interface {
	Rename(ctx context.Context, oldName, newName string) (int, error)
}

type TrashRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
}

type EditRequest struct {
	ID int64 `json:"id" validate:"required,gt=0"`
}

type PurgeResponse struct {
	Purged int64 `json:"purged"`
}

type RenameResponse struct {
	AffectedProfiles int `json:"affectedProfiles"`
}

type Handler struct {
	notifications Notifications
	renamer       Renamer
}

func NewHandler(notifications Notifications, renamer Renamer) *Handler {
	return &Handler{notifications: notifications, renamer: renamer}
}

// Register mounts the routes under /admin.
func (h *Handler) Register(g *echo.Group) {
	g.GET("/notifications", h.ListAlive)
	g.PATCH("/notifications", h.Edit)
	g.GET("/notifications/trash", h.ListTrashed)
	g.PUT("/notifications/trash", h.Trash)
	g.DELETE("/notifications/trash", h.Purge)
	g.PUT("/notifications/:id", h.Ok)
	g.DELETE("/notifications/:id", h.Delete)
	g.POST("/notifications/:id/restore", h.Restore)
	g.PATCH("/skills/name", h.RenameSkill)
}

func records(ns []models.Notification) []models.NotificationRecord {
	out := make([]models.NotificationRecord, 0, len(ns))
	for _, n := range ns {
		out = append(out, models.ToRecord(n))
	}
	return out
}

func (h *Handler) ListAlive(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "admin_handler.ListAlive")
	defer span.End()

	ns, err := h.notifications.ListAlive(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, records(ns))
}

func (h *Handler) ListTrashed(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "admin_handler.ListTrashed")
	defer span.End()

	ns, err := h.notifications.ListTrashed(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, records(ns))
}

func (h *Handler) Trash(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "admin_handler.Trash")
	defer span.End()

	var req TrashRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.notifications.Trash(ctx, req.IDs...); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Purge(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "admin_handler.Purge")
	defer span.End()

	n, err := h.notifications.PurgeTrashed(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, PurgeResponse{Purged: n})
}

func (h *Handler) Restore(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "admin_handler.Restore")
	defer span.End()

	id, err := profile.ParseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.notifications.Restore(ctx, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Ok acknowledges a notification.
func (h *Handler) Ok(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "admin_handler.Ok")
	defer span.End()

	id, err := profile.ParseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.notifications.ExecuteOk(ctx, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "admin_handler.Delete")
	defer span.End()

	id, err := profile.ParseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.notifications.ExecuteDelete(ctx, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Edit applies the corrections in the submitted notification payload.
func (h *Handler) Edit(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "admin_handler.Edit")
	defer span.End()

	var req models.NotificationRecord
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(EditRequest{ID: req.ID}); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "notification id is required")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.notifications.ExecuteEdit(ctx, req); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RenameSkill(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "admin_handler.RenameSkill")
	defer span.End()

	oldName := strings.TrimSpace(c.QueryParam("oldname"))
	newName := strings.TrimSpace(c.QueryParam("newname"))
	if oldName == "" || newName == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "oldname and newname are required")
	}

	n, err := h.renamer.Rename(ctx, oldName, newName)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, RenameResponse{AffectedProfiles: n})
}
