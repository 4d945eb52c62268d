package profile

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	sageerrors "github.com/Ramsey-B/sage/pkg/errors"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/store"
	"github.com/Ramsey-B/sage/pkg/tracing"
	"github.com/labstack/echo/v4"
)

type Importer interface {
	ImportProfile(ctx context.Context, profile models.Profile) (models.Profile, error)
	UpdateProfile(ctx context.Context, profile models.Profile) (models.Profile, error)
}

// Remover is told about deleted profiles after the delete commits.
type Remover interface {
	RemoveProfile(ctx context.Context, profileID int64) error
}

type Handler struct {
	store    store.Store
	importer Importer
	removers []Remover
	logger   ectologger.Logger
}

func NewHandler(st store.Store, importer Importer, logger ectologger.Logger, removers ...Remover) *Handler {
	return &Handler{store: st, importer: importer, removers: removers, logger: logger}
}

func (h *Handler) Register(g *echo.Group) {
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// ParseID reads the :id path parameter.
func ParseID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid %s", name)
	}
	return id, nil
}

func (h *Handler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "profile_handler.Create")
	defer span.End()

	p, err := h.store.Profiles().Create(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "profile_handler.Get")
	defer span.End()

	id, err := ParseID(c, "id")
	if err != nil {
		return err
	}

	p, err := h.store.Profiles().FindByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return sageerrors.NotFound("Profile with id: %d was not found!", id)
	}
	return c.JSON(http.StatusOK, p)
}

// Update reconciles the submitted profile into the stored one.
func (h *Handler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "profile_handler.Update")
	defer span.End()

	id, err := ParseID(c, "id")
	if err != nil {
		return err
	}

	var req models.Profile
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.ID = id

	saved, err := h.importer.UpdateProfile(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, saved)
}

func (h *Handler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "profile_handler.Delete")
	defer span.End()

	id, err := ParseID(c, "id")
	if err != nil {
		return err
	}

	err = h.store.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := h.store.Profiles().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return sageerrors.NotFound("Profile with id: %d was not found!", id)
		}
		if _, err := h.store.Notifications().DeleteByProfileID(ctx, id); err != nil {
			return err
		}
		return h.store.Profiles().Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	h.logger.WithContext(ctx).WithField("profile_id", id).Info("deleted profile")
	for _, r := range h.removers {
		if err := r.RemoveProfile(ctx, id); err != nil {
			h.logger.WithContext(ctx).WithError(err).WithField("profile_id", id).Warn("profile removal hook failed")
		}
	}
	return c.NoContent(http.StatusNoContent)
}
