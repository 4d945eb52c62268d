// Package notifications queues anomalies found during imports and executes
// the administrator's resolution actions on them.
package notifications

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	sageerrors "github.com/Ramsey-B/sage/pkg/errors"
	"github.com/Ramsey-B/sage/pkg/metrics"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/store"
	"github.com/Ramsey-B/sage/pkg/tracing"
)

type Action string

const (
	ActionOk     Action = "ok"
	ActionDelete Action = "delete"
	ActionEdit   Action = "edit"
)

// Outcome describes a committed admin action.
type Outcome struct {
	Notification models.Notification
	Action       Action
	// Profiles holds every profile the action rewrote.
	Profiles []models.Profile
}

// Hook observes committed notification changes.
type Hook interface {
	NotificationsRaised(ctx context.Context, notifications []models.Notification) error
	NotificationResolved(ctx context.Context, outcome Outcome) error
}

// Renamer applies a global skill rename inside the caller's unit of work.
type Renamer interface {
	Apply(ctx context.Context, oldName, newName string) ([]models.Profile, error)
}

// Center owns the notification lifecycle: ALIVE -> TRASHED, and deletion via
// an admin action or a purge.
type Center struct {
	store   store.Store
	renamer Renamer
	hooks   []Hook
	logger  ectologger.Logger
}

func NewCenter(st store.Store, renamer Renamer, logger ectologger.Logger, hooks ...Hook) *Center {
	return &Center{store: st, renamer: renamer, logger: logger, hooks: hooks}
}

// Raise persists a single notification in its own unit of work.
func (c *Center) Raise(ctx context.Context, n models.Notification) (models.Notification, error) {
	ctx, span := tracing.StartSpan(ctx, "NotificationCenter.Raise")
	defer span.End()

	var raised []models.Notification
	err := c.store.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		raised, err = c.RaiseAll(ctx, []models.Notification{n})
		return err
	})
	if err != nil {
		return nil, err
	}
	c.afterRaise(ctx, raised)
	return raised[0], nil
}

// RaiseAll persists notifications inside the caller's unit of work. Hooks are
// left to the caller, which knows when the work commits.
func (c *Center) RaiseAll(ctx context.Context, ns []models.Notification) ([]models.Notification, error) {
	ctx, span := tracing.StartSpan(ctx, "NotificationCenter.RaiseAll")
	defer span.End()

	out := make([]models.Notification, 0, len(ns))
	for _, n := range ns {
		created, err := c.store.Notifications().Create(ctx, n)
		if err != nil {
			c.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"profile_id": n.Header().ProfileID,
				"reason":     n.Header().Reason,
			}).Error("failed to raise notification")
			return nil, fmt.Errorf("failed to raise notification: %w", err)
		}
		metrics.RecordNotificationRaised(string(created.Header().Reason))
		out = append(out, created)
	}
	return out, nil
}

func (c *Center) afterRaise(ctx context.Context, raised []models.Notification) {
	for _, h := range c.hooks {
		if err := h.NotificationsRaised(ctx, raised); err != nil {
			c.logger.WithContext(ctx).WithError(err).Warnf("notification hook %T failed", h)
		}
	}
}

func (c *Center) ListAlive(ctx context.Context) ([]models.Notification, error) {
	ctx, span := tracing.StartSpan(ctx, "NotificationCenter.ListAlive")
	defer span.End()
	return c.store.Notifications().ListByStatus(ctx, models.StatusAlive)
}

func (c *Center) ListTrashed(ctx context.Context) ([]models.Notification, error) {
	ctx, span := tracing.StartSpan(ctx, "NotificationCenter.ListTrashed")
	defer span.End()
	return c.store.Notifications().ListByStatus(ctx, models.StatusTrashed)
}

// Trash hides an ALIVE notification. Unknown or already trashed ids are a no-op.
func (c *Center) Trash(ctx context.Context, ids ...int64) error {
	ctx, span := tracing.StartSpan(ctx, "NotificationCenter.Trash")
	defer span.End()

	return c.store.WithinTx(ctx, func(ctx context.Context) error {
		for _, id := range ids {
			n, err := c.store.Notifications().FindByID(ctx, id)
			if err != nil {
				return err
			}
			if n == nil || n.Header().Status == models.StatusTrashed {
				continue
			}
			if err := c.store.Notifications().UpdateStatus(ctx, id, models.StatusTrashed); err != nil {
				return err
			}
		}
		return nil
	})
}

// Restore moves a TRASHED notification back to ALIVE.
func (c *Center) Restore(ctx context.Context, id int64) error {
	ctx, span := tracing.StartSpan(ctx, "NotificationCenter.Restore")
	defer span.End()

	return c.store.WithinTx(ctx, func(ctx context.Context) error {
		n, err := c.store.Notifications().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if n == nil {
			return notFound(id)
		}
		if n.Header().Status == models.StatusAlive {
			return nil
		}
		return c.store.Notifications().UpdateStatus(ctx, id, models.StatusAlive)
	})
}

// PurgeTrashed permanently deletes every TRASHED notification.
func (c *Center) PurgeTrashed(ctx context.Context) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "NotificationCenter.PurgeTrashed")
	defer span.End()

	var n int64
	err := c.store.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		n, err = c.store.Notifications().DeleteByStatus(ctx, models.StatusTrashed)
		return err
	})
	if err == nil {
		c.logger.WithContext(ctx).WithField("purged", n).Info("purged trashed notifications")
	}
	return n, err
}

func (c *Center) ExecuteOk(ctx context.Context, id int64) error {
	return c.execute(ctx, id, ActionOk, nil)
}

func (c *Center) ExecuteDelete(ctx context.Context, id int64) error {
	return c.execute(ctx, id, ActionDelete, nil)
}

// ExecuteEdit applies the corrections carried by payload to the notification
// with payload.ID.
func (c *Center) ExecuteEdit(ctx context.Context, payload models.NotificationRecord) error {
	return c.execute(ctx, payload.ID, ActionEdit, &payload)
}

func (c *Center) execute(ctx context.Context, id int64, action Action, payload *models.NotificationRecord) error {
	ctx, span := tracing.StartSpan(ctx, "NotificationCenter.Execute")
	defer span.End()

	log := c.logger.WithContext(ctx).WithFields(map[string]any{
		"notification_id": id,
		"action":          action,
	})

	var outcome Outcome
	err := c.store.WithinTx(ctx, func(ctx context.Context) error {
		n, err := c.store.Notifications().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if n == nil {
			return notFound(id)
		}

		set, ok := actions[n.Kind()]
		if !ok {
			return &sageerrors.UnsupportedActionError{Kind: string(n.Kind()), Action: string(action)}
		}
		fn := set.pick(action)
		if fn == nil {
			return &sageerrors.UnsupportedActionError{Kind: string(n.Kind()), Action: string(action)}
		}

		profiles, err := fn(ctx, c, n, payload)
		if err != nil {
			return err
		}
		outcome = Outcome{Notification: n, Action: action, Profiles: profiles}
		return nil
	})
	if err != nil {
		if sageerrors.StatusCode(err) >= 500 {
			log.WithError(err).Error("notification action failed, rolled back")
		}
		return err
	}

	metrics.RecordNotificationAction(string(outcome.Notification.Kind()), string(action))
	log.WithFields(map[string]any{
		"kind":              outcome.Notification.Kind(),
		"affected_profiles": len(outcome.Profiles),
	}).Info("executed notification action")

	for _, h := range c.hooks {
		if err := h.NotificationResolved(ctx, outcome); err != nil {
			log.WithError(err).Warnf("notification hook %T failed", h)
		}
	}
	return nil
}

func notFound(id int64) error {
	return sageerrors.NotFound("Notification with id: %d was not found!", id)
}
