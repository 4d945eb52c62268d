// Package events publishes committed engine changes to Kafka.
package events

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sage/pkg/kafka"
	"github.com/Ramsey-B/sage/pkg/metrics"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/notifications"
	"github.com/Ramsey-B/sage/pkg/reconcile"
	"github.com/Ramsey-B/sage/pkg/skills"
	"github.com/Ramsey-B/sage/pkg/tracing"
)

type Publisher interface {
	Publish(ctx context.Context, events ...*kafka.Event) error
}

// Emitter turns hook callbacks into events.
type Emitter struct {
	publisher Publisher
	logger    ectologger.Logger
}

var (
	_ reconcile.Hook     = (*Emitter)(nil)
	_ notifications.Hook = (*Emitter)(nil)
	_ skills.Hook        = (*Emitter)(nil)
)

func NewEmitter(publisher Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		publisher: publisher,
		logger:    logger,
	}
}

func (e *Emitter) AfterImport(ctx context.Context, result reconcile.Result) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.AfterImport")
	defer span.End()

	imported, err := newEvent(EventTypeProfileImported, result.Profile.ID, ProfileImportedData{
		Updated:            result.Updated,
		NotificationsCount: len(result.Notifications),
		Profile:            result.Profile,
	})
	if err != nil {
		return err
	}
	if err := e.publish(ctx, EventTypeProfileImported, imported); err != nil {
		return err
	}
	return e.NotificationsRaised(ctx, result.Notifications)
}

func (e *Emitter) NotificationsRaised(ctx context.Context, ns []models.Notification) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.NotificationsRaised")
	defer span.End()

	if len(ns) == 0 {
		return nil
	}
	batch := make([]*kafka.Event, 0, len(ns))
	for _, n := range ns {
		ev, err := newEvent(EventTypeNotificationRaised, n.Header().ProfileID, models.ToRecord(n))
		if err != nil {
			return err
		}
		batch = append(batch, ev)
	}
	return e.publish(ctx, EventTypeNotificationRaised, batch...)
}

func (e *Emitter) NotificationResolved(ctx context.Context, outcome notifications.Outcome) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.NotificationResolved")
	defer span.End()

	ev, err := newEvent(EventTypeNotificationResolved, outcome.Notification.Header().ProfileID, NotificationResolvedData{
		Action:           string(outcome.Action),
		Notification:     models.ToRecord(outcome.Notification),
		AffectedProfiles: profileIDs(outcome.Profiles),
	})
	if err != nil {
		return err
	}
	return e.publish(ctx, EventTypeNotificationResolved, ev)
}

func (e *Emitter) AfterRename(ctx context.Context, oldName, newName string, profiles []models.Profile) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.AfterRename")
	defer span.End()

	ev, err := newEvent(EventTypeSkillRenamed, 0, SkillRenamedData{
		OldName:          oldName,
		NewName:          newName,
		AffectedProfiles: profileIDs(profiles),
	})
	if err != nil {
		return err
	}
	ev.Key = models.SkillKey(oldName)
	return e.publish(ctx, EventTypeSkillRenamed, ev)
}

func (e *Emitter) publish(ctx context.Context, eventType EventType, batch ...*kafka.Event) error {
	if err := e.publisher.Publish(ctx, batch...); err != nil {
		metrics.RecordEventPublished(string(eventType), "error")
		e.logger.WithContext(ctx).WithError(err).WithField("event_type", eventType).Error("failed to emit event")
		return err
	}
	metrics.RecordEventPublished(string(eventType), "ok")
	return nil
}

func newEvent(eventType EventType, profileID int64, data any) (*kafka.Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	ev := &kafka.Event{
		EventType: string(eventType),
		ProfileID: profileID,
		Data:      raw,
	}
	if profileID != 0 {
		ev.Key = strconv.FormatInt(profileID, 10)
	}
	return ev, nil
}
