package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sage/pkg/kafka"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/notifications"
	"github.com/Ramsey-B/sage/pkg/reconcile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	batches [][]*kafka.Event
	err     error
}

func (p *fakePublisher) Publish(_ context.Context, events ...*kafka.Event) error {
	p.batches = append(p.batches, events)
	return p.err
}

func newTestEmitter() (*Emitter, *fakePublisher) {
	pub := &fakePublisher{}
	return NewEmitter(pub, ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})), pub
}

func TestEmitter_AfterImport(t *testing.T) {
	e, pub := newTestEmitter()
	n := models.NewSkillNotification(3, models.Skill{Name: "Go"}, models.ReasonSkillUnknown)
	n.ID = 11

	err := e.AfterImport(context.Background(), reconcile.Result{
		Profile:       models.Profile{ID: 3, Description: "dev"},
		Notifications: []models.Notification{n},
		Updated:       true,
	})
	require.NoError(t, err)
	require.Len(t, pub.batches, 2)

	imported := pub.batches[0][0]
	assert.Equal(t, string(EventTypeProfileImported), imported.EventType)
	assert.Equal(t, "3", imported.Key)
	var data ProfileImportedData
	require.NoError(t, json.Unmarshal(imported.Data, &data))
	assert.True(t, data.Updated)
	assert.Equal(t, 1, data.NotificationsCount)
	assert.Equal(t, "dev", data.Profile.Description)

	raised := pub.batches[1]
	require.Len(t, raised, 1)
	assert.Equal(t, string(EventTypeNotificationRaised), raised[0].EventType)
	var rec models.NotificationRecord
	require.NoError(t, json.Unmarshal(raised[0].Data, &rec))
	assert.Equal(t, int64(11), rec.ID)
	assert.Equal(t, models.KindSkill, rec.Type)
}

func TestEmitter_NothingRaisedPublishesNothing(t *testing.T) {
	e, pub := newTestEmitter()
	require.NoError(t, e.NotificationsRaised(context.Background(), nil))
	assert.Empty(t, pub.batches)
}

func TestEmitter_NotificationResolved(t *testing.T) {
	e, pub := newTestEmitter()
	n := models.NewProfileEntryNotification(2, 5, models.NameEntity{ID: 8, Name: "Banking"})

	err := e.NotificationResolved(context.Background(), notifications.Outcome{
		Notification: n,
		Action:       notifications.ActionDelete,
		Profiles:     []models.Profile{{ID: 2}, {ID: 6}},
	})
	require.NoError(t, err)

	ev := pub.batches[0][0]
	var data NotificationResolvedData
	require.NoError(t, json.Unmarshal(ev.Data, &data))
	assert.Equal(t, "delete", data.Action)
	assert.Equal(t, []int64{2, 6}, data.AffectedProfiles)
	assert.Equal(t, int64(5), data.Notification.ProfileEntryID)
}

func TestEmitter_AfterRename(t *testing.T) {
	e, pub := newTestEmitter()

	require.NoError(t, e.AfterRename(context.Background(), "Football", "Soccer", []models.Profile{{ID: 1}}))

	ev := pub.batches[0][0]
	assert.Equal(t, string(EventTypeSkillRenamed), ev.EventType)
	assert.Equal(t, "football", ev.Key)
	assert.Zero(t, ev.ProfileID)
}

func TestEmitter_PublishFailure(t *testing.T) {
	e, pub := newTestEmitter()
	pub.err = errors.New("broker down")

	err := e.AfterImport(context.Background(), reconcile.Result{Profile: models.Profile{ID: 1}})
	assert.Error(t, err)
	assert.Len(t, pub.batches, 1, "raised events are skipped once the import event fails")
}
