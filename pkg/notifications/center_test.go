package notifications

import (
	"context"
	"net/http"
	"testing"

	"github.com/Gobusters/ectologger"
	sageerrors "github.com/Ramsey-B/sage/pkg/errors"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/skills"
	"github.com/Ramsey-B/sage/pkg/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHook struct {
	raised   [][]models.Notification
	resolved []Outcome
}

func (h *recordingHook) NotificationsRaised(_ context.Context, ns []models.Notification) error {
	h.raised = append(h.raised, ns)
	return nil
}

func (h *recordingHook) NotificationResolved(_ context.Context, o Outcome) error {
	h.resolved = append(h.resolved, o)
	return nil
}

type fixture struct {
	store  *memory.Store
	center *Center
	hook   *recordingHook
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	st := memory.New(logger)
	hook := &recordingHook{}
	return fixture{
		store:  st,
		center: NewCenter(st, skills.NewService(st, logger), logger, hook),
		hook:   hook,
	}
}

// seedEntry stores a profile holding one sector entry and raises the matching
// notification.
func (f fixture) seedEntry(t *testing.T, sector string) (models.Profile, models.NameEntity, models.Notification) {
	t.Helper()
	ctx := context.Background()
	ne, _, err := f.store.NameEntities().Create(ctx, models.NameEntity{Name: sector, Category: models.CategorySector})
	require.NoError(t, err)
	p, err := f.store.Profiles().Create(ctx)
	require.NoError(t, err)
	p.Sectors = []models.ProfileEntry{{NameEntity: &ne}}
	p, err = f.store.Profiles().Save(ctx, p)
	require.NoError(t, err)
	n, err := f.center.Raise(ctx, models.NewProfileEntryNotification(p.ID, p.Sectors[0].ID, ne))
	require.NoError(t, err)
	return p, ne, n
}

func (f fixture) nameEntity(t *testing.T, name string, category models.Category) models.NameEntity {
	t.Helper()
	ne, _, err := f.store.NameEntities().Create(context.Background(), models.NameEntity{Name: name, Category: category})
	require.NoError(t, err)
	return ne
}

func (f fixture) seedSkill(t *testing.T, skills ...models.Skill) (models.Profile, models.Notification) {
	t.Helper()
	ctx := context.Background()
	p, err := f.store.Profiles().Create(ctx)
	require.NoError(t, err)
	p.Skills = skills
	p.Projects = []models.Project{{Name: "Billing", Roles: []models.NameEntity{}, Skills: skills[:1]}}
	p, err = f.store.Profiles().Save(ctx, p)
	require.NoError(t, err)
	n, err := f.center.Raise(ctx, models.NewSkillNotification(p.ID, p.Skills[0], models.ReasonSkillUnknown))
	require.NoError(t, err)
	return p, n
}

func (f fixture) profile(t *testing.T, id int64) models.Profile {
	t.Helper()
	p, err := f.store.Profiles().FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return *p
}

func TestRaise_NotifiesHooks(t *testing.T) {
	f := newFixture(t)
	_, _, n := f.seedEntry(t, "Banking")

	assert.NotZero(t, n.Header().ID)
	require.Len(t, f.hook.raised, 1)
	assert.Equal(t, n.Header().ID, f.hook.raised[0][0].Header().ID)
}

func TestExecuteOk_Acknowledges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, ne, n := f.seedEntry(t, "Banking")

	require.NoError(t, f.center.ExecuteOk(ctx, n.Header().ID))

	alive, err := f.center.ListAlive(ctx)
	require.NoError(t, err)
	assert.Empty(t, alive)
	assert.Equal(t, ne.ID, f.profile(t, p.ID).Sectors[0].NameEntity.ID)

	require.Len(t, f.hook.resolved, 1)
	assert.Equal(t, ActionOk, f.hook.resolved[0].Action)
}

func TestExecuteDelete_ProfileEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, ne, n := f.seedEntry(t, "Tobacco")

	require.NoError(t, f.center.ExecuteDelete(ctx, n.Header().ID))

	assert.Empty(t, f.profile(t, p.ID).Sectors)
	got, err := f.store.NameEntities().FindByID(ctx, ne.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	alive, err := f.center.ListAlive(ctx)
	require.NoError(t, err)
	assert.Empty(t, alive)

	require.Len(t, f.hook.resolved, 1)
	assert.Len(t, f.hook.resolved[0].Profiles, 1)
}

func TestExecuteEdit_ProfileEntry(t *testing.T) {
	t.Run("renames in place", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		p, ne, n := f.seedEntry(t, "Bankin")

		err := f.center.ExecuteEdit(ctx, models.NotificationRecord{ID: n.Header().ID, NameEntity: &models.NameEntity{Name: " Banking "}})
		require.NoError(t, err)

		entry := f.profile(t, p.ID).Sectors[0]
		assert.Equal(t, ne.ID, entry.NameEntity.ID)
		assert.Equal(t, "Banking", entry.NameEntity.Name)
	})

	t.Run("merges onto an existing value", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		_, banking, _ := f.seedEntry(t, "Banking")
		p, typo, n := f.seedEntry(t, "Bankng")

		err := f.center.ExecuteEdit(ctx, models.NotificationRecord{ID: n.Header().ID, NameEntity: &models.NameEntity{Name: "Banking"}})
		require.NoError(t, err)

		assert.Equal(t, banking.ID, f.profile(t, p.ID).Sectors[0].NameEntity.ID)
		gone, err := f.store.NameEntities().FindByID(ctx, typo.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)

		require.Len(t, f.hook.resolved, 1)
		assert.Len(t, f.hook.resolved[0].Profiles, 2)
	})

	t.Run("keeps one entry when the profile already holds the target", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		banking := f.nameEntity(t, "Banking", models.CategorySector)
		typo := f.nameEntity(t, "Bankng", models.CategorySector)
		p, err := f.store.Profiles().Create(ctx)
		require.NoError(t, err)
		p.Sectors = []models.ProfileEntry{{NameEntity: &banking}, {NameEntity: &typo}}
		p, err = f.store.Profiles().Save(ctx, p)
		require.NoError(t, err)
		n, err := f.center.Raise(ctx, models.NewProfileEntryNotification(p.ID, p.Sectors[1].ID, typo))
		require.NoError(t, err)

		err = f.center.ExecuteEdit(ctx, models.NotificationRecord{ID: n.Header().ID, NameEntity: &models.NameEntity{Name: "Banking"}})
		require.NoError(t, err)

		sectors := f.profile(t, p.ID).Sectors
		require.Len(t, sectors, 1)
		assert.Equal(t, banking.ID, sectors[0].NameEntity.ID)
		assert.Equal(t, p.Sectors[0].ID, sectors[0].ID)
	})

	t.Run("education keeps entries with different degrees", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		tum := f.nameEntity(t, "TU Munich", models.CategoryEducation)
		typo := f.nameEntity(t, "TU Munch", models.CategoryEducation)
		p, err := f.store.Profiles().Create(ctx)
		require.NoError(t, err)
		p.Education = []models.ProfileEntry{
			{NameEntity: &tum, Degree: "BSc"},
			{NameEntity: &typo, Degree: "BSc"},
			{NameEntity: &typo, Degree: "MSc"},
		}
		p, err = f.store.Profiles().Save(ctx, p)
		require.NoError(t, err)
		n, err := f.center.Raise(ctx, models.NewProfileEntryNotification(p.ID, p.Education[1].ID, typo))
		require.NoError(t, err)

		err = f.center.ExecuteEdit(ctx, models.NotificationRecord{ID: n.Header().ID, NameEntity: &models.NameEntity{Name: "TU Munich"}})
		require.NoError(t, err)

		education := f.profile(t, p.ID).Education
		require.Len(t, education, 2)
		degrees := []string{}
		for _, e := range education {
			assert.Equal(t, tum.ID, e.NameEntity.ID)
			degrees = append(degrees, e.Degree)
		}
		assert.ElementsMatch(t, []string{"BSc", "MSc"}, degrees)
	})

	t.Run("requires a name", func(t *testing.T) {
		f := newFixture(t)
		_, _, n := f.seedEntry(t, "Banking")

		err := f.center.ExecuteEdit(context.Background(), models.NotificationRecord{ID: n.Header().ID})
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, sageerrors.StatusCode(err))
	})
}

func TestExecuteDelete_Skill(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, n := f.seedSkill(t, models.Skill{Name: "Flash", Rating: 1}, models.Skill{Name: "Go", Rating: 4})
	second, _ := f.seedSkill(t, models.Skill{Name: "Flash", Rating: 2}, models.Skill{Name: "Rust", Rating: 3})

	require.NoError(t, f.center.ExecuteDelete(ctx, n.Header().ID))

	for _, id := range []int64{first.ID, second.ID} {
		p := f.profile(t, id)
		require.Len(t, p.Skills, 1)
		assert.NotEqual(t, "Flash", p.Skills[0].Name)
		assert.Empty(t, p.Projects[0].Skills)
	}

	alive, err := f.center.ListAlive(ctx)
	require.NoError(t, err)
	assert.Empty(t, alive, "every notification about the skill is dropped")
}

func TestExecuteEdit_SkillRenames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, n := f.seedSkill(t, models.Skill{Name: "Footbal", Rating: 2}, models.Skill{Name: "Football", Rating: 5})

	require.NoError(t, f.center.ExecuteEdit(ctx, models.NotificationRecord{ID: n.Header().ID, NewName: "Football"}))

	got := f.profile(t, p.ID)
	require.Len(t, got.Skills, 1)
	assert.Equal(t, "Football", got.Skills[0].Name)
	assert.Equal(t, 5, got.Skills[0].Rating)

	alive, err := f.center.ListAlive(ctx)
	require.NoError(t, err)
	assert.Empty(t, alive)
}

func TestExecute_UnsupportedAndMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _, _ := f.seedEntry(t, "Banking")
	updated, err := f.center.Raise(ctx, models.NewProfileUpdatedNotification(p.ID))
	require.NoError(t, err)

	tests := []struct {
		name   string
		run    func() error
		status int
	}{
		{name: "delete profile updated", run: func() error { return f.center.ExecuteDelete(ctx, updated.Header().ID) }, status: http.StatusBadRequest},
		{name: "edit profile updated", run: func() error {
			return f.center.ExecuteEdit(ctx, models.NotificationRecord{ID: updated.Header().ID})
		}, status: http.StatusBadRequest},
		{name: "unknown id", run: func() error { return f.center.ExecuteOk(ctx, 4040) }, status: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)
			assert.Equal(t, tt.status, sageerrors.StatusCode(err))
		})
	}

	alive, err := f.center.ListAlive(ctx)
	require.NoError(t, err)
	assert.Len(t, alive, 2)
	assert.Empty(t, f.hook.resolved)
}

func TestExecute_ProjectNotificationIsInert(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, ne, _ := f.seedEntry(t, "Banking")
	n, err := f.center.Raise(ctx, models.NewProjectNotification(p.ID, 1, &ne))
	require.NoError(t, err)

	require.NoError(t, f.center.ExecuteDelete(ctx, n.Header().ID))
	require.NoError(t, f.center.ExecuteEdit(ctx, models.NotificationRecord{ID: n.Header().ID}))

	got, err := f.store.Notifications().FindByID(ctx, n.Header().ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	require.NoError(t, f.center.ExecuteOk(ctx, n.Header().ID))
	got, err = f.store.Notifications().FindByID(ctx, n.Header().ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTrashRestorePurge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _, a := f.seedEntry(t, "Banking")
	_, _, b := f.seedEntry(t, "Retail")

	require.NoError(t, f.center.Trash(ctx, a.Header().ID, b.Header().ID, 999))
	trashed, err := f.center.ListTrashed(ctx)
	require.NoError(t, err)
	assert.Len(t, trashed, 2)

	require.NoError(t, f.center.Restore(ctx, a.Header().ID))
	alive, err := f.center.ListAlive(ctx)
	require.NoError(t, err)
	require.Len(t, alive, 1)
	assert.Equal(t, a.Header().ID, alive[0].Header().ID)

	err = f.center.Restore(ctx, 999)
	assert.Equal(t, http.StatusNotFound, sageerrors.StatusCode(err))

	purged, err := f.center.PurgeTrashed(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	trashed, err = f.center.ListTrashed(ctx)
	require.NoError(t, err)
	assert.Empty(t, trashed)
}
