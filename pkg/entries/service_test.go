package entries

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sage/pkg/classifier"
	sageerrors "github.com/Ramsey-B/sage/pkg/errors"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/notifications"
	"github.com/Ramsey-B/sage/pkg/reconcile"
	"github.com/Ramsey-B/sage/pkg/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClassifier struct{}

func (fakeClassifier) Classify(_ context.Context, name string) classifier.Classification {
	c := classifier.Fallback()
	c.Blacklisted = name == "Flash"
	return c
}

type recordingHook struct {
	results []reconcile.Result
}

func (h *recordingHook) AfterImport(_ context.Context, r reconcile.Result) error {
	h.results = append(h.results, r)
	return nil
}

type fixture struct {
	store     *memory.Store
	svc       *Service
	hook      *recordingHook
	profileID int64
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	st := memory.New(logger)
	hook := &recordingHook{}
	center := notifications.NewCenter(st, nil, logger)
	p, err := st.Profiles().Create(context.Background())
	require.NoError(t, err)
	return fixture{
		store:     st,
		svc:       NewService(st, fakeClassifier{}, center, reconcile.DefaultSettings(), logger, hook),
		hook:      hook,
		profileID: p.ID,
	}
}

func (f fixture) profile(t *testing.T) models.Profile {
	t.Helper()
	p, err := f.store.Profiles().FindByID(context.Background(), f.profileID)
	require.NoError(t, err)
	return *p
}

func (f fixture) alive(t *testing.T) []models.Notification {
	t.Helper()
	ns, err := f.store.Notifications().ListByStatus(context.Background(), models.StatusAlive)
	require.NoError(t, err)
	return ns
}

func TestUpdateBaseProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.UpdateBaseProfile(ctx, f.profileID, models.BaseProfile{Description: "Cloud architect"})
	require.NoError(t, err)
	assert.Equal(t, "Cloud architect", out.Description)
	assert.Equal(t, "Cloud architect", f.profile(t).Description)
	assert.Len(t, f.hook.results, 1)

	_, err = f.svc.UpdateBaseProfile(ctx, f.profileID, models.BaseProfile{Description: strings.Repeat("x", 4001)})
	assert.True(t, sageerrors.IsValidationError(err))

	_, err = f.svc.UpdateBaseProfile(ctx, 999, models.BaseProfile{})
	assert.Equal(t, http.StatusNotFound, sageerrors.StatusCode(err))
}

func TestUpdateEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.UpdateEntry(ctx, f.profileID, models.CategoryLanguage, models.ProfileEntry{
		NameEntity: &models.NameEntity{Name: " German "},
		Level:      models.LanguageLevelBusiness,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "German", created.NameEntity.Name)
	require.Len(t, f.alive(t), 1)

	created.Level = models.LanguageLevelNative
	updated, err := f.svc.UpdateEntry(ctx, f.profileID, models.CategoryLanguage, created)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, models.LanguageLevelNative, f.profile(t).Languages[0].Level)
	assert.Len(t, f.alive(t), 1, "existing value raises nothing")

	tests := []struct {
		name     string
		category models.Category
		entry    models.ProfileEntry
		status   int
	}{
		{name: "not an entry category", category: models.CategoryCompany, entry: models.ProfileEntry{NameEntity: &models.NameEntity{Name: "ACME"}}, status: http.StatusBadRequest},
		{name: "missing name", category: models.CategorySector, entry: models.ProfileEntry{NameEntity: &models.NameEntity{Name: " "}}, status: http.StatusBadRequest},
		{name: "duplicate value", category: models.CategoryLanguage, entry: models.ProfileEntry{NameEntity: &models.NameEntity{Name: "German"}}, status: http.StatusBadRequest},
		{name: "bad date range", category: models.CategoryCareer, entry: models.ProfileEntry{
			NameEntity: &models.NameEntity{Name: "Dev"},
			StartDate:  models.NewDate(2020, 1, 1),
			EndDate:    models.NewDate(2019, 1, 1),
		}, status: http.StatusBadRequest},
		{name: "unknown entry id", category: models.CategorySector, entry: models.ProfileEntry{ID: 999, NameEntity: &models.NameEntity{Name: "Retail"}}, status: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.UpdateEntry(ctx, f.profileID, tt.category, tt.entry)
			require.Error(t, err)
			assert.Equal(t, tt.status, sageerrors.StatusCode(err))
		})
	}
}

func TestDeleteEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e, err := f.svc.UpdateEntry(ctx, f.profileID, models.CategorySector, models.ProfileEntry{NameEntity: &models.NameEntity{Name: "Banking"}})
	require.NoError(t, err)

	err = f.svc.DeleteEntry(ctx, f.profileID, models.CategoryLanguage, e.ID)
	assert.Equal(t, http.StatusNotFound, sageerrors.StatusCode(err), "category must match")

	require.NoError(t, f.svc.DeleteEntry(ctx, f.profileID, models.CategorySector, e.ID))
	assert.Empty(t, f.profile(t).Sectors)
}

func TestUpdateSkill(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	added, err := f.svc.UpdateSkill(ctx, f.profileID, models.Skill{Name: "Go", Rating: 3})
	require.NoError(t, err)
	require.Len(t, f.alive(t), 1)

	rated, err := f.svc.UpdateSkill(ctx, f.profileID, models.Skill{Name: "go", Rating: 1})
	require.NoError(t, err)
	assert.Equal(t, added.ID, rated.ID)
	assert.Equal(t, "Go", rated.Name)
	assert.Equal(t, 1, rated.Rating)
	assert.Len(t, f.alive(t), 1)

	_, err = f.svc.UpdateSkill(ctx, f.profileID, models.Skill{Name: "Flash"})
	require.NoError(t, err)
	ns := f.alive(t)
	require.Len(t, ns, 2)
	assert.Equal(t, models.ReasonSkillBlacklisted, ns[1].Header().Reason)

	_, err = f.svc.UpdateSkill(ctx, f.profileID, models.Skill{Name: ""})
	assert.Equal(t, http.StatusBadRequest, sageerrors.StatusCode(err))

	require.NoError(t, f.svc.DeleteSkill(ctx, f.profileID, added.ID))
	assert.Len(t, f.profile(t).Skills, 1)
	assert.Equal(t, http.StatusNotFound, sageerrors.StatusCode(f.svc.DeleteSkill(ctx, f.profileID, added.ID)))
}

func TestUpdateProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.UpdateSkill(ctx, f.profileID, models.Skill{Name: "Go", Rating: 2})
	require.NoError(t, err)

	pr, err := f.svc.UpdateProject(ctx, f.profileID, models.Project{
		Name:   "Billing",
		Client: &models.NameEntity{Name: "ACME"},
		Roles:  []models.NameEntity{{Name: "Dev"}, {Name: "Dev"}, {Name: ""}},
		Skills: []models.Skill{{Name: "GO", Rating: 4}, {Name: "Kafka", Rating: 3}},
	})
	require.NoError(t, err)
	assert.Len(t, pr.Roles, 1)
	assert.Equal(t, models.CategoryCompany, pr.Client.Category)
	require.Len(t, pr.Skills, 2)

	p := f.profile(t)
	require.Len(t, p.Skills, 2)
	assert.Equal(t, 4, p.Skills[0].Rating, "max rating wins")
	assert.Equal(t, "Kafka", p.Skills[1].Name, "project skills join the profile")

	_, err = f.svc.UpdateProject(ctx, f.profileID, models.Project{
		Name:  "Crowded",
		Roles: []models.NameEntity{{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "D"}},
	})
	assert.True(t, sageerrors.IsValidationError(err))

	_, err = f.svc.UpdateProject(ctx, f.profileID, models.Project{ID: 999, Name: "Ghost"})
	assert.Equal(t, http.StatusNotFound, sageerrors.StatusCode(err))

	require.NoError(t, f.svc.DeleteProject(ctx, f.profileID, pr.ID))
	assert.Empty(t, f.profile(t).Projects)
	assert.Equal(t, http.StatusNotFound, sageerrors.StatusCode(f.svc.DeleteProject(ctx, f.profileID, pr.ID)))
}
