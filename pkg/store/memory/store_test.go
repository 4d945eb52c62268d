package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
}

func mustNameEntity(t *testing.T, s *Store, name string, category models.Category) models.NameEntity {
	t.Helper()
	ne, _, err := s.NameEntities().Create(context.Background(), models.NameEntity{Name: name, Category: category})
	require.NoError(t, err)
	return ne
}

func TestNameEntities_CreateIsUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, inserted, err := s.NameEntities().Create(ctx, models.NameEntity{Name: "Java", Category: models.CategoryKeySkill})
	require.NoError(t, err)
	assert.True(t, inserted)

	again, inserted, err := s.NameEntities().Create(ctx, models.NameEntity{Name: "Java", Category: models.CategoryKeySkill})
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, first.ID, again.ID)

	other, inserted, err := s.NameEntities().Create(ctx, models.NameEntity{Name: "Java", Category: models.CategoryTraining})
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NotEqual(t, first.ID, other.ID)

	err = s.NameEntities().Update(ctx, models.NameEntity{ID: other.ID, Name: "Java", Category: models.CategoryKeySkill})
	assert.Error(t, err)
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p, err := s.Profiles().Create(ctx)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.WithinTx(ctx, func(ctx context.Context) error {
		mustNameEntity(t, s, "Banking", models.CategorySector)
		p.Description = "changed"
		if _, err := s.Profiles().Save(ctx, p); err != nil {
			return err
		}
		// nested units join the outer one
		return s.WithinTx(ctx, func(context.Context) error { return boom })
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Profiles().FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Description)

	list, err := s.NameEntities().ListByCategory(ctx, models.CategorySector)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestProfiles_SaveGraph(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p, err := s.Profiles().Create(ctx)
	require.NoError(t, err)
	assert.NotNil(t, p.LastEdited)

	german := mustNameEntity(t, s, "German", models.CategoryLanguage)
	acme := mustNameEntity(t, s, "ACME", models.CategoryCompany)
	architect := mustNameEntity(t, s, "Architect", models.CategoryProjectRole)

	p.Languages = []models.ProfileEntry{{NameEntity: &german, Level: models.LanguageLevelNative}}
	p.Skills = []models.Skill{{Name: "Go", Rating: 4}}
	p.Projects = []models.Project{{
		Name:   "Billing",
		Client: &acme,
		Roles:  []models.NameEntity{architect, architect},
		Skills: []models.Skill{{Name: "go"}, {Name: "Kafka", Rating: 2}},
	}}

	saved, err := s.Profiles().Save(ctx, p)
	require.NoError(t, err)

	require.Len(t, saved.Languages, 1)
	assert.Equal(t, "German", saved.Languages[0].NameEntity.Name)
	require.Len(t, saved.Projects, 1)
	assert.Len(t, saved.Projects[0].Roles, 1)
	assert.Equal(t, "ACME", saved.Projects[0].Client.Name)

	// project skills link to the profile skill with the same key, unknown ones
	// are added to the profile
	require.Len(t, saved.Skills, 2)
	assert.Equal(t, saved.Skills[0].ID, saved.Projects[0].Skills[0].ID)
	assert.Equal(t, "Kafka", saved.Skills[1].Name)

	saved.Languages = nil
	saved.Projects = nil
	saved.Skills = saved.Skills[:1]
	pruned, err := s.Profiles().Save(ctx, saved)
	require.NoError(t, err)
	assert.Empty(t, pruned.Languages)
	assert.Empty(t, pruned.Projects)
	assert.Len(t, pruned.Skills, 1)
}

func TestEntries_RequireResolvedReference(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p, err := s.Profiles().Create(ctx)
	require.NoError(t, err)

	_, err = s.Entries().Save(ctx, p.ID, models.CategorySector, models.ProfileEntry{NameEntity: &models.NameEntity{Name: "Unsaved"}})
	assert.Error(t, err)

	_, err = s.Entries().Save(ctx, p.ID, models.CategoryCompany, models.ProfileEntry{})
	assert.Error(t, err)

	_, err = s.Entries().Save(ctx, 999, models.CategorySector, models.ProfileEntry{})
	assert.Error(t, err)
}

func TestNameEntities_DeleteCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p, err := s.Profiles().Create(ctx)
	require.NoError(t, err)

	banking := mustNameEntity(t, s, "Banking", models.CategorySector)
	entry, err := s.Entries().Save(ctx, p.ID, models.CategorySector, models.ProfileEntry{NameEntity: &banking})
	require.NoError(t, err)
	_, err = s.Notifications().Create(ctx, models.NewProfileEntryNotification(p.ID, entry.ID, banking))
	require.NoError(t, err)
	_, err = s.Notifications().Create(ctx, models.NewProfileUpdatedNotification(p.ID))
	require.NoError(t, err)

	require.NoError(t, s.NameEntities().Delete(ctx, banking.ID))

	ref, err := s.Entries().FindByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Nil(t, ref)

	alive, err := s.Notifications().ListByStatus(ctx, models.StatusAlive)
	require.NoError(t, err)
	require.Len(t, alive, 1)
	assert.Equal(t, models.KindProfileUpdated, alive[0].Kind())
}

func TestProfiles_DeleteCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p, err := s.Profiles().Create(ctx)
	require.NoError(t, err)

	sk, err := s.Skills().Save(ctx, p.ID, models.Skill{Name: "Rust", Rating: 3})
	require.NoError(t, err)
	_, err = s.Notifications().Create(ctx, models.NewSkillNotification(p.ID, sk, models.ReasonSkillUnknown))
	require.NoError(t, err)

	require.NoError(t, s.Profiles().Delete(ctx, p.ID))

	got, err := s.Profiles().FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	names, err := s.Skills().ListNames(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	alive, err := s.Notifications().ListByStatus(ctx, models.StatusAlive)
	require.NoError(t, err)
	assert.Empty(t, alive)
}

func TestNotifications_Lifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Notifications().Create(ctx, models.NewProfileUpdatedNotification(42))
	assert.Error(t, err, "notifications need an existing profile")

	p, err := s.Profiles().Create(ctx)
	require.NoError(t, err)

	flash, err := s.Notifications().Create(ctx, models.NewSkillNotification(p.ID, models.Skill{Name: "Flash"}, models.ReasonSkillBlacklisted))
	require.NoError(t, err)
	updated, err := s.Notifications().Create(ctx, models.NewProfileUpdatedNotification(p.ID))
	require.NoError(t, err)

	require.NoError(t, s.Notifications().UpdateStatus(ctx, updated.Header().ID, models.StatusTrashed))
	trashed, err := s.Notifications().ListByStatus(ctx, models.StatusTrashed)
	require.NoError(t, err)
	require.Len(t, trashed, 1)

	n, err := s.Notifications().DeleteBySkillName(ctx, "Flash")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := s.Notifications().FindByID(ctx, flash.Header().ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	n, err = s.Notifications().DeleteByStatus(ctx, models.StatusTrashed)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSkills_ListNamesIsDistinctAndSorted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for range 2 {
		p, err := s.Profiles().Create(ctx)
		require.NoError(t, err)
		for _, name := range []string{"Scala", "Go"} {
			_, err := s.Skills().Save(ctx, p.ID, models.Skill{Name: name})
			require.NoError(t, err)
		}
	}

	names, err := s.Skills().ListNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "Scala"}, names)

	all, err := s.Skills().FindAllByName(ctx, "Go")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
