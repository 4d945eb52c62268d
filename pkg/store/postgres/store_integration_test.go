package postgres_test

import (
	"context"
	"errors"
	"os"
	"strconv"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/Ramsey-B/sage/pkg/database"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/store/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getTestStore connects to the database named by DB_HOST and friends, and
// skips when no database is configured.
func getTestStore(t *testing.T) *postgres.Store {
	t.Helper()
	host := os.Getenv("DB_HOST")
	if host == "" {
		t.Skip("DB_HOST not set, skipping postgres integration tests")
	}
	port, err := strconv.Atoi(envOr("DB_PORT", "5432"))
	require.NoError(t, err)

	logger := getTestLogger()
	cfg := database.Config{
		Host:     host,
		Port:     port,
		User:     envOr("DB_USER_NAME", "user"),
		Password: envOr("DB_PASSWORD", "password"),
		Name:     envOr("DB_NAME", "sage"),
	}
	db, err := database.Open(context.Background(), cfg, logger)
	require.NoError(t, err, "Failed to connect to test database")
	t.Cleanup(func() { _ = db.Close() })

	migrations := database.NewMigrationService(logger, database.MigrationConfig{MigrationFolderPath: "../../../db/pg"})
	require.NoError(t, migrations.Migrate(db, cfg.Name))

	return postgres.New(db, logger)
}

func TestStore_ProfileGraph(t *testing.T) {
	st := getTestStore(t)
	ctx := context.Background()

	p, err := st.Profiles().Create(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Profiles().Delete(context.Background(), p.ID) })

	german, _, err := st.NameEntities().Create(ctx, models.NameEntity{Name: "German-" + strconv.FormatInt(p.ID, 10), Category: models.CategoryLanguage})
	require.NoError(t, err)
	again, inserted, err := st.NameEntities().Create(ctx, models.NameEntity{Name: german.Name, Category: models.CategoryLanguage})
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, german.ID, again.ID)

	p.Description = "integration"
	p.Languages = []models.ProfileEntry{{NameEntity: &german, Level: models.LanguageLevelNative}}
	p.Skills = []models.Skill{{Name: "Go", Rating: 4}}
	p.Projects = []models.Project{{Name: "Billing", Roles: []models.NameEntity{}, Skills: []models.Skill{{Name: "go"}}}}

	saved, err := st.Profiles().Save(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "integration", saved.Description)
	require.Len(t, saved.Languages, 1)
	assert.Equal(t, german.ID, saved.Languages[0].NameEntity.ID)
	require.Len(t, saved.Skills, 1)
	require.Len(t, saved.Projects, 1)
	require.Len(t, saved.Projects[0].Skills, 1)
	assert.Equal(t, saved.Skills[0].ID, saved.Projects[0].Skills[0].ID)

	n, err := st.Notifications().Create(ctx, models.NewProfileEntryNotification(p.ID, saved.Languages[0].ID, german))
	require.NoError(t, err)
	got, err := st.Notifications().FindByID(ctx, n.Header().ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.KindProfileEntry, got.Kind())
}

func TestStore_WithinTxRollsBack(t *testing.T) {
	st := getTestStore(t)
	ctx := context.Background()

	p, err := st.Profiles().Create(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Profiles().Delete(context.Background(), p.ID) })

	boom := errors.New("boom")
	err = st.WithinTx(ctx, func(ctx context.Context) error {
		p.Description = "never committed"
		if _, err := st.Profiles().Save(ctx, p); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := st.Profiles().FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Description)
}
