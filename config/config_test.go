package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "sage-api", cfg.AppName)
	assert.Equal(t, 3004, cfg.Port)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 3, cfg.MaxRolesPerProject)
	assert.Equal(t, 4000, cfg.ProfileDescriptionLength)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 30*time.Second, cfg.ImportLockTTL)
	assert.Equal(t, 24*time.Hour, cfg.ClassifierCacheTTL)
	assert.False(t, cfg.KafkaConsumerEnabled)
	assert.Equal(t, "db/pg", cfg.Migration().MigrationFolderPath)
	assert.Equal(t, 100*time.Millisecond, cfg.Producer().BatchTimeout)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("MAX_ROLES_PER_PROJECT", "5")
	t.Setenv("PROFILE_DESCRIPTION_LENGTH", "120")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("CLASSIFIER_TIMEOUT", "750ms")
	t.Setenv("PRETTY_LOGS", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 750*time.Millisecond, cfg.Classifier().Timeout)
	assert.True(t, cfg.PrettyLogs)

	settings := cfg.Reconcile()
	assert.Equal(t, 5, settings.MaxRolesPerProject)
	assert.Equal(t, 120, settings.ProfileDescriptionLength)
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SAGE_TEST_DB_NAME=from-file\nDB_NAME=from-file\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("DB_NAME")
		os.Unsetenv("SAGE_TEST_DB_NAME")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Database().Name)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{name: "driver", key: "STORE_DRIVER", val: "mongo", want: "unsupported STORE_DRIVER"},
		{name: "roles", key: "MAX_ROLES_PER_PROJECT", val: "0", want: "MAX_ROLES_PER_PROJECT"},
		{name: "description", key: "PROFILE_DESCRIPTION_LENGTH", val: "-1", want: "PROFILE_DESCRIPTION_LENGTH"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
