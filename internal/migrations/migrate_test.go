package migrations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindLatestMigrationVersion(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000001_create_sessions.up.sql",
		"000001_create_sessions.down.sql",
		"000012_add_index.up.sql",
		"README.md",
		"7_legacy.up.sql",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "000099_dir"), 0o755))

	assert.Equal(t, int64(12), findLatestMigrationVersion(dir))
}

func TestFindLatestMigrationVersionMissingDir(t *testing.T) {
	assert.Equal(t, int64(0), findLatestMigrationVersion(filepath.Join(t.TempDir(), "nope")))
}

func TestRepositoryMigrationsAreNumbered(t *testing.T) {
	assert.GreaterOrEqual(t, findLatestMigrationVersion("../../migrations"), int64(1))
}

func TestRunMigrationsRequiresURL(t *testing.T) {
	assert.Error(t, RunMigrations("", "migrations", zerolog.Nop()))
}
