package db

import (
	"io/fs"
	"path"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationVersionsSortedAndFiltered(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/010_later.sql":       {Data: []byte("SELECT 1;")},
		"migrations/001_first.sql":       {Data: []byte("SELECT 1;")},
		"migrations/README.md":           {Data: []byte("notes")},
		"migrations/archive/000_old.sql": {Data: []byte("SELECT 1;")},
	}

	versions, err := migrationVersions(fsys, "migrations")
	require.NoError(t, err)
	assert.Equal(t, []string{"001_first.sql", "010_later.sql"}, versions)
}

func TestMigrationVersionsMissingDir(t *testing.T) {
	_, err := migrationVersions(fstest.MapFS{}, "migrations")
	assert.Error(t, err)
}

func TestEmbeddedMigrationsCreateSessionSlots(t *testing.T) {
	versions, err := migrationVersions(migrationFiles, migrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, versions)

	script, err := fs.ReadFile(migrationFiles, path.Join(migrationsDir, versions[0]))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(script), "session_slots"))
}
