package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestVersion(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000001_create_matching_configurations.up.sql",
		"000001_create_matching_configurations.down.sql",
		"000003_add_index.up.sql",
		"000002_add_column.up.sql",
		"README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o600))
	}

	v, err := latestVersion(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	_, err = latestVersion(t.TempDir())
	assert.Error(t, err)
}

func TestMigrationFolder(t *testing.T) {
	ms := NewMigrationService(nil, &MigrationConfig{MigrationFolderPath: "does/not/exist"})
	_, err := ms.migrationFolder()
	assert.Error(t, err)

	dir := t.TempDir()
	ms = NewMigrationService(nil, &MigrationConfig{MigrationFolderPath: dir})
	got, err := ms.migrationFolder()
	require.NoError(t, err)
	assert.Equal(t, dir, got)
}

func TestJSONB(t *testing.T) {
	var j JSONB[[]string]
	require.NoError(t, j.Scan([]byte(`["a","b"]`)))
	assert.Equal(t, []string{"a", "b"}, j.Data)

	require.NoError(t, j.Scan(`["c"]`))
	assert.Equal(t, []string{"c"}, j.Data)

	require.NoError(t, j.Scan(nil))
	assert.Nil(t, j.Data)

	assert.Error(t, j.Scan(42))

	v, err := JSONB[map[string]int]{Data: map[string]int{"x": 1}}.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"x":1}`), v)
}
