package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSQLiteAppliesMigrations(t *testing.T) {
	sqlDB, err := NewSQLite(filepath.Join(t.TempDir(), "nested", "cras.db"))
	require.NoError(t, err)
	defer sqlDB.Close()

	var count int
	err = sqlDB.QueryRowContext(context.Background(), `SELECT COUNT(1) FROM record_blobs`).Scan(&count)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestMigrationFilesSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_b.sql", "0001_a.sql", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "0003_dir.sql"), 0o750))

	files, err := migrationFiles(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"0001_a.sql", "0002_b.sql"}, files)
}

func TestFindMigrationsDirWalksUp(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, migrationsDirName), 0o750))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	t.Chdir(nested)

	path, err := findMigrationsDir(migrationsDirName)
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(filepath.Join(root, migrationsDirName))
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)
	require.Equal(t, want, got)
}
