package db

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN("/tmp/test.sqlite")

	assert.True(t, strings.HasPrefix(dsn, "/tmp/test.sqlite?"))
	assert.Contains(t, dsn, "_journal_mode=WAL")
	assert.Contains(t, dsn, "_busy_timeout=5000")
	assert.Contains(t, dsn, "_synchronous=NORMAL")
	assert.Contains(t, dsn, "_foreign_keys=on")
	assert.Contains(t, dsn, "_txlock=immediate")
}

func TestOpenMetastore(t *testing.T) {
	db, err := OpenMetastore(filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// Verify WAL mode
	var journalMode string
	err = db.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	require.NoError(t, err)
	assert.Equal(t, "wal", strings.ToLower(journalMode))

	// Verify busy_timeout
	var busyTimeout int
	err = db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout)
	require.NoError(t, err)
	assert.Equal(t, 5000, busyTimeout)

	// Verify foreign keys
	var fk int
	err = db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	require.NoError(t, err)
	assert.Equal(t, 1, fk)

	// Single-writer pool
	assert.Equal(t, 1, db.Stats().MaxOpenConnections)
}

func TestOpenMetastore_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "meta.db")

	db, err := OpenMetastore(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenMetastore_ParentIsFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := OpenMetastore(filepath.Join(blocker, "meta.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create metastore directory")
}

// TestOpenMetastore_SerializesWriters verifies that the single-connection
// pool serializes concurrent writers without SQLITE_BUSY errors.
func TestOpenMetastore_SerializesWriters(t *testing.T) {
	db, err := OpenMetastore(filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec("CREATE TABLE counter (id INTEGER PRIMARY KEY, n INTEGER)")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO counter (id, n) VALUES (1, 0)")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = db.Exec("UPDATE counter SET n = n + 1 WHERE id = 1")
		}(i)
	}
	wg.Wait()

	for i, e := range errs {
		assert.NoError(t, e, "writer %d failed", i)
	}

	var n int
	require.NoError(t, db.QueryRow("SELECT n FROM counter WHERE id = 1").Scan(&n))
	assert.Equal(t, 20, n)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db, err := OpenMetastore(filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, RunMigrations(db))
	require.NoError(t, RunMigrations(db))

	var name string
	err = db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'etl_runs'",
	).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "etl_runs", name)
}
