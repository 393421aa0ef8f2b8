package database

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/storedesk/internal/models"
)

func TestOpenSQLiteMemory(t *testing.T) {
	db, err := Open(Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, db.Exec("SELECT 1").Error)
}

func TestMemoryDatabasesAreIsolated(t *testing.T) {
	first, err := Open(Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(first) })
	second, err := Open(Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(second) })

	require.NoError(t, AutoMigrate(first))
	require.True(t, first.Migrator().HasTable(&models.CacheEntry{}))
	require.False(t, second.Migrator().HasTable(&models.CacheEntry{}))
}

func TestOpenSQLiteFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "storedesk.db")
	db, err := Open(Config{Driver: "SQLite", Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.FileExists(t, path)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
}

type widgetRow struct {
	ID   string `gorm:"primaryKey"`
	Name string
}

func TestMigrateAndSeedRunsSeed(t *testing.T) {
	db, err := Open(Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	err = MigrateAndSeed(db, func(tx *gorm.DB) error {
		return tx.Create(&widgetRow{ID: "w1", Name: "first"}).Error
	}, &widgetRow{})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&widgetRow{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
	require.True(t, db.Migrator().HasTable(&models.CacheEntry{}))
}

func TestMigrateAndSeedNilDB(t *testing.T) {
	require.Error(t, MigrateAndSeed(nil, nil))
}

func TestSQLiteDSN(t *testing.T) {
	dsn, err := sqliteDSN(Config{DSN: " file:custom.db "})
	require.NoError(t, err)
	require.Equal(t, "file:custom.db", dsn)

	dsn, err = sqliteDSN(Config{BusyTimeout: 250 * time.Millisecond})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(dsn, "file:mem-"))
	require.Contains(t, dsn, "_busy_timeout=250")
	require.Contains(t, dsn, "mode=memory")
	require.NotContains(t, dsn, "_journal_mode")

	path := filepath.Join(t.TempDir(), "device.sqlite")
	dsn, err = sqliteDSN(Config{Path: path})
	require.NoError(t, err)
	require.Contains(t, dsn, "_busy_timeout=5000")
	require.Contains(t, dsn, "_journal_mode=WAL")
}
