package database

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const defaultBusyTimeout = 5 * time.Second

func openSQLite(cfg Config) (*gorm.DB, error) {
	dsn, err := sqliteDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Discard,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	var foreignKeys int
	if err := db.Raw("PRAGMA foreign_keys").Scan(&foreignKeys).Error; err != nil {
		return nil, fmt.Errorf("sqlite pragma: %w", err)
	}
	if foreignKeys != 1 {
		return nil, fmt.Errorf("sqlite: foreign keys are not enforced")
	}
	return db, nil
}

// sqliteDSN builds the connection string. An empty path or ":memory:" yields a uniquely named
// shared-cache memory database so pooled connections agree while separate Opens stay
// isolated. File databases run in WAL mode so the sandbox can read while it writes.
func sqliteDSN(cfg Config) (string, error) {
	if dsn := strings.TrimSpace(cfg.DSN); dsn != "" {
		return dsn, nil
	}

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = defaultBusyTimeout
	}
	params := url.Values{}
	params.Set("_foreign_keys", "1")
	params.Set("_busy_timeout", strconv.FormatInt(busy.Milliseconds(), 10))

	path := strings.TrimSpace(cfg.Path)
	if path == "" || strings.EqualFold(path, ":memory:") {
		params.Set("mode", "memory")
		params.Set("cache", "shared")
		return "file:mem-" + uuid.NewString() + "?" + params.Encode(), nil
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create database directory: %w", err)
		}
	}
	params.Set("_journal_mode", "WAL")
	return "file:" + filepath.ToSlash(path) + "?" + params.Encode(), nil
}
