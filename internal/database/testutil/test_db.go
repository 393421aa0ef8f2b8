package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/storedesk/internal/database"
)

// TestDBOption customises the behaviour of MustOpenTestDB.
type TestDBOption func(*testDBConfig)

type testDBConfig struct {
	autoMigrate bool
	models      []any
	seed        func(*gorm.DB) error
}

// WithAutoMigrate migrates the cache table and the supplied models after opening.
func WithAutoMigrate(models ...any) TestDBOption {
	return func(cfg *testDBConfig) {
		cfg.autoMigrate = true
		cfg.models = append(cfg.models, models...)
	}
}

// WithSeed runs seed after migrating.
func WithSeed(seed func(*gorm.DB) error) TestDBOption {
	return func(cfg *testDBConfig) {
		cfg.autoMigrate = true
		cfg.seed = seed
	}
}

// MustOpenTestDB opens a private in-memory SQLite database for tests. The connection is closed
// via t.Cleanup.
func MustOpenTestDB(t *testing.T, opts ...TestDBOption) *gorm.DB {
	t.Helper()

	cfg := testDBConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := database.Open(database.Config{Driver: "sqlite"})
	require.NoError(t, err)

	if cfg.autoMigrate {
		require.NoError(t, database.MigrateAndSeed(db, cfg.seed, cfg.models...))
	}

	t.Cleanup(func() {
		_ = database.Close(db)
	})

	return db
}
