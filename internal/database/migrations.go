package database

import (
	"gorm.io/gorm"

	"github.com/charlesng35/storedesk/internal/models"
)

// AutoMigrate creates or updates the cache table plus any extra models supplied by the caller.
func AutoMigrate(db *gorm.DB, extra ...any) error {
	schema := append([]any{&models.CacheEntry{}}, extra...)
	return db.AutoMigrate(schema...)
}
