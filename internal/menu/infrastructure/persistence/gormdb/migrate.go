package gormdb

import (
	"context"
	"fmt"

	"github.com/wyfcoding/littlelemon/internal/menu/domain"
	"github.com/wyfcoding/littlelemon/pkg/logger"
	"gorm.io/gorm"
)

// SchemaVersion identifies the menu_items layout. Bump it whenever MenuEntry changes shape.
const SchemaVersion = "2"

// Migrate prepares the schema. The menu table only caches re-fetchable data, so a
// version mismatch drops it and starts empty. It reports whether the table was recreated.
func Migrate(ctx context.Context, db *gorm.DB) (bool, error) {
	db = db.WithContext(ctx)
	if err := db.AutoMigrate(&SyncConfig{}); err != nil {
		return false, fmt.Errorf("migrate sync_configs: %w", err)
	}

	stored, found, err := getConfig(ctx, db, KeySchemaVersion)
	if err != nil {
		return false, err
	}

	recreated := false
	if found && stored != SchemaVersion {
		logger.Warn(ctx, "menu schema version changed, dropping cached menu",
			"stored", stored, "current", SchemaVersion)
		if err := db.Migrator().DropTable(&domain.MenuEntry{}); err != nil {
			return false, fmt.Errorf("drop menu_items: %w", err)
		}
		recreated = true
	}

	if err := db.AutoMigrate(&domain.MenuEntry{}); err != nil {
		return recreated, fmt.Errorf("migrate menu_items: %w", err)
	}
	if err := putConfigs(ctx, db, map[string]string{KeySchemaVersion: SchemaVersion}); err != nil {
		return recreated, fmt.Errorf("record schema version: %w", err)
	}
	return recreated, nil
}
