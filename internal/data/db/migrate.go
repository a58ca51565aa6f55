package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/collection-listing/internal/domain/resources"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&resources.Resource{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
