package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/OpenDocFlow/docflow/internal/directory"
	"github.com/OpenDocFlow/docflow/internal/notify"
	"github.com/OpenDocFlow/docflow/internal/workflow/model"
)

// AutoMigrate creates or updates the schema for every persisted model.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&directory.Company{},
		&directory.Department{},
		&directory.User{},
		&model.Workflow{},
		&model.RoutingHistoryEntry{},
		&model.Action{},
		&model.Goal{},
		&model.ApprovalRequest{},
		&notify.Notification{},
		&notify.Activity{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
