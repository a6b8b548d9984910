package db

import (
	"fmt"

	types "github.com/yungbote/quizpages/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// =========================
		// Classification (read-only to reconciliation)
		// =========================
		&types.Category{},
		&types.Scope{},
		&types.Item{},
		&types.ItemCategory{},
		&types.ItemScope{},
		&types.QuizConfig{},

		// =========================
		// Generated pages
		// =========================
		&types.ManagedDocument{},
		&types.PageSetting{},
	)
}

// EnsurePageIndexes adds the indexes AutoMigrate cannot express. Both Postgres and
// SQLite support partial indexes, so the statements are shared.
func EnsurePageIndexes(db *gorm.DB) error {
	// Active siblings must not share a slug; soft-deleted rows keep theirs as history.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_managed_document_parent_slug_active
		ON managed_document (parent_id, slug)
		WHERE deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_managed_document_parent_slug_active: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_managed_document_role_active
		ON managed_document (role, id)
		WHERE deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_managed_document_role_active: %w", err)
	}
	return nil
}
