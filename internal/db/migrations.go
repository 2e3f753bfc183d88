package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/nurpe/greenpact-settlement/internal/model"
)

// migrationStatements run after the tables exist. They must stay portable
// between postgres and sqlite.
var migrationStatements = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_verification_success
		ON verification_events (contract_id) WHERE succeeded;`,
	`CREATE INDEX IF NOT EXISTS idx_payment_entries_occurred_on ON payment_entries (occurred_on);`,
	`CREATE INDEX IF NOT EXISTS idx_progress_entries_status ON progress_entries (status);`,
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Contract{},
		&model.PaymentEntry{},
		&model.ProgressEntry{},
		&model.VerificationEvent{},
	); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
