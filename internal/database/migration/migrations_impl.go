package migration

import (
	"gorm.io/gorm"
)

// CreateModelFailuresTable creates the table behind the database diagnostics sink
func CreateModelFailuresTable(tx *gorm.DB) error {
	return tx.Exec(`
		CREATE TABLE IF NOT EXISTS model_failures (
			id UUID PRIMARY KEY,
			template_id VARCHAR(100),
			industry VARCHAR(100),
			source VARCHAR(2048),
			provider VARCHAR(50),
			model VARCHAR(100),
			response_id VARCHAR(255),
			status VARCHAR(50),
			parse_error TEXT,
			raw_output TEXT,
			metadata JSONB,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`).Error
}

// DropModelFailuresTable drops the model_failures table
func DropModelFailuresTable(tx *gorm.DB) error {
	return tx.Exec("DROP TABLE IF EXISTS model_failures CASCADE").Error
}

// AddModelFailuresIndexes adds the lookup indexes used by Recent and DeleteOlderThan
func AddModelFailuresIndexes(tx *gorm.DB) error {
	statements := []string{
		"CREATE INDEX IF NOT EXISTS idx_model_failures_created_at ON model_failures(created_at)",
		"CREATE INDEX IF NOT EXISTS idx_model_failures_template_id ON model_failures(template_id)",
	}
	for _, stmt := range statements {
		if err := tx.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// RemoveModelFailuresIndexes drops the indexes added by AddModelFailuresIndexes
func RemoveModelFailuresIndexes(tx *gorm.DB) error {
	statements := []string{
		"DROP INDEX IF EXISTS idx_model_failures_created_at",
		"DROP INDEX IF EXISTS idx_model_failures_template_id",
	}
	for _, stmt := range statements {
		if err := tx.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
