package migration

import (
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/chynybekuuludastan/sitecloner/internal/logging"
)

// Migration represents a database migration record
type Migration struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"type:varchar(255);not null;unique"`
	Batch     int       `gorm:"not null"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

// MigrationFunc defines a function that can run a migration
type MigrationFunc func(tx *gorm.DB) error

// Step is one reversible migration
type Step struct {
	Up   MigrationFunc
	Down MigrationFunc
}

// Status describes one registered migration
type Status struct {
	Name      string
	Applied   bool
	Batch     int
	AppliedAt time.Time
}

// Migrator handles database migrations. Steps run in lexical name order.
type Migrator struct {
	DB           *gorm.DB
	Migrations   map[string]Step
	CurrentBatch int
	Logger       logging.Logger
}

// NewMigrator ensures the bookkeeping table exists and loads the next batch number
func NewMigrator(db *gorm.DB, logger logging.Logger) (*Migrator, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := db.AutoMigrate(&Migration{}); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	var maxBatch int
	if err := db.Model(&Migration{}).Select("COALESCE(MAX(batch), 0)").Row().Scan(&maxBatch); err != nil {
		return nil, fmt.Errorf("failed to read migration batch: %w", err)
	}

	return &Migrator{
		DB:           db,
		Migrations:   RegisterMigrations(),
		CurrentBatch: maxBatch + 1,
		Logger:       logger,
	}, nil
}

// RegisterMigrations registers all migrations with up and down functions
func RegisterMigrations() map[string]Step {
	return map[string]Step{
		"01_create_model_failures_table": {
			Up:   CreateModelFailuresTable,
			Down: DropModelFailuresTable,
		},
		"02_add_model_failures_indexes": {
			Up:   AddModelFailuresIndexes,
			Down: RemoveModelFailuresIndexes,
		},
	}
}

// Names returns the registered migration names in execution order
func (m *Migrator) Names() []string {
	names := make([]string, 0, len(m.Migrations))
	for name := range m.Migrations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Migrator) applied(order string) ([]Migration, error) {
	var rows []Migration
	q := m.DB
	if order != "" {
		q = q.Order(order)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}
	return rows, nil
}

// Migrate runs all pending migrations
func (m *Migrator) Migrate() error {
	appliedMigrations, err := m.applied("")
	if err != nil {
		return err
	}

	appliedMap := make(map[string]bool, len(appliedMigrations))
	for _, migration := range appliedMigrations {
		appliedMap[migration.Name] = true
	}

	for _, name := range m.Names() {
		if appliedMap[name] {
			continue
		}
		step := m.Migrations[name]
		m.log().Info("Running migration", "name", name)

		err := m.DB.Transaction(func(tx *gorm.DB) error {
			if err := step.Up(tx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			return tx.Create(&Migration{Name: name, Batch: m.CurrentBatch}).Error
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", name, err)
		}

		m.log().Info("Migration applied", "name", name)
	}

	return nil
}

// Rollback rolls back the last batch of migrations
func (m *Migrator) Rollback() error {
	var batch []Migration
	if err := m.DB.Where("batch = ?", m.CurrentBatch-1).Order("id DESC").Find(&batch).Error; err != nil {
		return fmt.Errorf("failed to get migrations to rollback: %w", err)
	}

	if len(batch) == 0 {
		m.log().Info("No migrations to rollback")
		return nil
	}
	return m.down(batch)
}

// Reset rolls back all migrations and then applies them again
func (m *Migrator) Reset() error {
	all, err := m.applied("id DESC")
	if err != nil {
		return err
	}
	if err := m.down(all); err != nil {
		return err
	}

	m.CurrentBatch = 1
	return m.Migrate()
}

func (m *Migrator) down(rows []Migration) error {
	for i := range rows {
		migration := rows[i]
		step, ok := m.Migrations[migration.Name]
		if !ok {
			m.log().Warn("Skipping unknown migration", "name", migration.Name)
			continue
		}
		m.log().Info("Rolling back migration", "name", migration.Name)

		err := m.DB.Transaction(func(tx *gorm.DB) error {
			if err := step.Down(tx); err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
			return tx.Delete(&migration).Error
		})
		if err != nil {
			return fmt.Errorf("failed to rollback migration %s: %w", migration.Name, err)
		}
	}
	return nil
}

// GetStatus returns the status of all registered migrations in execution order
func (m *Migrator) GetStatus() ([]Status, error) {
	appliedMigrations, err := m.applied("")
	if err != nil {
		return nil, err
	}

	appliedMap := make(map[string]Migration, len(appliedMigrations))
	for _, migration := range appliedMigrations {
		appliedMap[migration.Name] = migration
	}

	status := make([]Status, 0, len(m.Migrations))
	for _, name := range m.Names() {
		migration, applied := appliedMap[name]
		s := Status{Name: name, Applied: applied}
		if applied {
			s.Batch = migration.Batch
			s.AppliedAt = migration.AppliedAt
		}
		status = append(status, s)
	}
	return status, nil
}

func (m *Migrator) log() logging.Logger {
	if m.Logger == nil {
		return logging.NewNop()
	}
	return m.Logger
}
