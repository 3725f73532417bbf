package migration

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chynybekuuludastan/sitecloner/internal/logging"
)

func newMockMigrator(t *testing.T) (*Migrator, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return &Migrator{DB: db, Migrations: RegisterMigrations(), CurrentBatch: 1, Logger: logging.NewNop()}, mock
}

func TestNamesAreOrdered(t *testing.T) {
	m := &Migrator{Migrations: RegisterMigrations()}
	assert.Equal(t, []string{"01_create_model_failures_table", "02_add_model_failures_indexes"}, m.Names())
}

func TestMigrateSkipsApplied(t *testing.T) {
	m, mock := newMockMigrator(t)

	mock.ExpectQuery(`SELECT \* FROM "migrations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "batch"}).AddRow(1, "01_create_model_failures_table", 1))

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS idx_model_failures_created_at`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS idx_model_failures_template_id`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`INSERT INTO "migrations"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectCommit()

	require.NoError(t, m.Migrate())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateRollsBackFailedStep(t *testing.T) {
	m, mock := newMockMigrator(t)

	mock.ExpectQuery(`SELECT \* FROM "migrations"`).WillReturnRows(sqlmock.NewRows([]string{"id", "name", "batch"}))
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS model_failures`).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := m.Migrate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "01_create_model_failures_table")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetStatus(t *testing.T) {
	m, mock := newMockMigrator(t)

	mock.ExpectQuery(`SELECT \* FROM "migrations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "batch"}).AddRow(1, "01_create_model_failures_table", 3))

	status, err := m.GetStatus()
	require.NoError(t, err)
	require.Len(t, status, 2)
	assert.True(t, status[0].Applied)
	assert.Equal(t, 3, status[0].Batch)
	assert.False(t, status[1].Applied)
	assert.Equal(t, "02_add_model_failures_indexes", status[1].Name)
}

func TestMigrateWithoutLogger(t *testing.T) {
	m, mock := newMockMigrator(t)
	m.Logger = nil

	mock.ExpectQuery(`SELECT \* FROM "migrations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "batch"}).AddRow(1, "01_create_model_failures_table", 1))
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS idx_model_failures_created_at`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS idx_model_failures_template_id`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`INSERT INTO "migrations"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectCommit()

	assert.NotPanics(t, func() { require.NoError(t, m.Migrate()) })
	assert.NoError(t, mock.ExpectationsWereMet())
}
