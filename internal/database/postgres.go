package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chynybekuuludastan/sitecloner/internal/database/migration"
	"github.com/chynybekuuludastan/sitecloner/internal/logging"
)

// DatabaseClient wraps the GORM DB connection
type DatabaseClient struct {
	*gorm.DB
}

// Connect opens and pings the PostgreSQL connection. verbose turns on GORM's SQL logging.
func Connect(ctx context.Context, dsn string, verbose bool, log logging.Logger) (*DatabaseClient, error) {
	level := logger.Warn
	if verbose {
		level = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	// Set connection pool parameters
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	log.Info("Connected to PostgreSQL database")
	return &DatabaseClient{DB: db}, nil
}

// InitPostgreSQL connects and applies pending migrations
func InitPostgreSQL(ctx context.Context, dsn string, verbose bool, log logging.Logger) (*DatabaseClient, error) {
	client, err := Connect(ctx, dsn, verbose, log)
	if err != nil {
		return nil, err
	}

	migrator, err := migration.NewMigrator(client.DB, log)
	if err == nil {
		err = migrator.Migrate()
	}
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return client, nil
}

// Close closes the database connection
func (d *DatabaseClient) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
