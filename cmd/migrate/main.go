// cmd/migrate/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/chynybekuuludastan/sitecloner/internal/config"
	"github.com/chynybekuuludastan/sitecloner/internal/database"
	"github.com/chynybekuuludastan/sitecloner/internal/database/migration"
	"github.com/chynybekuuludastan/sitecloner/internal/logging"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Define command-line flags
	migrateCmd := flag.Bool("migrate", false, "Run migrations")
	rollbackCmd := flag.Bool("rollback", false, "Rollback the last batch of migrations")
	resetCmd := flag.Bool("reset", false, "Rollback all migrations and re-run them")
	statusCmd := flag.Bool("status", false, "Show migration status")
	dsn := flag.String("dsn", cfg.PostgresURI, "PostgreSQL connection string")
	flag.Parse()

	if !(*migrateCmd || *rollbackCmd || *resetCmd || *statusCmd) {
		flag.Usage()
		os.Exit(1)
	}
	if *dsn == "" {
		log.Fatal("POSTGRES_URI or -dsn is required")
	}

	logger, err := logging.New(cfg.LogLevel, !cfg.IsProduction())
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if err := run(*dsn, logger, *migrateCmd, *rollbackCmd, *resetCmd, *statusCmd); err != nil {
		logger.Error("Migration command failed", "error", err)
		os.Exit(1)
	}
}

func run(dsn string, logger logging.Logger, migrate, rollback, reset, status bool) error {
	db, err := database.Connect(context.Background(), dsn, true, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	migrator, err := migration.NewMigrator(db.DB, logger)
	if err != nil {
		return err
	}

	switch {
	case migrate:
		return migrator.Migrate()
	case rollback:
		return migrator.Rollback()
	case reset:
		return migrator.Reset()
	case status:
		rows, err := migrator.GetStatus()
		if err != nil {
			return err
		}
		printStatus(rows)
	}
	return nil
}

func printStatus(rows []migration.Status) {
	fmt.Println("+--------------------------------+----------+-------+---------------------+")
	fmt.Println("| Migration                      | Applied? | Batch | Applied At          |")
	fmt.Println("+--------------------------------+----------+-------+---------------------+")
	for _, s := range rows {
		applied, batch, at := "No", "-", "-"
		if s.Applied {
			applied = "Yes"
			batch = fmt.Sprintf("%d", s.Batch)
			at = s.AppliedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Printf("| %-30s | %-8s | %-5s | %-19s |\n", s.Name, applied, batch, at)
	}
	fmt.Println("+--------------------------------+----------+-------+---------------------+")
}
