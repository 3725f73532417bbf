package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/chynybekuuludastan/sitecloner/internal/app"
	"github.com/chynybekuuludastan/sitecloner/internal/config"
	"github.com/chynybekuuludastan/sitecloner/internal/logging"
)

// @title Site Cloner API
// @version 1.0
// @description Generates template site content from an existing website or a company seed

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:5050
// @BasePath /api
// @schemes http https
func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, !cfg.IsProduction())
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := app.New(ctx, cfg, logger, app.Options{Generation: true, Storage: true})
	if err != nil {
		logger.Error("Failed to initialise services", "error", err)
		os.Exit(1)
	}
	defer services.Close()

	if err := app.Serve(ctx, services); err != nil {
		logger.Error("Server stopped", "error", err)
	}
}
