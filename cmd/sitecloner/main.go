// Command sitecloner runs the site cloning service and its one-shot helpers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/chynybekuuludastan/sitecloner/internal/app"
	"github.com/chynybekuuludastan/sitecloner/internal/config"
	"github.com/chynybekuuludastan/sitecloner/internal/logging"
)

var (
	cfgFile  string
	logLevel string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sitecloner",
		Short: "Clone a website's message into a marketing template",
		Long: `sitecloner fills the digital-marketing/maxreach template with content derived from
an existing website (or from a company name) using an LLM, validates it against the
template schema and emits a ready-to-import siteContent module.

Examples:
  # Run the HTTP API
  sitecloner serve

  # Generate content from a live site
  sitecloner generate --industry "digital-marketing" --url https://example.com

  # Preview helpers
  sitecloner screenshot https://example.com -o shot.png
  sitecloner can-embed https://example.com`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := godotenv.Load(); err != nil && cfgFile == "" {
				fmt.Fprintln(os.Stderr, "Warning: .env file not found")
			}
			if cfgFile != "" {
				_ = os.Setenv("SITECLONER_CONFIG", cfgFile)
			}
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (overrides SITECLONER_CONFIG)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newGenerateCmd())
	root.AddCommand(newScreenshotCmd())
	root.AddCommand(newCanEmbedCmd())
	return root
}

// setup loads configuration and builds the requested part of the service graph
func setup(ctx context.Context, opts app.Options) (*app.App, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger, err := logging.New(cfg.LogLevel, !cfg.IsProduction())
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, logger, opts)
}
