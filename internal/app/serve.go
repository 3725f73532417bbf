package app

import (
	"context"
	"fmt"

	"github.com/chynybekuuludastan/sitecloner/internal/api"
)

// Serve builds the full service, listens on the configured port and shuts down
// gracefully when ctx is cancelled
func Serve(ctx context.Context, a *App) error {
	server := api.NewApp(a.Config, a.Logger)
	api.SetupSwagger(server)
	api.SetupRoutes(server, a.Handlers())

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("sitecloner listening", "port", a.Config.Port, "template", a.Config.TemplateID)
		errCh <- server.Listen(":" + a.Config.Port)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	a.Logger.Info("Shutting down server...")
	if err := server.Shutdown(); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
