package main

import (
	"github.com/spf13/cobra"

	"github.com/chynybekuuludastan/sitecloner/internal/app"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := setup(cmd.Context(), app.Options{Generation: true, Storage: true})
			if err != nil {
				return err
			}
			defer services.Close()
			defer services.Logger.Sync()

			if port != "" {
				services.Config.Port = port
			}
			return app.Serve(cmd.Context(), services)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (default from PORT, 5050)")
	return cmd
}
