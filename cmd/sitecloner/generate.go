package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chynybekuuludastan/sitecloner/internal/app"
	"github.com/chynybekuuludastan/sitecloner/internal/models"
	"github.com/chynybekuuludastan/sitecloner/internal/service/pipeline"
)

func newGenerateCmd() *cobra.Command {
	var (
		req     models.GenerationRequest
		output  string
		asJSON  bool
		debug   bool
		storage bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate site content once and print the siteContent module",
		Long: `Runs one generation without the HTTP server. By default the ready-to-import
siteContent module is printed; --json prints the full response body instead.

Examples:
  sitecloner generate --industry "digital-marketing" --url https://example.com
  sitecloner generate --industry "bakery" --company "Crumb & Co" -o siteContent.js`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pipeline.Validate(&req); err != nil {
				return err
			}

			services, err := setup(cmd.Context(), app.Options{Generation: true, Storage: storage})
			if err != nil {
				return err
			}
			defer services.Close()
			defer services.Logger.Sync()

			out, err := services.Pipeline.Generate(cmd.Context(), req, debug)
			if err != nil {
				var vf *pipeline.ValidationFailure
				if errors.As(err, &vf) {
					for _, issue := range vf.Result.Errors {
						fmt.Fprintf(os.Stderr, "  %s: %s\n", issue.InstancePath, issue.Message)
					}
				}
				return fmt.Errorf("%s: %w", pipeline.Categorize(err), err)
			}

			var data []byte
			if asJSON {
				data, err = json.MarshalIndent(out, "", "  ")
				if err != nil {
					return err
				}
			} else {
				data = []byte(out.SiteContentJS + "\n")
			}

			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(output, data, 0o644)
		},
	}

	cmd.Flags().StringVar(&req.Industry, "industry", "", "industry of the target business (required)")
	cmd.Flags().StringVar(&req.URL, "url", "", "source website to clone")
	cmd.Flags().StringVar(&req.CompanyName, "company", "", "company name to seed from when no url is given")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full JSON response")
	cmd.Flags().BoolVar(&debug, "debug", false, "include generation diagnostics in --json output")
	cmd.Flags().BoolVar(&storage, "storage", false, "connect Postgres/Redis for diagnostics and usage tracking")
	_ = cmd.MarkFlagRequired("industry")
	return cmd
}
