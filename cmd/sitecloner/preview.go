package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/chynybekuuludastan/sitecloner/internal/app"
	"github.com/chynybekuuludastan/sitecloner/internal/service/fetcher"
	"github.com/chynybekuuludastan/sitecloner/internal/service/screenshot"
)

func newScreenshotCmd() *cobra.Command {
	var (
		output string
		opts   = screenshot.DefaultOptions()
		delay  int
	)

	cmd := &cobra.Command{
		Use:   "screenshot <url>",
		Short: "Render a page in headless Chrome and save a PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := fetcher.NormalizeURL(args[0])
			if err != nil {
				return err
			}
			opts.Delay = time.Duration(delay) * time.Millisecond

			services, err := setup(cmd.Context(), app.Options{})
			if err != nil {
				return err
			}
			defer services.Close()
			defer services.Logger.Sync()

			png, _, err := services.Screenshots.Capture(cmd.Context(), target.String(), opts)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, png, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", output, len(png))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "screenshot.png", "output file")
	cmd.Flags().BoolVar(&opts.FullPage, "full-page", opts.FullPage, "capture the whole scrollable page")
	cmd.Flags().IntVar(&opts.Width, "width", opts.Width, "viewport width")
	cmd.Flags().IntVar(&opts.Height, "height", opts.Height, "viewport height")
	cmd.Flags().Float64Var(&opts.DPR, "dpr", opts.DPR, "device pixel ratio")
	cmd.Flags().IntVar(&delay, "delay", 0, "extra wait before capture, in milliseconds")
	cmd.Flags().StringVar(&opts.WaitSelector, "wait-selector", "", "CSS selector to wait for")
	cmd.Flags().IntVar(&opts.MaxScrolls, "max-scrolls", opts.MaxScrolls, "scroll steps used to trigger lazy content")
	return cmd
}

func newCanEmbedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "can-embed <url>",
		Short: "Report whether a page allows being shown in an iframe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := args[0]
			if u, err := fetcher.NormalizeURL(target); err == nil {
				target = u.String()
			}

			services, err := setup(cmd.Context(), app.Options{})
			if err != nil {
				return err
			}
			defer services.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(services.Embed.CanEmbed(cmd.Context(), target))
		},
	}
}
