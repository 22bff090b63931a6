// Package cmd defines the CLI commands for the crawler executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/littleweb/crawler/internal/app"
)

var cfgFile string

type appKeyType struct{}

var appKey appKeyType

// newApp is a factory variable so tests can substitute a mock container.
var newApp = func(ctx context.Context, cfgPath string) (*app.App, error) {
	return app.New(ctx, cfgPath)
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawler",
		Short: "Web-crawl ingestion pipeline for the site catalog",
		Long: `crawler discovers, fetches and scores independent websites for the
catalog. It maintains a persistent crawl queue, respects robots.txt and
per-domain politeness, and admits qualifying sites automatically.`,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), cfgFile)
			if err != nil {
				return fmt.Errorf("initialize services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, a))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a, ok := cmd.Context().Value(appKey).(*app.App); ok && a != nil {
				a.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newEnqueueCmd())
	cmd.AddCommand(newTestCmd())

	return cmd
}

func resolveApp(ctx context.Context) (*app.App, error) {
	a, ok := ctx.Value(appKey).(*app.App)
	if !ok || a == nil {
		return nil, errors.New("application services not initialized")
	}
	return a, nil
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
