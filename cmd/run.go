package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process one crawl batch and exit",
		RunE:  runRunCommand,
	}
}

func runRunCommand(cmd *cobra.Command, _ []string) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	report, err := a.Orchestrator.RunBatch(cmd.Context())
	if err != nil {
		return err
	}

	a.Logger.Info("batch completed",
		zap.Int("claimed", report.Claimed),
		zap.Int("completed", report.Completed),
		zap.Int("rescheduled", report.Rescheduled),
		zap.Int("failed", report.Failed),
		zap.Int("admitted", report.Admitted),
		zap.Int("discovered", report.Discovered),
		zap.Strings("errors", report.Errors),
	)
	return nil
}
