package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/littleweb/crawler/internal/crawl"
)

var (
	enqueuePriority int
	enqueueAllLinks bool
)

func newEnqueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enqueue URL [URL...]",
		Short: "Add URLs to the crawl queue",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runEnqueueCommand,
	}
	cmd.Flags().IntVar(&enqueuePriority, "priority", 0, "queue priority, higher first")
	cmd.Flags().BoolVar(&enqueueAllLinks, "all-links", false, "treat the pages as link hubs")
	return cmd
}

func runEnqueueCommand(cmd *cobra.Command, args []string) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	for _, raw := range args {
		normalized, err := crawl.NormalizeURL(raw)
		if err != nil {
			return fmt.Errorf("invalid URL %q: %w", raw, err)
		}
		if err := a.QueueStore.Enqueue(cmd.Context(), normalized, enqueuePriority, enqueueAllLinks); err != nil {
			return fmt.Errorf("enqueue %s: %w", normalized, err)
		}
		a.Logger.Info("queued", zap.String("url", normalized))
	}
	return nil
}
