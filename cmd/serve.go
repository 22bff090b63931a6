package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/littleweb/crawler/internal/crawl"
)

var batchInterval time.Duration

const retentionSweepInterval = 24 * time.Hour

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and the periodic batch loop",
		RunE:  runServeCommand,
	}
	cmd.Flags().DurationVar(&batchInterval, "batch-interval", time.Minute, "delay between crawl batches")
	return cmd
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Cfg.Server.Port),
		Handler:           a.Server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.Logger.Info("http server started", zap.Int("port", a.Cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	go batchLoop(ctx, a.Logger, a.Orchestrator.RunBatch)
	go sweepLoop(ctx, a.Logger, a.Orchestrator.SweepRetention)

	<-ctx.Done()
	a.Logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("server shutdown error", zap.Error(err))
	}
	a.Logger.Info("shutdown complete")
	return nil
}

func batchLoop(ctx context.Context, logger *zap.Logger, runBatch func(context.Context) (crawl.BatchReport, error)) {
	ticker := time.NewTicker(batchInterval)
	defer ticker.Stop()

	for {
		report, err := runBatch(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("batch run failed", zap.Error(err))
		} else if err == nil && report.Claimed > 0 {
			logger.Info("batch completed",
				zap.Int("claimed", report.Claimed),
				zap.Int("completed", report.Completed),
				zap.Int("rescheduled", report.Rescheduled),
				zap.Int("failed", report.Failed),
				zap.Int("admitted", report.Admitted),
				zap.Int("discovered", report.Discovered),
			)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func sweepLoop(ctx context.Context, logger *zap.Logger, sweep func(context.Context) (int, error)) {
	ticker := time.NewTicker(retentionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sweep(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("retention sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("retention sweep removed items", zap.Int("removed", n))
			}
		}
	}
}
