// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ternarybob/loraforge/internal/app"
	"github.com/ternarybob/loraforge/internal/common"
)

var workCmd = &cobra.Command{
	Use:   "work",
	Short: "Start the Worker: dequeues jobs, runs the matching plugin, reconciles stale jobs",
	Run:   runWork,
}

func runWork(cmd *cobra.Command, args []string) {
	loadConfig("worker")
	defer common.Stop()

	application, err := app.NewWorker(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize worker application")
	}
	defer application.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	common.SafeGoWithContext(ctx, logger, "executor", func() {
		application.Executor.Run(ctx)
	})

	logger.Info().Msg("worker ready")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("interrupt signal received, stopping worker")
	common.PrintShutdownBanner(logger, "worker")

	cancel()
	time.Sleep(500 * time.Millisecond)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	n, err := application.Store.MarkRunningJobsAsPending(shutdownCtx, "worker shutting down")
	if err != nil {
		logger.Error().Err(err).Msg("failed to requeue running jobs on shutdown")
	} else if n > 0 {
		logger.Info().Int("count", n).Msg("requeued running jobs for restart")
	}
}
