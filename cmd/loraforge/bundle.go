// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ternarybob/loraforge/internal/app"
	"github.com/ternarybob/loraforge/internal/common"
	"github.com/ternarybob/loraforge/internal/models"
)

var bundleOutput string

var bundleCmd = &cobra.Command{
	Use:   "bundle <job_id>",
	Short: "Write a job's debug bundle ZIP to local disk",
	Args:  cobra.ExactArgs(1),
	Run:   runBundle,
}

func init() {
	bundleCmd.Flags().StringVarP(&bundleOutput, "output", "o", "", "output path (default: <job_id>-debug-bundle.zip)")
}

func runBundle(cmd *cobra.Command, args []string) {
	jobID := args[0]
	loadConfig("bundle")
	defer common.Stop()

	application, err := app.NewBundleCLI(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize bundle CLI")
	}
	defer application.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	job, err := application.Store.Get(ctx, jobID)
	if err != nil {
		logger.Fatal().Err(err).Str("job_id", jobID).Msg("job not found")
	}

	outputPath := bundleOutput
	if outputPath == "" {
		outputPath = fmt.Sprintf("%s-debug-bundle.zip", jobID)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", outputPath).Msg("failed to create output file")
	}
	defer f.Close()

	if err := application.Assembler.Write(f, job); err != nil {
		logger.Fatal().Err(err).Msg("failed to assemble debug bundle")
	}

	logger.Info().Str("path", outputPath).Msg("debug bundle written")

	printFirstError(ctx, application, jobID)
}

// printFirstError reads the job's event history and prints the first
// ERROR-level entry, if any, so an operator doesn't have to unzip the
// bundle just to see what failed.
func printFirstError(ctx context.Context, application *app.App, jobID string) {
	history, err := application.Bus.History(ctx, jobID, 0)
	if err != nil {
		return
	}

	for _, entry := range history {
		if entry.Level == models.LogLevelError {
			fmt.Printf("\nfirst error event:\n  event: %s\n  msg:   %s\n", entry.Event, entry.Message)
			if entry.Error != "" {
				fmt.Printf("  error: %s\n", entry.Error)
			}
			return
		}
	}
}
