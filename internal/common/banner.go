// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package common

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application startup banner for the given
// service ("api", "worker", "bundle").
func PrintBanner(config *Config, logger arbor.ILogger, serviceName string) {
	version := GetVersion()
	build := GetBuild()

	serviceURL := fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)

	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetBorderColor(banner.ColorGreen).
		SetTextColor(banner.ColorWhite).
		SetBold(true).
		SetWidth(80)

	fmt.Printf("\n")
	b.PrintTopLine()
	b.PrintCenteredText("LORAFORGE")
	b.PrintCenteredText("Job Orchestration and Observability Core")
	b.PrintSeparatorLine()
	b.PrintKeyValue("Service", serviceName, 15)
	b.PrintKeyValue("Version", version, 15)
	b.PrintKeyValue("Build", build, 15)
	b.PrintKeyValue("Mode", config.Processing.Mode, 15)
	if serviceName == "api" {
		b.PrintKeyValue("Service URL", serviceURL, 15)
	}
	b.PrintBottomLine()
	fmt.Printf("\n")

	logger.Info().
		Str("service", serviceName).
		Str("version", version).
		Str("build", build).
		Str("mode", config.Processing.Mode).
		Str("service_url", serviceURL).
		Msg("service started")

	fmt.Printf("Configuration:\n")
	fmt.Printf("   - Volume Root: %s\n", config.Processing.VolumeRoot)
	fmt.Printf("   - Badger Path: %s\n", config.Storage.Badger.Path)

	logFilePath := ""
	if loggerWithPath, ok := interface{}(logger).(interface{ GetLogFilePath() string }); ok {
		logFilePath = loggerWithPath.GetLogFilePath()
		if logFilePath != "" {
			fmt.Printf("   - Log File: %s\n", logFilePath)
		}
	}
	fmt.Printf("\n")

	logger.Info().
		Str("log_file", logFilePath).
		Str("volume_root", config.Processing.VolumeRoot).
		Str("badger_path", config.Storage.Badger.Path).
		Bool("ephemeral_store", config.Processing.EphemeralStore).
		Msg("configuration loaded")

	printCapabilities(config, logger, serviceName)
	fmt.Printf("\n")
}

// printCapabilities displays the system capabilities for the running service.
func printCapabilities(config *Config, logger arbor.ILogger, serviceName string) {
	fmt.Printf("Capabilities:\n")

	storageKind := "badger (durable)"
	if config.Processing.EphemeralStore {
		storageKind = "in-memory (ephemeral)"
	}
	fmt.Printf("   - Job store: %s\n", storageKind)
	fmt.Printf("   - Queue prefix: %s\n", config.Queue.QueueNamePrefix)

	switch serviceName {
	case "worker":
		fmt.Printf("   - Reconcile schedule: %s (stale after %s)\n", config.Processing.ReconcileSchedule, config.Processing.StaleAfter)
		fmt.Printf("   - Cancel grace period: %s\n", config.Processing.CancelGracePeriod)
		if config.Processing.IsFastTest() {
			fmt.Printf("   - Plugin backend: deterministic mock (fast-test mode)\n")
		} else {
			fmt.Printf("   - Plugin backend: external GPU collaborator\n")
		}
	case "api":
		fmt.Printf("   - Streaming: SSE, snapshot + history replay + live forward\n")
	case "bundle":
		fmt.Printf("   - Service log tail: last %d lines per service\n", config.Bundle.ServiceLogLines)
	}

	logger.Info().
		Str("service", serviceName).
		Str("storage", storageKind).
		Str("queue_prefix", config.Queue.QueueNamePrefix).
		Bool("fast_test_mode", config.Processing.IsFastTest()).
		Msg("capabilities")
}

// PrintShutdownBanner displays the application shutdown banner.
func PrintShutdownBanner(logger arbor.ILogger, serviceName string) {
	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetBorderColor(banner.ColorGreen).
		SetTextColor(banner.ColorWhite).
		SetBold(true).
		SetWidth(42)

	b.PrintTopLine()
	b.PrintCenteredText("SHUTTING DOWN")
	b.PrintCenteredText("LORAFORGE " + serviceName)
	b.PrintBottomLine()
	fmt.Println()

	logger.Info().Str("service", serviceName).Msg("service shutting down")
}

// PrintColorizedMessage prints a message with specified color. It only prints;
// the logger argument is not used.
func PrintColorizedMessage(color, message string, logger arbor.ILogger) {
	fmt.Printf("%s%s%s\n", color, message, banner.ColorReset)
}

// PrintSuccess prints a success message in green and logs it.
func PrintSuccess(message string) {
	logger := GetLogger()
	PrintColorizedMessage(banner.ColorGreen, fmt.Sprintf("[ok] %s", message), logger)
	logger.Info().Str("type", "success").Msg(message)
}

// PrintError prints an error message in red and logs it.
func PrintError(message string) {
	logger := GetLogger()
	PrintColorizedMessage(banner.ColorRed, fmt.Sprintf("[error] %s", message), logger)
	logger.Error().Str("type", "error").Msg(message)
}

// PrintWarning prints a warning message in yellow and logs it.
func PrintWarning(message string) {
	logger := GetLogger()
	PrintColorizedMessage(banner.ColorYellow, fmt.Sprintf("[warn] %s", message), logger)
	logger.Warn().Str("type", "warning").Msg(message)
}

// PrintInfo prints an info message in cyan and logs it.
func PrintInfo(message string) {
	logger := GetLogger()
	PrintColorizedMessage(banner.ColorCyan, fmt.Sprintf("[info] %s", message), logger)
	logger.Info().Str("type", "info").Msg(message)
}
