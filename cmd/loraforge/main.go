// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/loraforge/internal/common"
)

var (
	configFiles []string
	serverPort  int
	serverHost  string

	config *common.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:   "loraforge",
	Short: "Job orchestration and observability core for a GPU-backed content-generation platform",
}

func init() {
	rootCmd.PersistentFlags().StringArrayVarP(&configFiles, "config", "c", nil, "configuration file path (repeatable, later files override earlier ones)")
	rootCmd.PersistentFlags().IntVarP(&serverPort, "port", "p", 0, "server port (overrides config)")
	rootCmd.PersistentFlags().StringVar(&serverHost, "host", "", "server host (overrides config)")

	rootCmd.AddCommand(serveCmd, workCmd, bundleCmd, versionCmd)
}

// loadConfig runs the startup sequence every subcommand needs: load
// config (defaults -> files -> env), apply CLI overrides, build the
// service logger, print the banner.
func loadConfig(serviceName string) {
	var err error

	if len(configFiles) == 0 {
		if _, statErr := os.Stat("loraforge.toml"); statErr == nil {
			configFiles = append(configFiles, "loraforge.toml")
		}
	}

	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Err(err).Strs("paths", configFiles).Msg("failed to load configuration")
		os.Exit(1)
	}

	common.ApplyFlagOverrides(config, serverPort, serverHost)

	logger = common.SetupLogger(config, serviceName)
	common.InstallCrashHandler(config.Logging.LogDir)
	common.PrintBanner(config, logger, serviceName)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
