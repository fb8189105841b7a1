// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package common

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	arborcommon "github.com/ternarybob/arbor/common"
	"github.com/ternarybob/arbor/models"
)

var (
	globalLogger arbor.ILogger
	loggerMutex  sync.RWMutex
)

// GetLogger returns the global logger instance.
// If InitLogger() hasn't been called yet, returns a fallback console logger.
func GetLogger() arbor.ILogger {
	loggerMutex.RLock()
	if globalLogger != nil {
		loggerMutex.RUnlock()
		return globalLogger
	}
	loggerMutex.RUnlock()

	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	if globalLogger == nil {
		globalLogger = arbor.NewLogger().WithConsoleWriter(createWriterConfig(nil, models.LogWriterTypeConsole, ""))
		globalLogger.Warn().Msg("Using fallback logger - InitLogger() should be called during startup")
	}
	return globalLogger
}

// InitLogger stores the provided logger as the global singleton instance.
func InitLogger(logger arbor.ILogger) {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()
	globalLogger = logger
}

// SetupLogger configures and initializes the global logger for the named
// service ("api", "worker", "bundle"). Each service gets its own log
// subdirectory so the API and Worker processes never contend over the same
// file.
func SetupLogger(config *Config, serviceName string) arbor.ILogger {
	logger := arbor.NewLogger()

	logDir := config.Logging.LogDir
	if logDir == "" {
		logDir = "./logs"
	}
	serviceDir := filepath.Join(logDir, serviceName)

	rotateSessionLogs(serviceDir, GetLogger())

	hasFileOutput := false
	hasStdoutOutput := false
	for _, output := range config.Logging.Output {
		if output == "file" {
			hasFileOutput = true
		}
		if output == "stdout" || output == "console" {
			hasStdoutOutput = true
		}
	}

	if hasFileOutput {
		latestDir := filepath.Join(serviceDir, "latest")
		if err := os.MkdirAll(latestDir, 0755); err != nil {
			tempLogger := logger.WithConsoleWriter(createWriterConfig(config, models.LogWriterTypeConsole, ""))
			tempLogger.Warn().Err(err).Str("logs_dir", latestDir).Msg("Failed to create logs directory")
		} else {
			logFile := filepath.Join(latestDir, serviceName+".log")
			logger = logger.WithFileWriter(createWriterConfig(config, models.LogWriterTypeFile, logFile))
		}
	}

	if hasStdoutOutput {
		logger = logger.WithConsoleWriter(createWriterConfig(config, models.LogWriterTypeConsole, ""))
	}

	if !hasFileOutput && !hasStdoutOutput {
		logger = logger.WithConsoleWriter(createWriterConfig(config, models.LogWriterTypeConsole, ""))
		logger.Warn().
			Strs("configured_outputs", config.Logging.Output).
			Msg("No visible log outputs configured - falling back to console")
	}

	// In-memory writer; no handler in this tree reads from it.
	logger = logger.WithMemoryWriter(createWriterConfig(config, models.LogWriterTypeMemory, ""))

	logger = logger.WithLevelFromString(config.Logging.Level)

	InitLogger(logger)

	return logger
}

// rotateSessionLogs moves {serviceDir}/latest into
// {serviceDir}/archive/{YYYYMMDD_HHMMSS} before new writers are attached,
// so each process run starts with a clean "latest" directory.
func rotateSessionLogs(serviceDir string, fallback arbor.ILogger) {
	latestDir := filepath.Join(serviceDir, "latest")

	entries, err := os.ReadDir(latestDir)
	if err != nil || len(entries) == 0 {
		return
	}

	archiveDir := filepath.Join(serviceDir, "archive", time.Now().Format("20060102_150405"))
	if err := os.MkdirAll(filepath.Dir(archiveDir), 0755); err != nil {
		if fallback != nil {
			fallback.Warn().Err(err).Msg("Failed to create log archive directory")
		}
		return
	}

	if err := os.Rename(latestDir, archiveDir); err != nil {
		if fallback != nil {
			fallback.Warn().Err(err).Msg("Failed to archive previous session logs")
		}
	}
}

// createWriterConfig creates a standard writer configuration with user preferences.
func createWriterConfig(config *Config, writerType models.LogWriterType, filename string) models.WriterConfiguration {
	timeFormat := "15:04:05.000"
	if config != nil && config.Logging.TimeFormat != "" {
		timeFormat = config.Logging.TimeFormat
	}

	return models.WriterConfiguration{
		Type:             writerType,
		FileName:         filename,
		TimeFormat:       timeFormat,
		DisableTimestamp: false,
		MaxSize:          100 * 1024 * 1024, // 100 MB (only used for file writer)
		MaxBackups:       3,                 // (only used for file writer)
	}
}

// Stop flushes any remaining context logs before application shutdown.
// Safe to call multiple times (Arbor's Stop is idempotent).
func Stop() {
	arborcommon.Stop()
}
