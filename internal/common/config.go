// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Queue      QueueConfig      `toml:"queue"`
	Storage    StorageConfig    `toml:"storage"`
	Processing ProcessingConfig `toml:"processing"`
	Logging    LoggingConfig    `toml:"logging"`
	Bundle     BundleConfig     `toml:"bundle"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// QueueConfig controls the badger-backed FIFO between API and worker.
type QueueConfig struct {
	PollInterval      string   `toml:"poll_interval"`      // e.g. "1s"
	VisibilityTimeout string   `toml:"visibility_timeout"` // e.g. "60s" - recommended default
	MaxReceive        int      `toml:"max_receive"`
	QueueNamePrefix    string   `toml:"queue_name_prefix"`  // per-type queues: "{prefix}_{type}"
	RetryableErrors   []string `toml:"retryable_errors"`   // not read: failed jobs are never retried
	RetryDelay        string   `toml:"retry_delay"`        // not read, like RetryableErrors
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration.
type BadgerConfig struct {
	Path           string `toml:"path"`
	ResetOnStartup bool   `toml:"reset_on_startup"`
}

// ProcessingConfig captures the ambient operating mode and the filesystem
// root the job store/queue/bundle code layers data under.
type ProcessingConfig struct {
	Mode               string `toml:"mode"`                 // "fast-test" | "production"
	VolumeRoot         string `toml:"volume_root"`
	EphemeralStore     bool   `toml:"ephemeral_store"`      // in-memory JobStore, explicit opt-in only
	ReconcileSchedule  string `toml:"reconcile_schedule"`   // cron schedule for stale-job sweep
	StaleAfter         string `toml:"stale_after"`          // e.g. "2m" - running-without-heartbeat threshold
	BundleGCSchedule   string `toml:"bundle_gc_schedule"`   // not read: no bundle GC job is scheduled
	CancelGracePeriod  string `toml:"cancel_grace_period"`  // e.g. "10s"
}

type LoggingConfig struct {
	Level         string   `toml:"level"`
	LogDir        string   `toml:"log_dir"`
	Output        []string `toml:"output"`
	TimeFormat    string   `toml:"time_format"`
	MinEventLevel string   `toml:"min_event_level"`
}

// BundleConfig controls debug-bundle assembly.
type BundleConfig struct {
	ServiceLogLines int `toml:"service_log_lines"` // last N lines per service log, default 1000
}

// NewDefaultConfig returns the configuration used when no file is supplied.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Queue: QueueConfig{
			PollInterval:    "1s",
			VisibilityTimeout: "60s",
			MaxReceive:      5,
			QueueNamePrefix: "loraforge",
			RetryableErrors: []string{},
			RetryDelay:      "30s",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/jobs.db",
			},
		},
		Processing: ProcessingConfig{
			Mode:              "production",
			VolumeRoot:        "./volume",
			EphemeralStore:    false,
			ReconcileSchedule: "*/1 * * * *",
			StaleAfter:        "2m",
			BundleGCSchedule:  "0 */6 * * *",
			CancelGracePeriod: "10s",
		},
		Logging: LoggingConfig{
			Level:         "info",
			LogDir:        "./logs",
			Output:        []string{"stdout", "file"},
			TimeFormat:    "15:04:05.000",
			MinEventLevel: "info",
		},
		Bundle: BundleConfig{
			ServiceLogLines: 1000,
		},
	}
}

// LoadFromFiles loads configuration with priority: default -> file1 -> file2 -> ... -> env -> CLI.
// Later files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides for the
// operational knobs deployments most commonly need to flip. These take
// priority over any config file.
func applyEnvOverrides(config *Config) {
	if root := os.Getenv("VOLUME_ROOT"); root != "" {
		config.Processing.VolumeRoot = root
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if logDir := os.Getenv("LOG_DIR"); logDir != "" {
		config.Logging.LogDir = logDir
	}
	if mode := os.Getenv("MODE"); mode != "" {
		config.Processing.Mode = mode
	}

	if port := os.Getenv("LORAFORGE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("LORAFORGE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
}

// ApplyFlagOverrides applies the highest-priority command-line overrides.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// PollIntervalDuration parses Queue.PollInterval, falling back to 1s on a bad value.
func (q QueueConfig) PollIntervalDuration() time.Duration {
	d, err := time.ParseDuration(q.PollInterval)
	if err != nil {
		return time.Second
	}
	return d
}

// VisibilityTimeoutDuration parses Queue.VisibilityTimeout, falling back to
// the recommended 60s on a bad value.
func (q QueueConfig) VisibilityTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(q.VisibilityTimeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// RetryDelayDuration parses Queue.RetryDelay, falling back to 30s.
func (q QueueConfig) RetryDelayDuration() time.Duration {
	d, err := time.ParseDuration(q.RetryDelay)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// StaleAfterDuration parses Processing.StaleAfter, falling back to 2m.
func (p ProcessingConfig) StaleAfterDuration() time.Duration {
	d, err := time.ParseDuration(p.StaleAfter)
	if err != nil {
		return 2 * time.Minute
	}
	return d
}

// CancelGraceDuration parses Processing.CancelGracePeriod, falling back to
// the required 10s.
func (p ProcessingConfig) CancelGraceDuration() time.Duration {
	d, err := time.ParseDuration(p.CancelGracePeriod)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// IsFastTest reports whether the process should use deterministic mock plugins.
func (p ProcessingConfig) IsFastTest() bool {
	return p.Mode == "fast-test"
}
