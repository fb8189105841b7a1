// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package app

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/loraforge/internal/bundle"
	"github.com/ternarybob/loraforge/internal/common"
	"github.com/ternarybob/loraforge/internal/eventbus"
	"github.com/ternarybob/loraforge/internal/executor"
	"github.com/ternarybob/loraforge/internal/interfaces"
	"github.com/ternarybob/loraforge/internal/queue"
	"github.com/ternarybob/loraforge/internal/server/handlers"
	"github.com/ternarybob/loraforge/internal/store"
)

// App holds the dependencies shared by the API and Worker processes. Not
// every field is populated by every constructor - the API never touches
// Executor, and the Worker never touches the HTTP handlers.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	DB    *store.BadgerDB
	Store interfaces.JobStore
	Queue interfaces.Queue
	Bus   interfaces.EventBus

	Registry  executor.Registry
	Executor  *executor.Executor
	Assembler *bundle.Assembler

	JobHandler      *handlers.JobHandler
	StreamHandler   *handlers.StreamHandler
	LogHandler      *handlers.LogHandler
	ArtifactHandler *handlers.ArtifactHandler
	BundleHandler   *handlers.BundleHandler
	HealthHandler   *handlers.HealthHandler
}

// NewAPI wires the dependencies the API process needs: a Job Store and
// Queue to accept work, an EventBus to stream it, and every HTTP handler.
// The Registry is still built (read-only use: request config validation
// and /info) even though the API process never runs a plugin.
func NewAPI(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	if err := a.initStorage(); err != nil {
		return nil, err
	}

	a.Registry = executor.NewRegistry(cfg.Processing.IsFastTest())
	a.Assembler = bundle.New(cfg)

	a.JobHandler = handlers.NewJobHandler(a.Store, a.Queue, a.Registry, nil, cfg, logger)
	a.StreamHandler = handlers.NewStreamHandler(a.Store, a.Bus, logger)
	a.LogHandler = handlers.NewLogHandler(a.Store, cfg, logger)
	a.ArtifactHandler = handlers.NewArtifactHandler(a.Store, cfg, logger)
	a.BundleHandler = handlers.NewBundleHandler(a.Store, a.Assembler, logger)
	a.HealthHandler = handlers.NewHealthHandler(a.Store, a.Registry, cfg, common.GetVersion(), logger)

	logger.Info().
		Str("mode", cfg.Processing.Mode).
		Bool("ephemeral_store", cfg.Processing.EphemeralStore).
		Msg("API application initialized")

	return a, nil
}

// NewWorker wires the dependencies the Worker process needs: the same Job
// Store, Queue, and EventBus as the API (Badger serializes access across
// the two processes), plus the plugin Registry and the Executor that
// drives it.
func NewWorker(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	if err := a.initStorage(); err != nil {
		return nil, err
	}

	a.Registry = executor.NewRegistry(cfg.Processing.IsFastTest())
	a.Executor = executor.New(a.Queue, a.Store, a.Bus, a.Registry, logger, cfg)

	logger.Info().
		Str("mode", cfg.Processing.Mode).
		Bool("fast_test", cfg.Processing.IsFastTest()).
		Msg("Worker application initialized")

	return a, nil
}

// NewBundleCLI wires only what the standalone `bundle` subcommand needs: the
// Badger Job Store (opened read-write, as elsewhere), the EventBus (for
// event history), and the
// Assembler, without a Queue consumer or HTTP server.
func NewBundleCLI(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	db, err := store.NewBadgerDB(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to open job store database: %w", err)
	}
	a.DB = db
	a.Store = store.NewBadgerJobStore(db, logger)
	a.Bus = eventbus.New(cfg.Processing.VolumeRoot, logger)
	a.Assembler = bundle.New(cfg)

	return a, nil
}

// initStorage opens the Badger database backing both the Job Store and the
// Queue, then the EventBus. The ephemeral flag swaps only the Job Store for
// an in-memory map - the Queue still needs badgerhold's indexed queries
// for visibility-timeout scanning, so Badger is always opened.
func (a *App) initStorage() error {
	db, err := store.NewBadgerDB(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to open job store database: %w", err)
	}
	a.DB = db

	if a.Config.Processing.EphemeralStore {
		a.Store = store.NewMemStore()
		a.Logger.Warn().Msg("ephemeral_store=true: job records will not survive a restart")
	} else {
		a.Store = store.NewBadgerJobStore(db, a.Logger)
	}

	q, err := queue.NewBadgerQueue(db.Store(), a.Config.Queue.VisibilityTimeoutDuration(), a.Config.Queue.MaxReceive)
	if err != nil {
		return fmt.Errorf("failed to open queue: %w", err)
	}
	a.Queue = q

	a.Bus = eventbus.New(a.Config.Processing.VolumeRoot, a.Logger)

	return nil
}

// Close releases every open resource - queue, event bus, job store - and
// closes the shared Badger database last.
func (a *App) Close() error {
	if a.Queue != nil {
		if err := a.Queue.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("failed to close queue")
		}
	}
	if a.Bus != nil {
		if err := a.Bus.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("failed to close event bus")
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("failed to close job store")
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("failed to close job store database")
		}
	}
	return nil
}
