// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/loraforge/internal/common"
	"github.com/timshannon/badgerhold/v4"
)

// BadgerDB manages the Badger database connection backing the durable Job Store.
type BadgerDB struct {
	store  *badgerhold.Store
	logger arbor.ILogger
	config *common.BadgerConfig
}

// NewBadgerDB opens (or creates) the Badger database at config.Path.
func NewBadgerDB(logger arbor.ILogger, config *common.BadgerConfig) (*BadgerDB, error) {
	if config.ResetOnStartup {
		if _, err := os.Stat(config.Path); err == nil {
			logger.Debug().Str("path", config.Path).Msg("deleting existing job store (reset_on_startup=true)")
			if err := os.RemoveAll(config.Path); err != nil {
				logger.Warn().Err(err).Str("path", config.Path).Msg("failed to delete job store directory")
			}
		}
	}

	dir := filepath.Dir(config.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create job store directory: %w", err)
	}

	logger.Debug().Str("path", config.Path).Msg("opening job store")

	options := badgerhold.DefaultOptions
	options.Dir = config.Path
	options.ValueDir = config.Path
	options.Logger = nil // arbor handles logging instead of badger's internal logger

	hold, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open job store: %w", err)
	}

	logger.Debug().Str("path", config.Path).Msg("job store initialized")

	return &BadgerDB{
		store:  hold,
		logger: logger,
		config: config,
	}, nil
}

// Store returns the underlying badgerhold handle.
func (b *BadgerDB) Store() *badgerhold.Store {
	return b.store
}

// Close closes the database connection.
func (b *BadgerDB) Close() error {
	if b.store != nil {
		return b.store.Close()
	}
	return nil
}
