// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package handlers

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ternarybob/loraforge/internal/common"
	"github.com/ternarybob/loraforge/internal/eventbus"
	"github.com/ternarybob/loraforge/internal/executor"
	"github.com/ternarybob/loraforge/internal/interfaces"
	"github.com/ternarybob/loraforge/internal/queue"
	"github.com/ternarybob/loraforge/internal/store"
)

// testDeps wires real backends rooted at a t.TempDir - no mocks, matching
// the store package's own test style.
type testDeps struct {
	config   *common.Config
	store    interfaces.JobStore
	queue    interfaces.Queue
	bus      interfaces.EventBus
	registry executor.Registry
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()

	dir := t.TempDir()
	cfg := common.NewDefaultConfig()
	cfg.Processing.Mode = "fast-test"
	cfg.Processing.VolumeRoot = filepath.Join(dir, "volume")
	cfg.Storage.Badger.Path = filepath.Join(dir, "jobs.db")

	db, err := store.NewBadgerDB(common.GetLogger(), &cfg.Storage.Badger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	q, err := queue.NewBadgerQueue(db.Store(), cfg.Queue.VisibilityTimeoutDuration(), cfg.Queue.MaxReceive)
	require.NoError(t, err)
	t.Cleanup(func() { q.Close() })

	bus := eventbus.New(cfg.Processing.VolumeRoot, common.GetLogger())
	t.Cleanup(func() { bus.Close() })

	return &testDeps{
		config:   cfg,
		store:    store.NewBadgerJobStore(db, common.GetLogger()),
		queue:    q,
		bus:      bus,
		registry: executor.NewRegistry(true),
	}
}
