// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/loraforge/internal/common"
)

func testConfig(t *testing.T) *common.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := common.NewDefaultConfig()
	cfg.Processing.Mode = "fast-test"
	cfg.Processing.VolumeRoot = filepath.Join(dir, "volume")
	cfg.Storage.Badger.Path = filepath.Join(dir, "jobs.db")
	return cfg
}

func TestNewAPI_WiresEveryHandler(t *testing.T) {
	a, err := NewAPI(testConfig(t), common.GetLogger())
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.JobHandler)
	assert.NotNil(t, a.StreamHandler)
	assert.NotNil(t, a.LogHandler)
	assert.NotNil(t, a.ArtifactHandler)
	assert.NotNil(t, a.BundleHandler)
	assert.NotNil(t, a.HealthHandler)
	assert.Nil(t, a.Executor, "API process never runs a plugin")
}

func TestNewWorker_WiresExecutor(t *testing.T) {
	a, err := NewWorker(testConfig(t), common.GetLogger())
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Executor)
	assert.Nil(t, a.JobHandler, "Worker process never touches HTTP handlers")
}

func TestNewAPI_EphemeralStoreSwapsJobStoreOnly(t *testing.T) {
	cfg := testConfig(t)
	cfg.Processing.EphemeralStore = true

	a, err := NewAPI(cfg, common.GetLogger())
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Queue, "badger-backed queue must still open under ephemeral_store")
	require.NotNil(t, a.DB, "badger database must still open under ephemeral_store")
}

func TestNewBundleCLI_WiresAssemblerAndStore(t *testing.T) {
	a, err := NewBundleCLI(testConfig(t), common.GetLogger())
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Store)
	assert.NotNil(t, a.Assembler)
	assert.NotNil(t, a.Bus)
	assert.Nil(t, a.Queue, "bundle CLI never consumes the queue")
}
