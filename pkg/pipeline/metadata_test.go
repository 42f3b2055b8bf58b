package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetProjectStatusRoundTrip(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, setProjectStatus(dir, StatusBuildFailed, "src/main.c:1: error"))
	m, err := loadMetadata(dir)
	require.NoError(t, err)
	assert.Equal(t, StatusBuildFailed, m.Status)
	assert.Equal(t, "src/main.c:1: error", m.Error)

	require.NoError(t, setProjectStatus(dir, StatusCompiled, ""))
	m, err = loadMetadata(dir)
	require.NoError(t, err)
	assert.Equal(t, StatusCompiled, m.Status)
	assert.Empty(t, m.Error)
}

func TestSetProjectStatusCompiledRecordsROM(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "build"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "build", "game.gb"), []byte{0}, 0644))

	require.NoError(t, setProjectStatus(dir, StatusCompiled, ""))
	m, err := loadMetadata(dir)
	require.NoError(t, err)
	assert.Equal(t, "build/game.gb", m.RomPath)

	// Rollback to scaffolded clears the stale ROM path.
	require.NoError(t, setProjectStatus(dir, StatusScaffolded, ""))
	m, err = loadMetadata(dir)
	require.NoError(t, err)
	assert.Empty(t, m.RomPath)
}

func TestSetRunProgressAccumulatesBuildAttempts(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, setRunProgress(dir, 1, 3, 2))
	require.NoError(t, setRunProgress(dir, 3, 3, 4))

	m, err := loadMetadata(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, m.CurrentStep)
	assert.Equal(t, 3, m.TotalSteps)
	assert.Equal(t, 6, m.BuildAttempts)
}

func TestRecordBuildResult(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, RecordBuildResult(dir, false, "make: *** Error 1"))
	m, err := loadMetadata(dir)
	require.NoError(t, err)
	assert.Equal(t, StatusBuildFailed, m.Status)
	assert.Equal(t, "make: *** Error 1", m.Error)
	assert.Equal(t, 1, m.BuildAttempts)

	require.NoError(t, RecordBuildResult(dir, true, ""))
	m, err = loadMetadata(dir)
	require.NoError(t, err)
	assert.Equal(t, StatusCompiled, m.Status)
	assert.Empty(t, m.Error)
	assert.Equal(t, 2, m.BuildAttempts)
}
