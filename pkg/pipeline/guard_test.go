package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardRejectsConcurrentRuns(t *testing.T) {
	dir := t.TempDir()

	release, err := acquireProject(dir)
	require.NoError(t, err)

	_, err = acquireProject(dir)
	assert.True(t, errors.Is(err, ErrRunInProgress))

	release()
	release2, err := acquireProject(dir)
	require.NoError(t, err)
	release2()
}

func TestGuardIsPerProject(t *testing.T) {
	releaseA, err := acquireProject(t.TempDir())
	require.NoError(t, err)
	defer releaseA()

	releaseB, err := acquireProject(t.TempDir())
	require.NoError(t, err)
	defer releaseB()
}
