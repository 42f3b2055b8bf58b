package pipeline

import (
	"errors"
	"path/filepath"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrRunInProgress indicates another workflow run holds the project.
var ErrRunInProgress = errors.New("a workflow run is already in progress for this project")

// runGuard serializes workflow runs per project path. A second run
// against the same project is rejected outright rather than queued, so
// the caller gets an immediate, explicit answer.
type runGuard struct {
	mu    sync.Mutex
	slots map[string]*semaphore.Weighted
}

var guard = &runGuard{slots: make(map[string]*semaphore.Weighted)}

func (g *runGuard) acquire(projectDir string) (release func(), err error) {
	key, err := filepath.Abs(projectDir)
	if err != nil {
		key = projectDir
	}

	g.mu.Lock()
	slot, ok := g.slots[key]
	if !ok {
		slot = semaphore.NewWeighted(1)
		g.slots[key] = slot
	}
	g.mu.Unlock()

	if !slot.TryAcquire(1) {
		return nil, ErrRunInProgress
	}
	return func() { slot.Release(1) }, nil
}

// acquireProject reserves the project for a single run. The returned
// release function must be called when the run ends.
func acquireProject(projectDir string) (func(), error) {
	return guard.acquire(projectDir)
}
