package workspace

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// BuildResult holds the outcome of one compiler run. Output is the
// combined stdout and stderr of the build tool.
type BuildResult struct {
	Success  bool
	Output   string
	Duration time.Duration
}

// Builder runs a full rebuild of a project and reports diagnostics.
type Builder interface {
	Build(ctx context.Context, projectDir string) (BuildResult, error)
}

// MakeBuilder runs `make rebuild`, forcing a clean build so stale object
// files cannot mask a broken edit.
type MakeBuilder struct {
	Timeout time.Duration
}

// NewMakeBuilder returns a builder with the given per-build timeout.
func NewMakeBuilder(timeout time.Duration) *MakeBuilder {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &MakeBuilder{Timeout: timeout}
}

// Build implements Builder. A timeout is reported as a failed build, not
// an error, so the caller treats it like any other compile failure.
func (b *MakeBuilder) Build(ctx context.Context, projectDir string) (BuildResult, error) {
	buildCtx, cancel := context.WithTimeout(ctx, b.Timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(buildCtx, "make", "rebuild")
	cmd.Dir = projectDir
	output, err := cmd.CombinedOutput()
	elapsed := time.Since(start)

	if errors.Is(buildCtx.Err(), context.DeadlineExceeded) {
		return BuildResult{
			Success:  false,
			Output:   fmt.Sprintf("build timed out after %s\n%s", b.Timeout, output),
			Duration: elapsed,
		}, nil
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return BuildResult{Success: false, Output: string(output), Duration: elapsed}, nil
		}
		return BuildResult{}, fmt.Errorf("running make: %w", err)
	}
	return BuildResult{Success: true, Output: string(output), Duration: elapsed}, nil
}
