package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gbforge/gbforge/pkg/types"
)

// ErrNoRetryContext indicates there is no halted run to resume.
var ErrNoRetryContext = errors.New("no retry context found")

// Attempt is the persisted state of a halted run: enough to resume from
// the failed unit without re-running gap analysis or creating a new
// snapshot. It lives at context/retry_context.json inside the project and
// is cleared when a run completes or the project is rolled back.
type Attempt struct {
	RunID             string           `json:"run_id"`
	ProjectPath       string           `json:"project_path"`
	SnapshotID        int              `json:"snapshot_id"`
	Request           string           `json:"request"`
	Units             []types.WorkUnit `json:"units"`
	UnitIndex         int              `json:"unit_index"`
	ReviewerFeedback  string           `json:"reviewer_feedback,omitempty"`
	Constraints       []string         `json:"constraints,omitempty"`
	ReviewRetriesUsed int              `json:"review_retries_used"`
	Timestamp         time.Time        `json:"timestamp"`
}

func attemptPath(projectDir string) string {
	return filepath.Join(projectDir, "context", "retry_context.json")
}

// SaveAttempt persists the attempt for later resumption.
func SaveAttempt(projectDir string, a *Attempt) error {
	a.Timestamp = time.Now().UTC()
	path := attemptPath(projectDir)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating context directory: %w", err)
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling retry context: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing retry context: %w", err)
	}
	return nil
}

// LoadAttempt reads the persisted attempt for a project.
func LoadAttempt(projectDir string) (*Attempt, error) {
	data, err := os.ReadFile(attemptPath(projectDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoRetryContext
		}
		return nil, fmt.Errorf("reading retry context: %w", err)
	}
	var a Attempt
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parsing retry context: %w", err)
	}
	if len(a.Units) == 0 {
		return nil, fmt.Errorf("retry context has no work units")
	}
	if a.UnitIndex < 0 || a.UnitIndex >= len(a.Units) {
		a.UnitIndex = 0
	}
	return &a, nil
}

// ClearAttempt removes the persisted attempt. Clearing a missing file is
// not an error.
func ClearAttempt(projectDir string) error {
	err := os.Remove(attemptPath(projectDir))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing retry context: %w", err)
	}
	return nil
}
