package pipeline

import "github.com/gbforge/gbforge/pkg/review"

// State names the stage a workflow run is in or ended at.
type State string

const (
	StateAnalyzing    State = "analyzing"
	StateSnapshotting State = "snapshotting"
	StateExecuting    State = "executing"
	StateReviewing    State = "reviewing"
	StateDone         State = "done"
	StateBlocked      State = "blocked"
	StateFailed       State = "failed"
)

// Result is the final report of a workflow run.
type Result struct {
	Success        bool           `json:"success"`
	State          State          `json:"state"`
	RunID          string         `json:"run_id"`
	SnapshotID     int            `json:"snapshot_id"`
	StepsCompleted int            `json:"steps_completed"`
	TotalSteps     int            `json:"total_steps"`
	BuildSuccess   bool           `json:"build_success"`
	ReviewPassed   bool           `json:"review_passed"`
	ReviewIssues   []review.Issue `json:"review_issues,omitempty"`
	FilesChanged   []string       `json:"files_changed,omitempty"`

	// CanRetry reports that retry state was persisted and the run can be
	// resumed with `gbforge resume`.
	CanRetry         bool   `json:"can_retry"`
	ReviewerFeedback string `json:"reviewer_feedback,omitempty"`
	Error            string `json:"error,omitempty"`
}
