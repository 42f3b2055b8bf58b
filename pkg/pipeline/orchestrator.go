package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/gbforge/gbforge/pkg/config"
	"github.com/gbforge/gbforge/pkg/executor"
	"github.com/gbforge/gbforge/pkg/gap"
	"github.com/gbforge/gbforge/pkg/oracle"
	"github.com/gbforge/gbforge/pkg/review"
	"github.com/gbforge/gbforge/pkg/snapshot"
	"github.com/gbforge/gbforge/pkg/symbols"
	"github.com/gbforge/gbforge/pkg/utils"
	"github.com/gbforge/gbforge/pkg/workspace"
)

// Orchestrator drives the full workflow: plan, snapshot, execute each
// unit to a compiling state, then hold the result at the review gate.
// There is no automatic rollback; a halted run leaves the tree as-is
// with retry state on disk.
type Orchestrator struct {
	cfg      *config.Config
	oracle   oracle.Client
	builder  workspace.Builder
	analyzer gap.Analyzer
	logger   *utils.Logger
	progress *utils.ProgressSink
}

// New wires an orchestrator from its collaborators.
func New(cfg *config.Config, client oracle.Client, builder workspace.Builder, analyzer gap.Analyzer, logger *utils.Logger, progress *utils.ProgressSink) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		oracle:   client,
		builder:  builder,
		analyzer: analyzer,
		logger:   logger,
		progress: progress,
	}
}

// Run executes a fresh workflow for the request against the project.
// Only one run may hold a project at a time; a second is rejected with
// ErrRunInProgress.
func (o *Orchestrator) Run(ctx context.Context, projectDir, request string, constraints []string) (*Result, error) {
	release, err := acquireProject(projectDir)
	if err != nil {
		return nil, err
	}
	defer release()

	project, err := workspace.Open(projectDir)
	if err != nil {
		return nil, err
	}

	o.progress.Info("Analyzing request")
	o.logger.LogProcessStep(fmt.Sprintf("Analyzing request: %s", firstLine(request)))

	idx, err := symbols.Load(projectDir)
	if err != nil {
		return nil, err
	}
	units, err := o.analyzer.Analyze(ctx, projectDescription(projectDir, idx), planRequest(request, constraints))
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		o.logger.LogProcessStep("Nothing to do: gap analysis produced no work units")
		return &Result{Success: true, State: StateDone, BuildSuccess: true, ReviewPassed: true}, nil
	}
	o.logger.Logf("Planned %d work unit(s)", len(units))

	o.progress.Info("Creating snapshot")
	store := snapshot.NewStore(projectDir)
	snapshotID := 0
	info, err := store.Create(fmt.Sprintf("before: %s", firstLine(request)))
	if err != nil {
		// The snapshot is a safety net, not a precondition. Without one
		// the run cannot be rolled back, but it can still complete.
		o.logger.Logf("Snapshot failed, continuing without rollback point: %v", err)
		o.progress.Warn("snapshot failed, run cannot be rolled back")
	} else {
		snapshotID = info.ID
	}

	attempt := &Attempt{
		RunID:       uuid.NewString(),
		ProjectPath: projectDir,
		SnapshotID:  snapshotID,
		Request:     request,
		Units:       units,
		Constraints: constraints,
	}
	return o.execute(ctx, project, store, attempt)
}

// Resume continues a halted run from its persisted retry state. No new
// snapshot is taken; the original pre-run snapshot still covers the run.
// Optional guidance is threaded into the generation prompts alongside
// any reviewer feedback.
func (o *Orchestrator) Resume(ctx context.Context, projectDir, guidance string) (*Result, error) {
	attempt, err := LoadAttempt(projectDir)
	if err != nil {
		return nil, err
	}
	if guidance != "" {
		if attempt.ReviewerFeedback != "" {
			attempt.ReviewerFeedback += "\n\n"
		}
		attempt.ReviewerFeedback += "Additional guidance:\n" + guidance
	}

	release, err := acquireProject(projectDir)
	if err != nil {
		return nil, err
	}
	defer release()

	project, err := workspace.Open(projectDir)
	if err != nil {
		return nil, err
	}

	o.logger.LogProcessStep(fmt.Sprintf("Resuming run %s from unit %d/%d", attempt.RunID, attempt.UnitIndex+1, len(attempt.Units)))
	return o.execute(ctx, project, snapshot.NewStore(projectDir), attempt)
}

// Rollback restores the project to a snapshot and clears any pending
// retry state. The store takes its own backup first, so the rollback is
// reversible.
func (o *Orchestrator) Rollback(projectDir string, snapshotID int) error {
	release, err := acquireProject(projectDir)
	if err != nil {
		return err
	}
	defer release()

	store := snapshot.NewStore(projectDir)
	if err := store.Restore(snapshotID); err != nil {
		return err
	}
	if err := setProjectStatus(projectDir, StatusScaffolded, ""); err != nil {
		return err
	}
	if err := ClearAttempt(projectDir); err != nil {
		return err
	}
	o.logger.LogProcessStep(fmt.Sprintf("Rolled back to snapshot %d", snapshotID))
	return nil
}

func (o *Orchestrator) execute(ctx context.Context, project *workspace.Project, store *snapshot.Store, attempt *Attempt) (*Result, error) {
	// The review baseline is the pre-run snapshot; when snapshotting
	// failed, the live tree before execution stands in for it.
	var before map[string]string
	var err error
	if attempt.SnapshotID > 0 {
		before, err = store.SourceFiles(attempt.SnapshotID)
	} else {
		before, err = o.readSources(project)
	}
	if err != nil {
		return nil, err
	}

	selector := workspace.NewSelector(o.oracle, o.logger, o.progress)
	stepExec := executor.New(o.oracle, o.builder, project, o.logger, o.progress, o.cfg.MaxStepRetries)
	gate := review.NewGate(o.oracle, o.logger, o.cfg.ReviewStrictMode)

	result := &Result{
		RunID:      attempt.RunID,
		SnapshotID: attempt.SnapshotID,
		TotalSteps: len(attempt.Units),
	}
	changed := make(map[string]bool)
	buildAttempts := 0

	for {
		prevSummary := ""
		for i := attempt.UnitIndex; i < len(attempt.Units); i++ {
			unit := attempt.Units[i]

			// Reviewer feedback targets the first unit of the pass;
			// later units already build on the corrected work.
			feedback := ""
			if i == attempt.UnitIndex {
				feedback = attempt.ReviewerFeedback
			}

			// Files can be created by earlier units; refresh the view
			// before every step.
			idx, err := symbols.Load(project.Dir)
			if err != nil {
				return nil, err
			}
			knownFiles, err := project.SourceFiles()
			if err != nil {
				return nil, err
			}

			fileSet := selector.Select(ctx, unit, idx)
			res, err := stepExec.Execute(ctx, unit, fileSet, knownFiles, feedback, prevSummary)
			buildAttempts += res.Attempts
			for _, c := range res.Changes {
				changed[c.Path] = true
			}
			if err != nil {
				attempt.UnitIndex = i
				if saveErr := SaveAttempt(project.Dir, attempt); saveErr != nil {
					o.logger.LogError(saveErr)
				}
				return nil, fmt.Errorf("executing unit %d (%s): %w", unit.Order, unit.Title, err)
			}
			if !res.Success {
				attempt.UnitIndex = i
				if err := SaveAttempt(project.Dir, attempt); err != nil {
					return nil, err
				}
				if err := setProjectStatus(project.Dir, StatusBuildFailed, lastLines(res.Diagnostics, 20)); err != nil {
					o.logger.LogError(err)
				}
				if err := setRunProgress(project.Dir, i, len(attempt.Units), buildAttempts); err != nil {
					o.logger.LogError(err)
				}
				o.progress.Warn(fmt.Sprintf("Halted at unit %d/%d after %d attempts", i+1, len(attempt.Units), res.Attempts))

				result.State = StateFailed
				result.StepsCompleted = i
				result.CanRetry = true
				result.FilesChanged = sortedKeys(changed)
				result.Error = fmt.Sprintf("unit %d (%s) did not reach a compiling state", unit.Order, unit.Title)
				return result, nil
			}
			prevSummary = res.Summary
			o.progress.Info(fmt.Sprintf("Unit %d/%d complete", i+1, len(attempt.Units)))
		}

		result.BuildSuccess = true
		result.StepsCompleted = len(attempt.Units)
		result.FilesChanged = sortedKeys(changed)

		o.progress.Info("Reviewing changes")
		after, err := o.readSources(project)
		if err != nil {
			return nil, err
		}
		verdict, err := gate.Review(ctx, attempt.Request, before, after)
		if err != nil {
			attempt.UnitIndex = 0
			if saveErr := SaveAttempt(project.Dir, attempt); saveErr != nil {
				o.logger.LogError(saveErr)
			}
			result.State = StateFailed
			result.CanRetry = true
			result.Error = err.Error()
			return result, nil
		}
		result.ReviewIssues = verdict.Issues

		if verdict.Approved {
			if err := ClearAttempt(project.Dir); err != nil {
				return nil, err
			}
			if err := setProjectStatus(project.Dir, StatusCompiled, ""); err != nil {
				o.logger.LogError(err)
			}
			if err := setRunProgress(project.Dir, len(attempt.Units), len(attempt.Units), buildAttempts); err != nil {
				o.logger.LogError(err)
			}
			o.logger.LogProcessStep(fmt.Sprintf("Run %s complete: %s", attempt.RunID, verdict.Summary))

			result.Success = true
			result.State = StateDone
			result.ReviewPassed = true
			return result, nil
		}

		feedback := verdict.Feedback()
		// MaxReviewRetries bounds total review passes, so the pass just
		// finished counts against the budget.
		if attempt.ReviewRetriesUsed+1 < o.cfg.MaxReviewRetries {
			attempt.ReviewRetriesUsed++
			attempt.ReviewerFeedback = feedback
			attempt.UnitIndex = 0
			o.logger.LogProcessStep(fmt.Sprintf("Review rejected, re-running with feedback (retry %d/%d)", attempt.ReviewRetriesUsed, o.cfg.MaxReviewRetries))
			o.progress.Warn("Review rejected, re-running with feedback")
			continue
		}

		attempt.UnitIndex = 0
		attempt.ReviewerFeedback = feedback
		if err := SaveAttempt(project.Dir, attempt); err != nil {
			return nil, err
		}
		o.logger.LogProcessStep("Review retry budget exhausted, run blocked")

		result.State = StateBlocked
		result.CanRetry = true
		result.ReviewerFeedback = feedback
		return result, nil
	}
}

func (o *Orchestrator) readSources(project *workspace.Project) (map[string]string, error) {
	files, err := project.SourceFiles()
	if err != nil {
		return nil, err
	}
	return project.ReadFiles(files)
}

// projectDescription renders the state the planner sees: project status
// plus the symbol index.
func projectDescription(projectDir string, idx *symbols.Index) string {
	var b strings.Builder
	if m, err := loadMetadata(projectDir); err == nil && m.Status != "" {
		fmt.Fprintf(&b, "Project %s, status: %s\n\n", m.Name, m.Status)
	}
	b.WriteString(idx.ToPrompt())
	return b.String()
}

func planRequest(request string, constraints []string) string {
	if len(constraints) == 0 {
		return request
	}
	var b strings.Builder
	b.WriteString(request)
	b.WriteString("\n\nConstraints:\n")
	for _, c := range constraints {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	return b.String()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	const maxLen = 120
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	return s
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

func sortedKeys(m map[string]bool) []string {
	var keys []string
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
