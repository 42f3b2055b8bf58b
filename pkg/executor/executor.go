package executor

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/gbforge/gbforge/pkg/oracle"
	"github.com/gbforge/gbforge/pkg/parser"
	"github.com/gbforge/gbforge/pkg/prompts"
	"github.com/gbforge/gbforge/pkg/types"
	"github.com/gbforge/gbforge/pkg/utils"
	"github.com/gbforge/gbforge/pkg/workspace"
)

// Result is the outcome of executing one work unit.
type Result struct {
	Success     bool
	Changes     []types.FileChange
	ChangesMade []string
	Summary     string
	Diagnostics string
	Attempts    int
	TokensUsed  int
}

// StepExecutor runs a single work unit to a compiling state: generate an
// edit, apply it, build, and on failure feed the diagnostics back for
// another attempt. The visible file set only ever grows across attempts.
type StepExecutor struct {
	oracle     oracle.Client
	builder    workspace.Builder
	project    *workspace.Project
	logger     *utils.Logger
	progress   *utils.ProgressSink
	maxRetries int
}

// New returns a step executor with the given retry budget.
func New(client oracle.Client, builder workspace.Builder, project *workspace.Project, logger *utils.Logger, progress *utils.ProgressSink, maxRetries int) *StepExecutor {
	if maxRetries < 1 {
		maxRetries = 3
	}
	return &StepExecutor{
		oracle:     client,
		builder:    builder,
		project:    project,
		logger:     logger,
		progress:   progress,
		maxRetries: maxRetries,
	}
}

// Execute runs the unit. fileSet names the implementation files shown to
// the model; headers are always shown in full. knownFiles bounds what the
// diagnostics scraper may add to the file set. feedback carries reviewer
// guidance for re-runs; prevSummary threads context from the prior unit.
func (e *StepExecutor) Execute(ctx context.Context, unit types.WorkUnit, fileSet []string, knownFiles []string, feedback, prevSummary string) (Result, error) {
	headers, err := e.readHeaders(knownFiles)
	if err != nil {
		return Result{}, err
	}
	impl, err := e.project.ReadFiles(fileSet)
	if err != nil {
		return Result{}, err
	}

	visible := make(map[string]bool, len(fileSet))
	for _, f := range fileSet {
		visible[f] = true
	}

	changes := make(map[string]types.FileChange)
	retryNote := ""
	lastDiagnostics := ""
	tokensUsed := 0
	var summary string
	var changesMade []string

	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		e.progress.Info(fmt.Sprintf("Step %d: %s (attempt %d/%d)", unit.Order, unit.Title, attempt, e.maxRetries))

		// Reviewer guidance shapes the first attempt only; retries are
		// steered by the retry note alone.
		note := retryNote
		if attempt == 1 {
			note = feedback
		}

		prompt := prompts.BuildStepPrompt(unit, headers, impl, note, prevSummary)
		resp, err := e.oracle.Generate(ctx, prompts.CoderSystem, prompt, oracle.ModeGeneration)
		if err != nil {
			return Result{Attempts: attempt, TokensUsed: tokensUsed}, fmt.Errorf("generation failed for %q: %w", unit.Title, err)
		}
		tokensUsed += resp.Usage.TotalTokens

		if resp.Truncated {
			e.logger.Logf("Response truncated on attempt %d for %q, retrying", attempt, unit.Title)
			retryNote = "Your previous response was cut off before completion. Make a smaller, more focused change."
			continue
		}

		edits, err := parser.ParseEditResponse(resp.Text)
		if err != nil {
			e.logger.Logf("Unparseable response on attempt %d for %q: %v", attempt, unit.Title, err)
			retryNote = "Your previous response could not be parsed. Respond with exactly one JSON object in a ```json fence as instructed."
			continue
		}

		applied, err := e.apply(edits, impl, headers, changes)
		if err != nil {
			return Result{Attempts: attempt, TokensUsed: tokensUsed}, err
		}
		if applied == 0 {
			retryNote = "Your previous response contained no valid file paths. All files must live under src/."
			continue
		}
		summary = edits.Summary
		changesMade = append(changesMade, edits.ChangesMade...)

		build, err := e.builder.Build(ctx, e.project.Dir)
		if err != nil {
			return Result{Attempts: attempt, TokensUsed: tokensUsed}, err
		}
		if build.Success {
			e.logger.Logf("Step %q built clean after %d attempt(s)", unit.Title, attempt)
			return Result{
				Success:     true,
				Changes:     sortedChanges(changes),
				ChangesMade: changesMade,
				Summary:     summary,
				Attempts:    attempt,
				TokensUsed:  tokensUsed,
			}, nil
		}

		lastDiagnostics = build.Output
		e.logger.Logf("Build failed on attempt %d for %q", attempt, unit.Title)
		e.progress.Warn(fmt.Sprintf("Build failed on attempt %d, retrying with diagnostics", attempt))

		// Pull files the compiler complained about into view for the
		// next attempt. The set never shrinks.
		for _, extra := range workspace.FilesFromDiagnostics(build.Output, knownFiles) {
			if !visible[extra] && !strings.HasSuffix(extra, ".h") {
				visible[extra] = true
				fileSet = append(fileSet, extra)
			}
		}
		fresh, err := e.project.ReadFiles(fileSet)
		if err != nil {
			return Result{Attempts: attempt, TokensUsed: tokensUsed}, err
		}
		impl = fresh

		retryNote = fmt.Sprintf("The build failed with the following output. Fix the errors:\n\n%s", trimDiagnostics(build.Output))
	}

	return Result{
		Success:     false,
		Changes:     sortedChanges(changes),
		ChangesMade: changesMade,
		Summary:     summary,
		Diagnostics: lastDiagnostics,
		Attempts:    e.maxRetries,
		TokensUsed:  tokensUsed,
	}, nil
}

// apply writes parsed edits to disk, records the changes, and folds the
// new content into the context maps so later attempts see what was just
// written. Paths outside src/ are skipped.
func (e *StepExecutor) apply(edits *parser.EditSet, impl, headers map[string]string, changes map[string]types.FileChange) (int, error) {
	applied := 0
	for path, content := range edits.Files {
		if !strings.HasPrefix(path, "src/") {
			e.logger.Logf("Skipping edit outside src/: %s", path)
			continue
		}
		kind, err := e.project.WriteFile(path, content)
		if err != nil {
			return applied, fmt.Errorf("applying edit to %s: %w", path, err)
		}
		// First write wins for the reported kind; a file created then
		// rewritten across attempts is still a creation.
		if prev, ok := changes[path]; ok {
			kind = prev.Kind
		}
		changes[path] = types.FileChange{Path: path, Content: content, Kind: kind}
		if strings.HasSuffix(path, ".h") {
			headers[path] = content
		} else {
			impl[path] = content
		}
		applied++
	}
	return applied, nil
}

func (e *StepExecutor) readHeaders(knownFiles []string) (map[string]string, error) {
	var headerPaths []string
	for _, f := range knownFiles {
		if strings.HasSuffix(f, ".h") {
			headerPaths = append(headerPaths, f)
		}
	}
	return e.project.ReadFiles(headerPaths)
}

func sortedChanges(changes map[string]types.FileChange) []types.FileChange {
	var out []types.FileChange
	for _, c := range changes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// trimDiagnostics caps huge compiler output so it does not crowd the
// retry prompt.
func trimDiagnostics(output string) string {
	const maxLen = 4000
	if len(output) <= maxLen {
		return output
	}
	return output[:maxLen] + "\n... (output truncated)"
}
