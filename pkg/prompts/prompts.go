package prompts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gbforge/gbforge/pkg/types"
)

// CoderSystem is the system prompt for generation calls. The response
// contract is a single JSON object with full file contents, which keeps
// application trivial: every listed file is replaced wholesale.
const CoderSystem = `You are an expert C programmer working on a small embedded-target project built with make.
You make focused, minimal changes that keep the project compiling.

Respond with a single JSON object inside a ` + "```json" + ` fence:
{
  "files": {"src/example.c": "<complete new file content>"},
  "summary": "<one sentence describing the change>",
  "changes_made": ["<short bullet per change>"]
}

Rules:
- Every file you list must contain its COMPLETE content, not a fragment or diff.
- Only include files you actually changed or created.
- Keep includes, types, and function signatures consistent with the headers shown.
- Do not invent files outside src/.`

// SelectorSystem is the system prompt for file-selection calls.
const SelectorSystem = `You select which implementation files are relevant to a coding task.
You are given a symbol index of the project and a task description.
Respond with a JSON array of file paths chosen from the index, nothing else.
Pick the smallest set that covers the task. If unsure about a file, leave it out.`

// ReviewerSystem is the system prompt for review calls.
const ReviewerSystem = `You are a meticulous code reviewer for a small embedded C project.
You receive the original task and a unified diff of the changes.
Judge whether the changes accomplish the task without introducing defects.

Respond with a single JSON object inside a ` + "```json" + ` fence:
{
  "approved": true,
  "summary": "<one sentence verdict>",
  "issues": [
    {
      "severity": "blocking|advisory|informational",
      "file": "src/example.c",
      "line": 42,
      "code": "<the offending line or snippet>",
      "description": "<what is wrong>",
      "fix": "<how to fix it>"
    }
  ]
}

Severity guide:
- blocking: the change is wrong, breaks the build contract, or misses the task.
- advisory: worth fixing but acceptable as-is.
- informational: style or context notes.
Set approved to false only when at least one issue is blocking.`

// GapSystem is the system prompt for gap analysis calls.
const GapSystem = `You plan implementation work for a small embedded C project.
You receive the current project state and a feature request.
Break the request into ordered, independently buildable steps.

Respond with a single JSON object inside a ` + "```json" + ` fence:
{
  "steps": [
    {
      "order": 1,
      "title": "<short title>",
      "description": "<what to implement and how>",
      "feature": "<feature this step belongs to>",
      "file_hints": ["src/example.c"],
      "requirements": ["<specific requirement>"],
      "acceptance": ["<observable result>"]
    }
  ]
}

Each step must leave the project compiling. Prefer fewer, larger steps over many tiny ones.`

// BuildStepPrompt assembles the generation prompt for one work unit:
// the task, full header contents, the selected implementation files, any
// reviewer feedback, and a summary of the previous step.
func BuildStepPrompt(unit types.WorkUnit, headers, impl map[string]string, feedback, prevSummary string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Task: %s\n\n%s\n", unit.Title, unit.Description)
	if len(unit.Requirements) > 0 {
		b.WriteString("\nRequirements:\n")
		for _, r := range unit.Requirements {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}
	if len(unit.Acceptance) > 0 {
		b.WriteString("\nAcceptance criteria:\n")
		for _, a := range unit.Acceptance {
			fmt.Fprintf(&b, "- %s\n", a)
		}
	}

	if prevSummary != "" {
		fmt.Fprintf(&b, "\nPrevious step: %s\n", prevSummary)
	}
	if feedback != "" {
		fmt.Fprintf(&b, "\nReviewer feedback to address:\n%s\n", feedback)
	}

	writeFileSection(&b, "Headers", headers)
	writeFileSection(&b, "Implementation files", impl)
	return b.String()
}

// BuildSelectionPrompt assembles the narrower prompt from the symbol
// index rendering and the task.
func BuildSelectionPrompt(unit types.WorkUnit, indexText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Task: %s\n\n%s\n", unit.Title, unit.Description)
	if len(unit.FileHints) > 0 {
		fmt.Fprintf(&b, "\nHinted files: %s\n", strings.Join(unit.FileHints, ", "))
	}
	b.WriteString("\n# Project symbol index\n\n")
	b.WriteString(indexText)
	b.WriteString("\nSelect the implementation files needed for this task.\n")
	return b.String()
}

// maxReviewFileLen caps how much of each changed file is shown to the
// reviewer beside the diff.
const maxReviewFileLen = 3000

// BuildReviewPrompt assembles the review prompt from the task
// description, the unified diff, and the full post-change content of the
// changed files so the reviewer sees surrounding context the diff omits.
func BuildReviewPrompt(task, diff string, changed map[string]string) string {
	var b strings.Builder
	b.WriteString("# Task\n\n")
	b.WriteString(task)
	b.WriteString("\n\n# Changes\n\n```diff\n")
	b.WriteString(diff)
	b.WriteString("\n```\n")

	if len(changed) > 0 {
		var paths []string
		for p := range changed {
			paths = append(paths, p)
		}
		sort.Strings(paths)

		b.WriteString("\n# Full content of changed files\n")
		for _, p := range paths {
			content := changed[p]
			if len(content) > maxReviewFileLen {
				content = content[:maxReviewFileLen] + "\n... (truncated)"
			}
			fmt.Fprintf(&b, "\n## %s\n```c\n%s\n```\n", p, content)
		}
	}
	return b.String()
}

// BuildGapPrompt assembles the gap analysis prompt from the project state
// description and the feature request.
func BuildGapPrompt(projectState, request string) string {
	var b strings.Builder
	b.WriteString("# Current project state\n\n")
	b.WriteString(projectState)
	b.WriteString("\n\n# Request\n\n")
	b.WriteString(request)
	b.WriteString("\n")
	return b.String()
}

func writeFileSection(b *strings.Builder, title string, files map[string]string) {
	if len(files) == 0 {
		return
	}
	var paths []string
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	fmt.Fprintf(b, "\n# %s\n", title)
	for _, p := range paths {
		fmt.Fprintf(b, "\n## %s\n```c\n%s\n```\n", p, files[p])
	}
}
