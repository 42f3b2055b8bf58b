package review

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/gbforge/gbforge/pkg/oracle"
	"github.com/gbforge/gbforge/pkg/prompts"
	"github.com/gbforge/gbforge/pkg/utils"
)

// Severity classifies a review issue. Only blocking issues can prevent
// approval.
type Severity string

const (
	SeverityBlocking      Severity = "blocking"
	SeverityAdvisory      Severity = "advisory"
	SeverityInformational Severity = "informational"
)

// Issue is a single reviewer finding. Line, Code and Fix are optional;
// when present they make the corrective feedback actionable without
// re-reading the diff.
type Issue struct {
	Severity    Severity `json:"severity"`
	File        string   `json:"file,omitempty"`
	Line        int      `json:"line,omitempty"`
	Code        string   `json:"code,omitempty"`
	Description string   `json:"description"`
	Fix         string   `json:"fix,omitempty"`
}

// Location renders the file:line position of the issue, as far as it is
// known.
func (i Issue) Location() string {
	if i.File == "" {
		return ""
	}
	if i.Line > 0 {
		return fmt.Sprintf("%s:%d", i.File, i.Line)
	}
	return i.File
}

// Verdict is the outcome of a review pass.
type Verdict struct {
	Approved bool    `json:"approved"`
	Summary  string  `json:"summary"`
	Issues   []Issue `json:"issues,omitempty"`
}

// BlockingCount returns the number of blocking issues.
func (v *Verdict) BlockingCount() int {
	n := 0
	for _, issue := range v.Issues {
		if issue.Severity == SeverityBlocking {
			n++
		}
	}
	return n
}

// Feedback renders the blocking issues as guidance for a re-run. Empty
// when nothing blocks.
func (v *Verdict) Feedback() string {
	var b strings.Builder
	for _, issue := range v.Issues {
		if issue.Severity != SeverityBlocking {
			continue
		}
		if loc := issue.Location(); loc != "" {
			fmt.Fprintf(&b, "- [%s] %s\n", loc, issue.Description)
		} else {
			fmt.Fprintf(&b, "- %s\n", issue.Description)
		}
		if issue.Code != "" {
			fmt.Fprintf(&b, "  Code: %s\n", issue.Code)
		}
		if issue.Fix != "" {
			fmt.Fprintf(&b, "  Fix: %s\n", issue.Fix)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "The reviewer found the following problems:\n" + b.String()
}

// Gate reviews a completed run before it is accepted. The gate fails
// open: when the reviewer itself errors or returns garbage, the changes
// pass with a note, unless strict mode is on.
type Gate struct {
	oracle oracle.Client
	logger *utils.Logger
	strict bool
}

// NewGate returns a review gate. strict makes reviewer faults reject
// instead of approve.
func NewGate(client oracle.Client, logger *utils.Logger, strict bool) *Gate {
	return &Gate{oracle: client, logger: logger, strict: strict}
}

// Review diffs before against after and asks the reviewer for a verdict
// on whether the changes accomplish task.
func (g *Gate) Review(ctx context.Context, task string, before, after map[string]string) (Verdict, error) {
	diff := UnifiedDiff(before, after)
	if diff == "" {
		return Verdict{Approved: true, Summary: "No changes to review"}, nil
	}

	// Show the reviewer the complete post-change files, not just the
	// diff hunks. Deleted files have no after-content to show.
	changed := make(map[string]string)
	for p, content := range after {
		if before[p] != content {
			changed[p] = content
		}
	}

	prompt := prompts.BuildReviewPrompt(task, diff, changed)
	resp, err := g.oracle.Generate(ctx, prompts.ReviewerSystem, prompt, oracle.ModeReview)
	if err != nil {
		return g.onFault(fmt.Sprintf("reviewer unavailable: %v", err))
	}

	verdict, ok := parseVerdict(resp.Text)
	if !ok {
		return g.onFault("reviewer response could not be parsed")
	}

	// A rejection with zero blocking issues is inconsistent output;
	// only blocking issues carry veto power.
	if !verdict.Approved && verdict.BlockingCount() == 0 {
		g.logger.Log("Reviewer rejected without blocking issues, treating as approved")
		verdict.Approved = true
	}
	if verdict.Approved && verdict.BlockingCount() > 0 {
		verdict.Approved = false
	}
	return verdict, nil
}

func (g *Gate) onFault(reason string) (Verdict, error) {
	g.logger.Logf("Review gate fault: %s", reason)
	if g.strict {
		return Verdict{}, fmt.Errorf("review failed in strict mode: %s", reason)
	}
	return Verdict{
		Approved: true,
		Summary:  "Approved without review: " + reason,
		Issues: []Issue{{
			Severity:    SeverityInformational,
			Description: reason,
		}},
	}, nil
}

var verdictFenceRe = regexp.MustCompile("(?s)```json\\s*\\n(.*?)```")

func parseVerdict(text string) (Verdict, bool) {
	raw := text
	if m := verdictFenceRe.FindStringSubmatch(text); m != nil {
		raw = m[1]
	} else if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			raw = text[start : end+1]
		}
	}
	var v Verdict
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return Verdict{}, false
	}
	for i, issue := range v.Issues {
		switch issue.Severity {
		case SeverityBlocking, SeverityAdvisory, SeverityInformational:
		default:
			v.Issues[i].Severity = SeverityAdvisory
		}
	}
	return v, true
}
