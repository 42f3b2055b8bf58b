package gap

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/gbforge/gbforge/pkg/oracle"
	"github.com/gbforge/gbforge/pkg/prompts"
	"github.com/gbforge/gbforge/pkg/types"
)

// Analyzer turns a feature request into an ordered plan of work units.
type Analyzer interface {
	Analyze(ctx context.Context, projectState, request string) ([]types.WorkUnit, error)
}

// OracleAnalyzer plans with a model call.
type OracleAnalyzer struct {
	oracle oracle.Client
}

// NewOracleAnalyzer returns an analyzer backed by the given client.
func NewOracleAnalyzer(client oracle.Client) *OracleAnalyzer {
	return &OracleAnalyzer{oracle: client}
}

type planPayload struct {
	Steps []types.WorkUnit `json:"steps"`
}

var jsonFenceRe = regexp.MustCompile("(?s)```json\\s*\\n(.*?)```")

// Analyze implements Analyzer. The returned units are sorted by Order and
// renumbered so gaps and duplicates in model output cannot confuse the
// pipeline.
func (a *OracleAnalyzer) Analyze(ctx context.Context, projectState, request string) ([]types.WorkUnit, error) {
	prompt := prompts.BuildGapPrompt(projectState, request)
	resp, err := a.oracle.Generate(ctx, prompts.GapSystem, prompt, oracle.ModeAnalysis)
	if err != nil {
		return nil, fmt.Errorf("gap analysis failed: %w", err)
	}
	if resp.Truncated {
		return nil, fmt.Errorf("gap analysis response was truncated")
	}

	raw := resp.Text
	if m := jsonFenceRe.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	} else if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}

	var payload planPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("parsing gap analysis plan: %w", err)
	}

	var units []types.WorkUnit
	for _, u := range payload.Steps {
		if strings.TrimSpace(u.Title) == "" && strings.TrimSpace(u.Description) == "" {
			continue
		}
		units = append(units, u)
	}
	sort.SliceStable(units, func(i, j int) bool { return units[i].Order < units[j].Order })
	for i := range units {
		units[i].Order = i + 1
	}
	return units, nil
}
