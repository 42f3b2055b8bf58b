package workspace

import (
	"context"

	"github.com/gbforge/gbforge/pkg/oracle"
	"github.com/gbforge/gbforge/pkg/parser"
	"github.com/gbforge/gbforge/pkg/prompts"
	"github.com/gbforge/gbforge/pkg/symbols"
	"github.com/gbforge/gbforge/pkg/types"
	"github.com/gbforge/gbforge/pkg/utils"
)

// Selector narrows the file set for a work unit using a cheap model call
// against the symbol index. Selection is an optimization only: any fault
// falls open to the full implementation set, never to a failed step.
type Selector struct {
	oracle   oracle.Client
	logger   *utils.Logger
	progress *utils.ProgressSink
}

// NewSelector returns a selector backed by the given oracle client.
func NewSelector(client oracle.Client, logger *utils.Logger, progress *utils.ProgressSink) *Selector {
	return &Selector{oracle: client, logger: logger, progress: progress}
}

// Select returns the implementation files relevant to the unit. File
// hints from the unit are always included when they exist in the index.
func (s *Selector) Select(ctx context.Context, unit types.WorkUnit, idx *symbols.Index) []string {
	all := idx.ImplementationFiles()
	if len(all) <= 2 {
		return all
	}

	prompt := prompts.BuildSelectionPrompt(unit, idx.ToPrompt())
	resp, err := s.oracle.Generate(ctx, prompts.SelectorSystem, prompt, oracle.ModeSelection)
	if err != nil {
		s.logger.Logf("File selection failed, using all implementation files: %v", err)
		s.progress.Warn("file selection unavailable, using full context")
		return all
	}

	selected := parser.ParseFileSelection(resp.Text, all)
	if len(selected) == 0 {
		s.logger.Log("File selection returned nothing usable, using all implementation files")
		return all
	}

	selected = mergeHints(selected, unit.FileHints, all)
	s.logger.Logf("Selected %d of %d implementation files for %q", len(selected), len(all), unit.Title)
	return selected
}

func mergeHints(selected, hints, available []string) []string {
	known := make(map[string]bool, len(available))
	for _, f := range available {
		known[f] = true
	}
	have := make(map[string]bool, len(selected))
	for _, f := range selected {
		have[f] = true
	}
	for _, h := range hints {
		if known[h] && !have[h] {
			selected = append(selected, h)
			have[h] = true
		}
	}
	return selected
}
