package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gbforge/gbforge/pkg/config"
	"github.com/gbforge/gbforge/pkg/gap"
	"github.com/gbforge/gbforge/pkg/oracle"
	"github.com/gbforge/gbforge/pkg/pipeline"
	"github.com/gbforge/gbforge/pkg/utils"
	"github.com/gbforge/gbforge/pkg/workspace"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gbforge",
	Short: "LLM-driven code generation workflow for embedded C projects",
	Long: `Gbforge runs an iterative, checkpointed code generation workflow against
a small embedded-target C project. A request is broken into ordered work
units; each unit is generated, applied, and driven to a clean build before
the next one starts. The finished run is held at a review gate, and every
run starts from a snapshot so it can always be rolled back.

Available commands:
  run        - Plan and execute a feature request
  resume     - Continue a halted run from its saved state
  rollback   - Restore the project to a snapshot
  snapshots  - List project snapshots
  build      - Run a clean build of the project
  version    - Print version information`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

var skipPromptFlag bool

func init() {
	rootCmd.PersistentFlags().BoolVar(&skipPromptFlag, "skip-prompt", false, "Skip confirmation prompts")
}

// newOrchestrator builds the orchestrator stack from the loaded config.
func newOrchestrator() (*pipeline.Orchestrator, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	cfg.SkipPrompt = skipPromptFlag

	client, err := oracle.NewOpenAIClient(cfg)
	if err != nil {
		return nil, nil, err
	}

	logger := utils.GetLogger(cfg.SkipPrompt)
	progress := utils.NewProgressSink(func(level, message string) {
		fmt.Printf("[%s] %s\n", level, message)
	})
	builder := workspace.NewMakeBuilder(time.Duration(cfg.BuildTimeoutSecs) * time.Second)
	analyzer := gap.NewOracleAnalyzer(client)

	return pipeline.New(cfg, client, builder, analyzer, logger, progress), cfg, nil
}

// printResult renders a run result for the terminal.
func printResult(result *pipeline.Result) {
	if result.Success {
		fmt.Printf("✅ Run %s complete: %d/%d units, snapshot %d\n",
			result.RunID, result.StepsCompleted, result.TotalSteps, result.SnapshotID)
	} else {
		fmt.Printf("❌ Run %s halted in state %s: %s\n", result.RunID, result.State, result.Error)
		if result.ReviewerFeedback != "" {
			fmt.Printf("\n%s\n", result.ReviewerFeedback)
		}
		if result.CanRetry {
			fmt.Println("\n💡 Fix or adjust, then continue with: gbforge resume")
			if result.SnapshotID > 0 {
				fmt.Printf("💡 Or discard with: gbforge rollback %d\n", result.SnapshotID)
			}
		}
	}
	for _, issue := range result.ReviewIssues {
		fmt.Printf("  [%s] %s %s\n", issue.Severity, issue.File, issue.Description)
	}
	if len(result.FilesChanged) > 0 {
		fmt.Printf("Changed files: %d\n", len(result.FilesChanged))
		for _, f := range result.FilesChanged {
			fmt.Printf("  %s\n", f)
		}
	}
}
