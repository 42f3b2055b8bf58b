package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gbforge/gbforge/pkg/pipeline"
)

// resumeCmd represents the resume command
var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Continue a halted run from its saved state",
	Long: `Resume a run that halted at a failed unit or a rejected review.
The run picks up from the saved work unit using the original plan and
snapshot; no new snapshot is taken. Optional guidance is added to the
generation prompts.

Examples:
  gbforge resume
  gbforge resume --guidance "the tile map is column-major, index it accordingly"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		projectDir, _ := cmd.Flags().GetString("project")
		guidance, _ := cmd.Flags().GetString("guidance")

		orch, _, err := newOrchestrator()
		if err != nil {
			return err
		}

		result, err := orch.Resume(cmd.Context(), projectDir, guidance)
		if err != nil {
			if errors.Is(err, pipeline.ErrNoRetryContext) {
				fmt.Println("Nothing to resume: no halted run found for this project.")
				return nil
			}
			return err
		}
		printResult(result)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resumeCmd)

	resumeCmd.Flags().StringP("project", "p", ".", "Path to the project directory")
	resumeCmd.Flags().StringP("guidance", "g", "", "Extra guidance for the retry")
}
