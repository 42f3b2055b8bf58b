package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run \"<request>\"",
	Short: "Plan and execute a feature request against the project",
	Long: `Run the full workflow for a request: gap analysis breaks it into
ordered work units, a snapshot is taken, each unit is generated and built
to a clean state, and the result is reviewed before acceptance.

Examples:
  gbforge run "add a pause menu toggled by the start button"
  gbforge run --project ./game "fix the sprite flicker" --constraint "do not touch src/audio.c"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectDir, _ := cmd.Flags().GetString("project")
		constraints, _ := cmd.Flags().GetStringArray("constraint")

		request := strings.TrimSpace(args[0])
		if request == "" {
			return fmt.Errorf("request must not be empty")
		}

		orch, _, err := newOrchestrator()
		if err != nil {
			return err
		}

		result, err := orch.Run(cmd.Context(), projectDir, request, constraints)
		if err != nil {
			return err
		}
		printResult(result)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("project", "p", ".", "Path to the project directory")
	runCmd.Flags().StringArray("constraint", nil, "Constraint passed to the planner (repeatable)")
}
