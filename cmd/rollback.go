package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gbforge/gbforge/pkg/utils"
)

// rollbackCmd represents the rollback command
var rollbackCmd = &cobra.Command{
	Use:   "rollback <snapshot-id>",
	Short: "Restore the project to a snapshot",
	Long: `Restore the project's sources to the state captured by a snapshot.
A backup snapshot of the current state is taken first, so a rollback can
itself be undone. Any pending resume state is cleared.

Examples:
  gbforge rollback 3
  gbforge rollback 3 --yes`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectDir, _ := cmd.Flags().GetString("project")
		confirm, _ := cmd.Flags().GetBool("yes")

		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid snapshot id %q", args[0])
		}

		orch, cfg, err := newOrchestrator()
		if err != nil {
			return err
		}

		if !confirm {
			logger := utils.GetLogger(cfg.SkipPrompt)
			if !logger.AskForConfirmation(fmt.Sprintf("Restore project to snapshot %d?", id), false) {
				fmt.Println("Rollback cancelled.")
				return nil
			}
		}

		if err := orch.Rollback(projectDir, id); err != nil {
			return err
		}
		fmt.Printf("✅ Restored project to snapshot %d\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rollbackCmd)

	rollbackCmd.Flags().StringP("project", "p", ".", "Path to the project directory")
	rollbackCmd.Flags().BoolP("yes", "y", false, "Skip confirmation prompt")
}
