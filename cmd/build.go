package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gbforge/gbforge/pkg/config"
	"github.com/gbforge/gbforge/pkg/pipeline"
	"github.com/gbforge/gbforge/pkg/workspace"
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Run a clean build of the project",
	Long: `Run the same clean build the workflow uses, without any generation.
Useful for checking that a project compiles before starting a run or
after a manual edit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		projectDir, _ := cmd.Flags().GetString("project")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if _, err := workspace.Open(projectDir); err != nil {
			return err
		}

		builder := workspace.NewMakeBuilder(time.Duration(cfg.BuildTimeoutSecs) * time.Second)
		result, err := builder.Build(cmd.Context(), projectDir)
		if err != nil {
			return err
		}
		if recErr := pipeline.RecordBuildResult(projectDir, result.Success, result.Output); recErr != nil {
			return recErr
		}
		if result.Success {
			fmt.Printf("✅ Build succeeded in %s\n", result.Duration.Round(time.Millisecond))
			return nil
		}
		fmt.Printf("❌ Build failed in %s\n\n%s\n", result.Duration.Round(time.Millisecond), result.Output)
		return fmt.Errorf("build failed")
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringP("project", "p", ".", "Path to the project directory")
}
