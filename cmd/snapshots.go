package cmd

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/gbforge/gbforge/pkg/snapshot"
)

// snapshotsCmd represents the snapshots command
var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List project snapshots",
	Long: `List the snapshots recorded for a project, oldest first. Snapshot IDs
are stable and never reused, so an ID from old tooling output always
refers to the same state.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		projectDir, _ := cmd.Flags().GetString("project")

		infos, err := snapshot.NewStore(projectDir).List()
		if err != nil {
			return err
		}
		if len(infos) == 0 {
			fmt.Println("No snapshots found.")
			return nil
		}

		tw := table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		tw.AppendHeader(table.Row{"ID", "Created", "Files", "Description"})
		for _, info := range infos {
			tw.AppendRow(table.Row{
				info.ID,
				info.Timestamp.Local().Format("2006-01-02 15:04:05"),
				info.FileCount,
				info.Description,
			})
		}
		tw.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(snapshotsCmd)

	snapshotsCmd.Flags().StringP("project", "p", ".", "Path to the project directory")
}
