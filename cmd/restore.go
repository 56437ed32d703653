package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"studiovault/internal/display"
)

func init() {
	restoreCmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore studio data from a backup",
	}

	restoreCmd.AddCommand(
		createRestoreRunCommand(),
		createRestorePointsCommand(),
	)

	rootCmd.AddCommand(restoreCmd)
}

func createRestoreRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run <backup-id>",
		Short: "Restore all data from the given backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment()
			if err != nil {
				return err
			}
			defer env.close()

			result := env.service.RestoreFromBackup(cmd.Context(), args[0])

			fmt.Printf("restored: %d  failed: %d  (%s)\n",
				result.RestoredItems, result.FailedItems, display.FormatDuration(result.Duration))
			for _, problem := range result.Errors {
				fmt.Printf("  %s %s\n", env.palette.Failure("!"), problem)
			}

			if !result.Success {
				return fmt.Errorf("restore from %s did not recover any data", args[0])
			}
			if result.FailedItems > 0 {
				fmt.Println(env.palette.Warning("Restore completed with partial failures."))
			} else {
				fmt.Println(env.palette.Success("Restore complete."))
			}
			return nil
		},
	}
}

func createRestorePointsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "points",
		Short: "List backups that can be restored from",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment()
			if err != nil {
				return err
			}
			defer env.close()

			points, err := env.service.GetRestorePoints(cmd.Context())
			if err != nil {
				return err
			}

			if len(points) == 0 {
				fmt.Println("No restore points available.")
				return nil
			}

			table := display.NewTable("BACKUP ID", "CREATED", "DESCRIPTION", "RESTORABLE")
			for _, point := range points {
				restorable := env.palette.Success("yes")
				if !point.CanRestore {
					restorable = env.palette.Failure("no")
				}
				table.AddRow(
					point.BackupID,
					display.FormatAge(point.Timestamp),
					point.Description,
					restorable,
				)
			}
			fmt.Print(table.Render())
			return nil
		},
	}
}
