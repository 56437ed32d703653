package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"studiovault/internal/backup"
	"studiovault/internal/display"
)

func init() {
	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Create, inspect and manage backups",
	}

	backupCmd.AddCommand(
		createBackupCreateCommand(),
		createBackupListCommand(),
		createBackupInfoCommand(),
		createBackupDeleteCommand(),
		createBackupVerifyCommand(),
		createBackupExportCommand(),
		createBackupImportCommand(),
		createBackupStatsCommand(),
	)

	rootCmd.AddCommand(backupCmd)
}

func createBackupCreateCommand() *cobra.Command {
	var backupType string
	var name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new backup",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment()
			if err != nil {
				return err
			}
			defer env.close()

			record, err := env.service.CreateBackup(cmd.Context(), backup.CreateBackupOptions{
				Type: backup.BackupType(backupType),
				Name: name,
			})
			if err != nil {
				if backup.IsAlreadyRunning(err) {
					return fmt.Errorf("another backup or restore is already running")
				}
				return err
			}

			fmt.Printf("%s %s\n", env.palette.Success("Created backup"), record.ID)
			fmt.Printf("  items:    %d\n", record.ItemCount)
			fmt.Printf("  size:     %s\n", display.FormatBytes(record.Size))
			fmt.Printf("  checksum: %s\n", record.Checksum[:16])
			if record.Compressed {
				fmt.Printf("  compression: %s\n", record.Compression)
			}
			if record.Encrypted {
				fmt.Println("  encrypted: yes")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&backupType, "type", "", "backup type (full, incremental, differential)")
	cmd.Flags().StringVar(&name, "name", "", "human-readable backup name")
	return cmd
}

func createBackupListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"history"},
		Short:   "List backup history, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment()
			if err != nil {
				return err
			}
			defer env.close()

			records, err := env.service.GetBackupHistory(cmd.Context())
			if err != nil {
				return err
			}

			if len(records) == 0 {
				fmt.Println("No backups yet.")
				return nil
			}

			table := display.NewTable("ID", "NAME", "TYPE", "CREATED", "SIZE", "ITEMS", "STATUS")
			for _, record := range records {
				table.AddRow(
					record.ID,
					record.Name,
					string(record.Type),
					display.FormatAge(record.CreatedAt),
					display.FormatBytes(record.Size),
					strconv.Itoa(record.ItemCount),
					env.palette.Status(string(record.Status)),
				)
			}
			fmt.Print(table.Render())
			return nil
		},
	}
}

func createBackupInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info <backup-id>",
		Short: "Show details of one backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment()
			if err != nil {
				return err
			}
			defer env.close()

			record, err := env.service.GetBackupInfo(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("%s\n", env.palette.Header(record.ID))
			fmt.Printf("  name:           %s\n", record.Name)
			fmt.Printf("  type:           %s\n", record.Type)
			fmt.Printf("  status:         %s\n", env.palette.Status(string(record.Status)))
			fmt.Printf("  created:        %s (%s)\n", display.FormatTimestamp(record.CreatedAt), display.FormatAge(record.CreatedAt))
			fmt.Printf("  size:           %s\n", display.FormatBytes(record.Size))
			fmt.Printf("  items:          %d\n", record.ItemCount)
			fmt.Printf("  schema version: %d\n", record.SchemaVersion)
			fmt.Printf("  storage:        %s\n", record.StorageLocation)
			fmt.Printf("  categories:     %s\n", strings.Join(record.DataCategories, ", "))
			fmt.Printf("  checksum:       %s\n", record.Checksum)
			fmt.Printf("  compressed:     %v", record.Compressed)
			if record.Compressed {
				fmt.Printf(" (%s)", record.Compression)
			}
			fmt.Println()
			fmt.Printf("  encrypted:      %v\n", record.Encrypted)
			return nil
		},
	}
}

func createBackupDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <backup-id>",
		Short: "Delete a backup and its artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment()
			if err != nil {
				return err
			}
			defer env.close()

			if err := env.service.DeleteBackup(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Printf("Deleted %s\n", args[0])
			return nil
		},
	}
}

func createBackupVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <backup-id>",
		Short: "Check a backup's integrity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment()
			if err != nil {
				return err
			}
			defer env.close()

			result, err := env.service.VerifyBackup(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if result.Valid {
				fmt.Printf("%s %s\n", env.palette.Success("OK"), args[0])
				return nil
			}

			fmt.Printf("%s %s\n", env.palette.Failure("INVALID"), args[0])
			for _, problem := range result.Errors {
				fmt.Printf("  - %s\n", problem)
			}
			return fmt.Errorf("backup failed verification")
		},
	}
}

func createBackupExportCommand() *cobra.Command {
	var destDir string

	cmd := &cobra.Command{
		Use:   "export <backup-id>",
		Short: "Export a backup artifact and its metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment()
			if err != nil {
				return err
			}
			defer env.close()

			path, err := env.service.ExportBackup(cmd.Context(), args[0], destDir)
			if err != nil {
				return err
			}

			fmt.Printf("Exported to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&destDir, "dest", ".", "destination directory")
	return cmd
}

func createBackupImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <artifact-path>",
		Short: "Import a previously exported backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment()
			if err != nil {
				return err
			}
			defer env.close()

			record, err := env.service.ImportBackup(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("%s %s (%d items)\n", env.palette.Success("Imported as"), record.ID, record.ItemCount)
			return nil
		},
	}
}

func createBackupStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate backup statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment()
			if err != nil {
				return err
			}
			defer env.close()

			stats, err := env.service.GetStatistics(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("%s\n", env.palette.Header("Backup statistics"))
			fmt.Printf("  total:     %d (%d completed, %d failed)\n", stats.TotalBackups, stats.CompletedBackups, stats.FailedBackups)
			fmt.Printf("  size:      %s\n", display.FormatBytes(stats.TotalSize))
			fmt.Printf("  items:     %d\n", stats.TotalItems)
			if stats.OldestBackup != nil {
				fmt.Printf("  oldest:    %s\n", display.FormatTimestamp(*stats.OldestBackup))
			}
			if stats.NewestBackup != nil {
				fmt.Printf("  newest:    %s\n", display.FormatTimestamp(*stats.NewestBackup))
			}

			due, err := env.service.IsBackupNeeded(cmd.Context())
			if err != nil {
				return err
			}
			if due {
				fmt.Println(env.palette.Warning("A scheduled backup is due."))
			}
			return nil
		},
	}
}
