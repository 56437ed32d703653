package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"studiovault/internal/backup"
)

func init() {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "View and change backup settings",
	}

	settingsCmd.AddCommand(
		createSettingsShowCommand(),
		createSettingsSetCommand(),
		createSettingsResetCommand(),
	)

	rootCmd.AddCommand(settingsCmd)
}

func createSettingsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current backup settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment()
			if err != nil {
				return err
			}
			defer env.close()

			settings, err := env.service.Settings().Get(cmd.Context())
			if err != nil {
				return err
			}

			printSettings(env, settings)
			return nil
		},
	}
}

func createSettingsSetCommand() *cobra.Command {
	var (
		autoBackup    bool
		schedule      string
		backupType    string
		storage       string
		maxBackups    int
		retentionDays int
		compress      bool
		encrypt       bool
		includeMedia  bool
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change one or more backup settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := backup.SettingsPatch{}
			changed := false

			if cmd.Flags().Changed("auto-backup") {
				patch.AutoBackup = &autoBackup
				changed = true
			}
			if cmd.Flags().Changed("schedule") {
				value := backup.Schedule(schedule)
				patch.Schedule = &value
				changed = true
			}
			if cmd.Flags().Changed("backup-type") {
				value := backup.BackupType(backupType)
				patch.BackupType = &value
				changed = true
			}
			if cmd.Flags().Changed("storage") {
				value := backup.StorageLocation(storage)
				patch.StorageLocation = &value
				changed = true
			}
			if cmd.Flags().Changed("max-backups") {
				patch.MaxBackups = &maxBackups
				changed = true
			}
			if cmd.Flags().Changed("retention-days") {
				patch.RetentionDays = &retentionDays
				changed = true
			}
			if cmd.Flags().Changed("compress") {
				patch.CompressBackups = &compress
				changed = true
			}
			if cmd.Flags().Changed("encrypt") {
				patch.EncryptBackups = &encrypt
				changed = true
			}
			if cmd.Flags().Changed("include-media") {
				patch.IncludeMedia = &includeMedia
				changed = true
			}

			if !changed {
				return fmt.Errorf("no settings flags given; see --help for the available flags")
			}

			env, err := newEnvironment()
			if err != nil {
				return err
			}
			defer env.close()

			settings, err := env.service.Settings().Update(cmd.Context(), patch)
			if err != nil {
				return err
			}

			fmt.Println(env.palette.Success("Settings updated."))
			printSettings(env, settings)
			return nil
		},
	}

	cmd.Flags().BoolVar(&autoBackup, "auto-backup", false, "enable scheduled backups")
	cmd.Flags().StringVar(&schedule, "schedule", "", "backup schedule (daily, weekly, monthly, manual)")
	cmd.Flags().StringVar(&backupType, "backup-type", "", "backup type (full, incremental, differential)")
	cmd.Flags().StringVar(&storage, "storage", "", "storage location (local, cloud, both)")
	cmd.Flags().IntVar(&maxBackups, "max-backups", 0, "maximum backups kept by retention")
	cmd.Flags().IntVar(&retentionDays, "retention-days", 0, "age in days before retention may evict")
	cmd.Flags().BoolVar(&compress, "compress", false, "compress backup artifacts")
	cmd.Flags().BoolVar(&encrypt, "encrypt", false, "encrypt backup artifacts")
	cmd.Flags().BoolVar(&includeMedia, "include-media", false, "include media files in backups")
	return cmd
}

func createSettingsResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default backup settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := newEnvironment()
			if err != nil {
				return err
			}
			defer env.close()

			settings, err := env.service.Settings().Reset(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Println(env.palette.Success("Settings reset to defaults."))
			printSettings(env, settings)
			return nil
		},
	}
}

func printSettings(env *environment, settings backup.BackupSettings) {
	fmt.Printf("%s\n", env.palette.Header("Backup settings"))
	fmt.Printf("  auto backup:    %v\n", settings.AutoBackup)
	fmt.Printf("  schedule:       %s\n", settings.Schedule)
	fmt.Printf("  backup type:    %s\n", settings.BackupType)
	fmt.Printf("  storage:        %s\n", settings.StorageLocation)
	fmt.Printf("  max backups:    %d\n", settings.MaxBackups)
	fmt.Printf("  retention days: %d\n", settings.RetentionDays)
	fmt.Printf("  compress:       %v\n", settings.CompressBackups)
	fmt.Printf("  encrypt:        %v\n", settings.EncryptBackups)
	fmt.Printf("  include media:  %v\n", settings.IncludeMedia)
}
