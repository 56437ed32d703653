// Package cmd implements the studiovault command line interface.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"studiovault/internal/backup"
	"studiovault/internal/blob"
	"studiovault/internal/display"
	"studiovault/internal/logging"
	"studiovault/internal/store"
)

var cfgFile string

// CLI flag variables
var (
	dataDir   string
	backupDir string
	verbose   bool
	quiet     bool
	logFile   string
	noColor   bool
)

// Version information (set via SetVersionInfo from build flags)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "studiovault",
	Short: "Backup and restore tooling for studio management data",
	Long: `StudioVault captures snapshots of a studio's data - members, trainers,
sessions, payments, class packages and application settings - into
checksummed, optionally compressed and encrypted artifacts, and
restores them with per-category failure accounting.

Examples:
  # Create a backup with the configured settings
  studiovault backup create

  # List backup history
  studiovault backup list

  # Restore a specific backup
  studiovault restore run backup-20260801-120000-a1b2c3d4

  # Enable daily automatic backups with encryption
  studiovault settings set --auto-backup --schedule=daily --encrypt`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// SetVersionInfo sets the version information from build flags
func SetVersionInfo(v, bt, gc string) {
	version = v
	buildTime = bt
	gitCommit = gc
	rootCmd.Version = v
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.studiovault.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory of the studio data store")
	rootCmd.PersistentFlags().StringVar(&backupDir, "backup-dir", "", "directory holding backup artifacts")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to file instead of stdout")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable color output")

	viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	viper.BindPFlag("backup_dir", rootCmd.PersistentFlags().Lookup("backup-dir"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	viper.BindPFlag("log_file", rootCmd.PersistentFlags().Lookup("log-file"))

	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	rootCmd.AddCommand(createVersionCommand())
	rootCmd.AddCommand(createInitConfigCommand())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".studiovault")
	}

	viper.SetEnvPrefix("STUDIOVAULT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}

	if noColor {
		os.Setenv("NO_COLOR", "1")
	}
}

// environment bundles the wired subsystems a command needs, plus the
// cleanup closing them.
type environment struct {
	service backup.Service
	logger  *logging.Logger
	palette *display.Palette
	close   func()
}

// newEnvironment opens the stores and wires the backup service from
// the effective configuration.
func newEnvironment() (*environment, error) {
	cfg := buildSystemConfig()

	logger, err := newLogger()
	if err != nil {
		return nil, err
	}

	kv, err := store.OpenBadgerStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open data store: %w", err)
	}

	blobs, err := blob.NewLocalBlobStore(cfg.BackupDir, 0o755)
	if err != nil {
		kv.Close()
		return nil, fmt.Errorf("open backup directory: %w", err)
	}

	transport, err := backup.NewCloudTransport(cfg.Cloud)
	if err != nil {
		kv.Close()
		return nil, err
	}

	service, err := backup.NewService(cfg, kv, blobs, transport, logger)
	if err != nil {
		kv.Close()
		return nil, err
	}

	return &environment{
		service: service,
		logger:  logger,
		palette: display.NewPalette(),
		close: func() {
			if err := kv.Close(); err != nil {
				logger.Warnf("Failed to close data store: %v", err)
			}
		},
	}, nil
}

// buildSystemConfig assembles the backup configuration from viper.
func buildSystemConfig() backup.SystemConfig {
	cfg := backup.SystemConfig{
		DataDir:    viper.GetString("data_dir"),
		BackupDir:  viper.GetString("backup_dir"),
		AppVersion: version,
		HistoryCap: viper.GetInt("history_cap"),
		Compression: backup.CompressionConfig{
			Algorithm: backup.CompressionType(viper.GetString("compression.algorithm")),
			Level:     viper.GetInt("compression.level"),
		},
		Encryption: backup.EncryptionConfig{
			KeySource:  viper.GetString("encryption.key_source"),
			KeyEnvVar:  viper.GetString("encryption.key_env_var"),
			KeyPath:    viper.GetString("encryption.key_path"),
			Passphrase: viper.GetString("encryption.passphrase"),
			Salt:       viper.GetString("encryption.salt"),
		},
		Cloud: backup.CloudConfig{
			Provider: backup.CloudProvider(viper.GetString("cloud.provider")),
		},
	}

	if cfg.DataDir == "" {
		cfg.DataDir = defaultAppDir("data")
	}
	if cfg.BackupDir == "" {
		cfg.BackupDir = defaultAppDir("backups")
	}

	switch cfg.Cloud.Provider {
	case backup.CloudProviderS3:
		cfg.Cloud.S3 = &backup.S3Config{
			Bucket:    viper.GetString("cloud.s3.bucket"),
			Region:    viper.GetString("cloud.s3.region"),
			AccessKey: viper.GetString("cloud.s3.access_key"),
			SecretKey: viper.GetString("cloud.s3.secret_key"),
			Prefix:    viper.GetString("cloud.s3.prefix"),
		}
	case backup.CloudProviderGCS:
		cfg.Cloud.GCS = &backup.GCSConfig{
			Bucket:          viper.GetString("cloud.gcs.bucket"),
			CredentialsPath: viper.GetString("cloud.gcs.credentials_path"),
			Prefix:          viper.GetString("cloud.gcs.prefix"),
		}
	case backup.CloudProviderAzure:
		cfg.Cloud.Azure = &backup.AzureConfig{
			AccountName:   viper.GetString("cloud.azure.account_name"),
			AccountKey:    viper.GetString("cloud.azure.account_key"),
			ContainerName: viper.GetString("cloud.azure.container_name"),
			Prefix:        viper.GetString("cloud.azure.prefix"),
		}
	}

	// A passphrase key source without a configured passphrase prompts
	// interactively.
	if cfg.Encryption.KeySource == "passphrase" && cfg.Encryption.Passphrase == "" {
		cfg.Encryption.KeyRetriever = promptPassphraseKey(cfg.Encryption.Salt)
	}

	cfg.SetDefaults()
	return cfg
}

// defaultAppDir places application state under the user config dir,
// falling back to the working directory.
func defaultAppDir(sub string) string {
	base, err := os.UserConfigDir()
	if err != nil {
		return sub
	}
	return filepath.Join(base, "studiovault", sub)
}

// promptPassphraseKey reads a passphrase from the terminal and derives
// the AES key from it.
func promptPassphraseKey(saltHex string) func() ([]byte, error) {
	return func() ([]byte, error) {
		if !term.IsTerminal(int(syscall.Stdin)) {
			return nil, fmt.Errorf("passphrase key source requires a terminal or a configured passphrase")
		}

		fmt.Fprint(os.Stderr, "Encryption passphrase: ")
		passphrase, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("read passphrase: %w", err)
		}
		if len(passphrase) == 0 {
			return nil, fmt.Errorf("passphrase cannot be empty")
		}

		salt, err := decodeSaltHex(saltHex)
		if err != nil {
			return nil, err
		}

		return backup.DeriveKey(string(passphrase), salt), nil
	}
}

func newLogger() (*logging.Logger, error) {
	level := logging.LogLevelNormal
	switch {
	case quiet:
		level = logging.LogLevelQuiet
	case verbose:
		level = logging.LogLevelVerbose
	}

	return logging.NewLogger(logging.Config{
		Level:   level,
		LogFile: logFile,
	})
}

// createVersionCommand creates the version subcommand
func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("studiovault %s\n", version)
			fmt.Printf("  build time: %s\n", buildTime)
			fmt.Printf("  git commit: %s\n", gitCommit)
			fmt.Printf("  go version: %s\n", runtime.Version())
		},
	}
}
