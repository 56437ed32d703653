package cmd

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"studiovault/internal/backup"
)

// configFileTemplate is the shape of the generated config file.
type configFileTemplate struct {
	DataDir     string                   `yaml:"data_dir"`
	BackupDir   string                   `yaml:"backup_dir"`
	HistoryCap  int                      `yaml:"history_cap"`
	Compression backup.CompressionConfig `yaml:"compression"`
	Encryption  encryptionTemplate       `yaml:"encryption"`
	Cloud       cloudTemplate            `yaml:"cloud"`
}

type encryptionTemplate struct {
	KeySource string `yaml:"key_source"`
	KeyEnvVar string `yaml:"key_env_var"`
	Salt      string `yaml:"salt"`
}

type cloudTemplate struct {
	Provider string             `yaml:"provider"`
	S3       backup.S3Config    `yaml:"s3"`
	GCS      backup.GCSConfig   `yaml:"gcs"`
	Azure    backup.AzureConfig `yaml:"azure"`
}

// createInitConfigCommand creates the init-config subcommand, which
// writes a starter config file with a fresh PBKDF2 salt.
func createInitConfigCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "Write a starter configuration file",
		Long: `Writes a commented starter configuration to the given path, or to
$HOME/.studiovault.yaml when no path is given. A fresh random salt is
generated for passphrase-based encryption keys.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				home, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				path = filepath.Join(home, ".studiovault.yaml")
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists; use --force to overwrite", path)
			}

			salt, err := backup.GenerateSalt()
			if err != nil {
				return err
			}

			template := configFileTemplate{
				DataDir:    defaultAppDir("data"),
				BackupDir:  defaultAppDir("backups"),
				HistoryCap: backup.HistoryHardCap,
				Compression: backup.CompressionConfig{
					Algorithm: backup.CompressionTypeZstd,
					Level:     3,
				},
				Encryption: encryptionTemplate{
					KeySource: "env",
					KeyEnvVar: "STUDIOVAULT_ENCRYPTION_KEY",
					Salt:      hex.EncodeToString(salt),
				},
				Cloud: cloudTemplate{
					Provider: string(backup.CloudProviderNone),
				},
			}

			data, err := yaml.Marshal(&template)
			if err != nil {
				return fmt.Errorf("render configuration: %w", err)
			}

			if err := os.WriteFile(path, data, 0o600); err != nil {
				return fmt.Errorf("write configuration: %w", err)
			}

			fmt.Printf("Wrote configuration to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

// decodeSaltHex parses a hex salt, requiring one to be configured.
func decodeSaltHex(saltHex string) ([]byte, error) {
	if saltHex == "" {
		return nil, fmt.Errorf("encryption.salt must be set when deriving keys from a passphrase; run 'studiovault init-config' to generate one")
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return nil, fmt.Errorf("encryption.salt is not valid hex: %w", err)
	}
	return salt, nil
}
