package backup

import (
	"encoding/hex"
	"fmt"
	"os"
)

// SystemConfig is the process-level configuration of the backup
// subsystem: where artifacts live, how they are encoded, and which
// cloud transport (if any) receives off-site copies. Runtime behavior
// toggles (compress/encrypt on or off, retention limits) live in
// BackupSettings instead.
type SystemConfig struct {
	// DataDir is the directory of the BadgerDB key-value store.
	DataDir string `yaml:"data_dir"`

	// BackupDir is the root directory of the local blob store.
	BackupDir string `yaml:"backup_dir"`

	// AppVersion is stamped into snapshot metadata.
	AppVersion string `yaml:"-"`

	// HistoryCap overrides the ledger hard cap. Zero means the
	// default.
	HistoryCap int `yaml:"history_cap"`

	Compression CompressionConfig `yaml:"compression"`
	Encryption  EncryptionConfig  `yaml:"encryption"`
	Cloud       CloudConfig       `yaml:"cloud"`
}

// CompressionConfig selects the algorithm used when settings enable
// compression.
type CompressionConfig struct {
	Algorithm CompressionType `yaml:"algorithm"`
	Level     int             `yaml:"level"`
}

// EncryptionConfig defines how the AES-256 key is obtained when
// settings enable encryption.
type EncryptionConfig struct {
	// KeySource is one of "env", "file" or "passphrase".
	KeySource string `yaml:"key_source"`

	// KeyEnvVar names the environment variable holding a hex-encoded
	// 32-byte key (key_source: env).
	KeyEnvVar string `yaml:"key_env_var"`

	// KeyPath is the path of a file holding the raw 32-byte key
	// (key_source: file).
	KeyPath string `yaml:"key_path"`

	// Passphrase and Salt feed PBKDF2 key derivation
	// (key_source: passphrase). Salt is hex-encoded.
	Passphrase string `yaml:"passphrase"`
	Salt       string `yaml:"salt"`

	// KeyRetriever overrides key lookup entirely when set. Tests and
	// external key managers use it.
	KeyRetriever func() ([]byte, error) `yaml:"-"`
}

// CloudProvider identifies a cloud transport backend.
type CloudProvider string

const (
	CloudProviderNone  CloudProvider = "none"
	CloudProviderS3    CloudProvider = "s3"
	CloudProviderGCS   CloudProvider = "gcs"
	CloudProviderAzure CloudProvider = "azure"
)

// CloudConfig defines the optional off-site copy destination.
type CloudConfig struct {
	Provider CloudProvider `yaml:"provider"`
	S3       *S3Config     `yaml:"s3,omitempty"`
	GCS      *GCSConfig    `yaml:"gcs,omitempty"`
	Azure    *AzureConfig  `yaml:"azure,omitempty"`
}

// S3Config configures the Amazon S3 transport.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Prefix    string `yaml:"prefix"`
}

// GCSConfig configures the Google Cloud Storage transport.
type GCSConfig struct {
	Bucket          string `yaml:"bucket"`
	CredentialsPath string `yaml:"credentials_path"`
	Prefix          string `yaml:"prefix"`
}

// AzureConfig configures the Azure Blob Storage transport.
type AzureConfig struct {
	AccountName   string `yaml:"account_name"`
	AccountKey    string `yaml:"account_key"`
	ContainerName string `yaml:"container_name"`
	Prefix        string `yaml:"prefix"`
}

// SetDefaults fills unset fields with their defaults.
func (c *SystemConfig) SetDefaults() {
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.BackupDir == "" {
		c.BackupDir = "backups"
	}
	if c.AppVersion == "" {
		c.AppVersion = "dev"
	}
	if c.HistoryCap <= 0 {
		c.HistoryCap = HistoryHardCap
	}
	if c.Compression.Algorithm == "" {
		c.Compression.Algorithm = CompressionTypeZstd
	}
	if c.Cloud.Provider == "" {
		c.Cloud.Provider = CloudProviderNone
	}
	if c.Encryption.KeySource == "" {
		c.Encryption.KeySource = "env"
	}
	if c.Encryption.KeyEnvVar == "" {
		c.Encryption.KeyEnvVar = "STUDIOVAULT_ENCRYPTION_KEY"
	}
}

// Validate validates the SystemConfig
func (c *SystemConfig) Validate() error {
	var errs ValidationErrors

	if c.DataDir == "" {
		errs.Add("data_dir", "data directory is required")
	}
	if c.BackupDir == "" {
		errs.Add("backup_dir", "backup directory is required")
	}
	if c.HistoryCap < 0 {
		errs.Add("history_cap", "history cap cannot be negative")
	}

	switch c.Compression.Algorithm {
	case CompressionTypeNone, CompressionTypeGzip, CompressionTypeLZ4, CompressionTypeZstd:
	default:
		errs.Add("compression.algorithm", fmt.Sprintf("unsupported algorithm: %s", c.Compression.Algorithm))
	}

	switch c.Encryption.KeySource {
	case "env", "file", "passphrase":
	default:
		errs.Add("encryption.key_source", fmt.Sprintf("unsupported key source: %s", c.Encryption.KeySource))
	}

	switch c.Cloud.Provider {
	case CloudProviderNone:
	case CloudProviderS3:
		if c.Cloud.S3 == nil || c.Cloud.S3.Bucket == "" {
			errs.Add("cloud.s3", "S3 bucket is required")
		}
	case CloudProviderGCS:
		if c.Cloud.GCS == nil || c.Cloud.GCS.Bucket == "" {
			errs.Add("cloud.gcs", "GCS bucket is required")
		}
	case CloudProviderAzure:
		if c.Cloud.Azure == nil || c.Cloud.Azure.AccountName == "" || c.Cloud.Azure.ContainerName == "" {
			errs.Add("cloud.azure", "Azure account name and container are required")
		}
	default:
		errs.Add("cloud.provider", fmt.Sprintf("unsupported provider: %s", c.Cloud.Provider))
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// Key returns the 32-byte AES-256 key according to the configured
// source.
func (c *EncryptionConfig) Key() ([]byte, error) {
	if c.KeyRetriever != nil {
		return c.KeyRetriever()
	}

	switch c.KeySource {
	case "env":
		hexKey := os.Getenv(c.KeyEnvVar)
		if hexKey == "" {
			return nil, NewEncryptionError(fmt.Sprintf("environment variable %s not set", c.KeyEnvVar), nil)
		}
		key, err := hex.DecodeString(hexKey)
		if err != nil {
			return nil, NewEncryptionError("failed to decode hex key from environment variable", err)
		}
		if len(key) != 32 {
			return nil, NewEncryptionError("key from environment variable must be 32 bytes for AES-256", nil)
		}
		return key, nil

	case "file":
		key, err := os.ReadFile(c.KeyPath)
		if err != nil {
			return nil, NewEncryptionError("failed to read key file", err)
		}
		if len(key) != 32 {
			return nil, NewEncryptionError("key file must contain 32 bytes for AES-256", nil)
		}
		return key, nil

	case "passphrase":
		if c.Passphrase == "" {
			return nil, NewEncryptionError("passphrase is empty", nil)
		}
		salt, err := hex.DecodeString(c.Salt)
		if err != nil {
			return nil, NewEncryptionError("failed to decode hex salt", err)
		}
		return DeriveKey(c.Passphrase, salt), nil

	default:
		return nil, NewEncryptionError(fmt.Sprintf("unsupported key source: %s", c.KeySource), nil)
	}
}
