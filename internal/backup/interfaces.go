package backup

import "context"

// CreateBackupOptions tunes one backup run. Zero values fall back to
// the persisted settings.
type CreateBackupOptions struct {
	// Type overrides the configured backup type.
	Type BackupType

	// Name overrides the generated human-readable label.
	Name string
}

// Service is the backup subsystem's public surface. A single backup or
// restore runs at a time; a second concurrent call fails immediately
// with a BACKUP_ALREADY_RUNNING error rather than queueing.
type Service interface {
	// CreateBackup captures a full snapshot of the studio data,
	// encodes it according to the current settings, stores the
	// artifact, and appends a ledger entry.
	CreateBackup(ctx context.Context, opts CreateBackupOptions) (*BackupRecord, error)

	// RestoreFromBackup replaces the studio data with the named
	// snapshot's contents. The result is never nil; partial failures
	// are reported per category inside it.
	RestoreFromBackup(ctx context.Context, backupID string) *RestoreResult

	// DeleteBackup removes a backup's artifact and ledger entry.
	// Deleting an unknown ID is not an error.
	DeleteBackup(ctx context.Context, backupID string) error

	// GetBackupHistory returns all ledger entries, most-recent-first.
	GetBackupHistory(ctx context.Context) ([]*BackupRecord, error)

	// GetBackupInfo returns the ledger entry for backupID.
	GetBackupInfo(ctx context.Context, backupID string) (*BackupRecord, error)

	// GetRestorePoints lists backups as restore candidates, flagging
	// those whose artifact is missing or unreadable.
	GetRestorePoints(ctx context.Context) ([]*RestorePoint, error)

	// GetStatistics aggregates counts and sizes over the ledger.
	GetStatistics(ctx context.Context) (*Statistics, error)

	// IsBackupNeeded reports whether a backup is due: always true with
	// an empty history, otherwise per the auto-backup schedule.
	IsBackupNeeded(ctx context.Context) (bool, error)

	// VerifyBackup checks a stored backup's integrity: artifact
	// present, checksum matching, payload structurally valid.
	VerifyBackup(ctx context.Context, backupID string) (*ValidationResult, error)

	// ExportBackup copies a backup's artifact and a metadata sidecar
	// into destDir and returns the artifact's path there.
	ExportBackup(ctx context.Context, backupID, destDir string) (string, error)

	// ImportBackup ingests an exported artifact under a fresh ID.
	ImportBackup(ctx context.Context, artifactPath string) (*BackupRecord, error)

	// Settings exposes the settings manager.
	Settings() *SettingsManager
}
