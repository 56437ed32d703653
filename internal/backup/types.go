package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"studiovault/internal/studio"
)

// Key-value store keys owned by the backup subsystem.
const (
	// ledgerStoreKey holds the backup history ledger as a JSON array,
	// most-recent-first.
	ledgerStoreKey = "vault:history"

	// settingsStoreKey holds the persisted BackupSettings singleton.
	settingsStoreKey = "vault:settings"
)

// HistoryHardCap is the maximum number of ledger entries retained,
// independent of the softer retention policy.
const HistoryHardCap = 50

// artifactDirectory is the blob store directory holding snapshot
// artifacts.
const artifactDirectory = "backups"

// Schedule determines how often automatic backups are wanted.
type Schedule string

const (
	ScheduleManual  Schedule = "manual"
	ScheduleDaily   Schedule = "daily"
	ScheduleWeekly  Schedule = "weekly"
	ScheduleMonthly Schedule = "monthly"
)

// Valid reports whether s is a known schedule.
func (s Schedule) Valid() bool {
	switch s {
	case ScheduleManual, ScheduleDaily, ScheduleWeekly, ScheduleMonthly:
		return true
	}
	return false
}

// Interval returns the elapsed time after which a new backup is due, or
// zero for the manual schedule.
func (s Schedule) Interval() time.Duration {
	switch s {
	case ScheduleDaily:
		return 24 * time.Hour
	case ScheduleWeekly:
		return 168 * time.Hour
	case ScheduleMonthly:
		return 720 * time.Hour
	default:
		return 0
	}
}

// BackupType tags how a snapshot was captured. Only full snapshots are
// implemented; the other types are accepted and recorded but gather the
// same data.
type BackupType string

const (
	BackupTypeFull         BackupType = "full"
	BackupTypeIncremental  BackupType = "incremental"
	BackupTypeDifferential BackupType = "differential"
)

// Valid reports whether t is a known backup type.
func (t BackupType) Valid() bool {
	switch t {
	case BackupTypeFull, BackupTypeIncremental, BackupTypeDifferential:
		return true
	}
	return false
}

// StorageLocation selects where artifacts are kept.
type StorageLocation string

const (
	StorageLocationLocal StorageLocation = "local"
	StorageLocationCloud StorageLocation = "cloud"
	StorageLocationBoth  StorageLocation = "both"
)

// Valid reports whether l is a known storage location.
func (l StorageLocation) Valid() bool {
	switch l {
	case StorageLocationLocal, StorageLocationCloud, StorageLocationBoth:
		return true
	}
	return false
}

// IncludesCloud reports whether artifacts should also be copied to the
// configured cloud transport.
func (l StorageLocation) IncludesCloud() bool {
	return l == StorageLocationCloud || l == StorageLocationBoth
}

// RecordStatus is the lifecycle state of a BackupRecord.
type RecordStatus string

const (
	StatusPending    RecordStatus = "pending"
	StatusInProgress RecordStatus = "in_progress"
	StatusCompleted  RecordStatus = "completed"
	StatusFailed     RecordStatus = "failed"
)

// BackupSettings is the singleton configuration controlling backup
// behavior. It is persisted in the key-value store and mutated only
// through the SettingsManager.
type BackupSettings struct {
	AutoBackup      bool            `json:"autoBackup"`
	Schedule        Schedule        `json:"schedule"`
	BackupType      BackupType      `json:"backupType"`
	StorageLocation StorageLocation `json:"storageLocation"`
	MaxBackups      int             `json:"maxBackups"`
	RetentionDays   int             `json:"retentionDays"`
	CompressBackups bool            `json:"compressBackups"`
	EncryptBackups  bool            `json:"encryptBackups"`
	IncludeMedia    bool            `json:"includeMedia"`
}

// DefaultSettings returns the settings used before any are persisted.
func DefaultSettings() BackupSettings {
	return BackupSettings{
		AutoBackup:      false,
		Schedule:        ScheduleWeekly,
		BackupType:      BackupTypeFull,
		StorageLocation: StorageLocationLocal,
		MaxBackups:      10,
		RetentionDays:   30,
		CompressBackups: true,
		EncryptBackups:  false,
		IncludeMedia:    false,
	}
}

// SnapshotMetadata describes the circumstances of a snapshot capture.
type SnapshotMetadata struct {
	BackupType    BackupType `json:"backupType"`
	Timestamp     time.Time  `json:"timestamp"`
	SchemaVersion int        `json:"schemaVersion"`
	AppVersion    string     `json:"appVersion"`
}

// SnapshotPayload is the in-memory form of a snapshot before encoding.
// Collections map category names to their JSON array contents; Settings
// map individual setting keys (without the store prefix) to their raw
// values.
type SnapshotPayload struct {
	Collections map[string]json.RawMessage
	Settings    map[string]json.RawMessage
	Metadata    SnapshotMetadata
}

// Marshal renders the canonical JSON form of the payload. Map keys are
// emitted in sorted order, so the same payload always produces the same
// bytes; the integrity checksum is computed over this form.
func (p *SnapshotPayload) Marshal() ([]byte, error) {
	doc := make(map[string]json.RawMessage, len(p.Collections)+2)

	for name, raw := range p.Collections {
		doc[name] = raw
	}

	settings, err := json.Marshal(p.Settings)
	if err != nil {
		return nil, fmt.Errorf("marshal settings: %w", err)
	}
	doc[string(studio.CategorySettings)] = settings

	metadata, err := json.Marshal(p.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	doc["metadata"] = metadata

	return json.Marshal(doc)
}

// ItemCount returns the sum of collection lengths plus the number of
// settings entries.
func (p *SnapshotPayload) ItemCount() (int, error) {
	total := len(p.Settings)

	for name, raw := range p.Collections {
		count, err := studio.CountCollection(studio.Category(name), raw)
		if err != nil {
			return 0, err
		}
		total += count
	}

	return total, nil
}

// BackupRecord is the immutable ledger entry for one completed backup.
type BackupRecord struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Type            BackupType      `json:"type"`
	Size            int64           `json:"size"`
	ArtifactPath    string          `json:"artifactPath"`
	CreatedAt       time.Time       `json:"createdAt"`
	Status          RecordStatus    `json:"status"`
	StorageLocation StorageLocation `json:"storageLocation"`
	SchemaVersion   int             `json:"schemaVersion"`
	Checksum        string          `json:"checksum"`
	DataCategories  []string        `json:"dataCategories"`
	ItemCount       int             `json:"itemCount"`

	// Encoding flags in force when the artifact was written. Restore
	// decodes with these rather than current settings.
	Compressed  bool            `json:"compressed"`
	Compression CompressionType `json:"compression,omitempty"`
	Encrypted   bool            `json:"encrypted"`
}

// RestorePoint is a view of a ledger entry offered to restore callers.
type RestorePoint struct {
	BackupID    string    `json:"backupId"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`

	// CanRestore is true when the backup completed AND its artifact is
	// still present on disk. A completed backup whose artifact has gone
	// missing is listed but not restorable.
	CanRestore bool `json:"canRestore"`
}

// RestoreResult reports the outcome of a restore call. Success is true
// whenever at least one item was recovered, even if some categories
// failed.
type RestoreResult struct {
	Success       bool     `json:"success"`
	RestoredItems int      `json:"restoredItems"`
	FailedItems   int      `json:"failedItems"`
	Errors        []string `json:"errors,omitempty"`

	// Duration is the wall-clock time of the whole restore call.
	Duration time.Duration `json:"duration"`
}

// Statistics aggregates counts and sizes over the ledger.
type Statistics struct {
	TotalBackups     int        `json:"totalBackups"`
	CompletedBackups int        `json:"completedBackups"`
	FailedBackups    int        `json:"failedBackups"`
	TotalSize        int64      `json:"totalSize"`
	TotalItems       int        `json:"totalItems"`
	OldestBackup     *time.Time `json:"oldestBackup,omitempty"`
	NewestBackup     *time.Time `json:"newestBackup,omitempty"`
}

// ValidationResult reports the outcome of verifying a stored backup.
type ValidationResult struct {
	Valid         bool      `json:"valid"`
	Errors        []string  `json:"errors,omitempty"`
	CheckedAt     time.Time `json:"checkedAt"`
	ChecksumValid bool      `json:"checksumValid"`
}

// GenerateBackupID generates a unique, time-sortable backup ID.
func GenerateBackupID() string {
	timestamp := time.Now().UTC().Format("20060102-150405")
	short := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]

	return fmt.Sprintf("backup-%s-%s", timestamp, short)
}

// ArtifactPathFor returns the blob store path for a backup's artifact.
func ArtifactPathFor(backupID string) string {
	return artifactDirectory + "/" + backupID + ".snap"
}

// ComputeChecksum returns the hex-encoded SHA-256 digest of data.
func ComputeChecksum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// defaultBackupName derives a human label from type and timestamp.
func defaultBackupName(backupType BackupType, createdAt time.Time) string {
	return fmt.Sprintf("%s-%s", backupType, createdAt.UTC().Format("2006-01-02-15-04-05"))
}
