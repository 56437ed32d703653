package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"studiovault/internal/blob"
	"studiovault/internal/logging"
	"studiovault/internal/store"
	"studiovault/internal/studio"
)

// service implements Service on top of the key-value store, the blob
// store, and an optional cloud transport.
type service struct {
	kv        store.KVStore
	blobs     blob.BlobStore
	ledger    *Ledger
	settings  *SettingsManager
	codec     *SnapshotCodec
	retention *RetentionEnforcer
	transport CloudTransport
	logger    *logging.Logger
	config    SystemConfig

	// opLock serializes backup and restore. TryLock keeps a second
	// caller from blocking behind a running operation.
	opLock sync.Mutex

	now func() time.Time
}

// NewService wires a backup service from config. kv and blobs must be
// open; transport may be nil.
func NewService(cfg SystemConfig, kv store.KVStore, blobs blob.BlobStore, transport CloudTransport, logger *logging.Logger) (Service, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, NewConfigurationError("invalid backup configuration", err)
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	ledger := NewLedger(kv, cfg.HistoryCap)

	return &service{
		kv:        kv,
		blobs:     blobs,
		ledger:    ledger,
		settings:  NewSettingsManager(kv),
		codec:     NewSnapshotCodec(cfg.Compression, &cfg.Encryption),
		retention: NewRetentionEnforcer(ledger, blobs, transport, logger),
		transport: transport,
		logger:    logger,
		config:    cfg,
		now:       time.Now,
	}, nil
}

// Settings implements Service.
func (s *service) Settings() *SettingsManager {
	return s.settings
}

// CreateBackup implements Service.
func (s *service) CreateBackup(ctx context.Context, opts CreateBackupOptions) (*BackupRecord, error) {
	if !s.opLock.TryLock() {
		return nil, NewAlreadyRunningError()
	}
	defer s.opLock.Unlock()

	start := s.now()

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	backupType := settings.BackupType
	if opts.Type != "" {
		backupType = opts.Type
	}
	if !backupType.Valid() {
		return nil, NewValidationError(fmt.Sprintf("unknown backup type: %s", backupType), nil)
	}

	payload, err := s.gatherPayload(ctx, backupType)
	if err != nil {
		s.logger.LogBackupFailed(string(backupType), err, s.now().Sub(start))
		return nil, err
	}

	raw, err := payload.Marshal()
	if err != nil {
		return nil, NewInvalidPayloadError("failed to serialize snapshot", err)
	}
	checksum := ComputeChecksum(raw)

	itemCount, err := payload.ItemCount()
	if err != nil {
		return nil, NewInvalidPayloadError("failed to count snapshot items", err)
	}

	artifact, stats, err := s.codec.Encode(raw, settings.CompressBackups, settings.EncryptBackups)
	if err != nil {
		s.logger.LogBackupFailed(string(backupType), err, s.now().Sub(start))
		return nil, err
	}

	backupID := GenerateBackupID()
	artifactPath := ArtifactPathFor(backupID)

	if err := s.blobs.EnsureDirectory(ctx, artifactDirectory); err != nil {
		return nil, NewWriteFailedError("failed to create backup directory", err)
	}
	if err := s.blobs.Write(ctx, artifactPath, artifact); err != nil {
		s.logger.LogBackupFailed(string(backupType), err, s.now().Sub(start))
		return nil, NewWriteFailedError("failed to write backup artifact", err)
	}

	name := opts.Name
	if name == "" {
		name = defaultBackupName(backupType, start)
	}

	record := &BackupRecord{
		ID:              backupID,
		Name:            name,
		Type:            backupType,
		Size:            int64(len(artifact)),
		ArtifactPath:    artifactPath,
		CreatedAt:       start.UTC(),
		Status:          StatusCompleted,
		StorageLocation: settings.StorageLocation,
		SchemaVersion:   studio.SchemaVersion,
		Checksum:        checksum,
		DataCategories:  categoryNames(),
		ItemCount:       itemCount,
		Compressed:      stats.Compression != nil,
		Encrypted:       stats.Encrypted,
	}
	if record.Compressed {
		record.Compression = s.codec.Algorithm()
	}

	evicted, err := s.ledger.Append(ctx, record)
	if err != nil {
		// The artifact without a ledger entry is unreachable; clean it
		// up on a best-effort basis.
		if cleanupErr := s.blobs.Delete(ctx, artifactPath); cleanupErr != nil {
			s.logger.Warnf("Failed to remove orphaned artifact %s: %v", artifactPath, cleanupErr)
		}
		s.logger.LogBackupFailed(string(backupType), err, s.now().Sub(start))
		return nil, err
	}
	s.releaseEvicted(ctx, evicted)

	if _, err := s.retention.Enforce(ctx, settings, false); err != nil {
		// Retention failures never fail the backup that triggered them.
		s.logger.Warnf("Retention sweep failed: %v", err)
	}

	if settings.StorageLocation.IncludesCloud() {
		s.uploadToCloud(ctx, record, artifact)
	}

	s.logger.LogBackupCreated(backupID, itemCount, record.Size, s.now().Sub(start))

	return record, nil
}

// uploadToCloud copies the artifact off-site. Upload failures degrade
// to a local-only backup rather than failing the run.
func (s *service) uploadToCloud(ctx context.Context, record *BackupRecord, artifact []byte) {
	if s.transport == nil {
		s.logger.Warn("Cloud storage requested but no transport is configured")
		return
	}

	err := s.transport.Upload(ctx, record.ArtifactPath, artifact)
	s.logger.LogCloudUpload(record.ID, s.transport.Name(), err == nil, err)
}

// releaseEvicted removes the artifacts of entries the history hard cap
// pushed out of the ledger. Retention can no longer reach them, so
// this is their last chance at cleanup. Failures are logged only.
func (s *service) releaseEvicted(ctx context.Context, evicted []*BackupRecord) {
	for _, record := range evicted {
		if err := s.blobs.Delete(ctx, record.ArtifactPath); err != nil {
			s.logger.Warnf("Failed to remove capped backup artifact %s: %v", record.ArtifactPath, err)
		}
		if s.transport != nil && record.StorageLocation.IncludesCloud() {
			if err := s.transport.Delete(ctx, record.ArtifactPath); err != nil {
				s.logger.Warnf("Failed to remove capped cloud artifact %s: %v", record.ArtifactPath, err)
			}
		}
	}
}

// DeleteBackup implements Service.
func (s *service) DeleteBackup(ctx context.Context, backupID string) error {
	if backupID == "" {
		return NewValidationError("backup ID cannot be empty", nil)
	}

	record, err := s.ledger.Find(ctx, backupID)
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return err
	}

	if err := s.blobs.Delete(ctx, record.ArtifactPath); err != nil {
		return NewStorageError("failed to delete backup artifact", err)
	}

	if s.transport != nil && record.StorageLocation.IncludesCloud() {
		if err := s.transport.Delete(ctx, record.ArtifactPath); err != nil {
			s.logger.Warnf("Failed to delete cloud copy of %s: %v", backupID, err)
		}
	}

	if _, err := s.ledger.Remove(ctx, backupID); err != nil {
		return err
	}

	s.logger.Infof("Deleted backup %s", backupID)
	return nil
}

// GetBackupHistory implements Service.
func (s *service) GetBackupHistory(ctx context.Context) ([]*BackupRecord, error) {
	return s.ledger.List(ctx)
}

// GetBackupInfo implements Service.
func (s *service) GetBackupInfo(ctx context.Context, backupID string) (*BackupRecord, error) {
	if backupID == "" {
		return nil, NewValidationError("backup ID cannot be empty", nil)
	}
	return s.ledger.Find(ctx, backupID)
}

// GetRestorePoints implements Service.
func (s *service) GetRestorePoints(ctx context.Context) ([]*RestorePoint, error) {
	records, err := s.ledger.List(ctx)
	if err != nil {
		return nil, err
	}

	points := make([]*RestorePoint, 0, len(records))
	for _, record := range records {
		canRestore := record.Status == StatusCompleted
		if canRestore {
			if _, err := s.blobs.Stat(ctx, record.ArtifactPath); err != nil {
				canRestore = false
			}
		}

		points = append(points, &RestorePoint{
			BackupID:    record.ID,
			Timestamp:   record.CreatedAt,
			Description: record.Name,
			CanRestore:  canRestore,
		})
	}

	return points, nil
}

// GetStatistics implements Service.
func (s *service) GetStatistics(ctx context.Context) (*Statistics, error) {
	records, err := s.ledger.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{TotalBackups: len(records)}
	for _, record := range records {
		switch record.Status {
		case StatusCompleted:
			stats.CompletedBackups++
		case StatusFailed:
			stats.FailedBackups++
		}
		stats.TotalSize += record.Size
		stats.TotalItems += record.ItemCount

		createdAt := record.CreatedAt
		if stats.OldestBackup == nil || createdAt.Before(*stats.OldestBackup) {
			t := createdAt
			stats.OldestBackup = &t
		}
		if stats.NewestBackup == nil || createdAt.After(*stats.NewestBackup) {
			t := createdAt
			stats.NewestBackup = &t
		}
	}

	return stats, nil
}

// IsBackupNeeded implements Service.
func (s *service) IsBackupNeeded(ctx context.Context) (bool, error) {
	latest, err := s.ledger.Latest(ctx)
	if err != nil {
		return false, err
	}

	var lastBackup *time.Time
	if latest != nil {
		lastBackup = &latest.CreatedAt
	}

	return s.settings.IsBackupNeeded(ctx, lastBackup)
}

// VerifyBackup implements Service.
func (s *service) VerifyBackup(ctx context.Context, backupID string) (*ValidationResult, error) {
	record, err := s.ledger.Find(ctx, backupID)
	if err != nil {
		return nil, err
	}

	result := &ValidationResult{CheckedAt: s.now().UTC()}

	artifact, err := s.blobs.Read(ctx, record.ArtifactPath)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("artifact unreadable: %v", err))
		return result, nil
	}

	raw, err := s.codec.Decode(artifact, record.Compressed, record.Compression, record.Encrypted)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("artifact decode failed: %v", err))
		return result, nil
	}

	result.ChecksumValid = ComputeChecksum(raw) == record.Checksum
	if !result.ChecksumValid {
		result.Errors = append(result.Errors, "checksum mismatch")
	}

	doc, err := decodeSnapshotDocument(raw)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result, nil
	}
	result.Errors = append(result.Errors, validateSnapshot(doc)...)

	result.Valid = len(result.Errors) == 0
	return result, nil
}

// ExportBackup implements Service.
func (s *service) ExportBackup(ctx context.Context, backupID, destDir string) (string, error) {
	record, err := s.ledger.Find(ctx, backupID)
	if err != nil {
		return "", err
	}

	artifact, err := s.blobs.Read(ctx, record.ArtifactPath)
	if err != nil {
		return "", NewStorageError("failed to read backup artifact", err)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", NewWriteFailedError("failed to create export directory", err)
	}

	artifactName := filepath.Base(record.ArtifactPath)
	exportPath := filepath.Join(destDir, artifactName)
	if err := os.WriteFile(exportPath, artifact, 0o600); err != nil {
		return "", NewWriteFailedError("failed to write exported artifact", err)
	}

	sidecar, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", NewStorageError("failed to serialize backup metadata", err)
	}
	if err := os.WriteFile(exportPath+".meta.json", sidecar, 0o600); err != nil {
		return "", NewWriteFailedError("failed to write metadata sidecar", err)
	}

	s.logger.Infof("Exported backup %s to %s", backupID, exportPath)
	return exportPath, nil
}

// ImportBackup implements Service.
func (s *service) ImportBackup(ctx context.Context, artifactPath string) (*BackupRecord, error) {
	sidecar, err := os.ReadFile(artifactPath + ".meta.json")
	if err != nil {
		return nil, NewValidationError("metadata sidecar is missing; only exported backups can be imported", err)
	}

	var original BackupRecord
	if err := json.Unmarshal(sidecar, &original); err != nil {
		return nil, NewCorruptionError("metadata sidecar is not valid JSON", err)
	}

	artifact, err := os.ReadFile(artifactPath)
	if err != nil {
		return nil, NewStorageError("failed to read artifact file", err)
	}

	// Decode up front so a corrupt or foreign artifact is rejected
	// before anything is stored.
	raw, err := s.codec.Decode(artifact, original.Compressed, original.Compression, original.Encrypted)
	if err != nil {
		return nil, NewCorruptionError("artifact cannot be decoded with its recorded encoding", err)
	}
	if ComputeChecksum(raw) != original.Checksum {
		return nil, NewCorruptionError("artifact checksum does not match its metadata", nil)
	}

	record := original
	record.ID = GenerateBackupID()
	record.ArtifactPath = ArtifactPathFor(record.ID)
	record.Status = StatusCompleted
	record.StorageLocation = StorageLocationLocal

	if err := s.blobs.EnsureDirectory(ctx, artifactDirectory); err != nil {
		return nil, NewWriteFailedError("failed to create backup directory", err)
	}
	if err := s.blobs.Write(ctx, record.ArtifactPath, artifact); err != nil {
		return nil, NewWriteFailedError("failed to store imported artifact", err)
	}

	evicted, err := s.ledger.Append(ctx, &record)
	if err != nil {
		if cleanupErr := s.blobs.Delete(ctx, record.ArtifactPath); cleanupErr != nil {
			s.logger.Warnf("Failed to remove orphaned artifact %s: %v", record.ArtifactPath, cleanupErr)
		}
		return nil, err
	}
	s.releaseEvicted(ctx, evicted)

	s.logger.Infof("Imported backup %s as %s", original.ID, record.ID)
	return &record, nil
}

// gatherPayload reads every studio collection and all app settings
// from the key-value store. Missing collections are captured as empty
// arrays so every snapshot has the full category set.
func (s *service) gatherPayload(ctx context.Context, backupType BackupType) (*SnapshotPayload, error) {
	collections := make(map[string]json.RawMessage, len(studio.CollectionOrder))

	for _, category := range studio.CollectionOrder {
		data, err := s.kv.Get(ctx, category.StoreKey())
		if errors.Is(err, store.ErrKeyNotFound) {
			collections[string(category)] = json.RawMessage("[]")
			continue
		}
		if err != nil {
			return nil, NewStorageError(fmt.Sprintf("failed to read %s collection", category), err)
		}
		collections[string(category)] = json.RawMessage(data)
	}

	settings, err := s.gatherAppSettings(ctx)
	if err != nil {
		return nil, err
	}

	return &SnapshotPayload{
		Collections: collections,
		Settings:    settings,
		Metadata: SnapshotMetadata{
			BackupType:    backupType,
			Timestamp:     s.now().UTC(),
			SchemaVersion: studio.SchemaVersion,
			AppVersion:    s.config.AppVersion,
		},
	}, nil
}

// gatherAppSettings reads every key under the app settings prefix. The
// prefix is stripped so snapshots stay portable across store layouts.
func (s *service) gatherAppSettings(ctx context.Context) (map[string]json.RawMessage, error) {
	keys, err := s.kv.ListKeys(ctx, studio.SettingsKeyPrefix)
	if err != nil {
		return nil, NewStorageError("failed to list app settings", err)
	}
	sort.Strings(keys)

	settings := make(map[string]json.RawMessage, len(keys))
	for _, key := range keys {
		data, err := s.kv.Get(ctx, key)
		if err != nil {
			return nil, NewStorageError(fmt.Sprintf("failed to read app setting %s", key), err)
		}
		settings[strings.TrimPrefix(key, studio.SettingsKeyPrefix)] = json.RawMessage(data)
	}

	return settings, nil
}

func categoryNames() []string {
	names := make([]string, 0, len(studio.AllCategories))
	for _, category := range studio.AllCategories {
		names = append(names, string(category))
	}
	return names
}
