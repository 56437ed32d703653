package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"studiovault/internal/studio"
)

// RestoreFromBackup implements Service. It shares the operation lock
// with CreateBackup so a restore can never run over a backup in flight
// or vice versa.
//
// The restore is not transactional across categories: each collection
// and each settings key is written independently, a failure is recorded
// and the remaining categories still restore. Within the settings step
// the first failed key aborts the rest of that step.
func (s *service) RestoreFromBackup(ctx context.Context, backupID string) *RestoreResult {
	result := &RestoreResult{}
	start := s.now()
	defer func() {
		result.Duration = s.now().Sub(start)
	}()

	if !s.opLock.TryLock() {
		result.Errors = append(result.Errors, NewAlreadyRunningError().Error())
		return result
	}
	defer s.opLock.Unlock()

	record, err := s.ledger.Find(ctx, backupID)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	if record.Status != StatusCompleted {
		result.Errors = append(result.Errors, fmt.Sprintf("backup %s is %s and cannot be restored", backupID, record.Status))
		return result
	}

	raw, err := s.loadSnapshot(ctx, record)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	if checksum := ComputeChecksum(raw); checksum != record.Checksum {
		result.Errors = append(result.Errors, "snapshot checksum mismatch; refusing to restore corrupted data")
		return result
	}

	doc, err := decodeSnapshotDocument(raw)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	// Structural validation gates every write: a malformed snapshot is
	// rejected whole rather than half-applied.
	if problems := validateSnapshot(doc); len(problems) > 0 {
		result.Errors = append(result.Errors, problems...)
		return result
	}

	meta, err := doc.metadata()
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	collections := make(map[string]json.RawMessage, len(studio.CollectionOrder))
	for _, category := range studio.CollectionOrder {
		if raw, ok := doc[string(category)]; ok {
			collections[string(category)] = raw
		}
	}

	if meta.SchemaVersion < studio.SchemaVersion {
		migrated, err := studio.MigrateCollections(collections, meta.SchemaVersion)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("schema migration failed: %v", err))
			return result
		}
		collections = migrated
		s.logger.Infof("Migrated snapshot from schema version %d to %d", meta.SchemaVersion, studio.SchemaVersion)
	}

	s.restoreCollections(ctx, collections, result)
	s.restoreAppSettings(ctx, doc, result)

	result.Success = result.RestoredItems > 0
	s.logger.LogRestoreCompleted(backupID, result.RestoredItems, result.FailedItems, s.now().Sub(start))

	return result
}

// loadSnapshot reads and decodes the artifact, falling back to the
// cloud copy when the local blob is gone.
func (s *service) loadSnapshot(ctx context.Context, record *BackupRecord) ([]byte, error) {
	artifact, err := s.blobs.Read(ctx, record.ArtifactPath)
	if err != nil {
		if s.transport == nil || !record.StorageLocation.IncludesCloud() {
			return nil, NewStorageError("backup artifact is unreadable", err)
		}

		s.logger.Infof("Local artifact for %s missing, fetching cloud copy", record.ID)
		artifact, err = s.transport.Download(ctx, record.ArtifactPath)
		if err != nil {
			return nil, err
		}
	}

	raw, err := s.codec.Decode(artifact, record.Compressed, record.Compression, record.Encrypted)
	if err != nil {
		return nil, err
	}

	return raw, nil
}

// restoreCollections writes each collection in its fixed order.
// Failures are independent per category.
func (s *service) restoreCollections(ctx context.Context, collections map[string]json.RawMessage, result *RestoreResult) {
	for _, category := range studio.CollectionOrder {
		raw, ok := collections[string(category)]
		if !ok {
			continue
		}

		count, canonical, err := studio.DecodeCollection(category, raw)
		if err != nil {
			result.FailedItems += countRawItems(raw)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", category, err))
			continue
		}

		if err := s.kv.Set(ctx, category.StoreKey(), canonical); err != nil {
			result.FailedItems += count
			result.Errors = append(result.Errors, fmt.Sprintf("%s: failed to write collection: %v", category, err))
			continue
		}

		result.RestoredItems += count
	}
}

// restoreAppSettings writes settings keys in sorted order. Unlike
// collections, the first failed key aborts the step and the remaining
// keys count as failed, since settings are interdependent.
func (s *service) restoreAppSettings(ctx context.Context, doc snapshotDocument, result *RestoreResult) {
	raw, ok := doc[string(studio.CategorySettings)]
	if !ok {
		return
	}

	var settings map[string]json.RawMessage
	if err := json.Unmarshal(raw, &settings); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("settings: %v", err))
		return
	}

	keys := make([]string, 0, len(settings))
	for key := range settings {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for i, key := range keys {
		if err := s.kv.Set(ctx, studio.SettingsKeyPrefix+key, settings[key]); err != nil {
			remaining := len(keys) - i
			result.FailedItems += remaining
			result.Errors = append(result.Errors, fmt.Sprintf("settings: failed to write %q, skipping %d remaining keys: %v", key, remaining-1, err))
			return
		}
		result.RestoredItems++
	}
}

// countRawItems estimates how many items a malformed collection holds
// so the failure tally stays meaningful.
func countRawItems(raw json.RawMessage) int {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return 1
	}
	if len(items) == 0 {
		return 1
	}
	return len(items)
}
