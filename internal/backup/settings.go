package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"studiovault/internal/store"
)

// SettingsPatch describes a partial settings update. Nil fields are
// left unchanged.
type SettingsPatch struct {
	AutoBackup      *bool            `json:"autoBackup,omitempty"`
	Schedule        *Schedule        `json:"schedule,omitempty"`
	BackupType      *BackupType      `json:"backupType,omitempty"`
	StorageLocation *StorageLocation `json:"storageLocation,omitempty"`
	MaxBackups      *int             `json:"maxBackups,omitempty"`
	RetentionDays   *int             `json:"retentionDays,omitempty"`
	CompressBackups *bool            `json:"compressBackups,omitempty"`
	EncryptBackups  *bool            `json:"encryptBackups,omitempty"`
	IncludeMedia    *bool            `json:"includeMedia,omitempty"`
}

// SettingsManager owns the persisted BackupSettings singleton. Reads
// return a copy of the cached value; updates validate, persist, and
// only then replace the cache, so a failed persist never leaves the
// in-memory settings half-applied.
type SettingsManager struct {
	kv store.KVStore

	mu       sync.RWMutex
	settings BackupSettings
	loaded   bool
}

// NewSettingsManager creates a settings manager backed by kv.
func NewSettingsManager(kv store.KVStore) *SettingsManager {
	return &SettingsManager{kv: kv}
}

// Get returns the current settings, loading them on first use. When
// nothing has been persisted yet the defaults are returned without
// being written back.
func (sm *SettingsManager) Get(ctx context.Context) (BackupSettings, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if err := sm.ensureLoaded(ctx); err != nil {
		return BackupSettings{}, err
	}

	return sm.settings, nil
}

// Update applies patch on top of the current settings, validates the
// result, and persists it. The merged settings are returned.
func (sm *SettingsManager) Update(ctx context.Context, patch SettingsPatch) (BackupSettings, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if err := sm.ensureLoaded(ctx); err != nil {
		return BackupSettings{}, err
	}

	merged := sm.settings
	applyPatch(&merged, patch)

	if err := validateSettings(merged); err != nil {
		return BackupSettings{}, err
	}

	if err := sm.persist(ctx, merged); err != nil {
		return BackupSettings{}, err
	}

	sm.settings = merged
	return merged, nil
}

// Reset restores and persists the defaults.
func (sm *SettingsManager) Reset(ctx context.Context) (BackupSettings, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	defaults := DefaultSettings()
	if err := sm.persist(ctx, defaults); err != nil {
		return BackupSettings{}, err
	}

	sm.settings = defaults
	sm.loaded = true
	return defaults, nil
}

// IsBackupNeeded reports whether a backup is due. With no previous
// backup at all the answer is always true, regardless of schedule or
// the auto-backup flag. Otherwise a backup is due when automatic
// backups are enabled and the schedule interval has elapsed since
// lastBackup; the manual schedule is never due once a backup exists.
func (sm *SettingsManager) IsBackupNeeded(ctx context.Context, lastBackup *time.Time) (bool, error) {
	settings, err := sm.Get(ctx)
	if err != nil {
		return false, err
	}

	if lastBackup == nil {
		return true, nil
	}

	if !settings.AutoBackup {
		return false, nil
	}

	interval := settings.Schedule.Interval()
	if interval == 0 {
		return false, nil
	}

	return time.Since(*lastBackup) >= interval, nil
}

func (sm *SettingsManager) ensureLoaded(ctx context.Context) error {
	if sm.loaded {
		return nil
	}

	data, err := sm.kv.Get(ctx, settingsStoreKey)
	if errors.Is(err, store.ErrKeyNotFound) {
		sm.settings = DefaultSettings()
		sm.loaded = true
		return nil
	}
	if err != nil {
		return NewStorageError("failed to load backup settings", err)
	}

	// Unmarshal over the defaults so fields added after the settings
	// were persisted keep their default values.
	settings := DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		return NewCorruptionError("backup settings are not valid JSON", err)
	}

	sm.settings = settings
	sm.loaded = true
	return nil
}

func (sm *SettingsManager) persist(ctx context.Context, settings BackupSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return NewStorageError("failed to serialize backup settings", err)
	}

	if err := sm.kv.Set(ctx, settingsStoreKey, data); err != nil {
		return NewStorageError("failed to persist backup settings", err)
	}

	return nil
}

func applyPatch(settings *BackupSettings, patch SettingsPatch) {
	if patch.AutoBackup != nil {
		settings.AutoBackup = *patch.AutoBackup
	}
	if patch.Schedule != nil {
		settings.Schedule = *patch.Schedule
	}
	if patch.BackupType != nil {
		settings.BackupType = *patch.BackupType
	}
	if patch.StorageLocation != nil {
		settings.StorageLocation = *patch.StorageLocation
	}
	if patch.MaxBackups != nil {
		settings.MaxBackups = *patch.MaxBackups
	}
	if patch.RetentionDays != nil {
		settings.RetentionDays = *patch.RetentionDays
	}
	if patch.CompressBackups != nil {
		settings.CompressBackups = *patch.CompressBackups
	}
	if patch.EncryptBackups != nil {
		settings.EncryptBackups = *patch.EncryptBackups
	}
	if patch.IncludeMedia != nil {
		settings.IncludeMedia = *patch.IncludeMedia
	}
}

func validateSettings(settings BackupSettings) error {
	var errs ValidationErrors

	if !settings.Schedule.Valid() {
		errs.Add("schedule", fmt.Sprintf("unknown schedule: %s", settings.Schedule))
	}
	if !settings.BackupType.Valid() {
		errs.Add("backupType", fmt.Sprintf("unknown backup type: %s", settings.BackupType))
	}
	if !settings.StorageLocation.Valid() {
		errs.Add("storageLocation", fmt.Sprintf("unknown storage location: %s", settings.StorageLocation))
	}
	// Zero disables retention; only negative values are rejected.
	if settings.MaxBackups < 0 {
		errs.Add("maxBackups", "cannot be negative")
	}
	if settings.MaxBackups > HistoryHardCap {
		errs.Add("maxBackups", fmt.Sprintf("cannot exceed the history cap of %d", HistoryHardCap))
	}
	if settings.RetentionDays < 0 {
		errs.Add("retentionDays", "cannot be negative")
	}

	if errs.HasErrors() {
		return NewValidationError("invalid backup settings", errs)
	}
	return nil
}
