package backup

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiovault/internal/store"
)

func boolPtr(b bool) *bool                          { return &b }
func intPtr(n int) *int                             { return &n }
func schedulePtr(s Schedule) *Schedule              { return &s }
func locationPtr(l StorageLocation) *StorageLocation { return &l }

func TestSettingsManager_DefaultsWhenUnset(t *testing.T) {
	kv := store.NewMemoryStore()
	sm := NewSettingsManager(kv)

	settings, err := sm.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), settings)

	// Reading defaults does not persist anything.
	assert.Zero(t, kv.Len())
}

func TestSettingsManager_UpdateMergesAndPersists(t *testing.T) {
	kv := store.NewMemoryStore()
	sm := NewSettingsManager(kv)
	ctx := context.Background()

	updated, err := sm.Update(ctx, SettingsPatch{
		AutoBackup: boolPtr(true),
		Schedule:   schedulePtr(ScheduleDaily),
		MaxBackups: intPtr(5),
	})
	require.NoError(t, err)

	assert.True(t, updated.AutoBackup)
	assert.Equal(t, ScheduleDaily, updated.Schedule)
	assert.Equal(t, 5, updated.MaxBackups)
	// Untouched fields keep their defaults.
	assert.Equal(t, 30, updated.RetentionDays)
	assert.True(t, updated.CompressBackups)

	// A fresh manager sees the persisted value.
	reloaded, err := NewSettingsManager(kv).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, updated, reloaded)
}

func TestSettingsManager_UpdateValidation(t *testing.T) {
	tests := []struct {
		name  string
		patch SettingsPatch
	}{
		{"unknown schedule", SettingsPatch{Schedule: schedulePtr("hourly")}},
		{"negative max backups", SettingsPatch{MaxBackups: intPtr(-1)}},
		{"max backups over hard cap", SettingsPatch{MaxBackups: intPtr(HistoryHardCap + 1)}},
		{"negative retention days", SettingsPatch{RetentionDays: intPtr(-7)}},
		{"unknown storage location", SettingsPatch{StorageLocation: locationPtr("tape")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := NewSettingsManager(store.NewMemoryStore())
			ctx := context.Background()

			_, err := sm.Update(ctx, tt.patch)
			require.Error(t, err)
			assert.Equal(t, ErrKindValidation, KindOf(err))

			// The stored settings remain the defaults.
			settings, err := sm.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, DefaultSettings(), settings)
		})
	}
}

func TestSettingsManager_ZeroLimitsAccepted(t *testing.T) {
	sm := NewSettingsManager(store.NewMemoryStore())
	ctx := context.Background()

	// Zero means retention is disabled, not an invalid value.
	updated, err := sm.Update(ctx, SettingsPatch{
		MaxBackups:    intPtr(0),
		RetentionDays: intPtr(0),
	})
	require.NoError(t, err)
	assert.Zero(t, updated.MaxBackups)
	assert.Zero(t, updated.RetentionDays)
}

func TestSettingsManager_FailedPersistLeavesSettingsUnchanged(t *testing.T) {
	kv := store.NewMemoryStore()
	sm := NewSettingsManager(kv)
	ctx := context.Background()

	kv.FailSet = func(key string) error {
		return fmt.Errorf("disk full")
	}

	_, err := sm.Update(ctx, SettingsPatch{AutoBackup: boolPtr(true)})
	require.Error(t, err)
	assert.Equal(t, ErrKindStorage, KindOf(err))

	kv.FailSet = nil

	settings, err := sm.Get(ctx)
	require.NoError(t, err)
	assert.False(t, settings.AutoBackup)
}

func TestSettingsManager_Reset(t *testing.T) {
	kv := store.NewMemoryStore()
	sm := NewSettingsManager(kv)
	ctx := context.Background()

	_, err := sm.Update(ctx, SettingsPatch{MaxBackups: intPtr(3)})
	require.NoError(t, err)

	settings, err := sm.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), settings)
}

func TestSettingsManager_IsBackupNeeded(t *testing.T) {
	hourAgo := time.Now().Add(-time.Hour)
	twoDaysAgo := time.Now().Add(-48 * time.Hour)

	tests := []struct {
		name       string
		patch      SettingsPatch
		lastBackup *time.Time
		want       bool
	}{
		{"no backups yet, auto backup disabled", SettingsPatch{}, nil, true},
		{"no backups yet, auto backup enabled", SettingsPatch{AutoBackup: boolPtr(true)}, nil, true},
		{"auto backup disabled once backed up", SettingsPatch{}, &twoDaysAgo, false},
		{
			"daily schedule overdue",
			SettingsPatch{AutoBackup: boolPtr(true), Schedule: schedulePtr(ScheduleDaily)},
			&twoDaysAgo, true,
		},
		{
			"daily schedule not yet due",
			SettingsPatch{AutoBackup: boolPtr(true), Schedule: schedulePtr(ScheduleDaily)},
			&hourAgo, false,
		},
		{
			"manual schedule never due once backed up",
			SettingsPatch{AutoBackup: boolPtr(true), Schedule: schedulePtr(ScheduleManual)},
			&twoDaysAgo, false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := NewSettingsManager(store.NewMemoryStore())
			ctx := context.Background()

			_, err := sm.Update(ctx, tt.patch)
			require.NoError(t, err)

			due, err := sm.IsBackupNeeded(ctx, tt.lastBackup)
			require.NoError(t, err)
			assert.Equal(t, tt.want, due)
		})
	}
}
