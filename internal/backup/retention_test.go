package backup

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studiovault/internal/blob"
	"studiovault/internal/logging"
	"studiovault/internal/store"
)

func newRetentionFixture(t *testing.T) (*Ledger, blob.BlobStore, *memTransport, *RetentionEnforcer) {
	t.Helper()

	kv := store.NewMemoryStore()
	ledger := NewLedger(kv, 0)

	blobs, err := blob.NewLocalBlobStore(t.TempDir(), 0o755)
	require.NoError(t, err)

	transport := newMemTransport()

	logger, err := logging.NewLogger(logging.Config{Level: logging.LogLevelQuiet})
	require.NoError(t, err)

	return ledger, blobs, transport, NewRetentionEnforcer(ledger, blobs, transport, logger)
}

// seedBackups appends n completed backups, oldest first and spaced one
// day apart ending at now, each with an artifact in the blob store.
func seedBackups(t *testing.T, ledger *Ledger, blobs blob.BlobStore, n int, now time.Time) {
	t.Helper()
	ctx := context.Background()

	for i := n - 1; i >= 0; i-- {
		record := makeRecord(fmt.Sprintf("backup-%d", i), now.AddDate(0, 0, -i))
		require.NoError(t, blobs.Write(ctx, record.ArtifactPath, []byte("artifact")))
		mustAppend(t, ledger, record)
	}
}

func TestRetentionEnforcer_BothLimitsRequired(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name          string
		backups       int
		maxBackups    int
		retentionDays int
		wantEvicted   int
	}{
		{
			name:    "under both limits keeps everything",
			backups: 5, maxBackups: 10, retentionDays: 30,
			wantEvicted: 0,
		},
		{
			name:    "over count but young keeps everything",
			backups: 6, maxBackups: 3, retentionDays: 30,
			wantEvicted: 0,
		},
		{
			name:    "old but within count keeps everything",
			backups: 5, maxBackups: 10, retentionDays: 2,
			wantEvicted: 0,
		},
		{
			name:    "over count and old evicts the excess",
			backups: 8, maxBackups: 3, retentionDays: 4,
			// Positions 3..7 exceed the count; of those, backups 4..7
			// are past the 4-day retention.
			wantEvicted: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger, blobs, _, enforcer := newRetentionFixture(t)
			seedBackups(t, ledger, blobs, tt.backups, now)

			settings := DefaultSettings()
			settings.MaxBackups = tt.maxBackups
			settings.RetentionDays = tt.retentionDays

			result, err := enforcer.Enforce(context.Background(), settings, false)
			require.NoError(t, err)

			assert.Equal(t, tt.backups, result.Processed)
			assert.Equal(t, tt.wantEvicted, result.Evicted)
			assert.Equal(t, tt.backups-tt.wantEvicted, result.Kept)
			assert.Empty(t, result.Errors)

			remaining, err := ledger.List(context.Background())
			require.NoError(t, err)
			assert.Len(t, remaining, tt.backups-tt.wantEvicted)
		})
	}
}

func TestRetentionEnforcer_EvictsOldestFirstAndRemovesArtifacts(t *testing.T) {
	ledger, blobs, _, enforcer := newRetentionFixture(t)
	now := time.Now()
	seedBackups(t, ledger, blobs, 6, now)

	settings := DefaultSettings()
	settings.MaxBackups = 2
	settings.RetentionDays = 3

	result, err := enforcer.Enforce(context.Background(), settings, false)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Evicted)

	ctx := context.Background()

	// The two newest survive, plus the over-count-but-young one.
	for _, id := range []string{"backup-0", "backup-1", "backup-2"} {
		_, err := ledger.Find(ctx, id)
		assert.NoError(t, err, id)
	}
	for _, id := range []string{"backup-3", "backup-4", "backup-5"} {
		_, err := ledger.Find(ctx, id)
		assert.True(t, IsNotFound(err), id)

		_, err = blobs.Stat(ctx, ArtifactPathFor(id))
		assert.Error(t, err, id)
	}
}

func TestRetentionEnforcer_DryRunTouchesNothing(t *testing.T) {
	ledger, blobs, _, enforcer := newRetentionFixture(t)
	now := time.Now()
	seedBackups(t, ledger, blobs, 6, now)

	settings := DefaultSettings()
	settings.MaxBackups = 2
	settings.RetentionDays = 3

	result, err := enforcer.Enforce(context.Background(), settings, true)
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Equal(t, 3, result.Evicted)

	remaining, err := ledger.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, remaining, 6)
}

func TestRetentionEnforcer_CloudCopiesEvicted(t *testing.T) {
	ledger, blobs, transport, enforcer := newRetentionFixture(t)
	ctx := context.Background()
	now := time.Now()

	old := makeRecord("backup-old", now.AddDate(0, 0, -40))
	old.StorageLocation = StorageLocationBoth
	require.NoError(t, blobs.Write(ctx, old.ArtifactPath, []byte("artifact")))
	require.NoError(t, transport.Upload(ctx, old.ArtifactPath, []byte("artifact")))
	mustAppend(t, ledger, old)

	fresh := makeRecord("backup-new", now)
	require.NoError(t, blobs.Write(ctx, fresh.ArtifactPath, []byte("artifact")))
	mustAppend(t, ledger, fresh)

	settings := DefaultSettings()
	settings.MaxBackups = 1
	settings.RetentionDays = 7

	result, err := enforcer.Enforce(ctx, settings, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Evicted)
	assert.False(t, transport.has(old.ArtifactPath))
}

func TestRetentionEnforcer_DisabledLimitsSkipSweep(t *testing.T) {
	ledger, blobs, _, enforcer := newRetentionFixture(t)
	seedBackups(t, ledger, blobs, 4, time.Now())

	settings := DefaultSettings()
	settings.MaxBackups = 0

	result, err := enforcer.Enforce(context.Background(), settings, false)
	require.NoError(t, err)
	assert.Zero(t, result.Processed)
	assert.Zero(t, result.Evicted)
}
