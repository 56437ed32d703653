package backup

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateBackupID(t *testing.T) {
	first := GenerateBackupID()
	second := GenerateBackupID()

	assert.True(t, strings.HasPrefix(first, "backup-"))
	assert.NotEqual(t, first, second)

	parts := strings.Split(first, "-")
	require.Len(t, parts, 4)
	assert.Len(t, parts[3], 8)
}

func TestArtifactPathFor(t *testing.T) {
	assert.Equal(t, "backups/backup-x.snap", ArtifactPathFor("backup-x"))
}

func TestSchedule(t *testing.T) {
	assert.True(t, ScheduleManual.Valid())
	assert.False(t, Schedule("hourly").Valid())

	assert.Equal(t, time.Duration(0), ScheduleManual.Interval())
	assert.Equal(t, 24*time.Hour, ScheduleDaily.Interval())
	assert.Equal(t, 7*24*time.Hour, ScheduleWeekly.Interval())
	assert.Equal(t, 30*24*time.Hour, ScheduleMonthly.Interval())
}

func TestStorageLocation_IncludesCloud(t *testing.T) {
	assert.False(t, StorageLocationLocal.IncludesCloud())
	assert.True(t, StorageLocationCloud.IncludesCloud())
	assert.True(t, StorageLocationBoth.IncludesCloud())
}

func TestSnapshotPayload_MarshalIsDeterministic(t *testing.T) {
	payload := &SnapshotPayload{
		Collections: map[string]json.RawMessage{
			"members":  json.RawMessage(`[{"id":"m1","firstName":"Ada","lastName":"Lovelace"}]`),
			"sessions": json.RawMessage(`[]`),
			"payments": json.RawMessage(`[]`),
			"trainers": json.RawMessage(`[]`),
			"packages": json.RawMessage(`[]`),
		},
		Settings: map[string]json.RawMessage{
			"theme":  json.RawMessage(`"dark"`),
			"locale": json.RawMessage(`"en-US"`),
		},
		Metadata: SnapshotMetadata{
			BackupType:    BackupTypeFull,
			Timestamp:     time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
			SchemaVersion: 2,
			AppVersion:    "test",
		},
	}

	first, err := payload.Marshal()
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := payload.Marshal()
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	// Same bytes means a stable checksum.
	assert.Equal(t, ComputeChecksum(first), ComputeChecksum(first))

	// The document round-trips through the restore-side decoder.
	doc, err := decodeSnapshotDocument(first)
	require.NoError(t, err)
	assert.Empty(t, validateSnapshot(doc))
}

func TestSnapshotPayload_ItemCount(t *testing.T) {
	payload := &SnapshotPayload{
		Collections: map[string]json.RawMessage{
			"members":  json.RawMessage(`[{"id":"m1","firstName":"A","lastName":"B"},{"id":"m2","firstName":"C","lastName":"D"}]`),
			"trainers": json.RawMessage(`[]`),
		},
		Settings: map[string]json.RawMessage{
			"theme": json.RawMessage(`"dark"`),
		},
	}

	count, err := payload.ItemCount()
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestComputeChecksum(t *testing.T) {
	sum := ComputeChecksum([]byte("studiovault"))
	assert.Len(t, sum, 64)
	assert.Equal(t, sum, ComputeChecksum([]byte("studiovault")))
	assert.NotEqual(t, sum, ComputeChecksum([]byte("studiovault!")))
}

func TestDefaultBackupName(t *testing.T) {
	createdAt := time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, "full-2026-08-01-10-30-00", defaultBackupName(BackupTypeFull, createdAt))
}
