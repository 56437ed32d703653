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

func TestLedger_AppendAndList(t *testing.T) {
	kv := store.NewMemoryStore()
	ledger := NewLedger(kv, 0)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		record := makeRecord(fmt.Sprintf("backup-%d", i), base.Add(time.Duration(i)*time.Hour))
		mustAppend(t, ledger, record)
	}

	records, err := ledger.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Most recent first.
	assert.Equal(t, "backup-2", records[0].ID)
	assert.Equal(t, "backup-1", records[1].ID)
	assert.Equal(t, "backup-0", records[2].ID)
}

func TestLedger_HardCapTruncatesOldest(t *testing.T) {
	kv := store.NewMemoryStore()
	ledger := NewLedger(kv, 5)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 8; i++ {
		record := makeRecord(fmt.Sprintf("backup-%d", i), base.Add(time.Duration(i)*time.Hour))
		mustAppend(t, ledger, record)
	}

	records, err := ledger.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 5)

	assert.Equal(t, "backup-7", records[0].ID)
	assert.Equal(t, "backup-3", records[4].ID)

	// The truncated entries are gone from the cache and the store.
	_, err = ledger.Find(ctx, "backup-0")
	assert.True(t, IsNotFound(err))

	reloaded := NewLedger(kv, 5)
	records, err = reloaded.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 5)
}

func TestLedger_AppendReturnsCapEvictedEntries(t *testing.T) {
	kv := store.NewMemoryStore()
	ledger := NewLedger(kv, 2)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	mustAppend(t, ledger, makeRecord("backup-0", base))
	mustAppend(t, ledger, makeRecord("backup-1", base.Add(time.Hour)))

	evicted, err := ledger.Append(ctx, makeRecord("backup-2", base.Add(2*time.Hour)))
	require.NoError(t, err)
	require.Len(t, evicted, 1)
	assert.Equal(t, "backup-0", evicted[0].ID)
}

func TestLedger_PersistFailureLeavesMemoryUnchanged(t *testing.T) {
	kv := store.NewMemoryStore()
	ledger := NewLedger(kv, 10)
	ctx := context.Background()

	mustAppend(t, ledger, makeRecord("backup-ok", time.Now()))

	kv.FailSet = func(key string) error {
		return fmt.Errorf("disk full")
	}

	_, err := ledger.Append(ctx, makeRecord("backup-lost", time.Now()))
	require.Error(t, err)
	assert.Equal(t, ErrKindStorage, KindOf(err))

	kv.FailSet = nil

	records, err := ledger.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "backup-ok", records[0].ID)
}

func TestLedger_Remove(t *testing.T) {
	kv := store.NewMemoryStore()
	ledger := NewLedger(kv, 10)
	ctx := context.Background()

	mustAppend(t, ledger, makeRecord("backup-a", time.Now()))
	mustAppend(t, ledger, makeRecord("backup-b", time.Now()))

	found, err := ledger.Remove(ctx, "backup-a")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = ledger.Remove(ctx, "backup-a")
	require.NoError(t, err)
	assert.False(t, found)

	records, err := ledger.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "backup-b", records[0].ID)
}

func TestLedger_LatestAndEmpty(t *testing.T) {
	kv := store.NewMemoryStore()
	ledger := NewLedger(kv, 10)
	ctx := context.Background()

	latest, err := ledger.Latest(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	records, err := ledger.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	mustAppend(t, ledger, makeRecord("backup-a", time.Now().Add(-time.Hour)))
	mustAppend(t, ledger, makeRecord("backup-b", time.Now()))

	latest, err = ledger.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "backup-b", latest.ID)
}

func TestLedger_CorruptStoreValue(t *testing.T) {
	kv := store.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "vault:history", []byte("{not json")))

	ledger := NewLedger(kv, 10)
	_, err := ledger.List(ctx)
	require.Error(t, err)
	assert.Equal(t, ErrKindCorruption, KindOf(err))
}

func TestLedger_ListReturnsCopies(t *testing.T) {
	kv := store.NewMemoryStore()
	ledger := NewLedger(kv, 10)
	ctx := context.Background()

	mustAppend(t, ledger, makeRecord("backup-a", time.Now()))

	records, err := ledger.List(ctx)
	require.NoError(t, err)
	records[0].Name = "mutated"

	again, err := ledger.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "backup-a", again[0].Name)
}
