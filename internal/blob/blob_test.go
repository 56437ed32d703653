package blob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBlobStore(t *testing.T) *LocalBlobStore {
	t.Helper()

	s, err := NewLocalBlobStore(t.TempDir(), 0755)
	require.NoError(t, err)

	return s
}

func TestLocalBlobStore_WriteReadStat(t *testing.T) {
	s := newTestBlobStore(t)
	ctx := context.Background()

	payload := []byte("snapshot bytes")
	require.NoError(t, s.Write(ctx, "backups/backup-1.snap", payload))

	data, err := s.Read(ctx, "backups/backup-1.snap")
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	info, err := s.Stat(ctx, "backups/backup-1.snap")
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), info.Size)
}

func TestLocalBlobStore_ReadMissing(t *testing.T) {
	s := newTestBlobStore(t)

	_, err := s.Read(context.Background(), "backups/nope.snap")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Stat(context.Background(), "backups/nope.snap")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalBlobStore_DeleteIsIdempotent(t *testing.T) {
	s := newTestBlobStore(t)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "backups/backup-1.snap", []byte("x")))
	require.NoError(t, s.Delete(ctx, "backups/backup-1.snap"))
	require.NoError(t, s.Delete(ctx, "backups/backup-1.snap"))

	_, err := s.Read(ctx, "backups/backup-1.snap")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalBlobStore_List(t *testing.T) {
	s := newTestBlobStore(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureDirectory(ctx, "backups"))
	require.NoError(t, s.Write(ctx, "backups/a.snap", []byte("a")))
	require.NoError(t, s.Write(ctx, "backups/b.snap", []byte("b")))

	names, err := s.List(ctx, "backups")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.snap", "b.snap"}, names)

	empty, err := s.List(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestLocalBlobStore_PathTraversalNeutralized(t *testing.T) {
	s := newTestBlobStore(t)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "../escape.snap", []byte("x")))

	// The artifact must land inside the base directory.
	data, err := s.Read(ctx, "escape.snap")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)
}
