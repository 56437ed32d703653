package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()

	s, err := OpenBadgerStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func TestBadgerStore_RoundTrip(t *testing.T) {
	s := newTestBadgerStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, s.Set(ctx, "studio:members", []byte(`[{"id":"m1"}]`)))

	value, err := s.Get(ctx, "studio:members")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"m1"}]`, string(value))

	require.NoError(t, s.Delete(ctx, "studio:members"))
	_, err = s.Get(ctx, "studio:members")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	// Deleting again is a no-op.
	require.NoError(t, s.Delete(ctx, "studio:members"))
}

func TestBadgerStore_ListKeysByPrefix(t *testing.T) {
	s := newTestBadgerStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "settings:notifications", []byte("true")))
	require.NoError(t, s.Set(ctx, "settings:currency", []byte(`"USD"`)))
	require.NoError(t, s.Set(ctx, "vault:history", []byte("[]")))

	keys, err := s.ListKeys(ctx, "settings:")
	require.NoError(t, err)
	assert.Equal(t, []string{"settings:currency", "settings:notifications"}, keys)

	none, err := s.ListKeys(ctx, "nope:")
	require.NoError(t, err)
	assert.Empty(t, none)
}
