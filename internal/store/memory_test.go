package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetSet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, s.Set(ctx, "alpha", []byte("one")))

	value, err := s.Get(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), value)

	// Returned slice is a copy; mutating it must not affect the store.
	value[0] = 'X'
	again, err := s.Get(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), again)
}

func TestMemoryStore_DeleteIsIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "alpha", []byte("one")))
	require.NoError(t, s.Delete(ctx, "alpha"))
	require.NoError(t, s.Delete(ctx, "alpha"))

	_, err := s.Get(ctx, "alpha")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestMemoryStore_ListKeys(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "settings:theme", []byte("dark")))
	require.NoError(t, s.Set(ctx, "settings:locale", []byte("en")))
	require.NoError(t, s.Set(ctx, "studio:members", []byte("[]")))

	keys, err := s.ListKeys(ctx, "settings:")
	require.NoError(t, err)
	assert.Equal(t, []string{"settings:locale", "settings:theme"}, keys)

	all, err := s.ListKeys(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryStore_FailSet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	boom := errors.New("disk full")
	s.FailSet = func(key string) error {
		if key == "studio:payments" {
			return boom
		}
		return nil
	}

	require.NoError(t, s.Set(ctx, "studio:members", []byte("[]")))
	err := s.Set(ctx, "studio:payments", []byte("[]"))
	assert.ErrorIs(t, err, boom)

	_, err = s.Get(ctx, "studio:payments")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}
