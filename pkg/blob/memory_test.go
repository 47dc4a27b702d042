package blob

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorePutGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	data := []byte("payload")
	require.NoError(t, s.Put(ctx, "uploads/a", bytes.NewReader(data), int64(len(data)), "text/plain"))

	rc, err := s.Get(ctx, "uploads/a")
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreStat(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	data := []byte("12345")
	require.NoError(t, s.Put(ctx, "uploads/a", bytes.NewReader(data), 5, "application/octet-stream"))

	info, err := s.Stat(ctx, "uploads/a")
	require.NoError(t, err)
	assert.Equal(t, "uploads/a", info.Key)
	assert.Equal(t, int64(5), info.SizeBytes)
	assert.Equal(t, "application/octet-stream", info.ContentType)
	assert.False(t, info.LastModified.IsZero())

	_, err = s.Stat(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreListPrefix(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for _, key := range []string{"uploads/b", "uploads/a", "processed/c"} {
		require.NoError(t, s.Put(ctx, key, bytes.NewReader([]byte("x")), 1, ""))
	}

	infos, err := s.List(ctx, "uploads/")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "uploads/a", infos[0].Key)
	assert.Equal(t, "uploads/b", infos[1].Key)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "uploads/a", bytes.NewReader([]byte("x")), 1, ""))
	require.NoError(t, s.Delete(ctx, "uploads/a"))

	_, err := s.Get(ctx, "uploads/a")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing key is a no-op
	assert.NoError(t, s.Delete(ctx, "uploads/a"))
}
