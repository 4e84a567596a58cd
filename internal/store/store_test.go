package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocal(filepath.Join(t.TempDir(), "blobs"))
	require.NoError(t, err)

	_, err = s.Get(ctx, "token.json")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "token.json", []byte(`{"a":1}`)))
	data, err := s.Get(ctx, "token.json")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	require.NoError(t, s.Set(ctx, "token.json", []byte(`{"a":2}`)))
	data, err = s.Get(ctx, "token.json")
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(data))
}

func TestLocalStorePermissions(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocal(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), "secret", []byte("x")))

	info, err := os.Stat(filepath.Join(dir, "secret"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLocalStoreKeysStayInsideDir(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocal(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), "../escape/../x", []byte("x")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".._escape_.._x", entries[0].Name())
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	type token struct {
		Access string `json:"access"`
	}
	require.NoError(t, SetJSON(ctx, s, "tok", token{Access: "abc"}))

	var got token
	require.NoError(t, GetJSON(ctx, s, "tok", &got))
	assert.Equal(t, "abc", got.Access)

	require.ErrorIs(t, GetJSON(ctx, s, "missing", &got), ErrNotFound)

	require.NoError(t, s.Set(ctx, "bad", []byte("{")))
	require.Error(t, GetJSON(ctx, s, "bad", &got))
}
