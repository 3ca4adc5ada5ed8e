package avatar

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFsStorage(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	storage := NewFsStorage(afero.NewOsFs())
	path := filepath.Join(dir, "AL.png")

	t.Run("Exists", func(t *testing.T) {
		ok, err := storage.Exists(ctx, path)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("WriteFile", func(t *testing.T) {
		require.NoError(t, storage.WriteFile(ctx, path, []byte("first")))
		ok, err := storage.Exists(ctx, path)
		require.NoError(t, err)
		assert.True(t, ok)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, []byte("first"), content)

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
	})

	t.Run("Replace", func(t *testing.T) {
		require.NoError(t, storage.WriteFile(ctx, path, []byte("second")))
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), content)
	})

	t.Run("NoTemporaryFileLeft", func(t *testing.T) {
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "AL.png", entries[0].Name())
	})

	t.Run("MissingDirectory", func(t *testing.T) {
		missing := filepath.Join(dir, "missing", "AL.png")
		assert.Error(t, storage.WriteFile(ctx, missing, []byte("data")))
		_, err := os.Stat(filepath.Dir(missing))
		assert.True(t, os.IsNotExist(err))
	})
}

func TestFsStorageReadOnlyFs(t *testing.T) {
	ctx := context.Background()
	base := afero.NewMemMapFs()
	require.NoError(t, base.MkdirAll("/avatars", 0755))
	require.NoError(t, afero.WriteFile(base, "/avatars/AL.png", []byte("data"), 0644))

	storage := NewFsStorage(afero.NewReadOnlyFs(base))
	ok, err := storage.Exists(ctx, "/avatars/AL.png")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Error(t, storage.WriteFile(ctx, "/avatars/GH.png", []byte("data")))
	ok, err = afero.Exists(base, "/avatars/GH.png")
	require.NoError(t, err)
	assert.False(t, ok)
}
