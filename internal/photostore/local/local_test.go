package local

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/housecheck/internal/photostore"
)

func TestLocalPhotoStoreSaveAndGet(t *testing.T) {
	store, err := NewLocalPhotoStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	imageData := []byte("fake png data")

	key, err := store.Save(ctx, "s-1", "exterior.locks", "image/png", bytes.NewReader(imageData))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, photostore.SessionPrefix("s-1")+"exterior.locks_"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	reader, mimeType, err := store.Get(ctx, key)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, "image/png", mimeType)
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, imageData, data)
}

func TestLocalPhotoStoreUniqueKeys(t *testing.T) {
	store, err := NewLocalPhotoStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	first, err := store.Save(ctx, "s-1", "a", "image/jpeg", bytes.NewReader([]byte("1")))
	require.NoError(t, err)
	second, err := store.Save(ctx, "s-1", "a", "image/jpeg", bytes.NewReader([]byte("2")))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestLocalPhotoStoreDelete(t *testing.T) {
	store, err := NewLocalPhotoStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	key, err := store.Save(ctx, "s-1", "a", "image/jpeg", bytes.NewReader([]byte("test data")))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, key))

	_, _, err = store.Get(ctx, key)
	assert.Error(t, err)
	assert.Error(t, store.Delete(ctx, key))
}

func TestLocalPhotoStorePathTraversal(t *testing.T) {
	store, err := NewLocalPhotoStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, _, err = store.Get(ctx, "../../etc/passwd")
	assert.Error(t, err)

	_, err = store.Save(ctx, "../../../tmp", "x", "image/jpeg", bytes.NewReader(nil))
	assert.Error(t, err)
}

func TestLocalPhotoStoreGetMissing(t *testing.T) {
	store, err := NewLocalPhotoStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.Get(context.Background(), photostore.SessionPrefix("s-1")+"nope.jpg")
	assert.ErrorIs(t, err, photostore.ErrNotFound)
}
