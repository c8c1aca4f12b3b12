package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/housecheck/internal/backup"
	"github.com/vbonduro/housecheck/internal/domain"
)

func TestLocalBackupStoreSaveAndLoad(t *testing.T) {
	store, err := NewLocalBackupStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	savedAt := time.Date(2026, 3, 1, 9, 0, 30, 5, time.UTC)
	entry := &backup.Entry{
		SessionID: "abc",
		States: domain.ItemStates{
			"exterior.locks": {Completed: true, Notes: "ok", PhotoRefs: []string{"p1.jpg"}},
		},
		SavedAt: savedAt,
	}
	require.NoError(t, store.Save(ctx, entry))

	loaded, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "abc", loaded.SessionID)
	assert.Equal(t, entry.States, loaded.States)
	assert.True(t, savedAt.Equal(loaded.SavedAt))

	_, err = os.Stat(filepath.Join(store.basePath, "session_abc.json"))
	assert.NoError(t, err)
}

func TestLocalBackupStoreOverwrites(t *testing.T) {
	store, err := NewLocalBackupStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &backup.Entry{SessionID: "abc", States: domain.ItemStates{"a": {}}}))
	require.NoError(t, store.Save(ctx, &backup.Entry{SessionID: "abc", States: domain.ItemStates{"b": {Completed: true}}}))

	loaded, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, domain.ItemStates{"b": {Completed: true}}, loaded.States)

	entries, err := os.ReadDir(store.basePath)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestLocalBackupStoreMissing(t *testing.T) {
	store, err := NewLocalBackupStore(t.TempDir())
	require.NoError(t, err)

	loaded, err := store.Load(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	assert.NoError(t, store.Delete(context.Background(), "nope"))
}

func TestLocalBackupStoreDelete(t *testing.T) {
	store, err := NewLocalBackupStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &backup.Entry{SessionID: "abc"}))
	require.NoError(t, store.Delete(ctx, "abc"))

	loaded, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestLocalBackupStorePathTraversal(t *testing.T) {
	store, err := NewLocalBackupStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load(context.Background(), "../../etc/passwd")
	assert.Error(t, err)

	err = store.Save(context.Background(), &backup.Entry{SessionID: "a/b"})
	assert.Error(t, err)

	_, err = store.Load(context.Background(), "")
	assert.Error(t, err)
}
