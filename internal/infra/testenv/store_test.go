package testenv

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "testenv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreLoadEmpty(t *testing.T) {
	store := openTestStore(t)

	_, found, err := store.Load()
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStoreSaveLoadClear(t *testing.T) {
	store := openTestStore(t)

	record := Record{
		ProjectID: "proj_1",
		AppID:     "app",
		AppToken:  "token",
		BaseURL:   "https://api.voucherify.io",
		Resources: map[string]string{"customer_1": "cust_1"},
		CreatedAt: time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Save(record))

	loaded, found, err := store.Load()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, record, loaded)

	require.NoError(t, store.Clear())
	_, found, err = store.Load()
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStoreClearEmptyIsNoop(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Clear())
}

func TestStoreSaveOverwrites(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Save(Record{ProjectID: "proj_1"}))
	require.NoError(t, store.Save(Record{ProjectID: "proj_2"}))

	loaded, found, err := store.Load()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "proj_2", loaded.ProjectID)
}

func TestOpenStoreRequiresPath(t *testing.T) {
	_, err := OpenStore("   ")
	require.Error(t, err)
}
