package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStoreRecordAndRecent(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Record(ctx, Build{
		ID: "first", Kind: "build", Reason: "page_changed",
		Rendered: 2, Skipped: 3, StartedAt: started, Duration: 42 * time.Millisecond,
	}))
	require.NoError(t, store.Record(ctx, Build{
		Kind: "rebuild", Reason: "layout_changed", Trigger: "page.html",
		Failed: 1, Error: "boom", Revision: "abc123",
	}))

	builds, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, builds, 2)

	newest := builds[0]
	assert.Equal(t, "rebuild", newest.Kind)
	assert.Equal(t, "page.html", newest.Trigger)
	assert.Equal(t, "boom", newest.Error)
	assert.Equal(t, "abc123", newest.Revision)
	assert.NotEmpty(t, newest.ID)

	oldest := builds[1]
	assert.Equal(t, "first", oldest.ID)
	assert.Equal(t, 2, oldest.Rendered)
	assert.Equal(t, 3, oldest.Skipped)
	assert.Equal(t, 42*time.Millisecond, oldest.Duration)
	assert.True(t, started.Equal(oldest.StartedAt))
}

func TestSQLiteStoreRecentLimit(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	for range 5 {
		require.NoError(t, store.Record(t.Context(), Build{Kind: "build"}))
	}
	builds, err := store.Recent(t.Context(), 3)
	require.NoError(t, err)
	assert.Len(t, builds, 3)
}

func TestSQLiteStoreDuplicateID(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Record(t.Context(), Build{ID: "same", Kind: "build"}))
	assert.Error(t, store.Record(t.Context(), Build{ID: "same", Kind: "build"}))
}

func TestSQLiteStoreCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(t.Context(), Build{Kind: "build"}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	builds, err := reopened.Recent(t.Context(), 0)
	require.NoError(t, err)
	assert.Len(t, builds, 1)
}

func TestNewBuildIDUnique(t *testing.T) {
	assert.NotEqual(t, NewBuildID(), NewBuildID())
}
