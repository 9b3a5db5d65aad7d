package history

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/docnav/internal/foundation/errors"
)

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_LatestEmpty(t *testing.T) {
	store := newStore(t)
	rec, err := store.Latest(t.Context())
	require.NoError(t, err)
	require.Nil(t, rec)

	recs, err := store.List(t.Context(), 0)
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestSQLiteStore_RecordAndList(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"b1", "b2", "b3"} {
		require.NoError(t, store.Record(ctx, Record{
			BuildID:   id,
			Snapshot:  "snap-" + id,
			Formats:   []string{"vuepress", "json"},
			Files:     []string{"docs/.vuepress/config.js"},
			OutputDir: "docs/.vuepress",
			Outcome:   "success",
			Warnings:  i,
			StartedAt: started.Add(time.Duration(i) * time.Minute),
			Duration:  1500 * time.Millisecond,
		}))
	}

	latest, err := store.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	require.Equal(t, "b3", latest.BuildID)
	require.Equal(t, "snap-b3", latest.Snapshot)
	require.Equal(t, []string{"vuepress", "json"}, latest.Formats)
	require.Equal(t, []string{"docs/.vuepress/config.js"}, latest.Files)
	require.Equal(t, 2, latest.Warnings)
	require.True(t, latest.StartedAt.Equal(started.Add(2*time.Minute)))
	require.Equal(t, 1500*time.Millisecond, latest.Duration)

	recs, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "b3", recs[0].BuildID)
	require.Equal(t, "b2", recs[1].BuildID)

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestSQLiteStore_DuplicateBuildID(t *testing.T) {
	store := newStore(t)
	rec := Record{BuildID: "dup", Snapshot: "s", OutputDir: "out", Outcome: "success", StartedAt: time.Now()}
	require.NoError(t, store.Record(t.Context(), rec))

	err := store.Record(t.Context(), rec)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrRecordFailed))
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryHistory))
}

func TestSQLiteStore_PersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".docnav", "history.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(t.Context(), Record{
		BuildID: "b1", Snapshot: "s1", OutputDir: "out", Outcome: "skipped", StartedAt: time.Now(),
	}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	latest, err := reopened.Latest(t.Context())
	require.NoError(t, err)
	require.NotNil(t, latest)
	require.Equal(t, "skipped", latest.Outcome)
	require.Nil(t, latest.Formats)
}
