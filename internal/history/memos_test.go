package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/holdwatch/internal/contracts"
	"github.com/wonny/holdwatch/pkg/config"
	"github.com/wonny/holdwatch/pkg/database"
)

func sampleMemos() []contracts.Memo {
	fetched := time.Date(2024, 1, 3, 7, 0, 0, 0, time.UTC)
	return []contracts.Memo{
		{Key: "2024-01-03", Title: "2024年1月3日 Trimming banks", DateText: "January 3, 2024", Body: "Sold half.", FetchedAt: fetched},
		{Key: "2024-01-01", Title: "New year letter", Body: "Plans.", FetchedAt: fetched},
	}
}

func TestFileMemoStore_AddOnlyUnseen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "memos.json")
	store := NewFileMemoStore(path)

	// Nothing stored yet is not an error
	memos, err := store.LoadMemos(ctx)
	require.NoError(t, err)
	assert.Empty(t, memos)

	added, err := store.AddMemos(ctx, sampleMemos())
	require.NoError(t, err)
	assert.Equal(t, sampleMemos(), added)

	edited := contracts.Memo{Key: "2024-01-03", Title: "Edited", Body: "changed"}
	fresh := contracts.Memo{Key: "2024-01-04", Title: "Adding to A", Body: "More."}
	added, err = store.AddMemos(ctx, []contracts.Memo{edited, fresh, {Title: "no key"}})
	require.NoError(t, err)
	assert.Equal(t, []contracts.Memo{fresh}, added)

	// A fresh store instance reads what was written
	got, err := NewFileMemoStore(path).LoadMemos(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"2024-01-04", "2024-01-03", "2024-01-01"}, []string{got[0].Key, got[1].Key, got[2].Key})
	assert.Equal(t, "2024年1月3日 Trimming banks", got[1].Title)
	assert.True(t, got[1].FetchedAt.Equal(sampleMemos()[0].FetchedAt))
}

func TestFileMemoStore_NothingNewSkipsWrite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "memos.json")
	store := NewFileMemoStore(path)

	added, err := store.AddMemos(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, added)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFileMemoStore_Corrupt(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "memos.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"2024-01-03":`), 0o644))

	store := NewFileMemoStore(path)
	_, err := store.LoadMemos(ctx)
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = store.AddMemos(ctx, sampleMemos())
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestMemoryStore_Memos(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(nil)

	added, err := m.AddMemos(ctx, sampleMemos())
	require.NoError(t, err)
	assert.Len(t, added, 2)

	added, err = m.AddMemos(ctx, sampleMemos())
	require.NoError(t, err)
	assert.Empty(t, added)

	got, err := m.LoadMemos(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleMemos(), got)
}

func TestNewMemoStore(t *testing.T) {
	cfg := &config.Config{
		History: config.HistoryConfig{Backend: "file"},
		Memos:   config.MemosConfig{Path: "data/m.json"},
	}
	fs, ok := NewMemoStore(cfg, nil).(*FileMemoStore)
	require.True(t, ok)
	assert.Equal(t, "data/m.json", fs.path)

	cfg.History.Backend = "postgres"
	_, ok = NewMemoStore(cfg, nil).(*FileMemoStore)
	assert.True(t, ok)
}

func TestPostgresStore_Memos(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	cfg, err := config.Load()
	require.NoError(t, err)

	db, err := database.New(ctx, cfg)
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db.Pool)
	require.NoError(t, store.EnsureSchema(ctx))

	// Unique keys so reruns against the same database start clean
	first := contracts.Memo{Key: "test-" + uuid.New().String(), Title: "first", Body: "a", FetchedAt: time.Now().UTC().Truncate(time.Microsecond)}
	second := contracts.Memo{Key: "test-" + uuid.New().String(), Title: "second", Body: "b", FetchedAt: first.FetchedAt}
	defer db.Pool.Exec(ctx, `DELETE FROM holdwatch.memos WHERE key = ANY($1)`, []string{first.Key, second.Key})

	added, err := store.AddMemos(ctx, []contracts.Memo{first})
	require.NoError(t, err)
	assert.Len(t, added, 1)

	added, err = store.AddMemos(ctx, []contracts.Memo{first, second})
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, second.Key, added[0].Key)

	got, err := store.LoadMemos(ctx)
	require.NoError(t, err)
	keys := make(map[string]contracts.Memo, len(got))
	for _, m := range got {
		keys[m.Key] = m
	}
	assert.Equal(t, "first", keys[first.Key].Title)
	assert.True(t, keys[first.Key].FetchedAt.Equal(first.FetchedAt))
}
