package history_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeport-cli/internal/domain"
	"codeport-cli/internal/history"
)

func openStore(t *testing.T, cap int) *history.Store {
	t.Helper()
	store, err := history.Open(t.TempDir(), cap)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleItem(path string) *domain.HistoryItem {
	return &domain.HistoryItem{
		FilePath:        path,
		OriginalContent: "print('hi')",
		OutputFiles: []domain.OutputFile{
			{Name: "Main.java", Path: "Main.java", Content: "class Main {}"},
		},
		SourceLanguage: "python",
		TargetLanguage: "java",
	}
}

func TestOpen_InvalidCap(t *testing.T) {
	t.Parallel()

	store, err := history.Open(t.TempDir(), 0)

	require.Error(t, err)
	assert.Nil(t, store)
}

func TestAppendAndList_RoundTrip(t *testing.T) {
	t.Parallel()

	store := openStore(t, 50)
	ctx := context.Background()

	item := sampleItem("src/main.py")
	item.CreatedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(ctx, item))

	items, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)

	got := items[0]
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "src/main.py", got.FilePath)
	assert.Equal(t, "print('hi')", got.OriginalContent)
	require.Len(t, got.OutputFiles, 1)
	assert.Equal(t, "class Main {}", got.OutputFiles[0].Content)
	assert.Equal(t, "python", got.SourceLanguage)
	assert.Equal(t, "java", got.TargetLanguage)
	assert.Equal(t, item.CreatedAt.Unix(), got.CreatedAt.Unix())
}

func TestAppend_EvictsOldestBeyondCap(t *testing.T) {
	t.Parallel()

	store := openStore(t, 50)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		require.NoError(t, store.Append(ctx, sampleItem(fmt.Sprintf("file_%02d.py", i))))
	}

	items, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 50)

	// Newest first; the first ten appended entries are gone.
	assert.Equal(t, "file_59.py", items[0].FilePath)
	assert.Equal(t, "file_10.py", items[49].FilePath)
}

func TestList_RespectsLimit(t *testing.T) {
	t.Parallel()

	store := openStore(t, 50)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, sampleItem(fmt.Sprintf("file_%d.py", i))))
	}

	items, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "file_4.py", items[0].FilePath)
	assert.Equal(t, "file_3.py", items[1].FilePath)
}

func TestList_EmptyStore(t *testing.T) {
	t.Parallel()

	store := openStore(t, 50)

	items, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestOpen_ReopensExistingDatabase(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	store, err := history.Open(dir, 50)
	require.NoError(t, err)
	require.NoError(t, store.Append(context.Background(), sampleItem("a.py")))
	require.NoError(t, store.Close())

	reopened, err := history.Open(dir, 50)
	require.NoError(t, err)
	defer reopened.Close()

	items, err := reopened.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a.py", items[0].FilePath)
}
