package importer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookhaven/bookhaven-server/internal/domain"
	"github.com/bookhaven/bookhaven-server/internal/store"
)

func setupImporter(t *testing.T) (*Importer, *store.Store, string) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.New(t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, st.Close())
	})

	inbox := filepath.Join(t.TempDir(), "inbox")
	im, err := New(inbox, st, logger)
	require.NoError(t, err)

	return im, st, inbox
}

// startImporter runs the watch loop until the test ends.
func startImporter(t *testing.T, im *Importer) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = im.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func dropFile(t *testing.T, inbox, name, payload string) {
	t.Helper()

	// Write elsewhere and rename in, the way a well-behaved producer does.
	tmp := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(tmp, []byte(payload), 0o600))
	require.NoError(t, os.Rename(tmp, filepath.Join(inbox, name)))
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)

	count := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			count++
		}
	}
	return count
}

const bookListDrop = `[
	{"id": 3, "title": "1984", "author": "George Orwell", "genre": "Dystopia", "image": "https://covers.example.com/1984.jpg", "price": 580, "stock": 5},
	{"title": "Anna Karenina", "author": "Leo Tolstoy", "genre": "Classics", "price": 610, "stock": 2}
]`

const legacyDrop = `{
	"orders": [
		{
			"id": 101,
			"customer": {"name": "Ivan", "email": "ivan@example.com"},
			"items": [{"id": 3, "title": "1984", "price": 580, "quantity": 2}],
			"totalPrice": 1160,
			"status": "completed",
			"date": "2024-03-01T10:00:00.000Z"
		}
	],
	"userBorrows_olga@example.com": [
		{"id": "7", "book": {"id": 5, "title": "Crime and Punishment", "price": 690}, "status": "Взято в чтение"}
	]
}`

func TestIngestBookList(t *testing.T) {
	im, st, _ := setupImporter(t)

	result, err := im.ingest(t.Context(), []byte(bookListDrop))
	require.NoError(t, err)
	assert.Equal(t, 2, result.BooksCreated)
	assert.Zero(t, result.BooksSkipped)

	// The numeric ID landed in the stable book-N form.
	book, err := st.GetBook(t.Context(), "book-3")
	require.NoError(t, err)
	assert.Equal(t, "1984", book.Title)
	assert.Equal(t, int64(580), book.Price)
	assert.Equal(t, 5, book.Stock)
	assert.Equal(t, "https://covers.example.com/1984.jpg", book.CoverURL)

	// Re-ingesting the same drop creates nothing new for known IDs.
	result, err = im.ingest(t.Context(), []byte(bookListDrop))
	require.NoError(t, err)
	assert.Equal(t, 1, result.BooksSkipped)
	// The ID-less entry gets a fresh generated ID each time.
	assert.Equal(t, 1, result.BooksCreated)
}

func TestIngestLegacyExport(t *testing.T) {
	im, st, _ := setupImporter(t)

	result, err := im.ingest(t.Context(), []byte(legacyDrop))
	require.NoError(t, err)
	assert.Equal(t, 2, result.TxnsImported)

	txns, err := st.ListTransactionsByUser(t.Context(), "ivan@example.com")
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, domain.KindPurchase, txns[0].Kind)
	assert.Equal(t, domain.StatusCompleted, txns[0].Status)
	assert.Equal(t, int64(1160), txns[0].Total)

	borrows, err := st.ListTransactionsByUser(t.Context(), "olga@example.com")
	require.NoError(t, err)
	require.Len(t, borrows, 1)
	assert.Equal(t, domain.KindBorrow, borrows[0].Kind)

	// Imports are idempotent.
	result, err = im.ingest(t.Context(), []byte(legacyDrop))
	require.NoError(t, err)
	assert.Zero(t, result.TxnsImported)
	assert.Equal(t, 2, result.TxnsSkipped)
}

func TestIngestRejectsGarbage(t *testing.T) {
	im, _, _ := setupImporter(t)

	_, err := im.ingest(t.Context(), []byte("not json"))
	assert.Error(t, err)

	_, err = im.ingest(t.Context(), []byte(`[{"title": ""}]`))
	assert.Error(t, err)
}

func TestWatcherProcessesDrop(t *testing.T) {
	im, st, inbox := setupImporter(t)
	startImporter(t, im)

	dropFile(t, inbox, "catalog.json", bookListDrop)

	require.Eventually(t, func() bool {
		_, err := st.GetBook(context.Background(), "book-3")
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)

	// The drop was archived out of the inbox.
	require.Eventually(t, func() bool {
		return countFiles(t, inbox) == 0 &&
			countFiles(t, filepath.Join(inbox, processedDir)) == 1
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWatcherSweepsExistingFiles(t *testing.T) {
	im, st, inbox := setupImporter(t)

	// File lands before the watcher starts.
	dropFile(t, inbox, "pre-existing.json", legacyDrop)
	startImporter(t, im)

	require.Eventually(t, func() bool {
		txns, err := st.ListTransactionsByUser(context.Background(), "ivan@example.com")
		return err == nil && len(txns) == 1
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWatcherArchivesBadDrops(t *testing.T) {
	im, _, inbox := setupImporter(t)
	startImporter(t, im)

	dropFile(t, inbox, "broken.json", "{{{")

	require.Eventually(t, func() bool {
		return countFiles(t, filepath.Join(inbox, failedDir)) == 1
	}, 5*time.Second, 50*time.Millisecond)
}

func TestShutdownWaitsForScheduledWork(t *testing.T) {
	im, _, inbox := setupImporter(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = im.Start(ctx)
	}()

	// Cancel while a settle timer is pending. Start must drain the
	// scheduled work and return instead of leaving it mid-flight.
	dropFile(t, inbox, "late.json", bookListDrop)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("importer did not shut down")
	}
}

func TestAcceptsOnlyJSON(t *testing.T) {
	im, _, _ := setupImporter(t)

	assert.True(t, im.accepts("/inbox/orders.json"))
	assert.True(t, im.accepts("/inbox/ORDERS.JSON"))
	assert.False(t, im.accepts("/inbox/.orders.json"))
	assert.False(t, im.accepts("/inbox/notes.txt"))
	assert.False(t, im.accepts("/inbox/drop.json.tmp"))
}
