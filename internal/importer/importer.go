// Package importer watches the data inbox for dropped JSON files and loads
// them into the store. Two file shapes are accepted: a catalog book list,
// and a legacy storefront export (orders and borrows). Processed files are
// archived so the inbox only ever holds pending work.
package importer

import (
	"bytes"
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bookhaven/bookhaven-server/internal/domain"
	"github.com/bookhaven/bookhaven-server/internal/id"
	"github.com/bookhaven/bookhaven-server/internal/store"
)

const (
	processedDir = "processed"
	failedDir    = "failed"

	// settleDelay is how long a file must stay quiet before it is read.
	// Copies into the inbox arrive as a burst of write events.
	settleDelay = 200 * time.Millisecond
)

// Importer watches an inbox directory and ingests JSON drops.
type Importer struct {
	inbox  string
	store  *store.Store
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer

	wg sync.WaitGroup
}

// New creates an importer for the given inbox directory. The directory and
// its archive subdirectories are created if missing.
func New(inbox string, st *store.Store, logger *slog.Logger) (*Importer, error) {
	for _, dir := range []string{inbox, filepath.Join(inbox, processedDir), filepath.Join(inbox, failedDir)} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create inbox directory %s: %w", dir, err)
		}
	}

	return &Importer{
		inbox:   inbox,
		store:   st,
		logger:  logger.With("component", "importer"),
		pending: make(map[string]*time.Timer),
	}, nil
}

// Start sweeps files already sitting in the inbox, then watches for new
// ones until the context is cancelled. It blocks.
func (im *Importer) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(im.inbox); err != nil {
		return fmt.Errorf("watch inbox: %w", err)
	}

	// Files dropped before startup never produce events.
	im.sweep(ctx)

	im.logger.Info("watching inbox", "path", im.inbox)

	for {
		select {
		case <-ctx.Done():
			im.cancelPending()
			im.wg.Wait()
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !im.accepts(event.Name) {
				continue
			}
			im.schedule(ctx, event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			im.logger.Error("watcher error", "error", err)
		}
	}
}

// accepts reports whether a path looks like an import drop.
func (im *Importer) accepts(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), ".json")
}

// sweep processes every acceptable file already present in the inbox.
func (im *Importer) sweep(ctx context.Context) {
	entries, err := os.ReadDir(im.inbox)
	if err != nil {
		im.logger.Error("failed to read inbox", "error", err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !im.accepts(entry.Name()) {
			continue
		}
		im.process(ctx, filepath.Join(im.inbox, entry.Name()))
	}
}

// schedule (re)arms the settle timer for a path. Each new write pushes the
// deadline back so half-copied files are never read.
func (im *Importer) schedule(ctx context.Context, path string) {
	im.mu.Lock()
	defer im.mu.Unlock()

	if timer, ok := im.pending[path]; ok {
		timer.Reset(settleDelay)
		return
	}

	// Count the work when it is scheduled, not when the timer fires, so a
	// timer firing during shutdown cannot slip past wg.Wait.
	im.wg.Add(1)
	im.pending[path] = time.AfterFunc(settleDelay, func() {
		defer im.wg.Done()

		im.mu.Lock()
		delete(im.pending, path)
		im.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		im.process(ctx, path)
	})
}

func (im *Importer) cancelPending() {
	im.mu.Lock()
	defer im.mu.Unlock()
	for path, timer := range im.pending {
		// A timer that already fired settles its own WaitGroup slot.
		if timer.Stop() {
			im.wg.Done()
		}
		delete(im.pending, path)
	}
}

// Result summarizes one processed file.
type Result struct {
	BooksCreated int
	BooksSkipped int
	TxnsImported int
	TxnsSkipped  int
}

// process ingests one file and archives it. Files that cannot be parsed or
// applied move to the failed directory instead of looping forever.
func (im *Importer) process(ctx context.Context, path string) {
	logger := im.logger.With("file", filepath.Base(path))

	data, err := os.ReadFile(path) //#nosec G304 -- inbox paths come from the watched directory
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		logger.Error("failed to read drop", "error", err)
		return
	}

	result, err := im.ingest(ctx, data)
	if err != nil {
		logger.Error("failed to ingest drop", "error", err)
		im.archive(path, failedDir)
		return
	}

	logger.Info("drop ingested",
		"books_created", result.BooksCreated,
		"books_skipped", result.BooksSkipped,
		"txns_imported", result.TxnsImported,
		"txns_skipped", result.TxnsSkipped)
	im.archive(path, processedDir)
}

// ingest classifies and applies a drop's payload.
func (im *Importer) ingest(ctx context.Context, data []byte) (*Result, error) {
	if isBookList(data) {
		return im.ingestBooks(ctx, data)
	}
	return im.ingestLegacy(ctx, data)
}

// isBookList reports whether the payload is a catalog book list: a JSON
// array whose first element has a title but none of the legacy transaction
// markers.
func isBookList(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return false
	}

	var rows []map[string]jsontext.Value
	if err := json.Unmarshal(trimmed, &rows); err != nil || len(rows) == 0 {
		return false
	}

	first := rows[0]
	if _, ok := first["items"]; ok {
		return false
	}
	if _, ok := first["book"]; ok {
		return false
	}
	_, hasTitle := first["title"]
	return hasTitle
}

// bookDrop is one catalog entry in a book-list drop. The shape matches the
// legacy storefront's booksData: numeric IDs and an "image" cover field.
type bookDrop struct {
	ID       *int64 `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Genre    string `json:"genre"`
	Image    string `json:"image"`
	CoverURL string `json:"cover_url"`
	Price    int64  `json:"price"`
	Stock    int    `json:"stock"`
}

func (im *Importer) ingestBooks(ctx context.Context, data []byte) (*Result, error) {
	var drops []bookDrop
	if err := json.Unmarshal(data, &drops); err != nil {
		return nil, fmt.Errorf("decode book list: %w", err)
	}

	result := &Result{}
	for i, drop := range drops {
		if drop.Title == "" {
			return nil, fmt.Errorf("book %d: missing title", i)
		}

		book := &domain.Book{
			Title:    drop.Title,
			Author:   drop.Author,
			Genre:    drop.Genre,
			CoverURL: drop.CoverURL,
			Price:    drop.Price,
			Stock:    drop.Stock,
		}
		if book.CoverURL == "" {
			book.CoverURL = drop.Image
		}

		if drop.ID != nil {
			book.ID = domain.CatalogBookID(*drop.ID)
		} else {
			generated, err := id.Generate(id.PrefixBook)
			if err != nil {
				return nil, fmt.Errorf("book %d: %w", i, err)
			}
			book.ID = generated
		}

		err := im.store.CreateBook(ctx, book)
		switch {
		case err == nil:
			result.BooksCreated++
		case errors.Is(err, store.ErrAlreadyExists):
			// Already in the catalog; the drop is not authoritative.
			result.BooksSkipped++
		default:
			return nil, fmt.Errorf("book %s: %w", book.ID, err)
		}
	}

	return result, nil
}

func (im *Importer) ingestLegacy(ctx context.Context, data []byte) (*Result, error) {
	txns, err := domain.ParseLegacyExport(data)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for _, txn := range txns {
		imported, err := im.store.ImportTransaction(ctx, txn)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", txn.ID, err)
		}
		if imported {
			result.TxnsImported++
		} else {
			result.TxnsSkipped++
		}
	}

	return result, nil
}

// archive moves a processed file into the given subdirectory, prefixing a
// timestamp so repeated drops of the same filename never collide.
func (im *Importer) archive(path, subdir string) {
	target := filepath.Join(im.inbox, subdir,
		time.Now().UTC().Format("20060102T150405")+"_"+filepath.Base(path))
	if err := os.Rename(path, target); err != nil {
		im.logger.Error("failed to archive drop", "file", path, "error", err)
	}
}
