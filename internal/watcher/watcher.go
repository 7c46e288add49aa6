// Package watcher re-ingests documents as their source files change.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/helion-labs/devdocs-cli/internal/core/ports/driven"
	"github.com/helion-labs/devdocs-cli/internal/core/ports/driving"
	"github.com/helion-labs/devdocs-cli/internal/loader/filesystem"
	"github.com/helion-labs/devdocs-cli/internal/logger"
)

// DefaultDebounce is how long the watcher waits after the last event
// before re-ingesting. Editors tend to fire bursts of writes per save.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches corpus roots and keeps the index in sync.
type Watcher struct {
	roots    []string
	loader   *filesystem.Loader
	ingestor driving.Ingestor
	index    driven.VectorIndex
	debounce time.Duration
}

// Option configures the watcher.
type Option func(*Watcher)

// WithDebounce overrides the event settle window.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher over the given corpus roots.
func New(
	roots []string,
	loader *filesystem.Loader,
	ingestor driving.Ingestor,
	index driven.VectorIndex,
	opts ...Option,
) *Watcher {
	w := &Watcher{
		roots:    roots,
		loader:   loader,
		ingestor: ingestor,
		index:    index,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled. Returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	for _, root := range w.roots {
		if err := addRecursive(fsw, root); err != nil {
			return fmt.Errorf("watch %s: %w", root, err)
		}
	}
	logger.Info("Watching %d root(s) for changes", len(w.roots))

	// Events accumulate here until the debounce timer fires
	pending := make(map[string]fsnotify.Op)
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watch error: %v", err)

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.handleEvent(fsw, ev, pending) {
				timer.Reset(w.debounce)
			}

		case <-timer.C:
			w.flush(ctx, pending)
			pending = make(map[string]fsnotify.Op)
		}
	}
}

// handleEvent records a relevant event, returning true when the
// debounce timer should restart.
func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event, pending map[string]fsnotify.Op) bool {
	// New directories must be watched as they appear
	if ev.Op.Has(fsnotify.Create) && isDir(ev.Name) {
		if !hidden(ev.Name) {
			if err := addRecursive(fsw, ev.Name); err != nil {
				logger.Warn("Failed to watch new directory %s: %v", ev.Name, err)
			}
		}
		return false
	}

	if !isMarkdown(ev.Name) {
		return false
	}
	pending[ev.Name] |= ev.Op
	return true
}

// flush applies the accumulated changes to the index.
func (w *Watcher) flush(ctx context.Context, pending map[string]fsnotify.Op) {
	for path, op := range pending {
		root, ok := w.rootOf(path)
		if !ok {
			continue
		}

		if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
			docID := filesystem.DocumentID(root, path)
			logger.Info("Removed %s, deleting its index entries", docID)
			if err := w.index.DeleteByDocument(ctx, docID); err != nil {
				logger.Warn("Failed to delete %s: %v", docID, err)
			}
			continue
		}

		doc, err := w.loader.LoadFile(root, path)
		if err != nil {
			logger.Warn("Failed to reload %s: %v", path, err)
			continue
		}
		n, err := w.ingestor.IngestDocument(ctx, doc)
		if err != nil {
			logger.Warn("Failed to re-ingest %s: %v", doc.ID, err)
			continue
		}
		logger.Info("Re-ingested %s (%d chunks)", doc.ID, n)
	}
}

// rootOf finds the corpus root containing path.
func (w *Watcher) rootOf(path string) (string, bool) {
	for _, root := range w.roots {
		clean := filepath.Clean(root)
		if path == clean || strings.HasPrefix(path, clean+string(filepath.Separator)) {
			return clean, true
		}
	}
	return "", false
}

// addRecursive registers a directory tree with the watcher, skipping
// hidden directories the same way the corpus walk does.
func addRecursive(fsw *fsnotify.Watcher, root string) error {
	root = filepath.Clean(root)
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("Skipping unreadable %s: %v", path, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && hidden(path) {
			return fs.SkipDir
		}
		return fsw.Add(path)
	})
}

func isMarkdown(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".markdown"
}

func hidden(path string) bool {
	name := filepath.Base(path)
	return name != "." && strings.HasPrefix(name, ".")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
