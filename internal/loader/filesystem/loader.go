// Package filesystem loads a Markdown documentation corpus from disk.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/helion-labs/devdocs-cli/internal/core/domain"
	"github.com/helion-labs/devdocs-cli/internal/core/ports/driven"
	"github.com/helion-labs/devdocs-cli/internal/logger"
)

// Ensure Loader implements the interface.
var _ driven.CorpusLoader = (*Loader)(nil)

// markdownExtensions are the file extensions treated as corpus documents.
var markdownExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
}

// Loader walks corpus roots and emits documents.
//
// The walk order is lexical (filepath.WalkDir), so re-running over an
// unchanged tree produces the same documents in the same order.
// Unreadable files are reported and skipped; the walk continues.
type Loader struct{}

// New creates a filesystem corpus loader.
func New() *Loader {
	return &Loader{}
}

// Load implements driven.CorpusLoader.
func (l *Loader) Load(ctx context.Context, roots []string) (<-chan domain.Document, <-chan error) {
	docsCh := make(chan domain.Document)
	errsCh := make(chan error, 1)

	go func() {
		defer close(docsCh)
		defer close(errsCh)

		for _, root := range roots {
			if err := l.walkRoot(ctx, root, docsCh, errsCh); err != nil {
				// Context cancellation ends the whole load
				return
			}
		}
	}()

	return docsCh, errsCh
}

// walkRoot walks a single corpus root. Returns a non-nil error only on
// cancellation; per-file failures go to errsCh.
func (l *Loader) walkRoot(
	ctx context.Context,
	root string,
	docsCh chan<- domain.Document,
	errsCh chan<- error,
) error {
	root = filepath.Clean(root)

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			// Report unreadable directories/files and keep walking
			sendErr(ctx, errsCh, fmt.Errorf("%w: %s: %w", domain.ErrReadFailed, path, err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			// Hidden directories (e.g. .git) are not corpus content
			if name := d.Name(); name != "." && strings.HasPrefix(name, ".") && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if !markdownExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			sendErr(ctx, errsCh, fmt.Errorf("%w: %s: %w", domain.ErrReadFailed, path, err))
			return nil
		}
		doc, err := l.loadFile(root, path, info)
		if err != nil {
			sendErr(ctx, errsCh, err)
			return nil
		}

		select {
		case docsCh <- doc:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	})
}

// LoadFile loads a single Markdown file the same way a full walk would,
// producing the same document ID, title and category. Used by the watch
// loop to re-ingest individual changed files.
func (l *Loader) LoadFile(root, path string) (domain.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("%w: %s: %w", domain.ErrReadFailed, path, err)
	}
	return l.loadFile(filepath.Clean(root), path, info)
}

// loadFile reads one Markdown file into a Document.
func (l *Loader) loadFile(root, path string, info fs.FileInfo) (domain.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("%w: %s: %w", domain.ErrReadFailed, path, err)
	}

	rootBase := filepath.Base(root)
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = filepath.ToSlash(rel)

	text := string(content)
	doc := domain.Document{
		ID:         DocumentID(root, path),
		Path:       path,
		Title:      extractTitle(text, path),
		Content:    text,
		Category:   categoryOf(rel, rootBase),
		ModifiedAt: info.ModTime().UTC(),
	}

	logger.Debug("Loaded %s (%d bytes, category %q)", doc.ID, len(content), doc.Category)
	return doc, nil
}

// DocumentID returns the identifier a file under root gets when loaded.
// IDs are prefixed with the root's base name so two roots holding a file
// with the same relative path never collide.
func DocumentID(root, path string) string {
	root = filepath.Clean(root)
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	return filepath.Base(root) + "/" + filepath.ToSlash(rel)
}

// categoryOf derives the category tag from the first path element under
// the root; files directly under the root fall back to the root's name.
func categoryOf(rel, rootBase string) string {
	if i := strings.IndexByte(rel, '/'); i > 0 {
		return rel[:i]
	}
	return rootBase
}

// extractTitle takes the first H1 heading, falling back to the filename.
func extractTitle(content, path string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}

	filename := filepath.Base(path)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}

// sendErr delivers an error without blocking past cancellation.
func sendErr(ctx context.Context, errsCh chan<- error, err error) {
	select {
	case errsCh <- err:
	case <-ctx.Done():
	}
}
