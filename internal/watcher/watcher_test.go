package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helion-labs/devdocs-cli/internal/adapters/driven/index/memory"
	"github.com/helion-labs/devdocs-cli/internal/core/domain"
	"github.com/helion-labs/devdocs-cli/internal/core/ports/driving"
	"github.com/helion-labs/devdocs-cli/internal/loader/filesystem"
)

// recordingIngestor records single-document ingestions.
type recordingIngestor struct {
	mu   sync.Mutex
	docs []domain.Document
}

func (r *recordingIngestor) Ingest(_ context.Context, _ []string, _ driving.IngestOptions) (*domain.IngestReport, error) {
	return &domain.IngestReport{}, nil
}

func (r *recordingIngestor) IngestDocument(_ context.Context, doc domain.Document) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = append(r.docs, doc)
	return 1, nil
}

func (r *recordingIngestor) ingested() []domain.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Document(nil), r.docs...)
}

func startWatcher(t *testing.T, root string, ing driving.Ingestor, idx *memory.Index) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	w := New([]string{root}, filesystem.New(), ing, idx, WithDebounce(50*time.Millisecond))
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Give the watcher time to register the root
	time.Sleep(100 * time.Millisecond)
}

func TestRun_ReingestsChangedFile(t *testing.T) {
	root := t.TempDir()
	ing := &recordingIngestor{}
	startWatcher(t, root, ing, memory.New())

	path := filepath.Join(root, "guide.md")
	require.NoError(t, os.WriteFile(path, []byte("# Guide\n\nhello"), 0644))

	require.Eventually(t, func() bool {
		return len(ing.ingested()) >= 1
	}, 5*time.Second, 20*time.Millisecond)

	docs := ing.ingested()
	assert.Equal(t, filesystem.DocumentID(root, path), docs[0].ID)
	assert.Equal(t, "Guide", docs[0].Title)
}

func TestRun_IgnoresNonMarkdown(t *testing.T) {
	root := t.TempDir()
	ing := &recordingIngestor{}
	startWatcher(t, root, ing, memory.New())

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0644))

	time.Sleep(300 * time.Millisecond)
	assert.Empty(t, ing.ingested())
}

func TestRun_DeletesRemovedFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "old.md")
	require.NoError(t, os.WriteFile(path, []byte("# Old"), 0644))

	docID := filesystem.DocumentID(root, path)
	idx := memory.New()
	require.NoError(t, idx.Upsert(context.Background(), domain.Chunk{
		ID:         domain.ChunkID(docID, 0),
		DocumentID: docID,
		Content:    "old content",
		Embedding:  []float32{1, 0},
	}, "stub/v1"))

	ing := &recordingIngestor{}
	startWatcher(t, root, ing, idx)

	require.NoError(t, os.Remove(path))

	require.Eventually(t, func() bool {
		stats, err := idx.Stats(context.Background())
		return err == nil && stats.Chunks == 0
	}, 5*time.Second, 20*time.Millisecond)
}

func TestRun_WatchesNewSubdirectories(t *testing.T) {
	root := t.TempDir()
	ing := &recordingIngestor{}
	startWatcher(t, root, ing, memory.New())

	sub := filepath.Join(root, "guides")
	require.NoError(t, os.Mkdir(sub, 0755))
	// Let the watcher pick up the new directory before writing into it
	time.Sleep(200 * time.Millisecond)

	path := filepath.Join(sub, "new.md")
	require.NoError(t, os.WriteFile(path, []byte("# New"), 0644))

	require.Eventually(t, func() bool {
		for _, d := range ing.ingested() {
			if d.ID == filesystem.DocumentID(root, path) {
				return true
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)
}
