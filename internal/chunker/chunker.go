// Package chunker splits document text into fixed-size overlapping chunks.
package chunker

import (
	"sort"
	"strings"

	"github.com/helion-labs/devdocs-cli/internal/core/domain"
)

// Chunker splits document content using a deterministic sliding window.
// Given the same text and the same (size, overlap) it always produces
// the same chunk boundaries, count and IDs - required for idempotent
// re-ingestion.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the maximum chunk length in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between neighbouring chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: domain.DefaultChunkSize,
		overlap:   domain.DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Overlap must stay below chunk size or the window cannot advance
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// ChunkSize returns the configured maximum chunk length.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Split chunks the document content. Empty content produces no chunks.
// The final window stops at the end of the text; once a window reaches
// the end no further (fully-overlapped) window is emitted.
func (c *Chunker) Split(doc domain.Document) []domain.Chunk {
	content := doc.Content
	contentLen := len(content)
	if contentLen == 0 {
		return nil
	}

	headings := headingIndex(content)
	step := c.chunkSize - c.overlap

	estimated := contentLen/step + 1
	chunks := make([]domain.Chunk, 0, estimated)

	position := 0
	for start := 0; start < contentLen; start += step {
		end := start + c.chunkSize
		if end > contentLen {
			end = contentLen
		}

		chunks = append(chunks, domain.Chunk{
			ID:          domain.ChunkID(doc.ID, position),
			DocumentID:  doc.ID,
			Content:     content[start:end],
			Position:    position,
			HeadingPath: headings.pathAt(start),
			Metadata: map[string]any{
				"category": doc.Category,
				"title":    doc.Title,
			},
		})
		position++

		if end == contentLen {
			break
		}
	}

	return chunks
}

// headingMark records a section heading and its byte offset.
type headingMark struct {
	offset int
	path   string
}

type headingMarks []headingMark

// headingIndex scans Markdown text and records, for each heading line,
// the full heading path ("Install > Prerequisites") in effect from that
// offset onwards.
func headingIndex(content string) headingMarks {
	var marks headingMarks
	// stack[i] holds the active heading text for level i+1
	var stack []string

	offset := 0
	for _, line := range strings.SplitAfter(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if level := headingLevel(trimmed); level > 0 {
			text := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			if len(stack) >= level {
				stack = stack[:level-1]
			}
			for len(stack) < level-1 {
				stack = append(stack, "")
			}
			stack = append(stack, text)
			marks = append(marks, headingMark{
				offset: offset,
				path:   joinPath(stack),
			})
		}
		offset += len(line)
	}

	return marks
}

// pathAt returns the heading path in effect at the given byte offset.
func (m headingMarks) pathAt(offset int) string {
	// Find the last mark at or before offset
	i := sort.Search(len(m), func(i int) bool { return m[i].offset > offset })
	if i == 0 {
		return ""
	}
	return m[i-1].path
}

// headingLevel returns the ATX heading level (1-6) or 0 for non-headings.
func headingLevel(line string) int {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return 0
	}
	if level == len(line) || line[level] != ' ' {
		return 0
	}
	return level
}

// joinPath joins the heading stack, skipping levels that were never seen.
func joinPath(stack []string) string {
	parts := make([]string, 0, len(stack))
	for _, s := range stack {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " > ")
}
