package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helion-labs/devdocs-cli/internal/core/domain"
)

const testModel = "test-embed-v1"

func chunk(id, docID string, pos int, vec []float32) domain.Chunk {
	return domain.Chunk{
		ID:         id,
		DocumentID: docID,
		Position:   pos,
		Content:    "content of " + id,
		Embedding:  vec,
	}
}

func TestUpsert_Validation(t *testing.T) {
	x := New()
	ctx := context.Background()

	err := x.Upsert(ctx, domain.Chunk{}, testModel)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = x.Upsert(ctx, chunk("a#0000", "a", 0, nil), testModel)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpsert_ModelMismatch(t *testing.T) {
	x := New()
	ctx := context.Background()

	require.NoError(t, x.Upsert(ctx, chunk("a#0000", "a", 0, []float32{1, 0}), testModel))

	err := x.Upsert(ctx, chunk("a#0001", "a", 1, []float32{0, 1}), "other-model")
	assert.ErrorIs(t, err, domain.ErrModelVersionMismatch)

	err = x.Upsert(ctx, chunk("a#0001", "a", 1, []float32{0, 1, 0}), testModel)
	assert.ErrorIs(t, err, domain.ErrModelVersionMismatch)
}

func TestSearch_OrderingAndTruncation(t *testing.T) {
	x := New()
	ctx := context.Background()

	require.NoError(t, x.Upsert(ctx, chunk("a#0000", "a", 0, []float32{1, 0}), testModel))
	require.NoError(t, x.Upsert(ctx, chunk("a#0001", "a", 1, []float32{0.9, 0.1}), testModel))
	require.NoError(t, x.Upsert(ctx, chunk("b#0000", "b", 0, []float32{0, 1}), testModel))

	results, err := x.Search(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a#0000", results[0].Chunk.ID)
	assert.Equal(t, "a#0001", results[1].Chunk.ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearch_StableTieBreak(t *testing.T) {
	x := New()
	ctx := context.Background()

	// Identical vectors: equal scores, insertion order must win
	require.NoError(t, x.Upsert(ctx, chunk("z#0000", "z", 0, []float32{1, 1}), testModel))
	require.NoError(t, x.Upsert(ctx, chunk("a#0000", "a", 0, []float32{1, 1}), testModel))
	require.NoError(t, x.Upsert(ctx, chunk("m#0000", "m", 0, []float32{1, 1}), testModel))

	results, err := x.Search(ctx, []float32{1, 1}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "z#0000", results[0].Chunk.ID)
	assert.Equal(t, "a#0000", results[1].Chunk.ID)
	assert.Equal(t, "m#0000", results[2].Chunk.ID)
}

func TestSearch_NeverPads(t *testing.T) {
	x := New()
	ctx := context.Background()

	for i, v := range [][]float32{{1, 0}, {0, 1}, {1, 1}} {
		require.NoError(t, x.Upsert(ctx, chunk(domain.ChunkID("d", i), "d", i, v), testModel))
	}

	results, err := x.Search(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestSearch_EmptyIndex(t *testing.T) {
	x := New()
	results, err := x.Search(context.Background(), []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_DimensionMismatch(t *testing.T) {
	x := New()
	ctx := context.Background()
	require.NoError(t, x.Upsert(ctx, chunk("a#0000", "a", 0, []float32{1, 0}), testModel))

	_, err := x.Search(ctx, []float32{1, 0, 0}, 1)
	assert.ErrorIs(t, err, domain.ErrModelVersionMismatch)
}

func TestDeleteByDocument(t *testing.T) {
	x := New()
	ctx := context.Background()

	require.NoError(t, x.Upsert(ctx, chunk("a#0000", "a", 0, []float32{1, 0}), testModel))
	require.NoError(t, x.Upsert(ctx, chunk("b#0000", "b", 0, []float32{0, 1}), testModel))
	require.NoError(t, x.SetDocumentHash(ctx, "a", "hash-a"))

	require.NoError(t, x.DeleteByDocument(ctx, "a"))

	stats, err := x.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Chunks)
	assert.Equal(t, 1, stats.Documents)

	_, err = x.DocumentHash(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// No orphaned entries for document "a"
	results, err := x.Search(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, "a", r.Chunk.DocumentID)
	}
}

func TestUpsert_ReplaceKeepsInsertionOrder(t *testing.T) {
	x := New()
	ctx := context.Background()

	require.NoError(t, x.Upsert(ctx, chunk("a#0000", "a", 0, []float32{1, 1}), testModel))
	require.NoError(t, x.Upsert(ctx, chunk("b#0000", "b", 0, []float32{1, 1}), testModel))
	// Replace the first entry; it must keep its tie-break priority
	require.NoError(t, x.Upsert(ctx, chunk("a#0000", "a", 0, []float32{1, 1}), testModel))

	results, err := x.Search(ctx, []float32{1, 1}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a#0000", results[0].Chunk.ID)
}

func TestStatsAndModelTag(t *testing.T) {
	x := New()
	ctx := context.Background()

	tag, err := x.ModelTag(ctx)
	require.NoError(t, err)
	assert.Empty(t, tag)

	require.NoError(t, x.Upsert(ctx, chunk("a#0000", "a", 0, []float32{1, 0, 0}), testModel))

	tag, err = x.ModelTag(ctx)
	require.NoError(t, err)
	assert.Equal(t, testModel, tag)

	stats, err := x.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Documents)
	assert.Equal(t, 1, stats.Chunks)
	assert.Equal(t, 3, stats.Dimensions)
	assert.Equal(t, testModel, stats.ModelTag)
}
