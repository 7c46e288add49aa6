package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helion-labs/devdocs-cli/internal/adapters/driven/index/memory"
	"github.com/helion-labs/devdocs-cli/internal/core/domain"
)

func TestStatusCmd_EmptyIndex(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"status"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "/home/test/.devdocs/config.toml")
	assert.Contains(t, buf.String(), "/docs")
	assert.Contains(t, buf.String(), "Documents:     0")
	assert.Contains(t, buf.String(), "(empty index)")
}

func TestStatusCmd_JSONOutput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"status", "--json"})
	defer func() {
		rootCmd.SetArgs(nil)
		statusJSON = false
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "\"config_file\"")
	assert.Contains(t, buf.String(), "\"chunk_size\"")
	assert.Contains(t, buf.String(), "\"index\"")
}

func TestStatusCmd_PopulatedIndex(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	idx := memory.New()
	require.NoError(t, idx.Upsert(context.Background(), domain.Chunk{
		ID:         "a.md#0000",
		DocumentID: "a.md",
		Content:    "text",
		Embedding:  []float32{1, 0, 0},
	}, "openai/text-embedding-3-small"))
	vectorIndex = idx

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"status"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Documents:     1")
	assert.Contains(t, buf.String(), "Chunks:        1")
	assert.Contains(t, buf.String(), "openai/text-embedding-3-small (3 dimensions)")
}
