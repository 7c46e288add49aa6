package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/helion-labs/devdocs-cli/internal/core/ports/driven"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and index statistics",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output status as JSON")
	rootCmd.AddCommand(statusCmd)
}

// statusReport is the JSON shape of the status output.
type statusReport struct {
	ConfigFile        string            `json:"config_file,omitempty"`
	Roots             []string          `json:"roots"`
	ChunkSize         int               `json:"chunk_size"`
	ChunkOverlap      int               `json:"chunk_overlap"`
	EmbeddingProvider string            `json:"embedding_provider"`
	EmbeddingModel    string            `json:"embedding_model,omitempty"`
	LLMProvider       string            `json:"llm_provider"`
	LLMModel          string            `json:"llm_model,omitempty"`
	Index             driven.IndexStats `json:"index"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if vectorIndex == nil {
		return errors.New("index not configured")
	}

	stats, err := vectorIndex.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("read index stats: %w", err)
	}

	if statusJSON {
		report := statusReport{
			Roots:             appConfig.Roots,
			ChunkSize:         appConfig.ChunkSize,
			ChunkOverlap:      appConfig.ChunkOverlap,
			EmbeddingProvider: appConfig.EmbeddingProvider,
			EmbeddingModel:    appConfig.EmbeddingModel,
			LLMProvider:       appConfig.LLMProvider,
			LLMModel:          appConfig.LLMModel,
			Index:             stats,
		}
		if configStore != nil {
			report.ConfigFile = configStore.Path()
		}
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println("Configuration:")
	if configStore != nil {
		cmd.Printf("  Config file:   %s\n", configStore.Path())
	}
	roots := "(none)"
	if len(appConfig.Roots) > 0 {
		roots = strings.Join(appConfig.Roots, ", ")
	}
	cmd.Printf("  Corpus roots:  %s\n", roots)
	cmd.Printf("  Chunking:      %d chars, %d overlap\n", appConfig.ChunkSize, appConfig.ChunkOverlap)
	cmd.Printf("  Embedding:     %s", appConfig.EmbeddingProvider)
	if appConfig.EmbeddingModel != "" {
		cmd.Printf(" (%s)", appConfig.EmbeddingModel)
	}
	cmd.Println()
	cmd.Printf("  LLM:           %s", appConfig.LLMProvider)
	if appConfig.LLMModel != "" {
		cmd.Printf(" (%s)", appConfig.LLMModel)
	}
	cmd.Println()

	cmd.Println()
	cmd.Println("Index:")
	cmd.Printf("  Documents:     %d\n", stats.Documents)
	cmd.Printf("  Chunks:        %d\n", stats.Chunks)
	if stats.ModelTag == "" {
		cmd.Println("  Model:         (empty index)")
	} else {
		cmd.Printf("  Model:         %s (%d dimensions)\n", stats.ModelTag, stats.Dimensions)
	}
	return nil
}
