// Command devdocs indexes a Markdown documentation corpus and answers
// questions against it.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/helion-labs/devdocs-cli/internal/adapters/driven/config/file"
	"github.com/helion-labs/devdocs-cli/internal/adapters/driven/embedding"
	ollamaembed "github.com/helion-labs/devdocs-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/helion-labs/devdocs-cli/internal/adapters/driven/embedding/openai"
	"github.com/helion-labs/devdocs-cli/internal/adapters/driven/index/sqlite"
	ollamallm "github.com/helion-labs/devdocs-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/helion-labs/devdocs-cli/internal/adapters/driven/llm/openai"
	"github.com/helion-labs/devdocs-cli/internal/adapters/driving/cli"
	"github.com/helion-labs/devdocs-cli/internal/chunker"
	"github.com/helion-labs/devdocs-cli/internal/core/domain"
	"github.com/helion-labs/devdocs-cli/internal/core/ports/driven"
	"github.com/helion-labs/devdocs-cli/internal/core/services"
	"github.com/helion-labs/devdocs-cli/internal/loader/filesystem"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// API keys may live in a .env next to the binary's working directory
	_ = godotenv.Load()

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("open config store: %w", err)
	}
	cfg, err := configStore.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	index, err := sqlite.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer index.Close()

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}
	embedder = embedding.NewResilient(embedder, embedding.ResilienceConfig{})
	defer embedder.Close()

	llm, err := buildLLM(cfg)
	if err != nil {
		return err
	}
	defer llm.Close()

	loader := filesystem.New()
	splitter := chunker.New(
		chunker.WithChunkSize(cfg.ChunkSize),
		chunker.WithOverlap(cfg.ChunkOverlap),
	)

	deps := cli.Deps{
		Config:      cfg,
		ConfigStore: configStore,
		Loader:      loader,
		Index:       index,
		Ingestor:    services.NewIngestService(loader, splitter, embedder, index, cfg),
		Answerer:    services.NewAskService(embedder, index, llm, cfg),
	}
	return cli.Execute(deps, version)
}

func buildEmbedder(cfg domain.Config) (driven.EmbeddingService, error) {
	switch cfg.EmbeddingProvider {
	case "", "openai":
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
			Model:   cfg.EmbeddingModel,
		})
		if err != nil {
			return nil, fmt.Errorf("configure embedding service: %w", err)
		}
		return svc, nil
	case "ollama":
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: os.Getenv("OLLAMA_BASE_URL"),
			Model:   cfg.EmbeddingModel,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}

func buildLLM(cfg domain.Config) (driven.LLMService, error) {
	switch cfg.LLMProvider {
	case "", "openai":
		svc, err := openaillm.NewLLMService(openaillm.Config{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
			Model:   cfg.LLMModel,
		})
		if err != nil {
			return nil, fmt.Errorf("configure LLM service: %w", err)
		}
		return svc, nil
	case "ollama":
		return ollamallm.NewLLMService(ollamallm.Config{
			BaseURL: os.Getenv("OLLAMA_BASE_URL"),
			Model:   cfg.LLMModel,
		}), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}
