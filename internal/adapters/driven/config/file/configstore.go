// Package file provides a TOML-backed implementation of driven.ConfigStore.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/helion-labs/devdocs-cli/internal/core/domain"
	"github.com/helion-labs/devdocs-cli/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// fileConfig is the on-disk TOML shape. Every field is optional;
// absent keys fall back to domain defaults on Load.
type fileConfig struct {
	Roots   []string `toml:"roots,omitempty"`
	DataDir string   `toml:"data_dir,omitempty"`

	Chunking struct {
		Size    int `toml:"size,omitempty"`
		Overlap int `toml:"overlap,omitempty"`
	} `toml:"chunking,omitempty"`

	Ingest struct {
		Concurrency     int  `toml:"concurrency,omitempty"`
		StrictEmbedding bool `toml:"strict_embedding,omitempty"`
	} `toml:"ingest,omitempty"`

	Query struct {
		TopK     int     `toml:"top_k,omitempty"`
		MinScore float64 `toml:"min_score,omitempty"`
	} `toml:"query,omitempty"`

	Embedding struct {
		Provider string `toml:"provider,omitempty"`
		Model    string `toml:"model,omitempty"`
	} `toml:"embedding,omitempty"`

	LLM struct {
		Provider string `toml:"provider,omitempty"`
		Model    string `toml:"model,omitempty"`
	} `toml:"llm,omitempty"`
}

// ConfigStore persists the tool configuration as a TOML file.
type ConfigStore struct {
	mu       sync.Mutex
	filePath string
}

// NewConfigStore creates a config store rooted at configDir.
// If configDir is empty, defaults to ~/.devdocs/config.toml.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".devdocs")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	return &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
	}, nil
}

// Load reads the configuration file, applying defaults for absent keys.
// A missing file yields the default configuration.
func (s *ConfigStore) Load() (domain.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := domain.DefaultConfig()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return domain.Config{}, fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return domain.Config{}, fmt.Errorf("parse config %s: %w", s.filePath, err)
	}

	if len(fc.Roots) > 0 {
		cfg.Roots = fc.Roots
	}
	if fc.DataDir != "" {
		cfg.DataDir = fc.DataDir
	}
	if fc.Chunking.Size > 0 {
		cfg.ChunkSize = fc.Chunking.Size
	}
	if fc.Chunking.Overlap > 0 {
		cfg.ChunkOverlap = fc.Chunking.Overlap
	}
	if fc.Ingest.Concurrency > 0 {
		cfg.Concurrency = fc.Ingest.Concurrency
	}
	cfg.StrictEmbedding = fc.Ingest.StrictEmbedding
	if fc.Query.TopK > 0 {
		cfg.TopK = fc.Query.TopK
	}
	if fc.Query.MinScore != 0 {
		cfg.MinScore = fc.Query.MinScore
	}
	if fc.Embedding.Provider != "" {
		cfg.EmbeddingProvider = fc.Embedding.Provider
	}
	if fc.Embedding.Model != "" {
		cfg.EmbeddingModel = fc.Embedding.Model
	}
	if fc.LLM.Provider != "" {
		cfg.LLMProvider = fc.LLM.Provider
	}
	if fc.LLM.Model != "" {
		cfg.LLMModel = fc.LLM.Model
	}

	if err := cfg.Validate(); err != nil {
		return domain.Config{}, fmt.Errorf("config %s: %w", s.filePath, err)
	}

	return cfg, nil
}

// Save persists the configuration to disk.
func (s *ConfigStore) Save(cfg domain.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := cfg.Validate(); err != nil {
		return err
	}

	var fc fileConfig
	fc.Roots = cfg.Roots
	fc.DataDir = cfg.DataDir
	fc.Chunking.Size = cfg.ChunkSize
	fc.Chunking.Overlap = cfg.ChunkOverlap
	fc.Ingest.Concurrency = cfg.Concurrency
	fc.Ingest.StrictEmbedding = cfg.StrictEmbedding
	fc.Query.TopK = cfg.TopK
	fc.Query.MinScore = cfg.MinScore
	fc.Embedding.Provider = cfg.EmbeddingProvider
	fc.Embedding.Model = cfg.EmbeddingModel
	fc.LLM.Provider = cfg.LLMProvider
	fc.LLM.Model = cfg.LLMModel

	data, err := toml.Marshal(fc)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	// Write with restricted permissions
	return os.WriteFile(s.filePath, data, 0600)
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}
