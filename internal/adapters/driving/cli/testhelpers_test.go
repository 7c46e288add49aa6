package cli

import (
	"context"
	"time"

	"github.com/helion-labs/devdocs-cli/internal/adapters/driven/index/memory"
	"github.com/helion-labs/devdocs-cli/internal/core/domain"
	"github.com/helion-labs/devdocs-cli/internal/core/ports/driving"
	"github.com/helion-labs/devdocs-cli/internal/loader/filesystem"
)

// mockIngestor returns a canned report.
type mockIngestor struct {
	report    *domain.IngestReport
	err       error
	lastRoots []string
	lastOpts  driving.IngestOptions
}

func (m *mockIngestor) Ingest(_ context.Context, roots []string, opts driving.IngestOptions) (*domain.IngestReport, error) {
	m.lastRoots = roots
	m.lastOpts = opts
	return m.report, m.err
}

func (m *mockIngestor) IngestDocument(_ context.Context, _ domain.Document) (int, error) {
	return 1, m.err
}

// mockAnswerer returns a canned answer.
type mockAnswerer struct {
	answer       *domain.Answer
	err          error
	lastQuestion string
	lastOpts     driving.AskOptions
}

func (m *mockAnswerer) Answer(_ context.Context, question string, opts driving.AskOptions) (*domain.Answer, error) {
	m.lastQuestion = question
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

// mockConfigStore only reports a path.
type mockConfigStore struct{}

func (m *mockConfigStore) Load() (domain.Config, error) { return domain.DefaultConfig(), nil }
func (m *mockConfigStore) Save(_ domain.Config) error { return nil }
func (m *mockConfigStore) Path() string { return "/home/test/.devdocs/config.toml" }

func testReport() *domain.IngestReport {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &domain.IngestReport{
		RunID:           "run-1",
		DocumentsLoaded: 2,
		ChunksIndexed:   4,
		StartedAt:       start,
		FinishedAt:      start.Add(1200 * time.Millisecond),
	}
}

func testAnswer() *domain.Answer {
	return &domain.Answer{
		Text:  "Use the --prefix flag.",
		Model: "test-llm",
		Sources: []domain.SourceRef{
			{
				ChunkID:     "guides/install.md#0000",
				DocumentID:  "guides/install.md",
				HeadingPath: "Installation",
				Score:       0.91,
			},
		},
	}
}

// setupTestServices installs mock services and returns a cleanup func.
func setupTestServices() func() {
	oldIngest := ingestService
	oldAsk := askService
	oldIndex := vectorIndex
	oldLoader := corpusLoader
	oldStore := configStore
	oldConfig := appConfig

	ingestService = &mockIngestor{report: testReport()}
	askService = &mockAnswerer{answer: testAnswer()}
	vectorIndex = memory.New()
	corpusLoader = filesystem.New()
	configStore = &mockConfigStore{}
	appConfig = domain.DefaultConfig()
	appConfig.Roots = []string{"/docs"}

	return func() {
		ingestService = oldIngest
		askService = oldAsk
		vectorIndex = oldIndex
		corpusLoader = oldLoader
		configStore = oldStore
		appConfig = oldConfig
	}
}
