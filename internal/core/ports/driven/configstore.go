package driven

import "github.com/helion-labs/devdocs-cli/internal/core/domain"

// ConfigStore loads and persists the tool configuration.
type ConfigStore interface {
	// Load reads the configuration, applying defaults for absent keys.
	Load() (domain.Config, error)

	// Save persists the configuration.
	Save(cfg domain.Config) error

	// Path returns the backing file location.
	Path() string
}
