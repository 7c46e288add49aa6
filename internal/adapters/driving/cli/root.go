// Package cli implements the devdocs command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/helion-labs/devdocs-cli/internal/core/domain"
	"github.com/helion-labs/devdocs-cli/internal/core/ports/driven"
	"github.com/helion-labs/devdocs-cli/internal/core/ports/driving"
	"github.com/helion-labs/devdocs-cli/internal/loader/filesystem"
	"github.com/helion-labs/devdocs-cli/internal/logger"
)

// Package-level wiring, injected via Execute.
var (
	version = "dev"
	verbose bool

	appConfig     domain.Config
	configStore   driven.ConfigStore
	corpusLoader  *filesystem.Loader
	vectorIndex   driven.VectorIndex
	ingestService driving.Ingestor
	askService    driving.Answerer
)

var rootCmd = &cobra.Command{
	Use:   "devdocs",
	Short: "Index documentation and ask questions against it",
	Long: `devdocs indexes a local Markdown documentation corpus and answers
natural-language questions against it using semantic retrieval.

Run 'devdocs ingest' to build the index, then 'devdocs ask' to query it.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Deps carries the wired services into the command tree.
type Deps struct {
	Config      domain.Config
	ConfigStore driven.ConfigStore
	Loader      *filesystem.Loader
	Index       driven.VectorIndex
	Ingestor    driving.Ingestor
	Answerer    driving.Answerer
}

// Execute injects dependencies and runs the CLI.
func Execute(deps Deps, v string) error {
	appConfig = deps.Config
	configStore = deps.ConfigStore
	corpusLoader = deps.Loader
	vectorIndex = deps.Index
	ingestService = deps.Ingestor
	askService = deps.Answerer
	if v != "" {
		version = v
	}
	return rootCmd.Execute()
}
