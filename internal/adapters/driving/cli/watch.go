package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/helion-labs/devdocs-cli/internal/core/ports/driving"
	"github.com/helion-labs/devdocs-cli/internal/watcher"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [roots...]",
	Short: "Keep the index in sync with the corpus",
	Long: `Runs an initial ingestion, then watches the corpus roots and
re-ingests documents as their files change. Removed files have their
index entries deleted. Stops on interrupt.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "settle window after filesystem events")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil || corpusLoader == nil || vectorIndex == nil {
		return errors.New("watch services not configured")
	}

	roots := args
	if len(roots) == 0 {
		roots = appConfig.Roots
	}
	if len(roots) == 0 {
		return errors.New("no corpus roots given (pass them as arguments or set roots in the config file)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Catch up before watching so the index reflects the current tree
	report, err := ingestService.Ingest(ctx, roots, driving.IngestOptions{})
	if err != nil {
		return fmt.Errorf("initial ingest failed: %w", err)
	}
	cmd.Printf("Initial ingest: %d documents, %d chunks\n",
		report.DocumentsLoaded, report.ChunksIndexed)

	w := watcher.New(roots, corpusLoader, ingestService, vectorIndex,
		watcher.WithDebounce(watchDebounce))

	cmd.Println("Watching for changes (Ctrl+C to stop)...")
	if err := w.Run(ctx); err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	cmd.Println("Stopped.")
	return nil
}
