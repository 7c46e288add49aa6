package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/helion-labs/devdocs-cli/internal/core/ports/driving"
)

// timeRounding trims sub-millisecond noise from durations in output.
const timeRounding = time.Millisecond

var ingestForce bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [roots...]",
	Short: "Index a documentation corpus",
	Long: `Walks the given corpus roots (or the configured ones), splits each
Markdown file into overlapping chunks, embeds them and writes the vector
index. Unchanged documents are skipped unless --force is given.

Unreadable files and failed chunks are reported at the end of the run;
they do not abort it unless strict mode is configured.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestForce, "force", false, "re-embed documents even when unchanged")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	roots := args
	if len(roots) == 0 {
		roots = appConfig.Roots
	}
	if len(roots) == 0 {
		return errors.New("no corpus roots given (pass them as arguments or set roots in the config file)")
	}

	ctx := context.Background()
	report, err := ingestService.Ingest(ctx, roots, driving.IngestOptions{Force: ingestForce})
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Ingestion complete in %s\n", report.FinishedAt.Sub(report.StartedAt).Round(timeRounding))
	cmd.Printf("  Documents loaded:  %d\n", report.DocumentsLoaded)
	cmd.Printf("  Documents skipped: %d (unchanged)\n", report.DocumentsSkipped)
	cmd.Printf("  Chunks indexed:    %d\n", report.ChunksIndexed)

	if report.Failed() {
		cmd.Printf("  Errors:            %d read, %d embedding\n",
			len(report.ReadErrors), len(report.EmbeddingErrors))
		for _, fe := range report.ReadErrors {
			cmd.Printf("    read: %v\n", fe.Err)
		}
		for _, fe := range report.EmbeddingErrors {
			cmd.Printf("    embed %s: %v\n", fe.Path, fe.Err)
		}
	}
	return nil
}
