package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/helion-labs/devdocs-cli/internal/core/domain"
	"github.com/helion-labs/devdocs-cli/internal/core/ports/driving"
)

var (
	askTopK     int
	askMinScore float64
	askTimeout  time.Duration
	askJSON     bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question against the indexed documentation",
	Long: `Embeds the question, retrieves the most similar documentation chunks
and asks the configured language model to compose a grounded answer.
Sources are listed with each answer so claims can be checked.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "n", 0, "number of chunks to retrieve (0 = configured default)")
	askCmd.Flags().Float64Var(&askMinScore, "min-score", -1, "relevance floor, results below it are dropped (-1 = configured default)")
	askCmd.Flags().DurationVar(&askTimeout, "timeout", 2*time.Minute, "bound on answer generation")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askService == nil {
		return errors.New("ask service not configured")
	}

	ctx := context.Background()
	opts := driving.AskOptions{
		TopK:     askTopK,
		MinScore: askMinScore,
		Timeout:  askTimeout,
	}

	answer, err := askService.Answer(ctx, args[0], opts)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoResults):
			cmd.Println("No relevant documentation found for that question.")
			return nil
		case errors.Is(err, domain.ErrModelVersionMismatch):
			return fmt.Errorf("the index was built with a different embedding model, re-run 'devdocs ingest --force': %w", err)
		default:
			return fmt.Errorf("ask failed: %w", err)
		}
	}

	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}
	return outputAnswerText(cmd, answer)
}

func outputAnswerJSON(cmd *cobra.Command, answer *domain.Answer) error {
	data, err := json.MarshalIndent(answer, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswerText(cmd *cobra.Command, answer *domain.Answer) error {
	cmd.Println(answer.Text)
	cmd.Println()
	cmd.Println("Sources:")
	for i, src := range answer.Sources {
		cmd.Printf("  [%d] %s", i+1, src.DocumentID)
		if src.HeadingPath != "" {
			cmd.Printf(" > %s", src.HeadingPath)
		}
		cmd.Printf(" (%.2f)\n", src.Score)
	}
	cmd.Printf("\nAnswered by %s\n", answer.Model)
	return nil
}
