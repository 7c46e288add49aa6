package driven

import "context"

// GenerateOptions configures a single text generation call.
type GenerateOptions struct {
	// MaxTokens limits the response length (0 = provider default).
	MaxTokens int

	// Temperature controls randomness (0 = provider default).
	Temperature float64
}

// LLMService produces free-text completions from a prompt.
//
// Calls are bounded by the context deadline supplied by the caller;
// implementations must return promptly on cancellation rather than
// returning a partial answer.
type LLMService interface {
	// Generate produces a text completion for the prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
