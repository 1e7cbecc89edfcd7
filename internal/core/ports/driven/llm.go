package driven

import "context"

// LLMService is the pluggable text-completion capability behind the answer
// synthesizer's generation fallback. It is the only unbounded-latency
// dependency on the question path, so every call must honour context
// cancellation.
//
// This is an optional service - when nil, the synthesizer degrades to the
// no-information answer whenever no extraction rule matches.
//
// Implementations may include:
//   - Ollama (local models)
//   - OpenAI (GPT-4o, GPT-4o-mini)
type LLMService interface {
	// Complete produces a text completion for the given prompt.
	Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CompleteOptions configures text generation behaviour.
type CompleteOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}
