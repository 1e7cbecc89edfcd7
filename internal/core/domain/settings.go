package domain

import "time"

// AIProvider identifies an AI service provider for embeddings or the LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderNone disables the capability. The pipeline degrades
	// gracefully rather than failing.
	AIProviderNone AIProvider = "none"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderNone:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// SynthesisSettings tunes the answer synthesizer and validator.
type SynthesisSettings struct {
	// ExtractionConfidence is assigned when a deterministic extraction
	// rule matches (ceiling, before validation).
	ExtractionConfidence float64

	// GenerationConfidence is assigned to fallback-generated answers
	// pending validation.
	GenerationConfidence float64

	// ContextTokenBudget bounds the grounding context handed to the
	// generation capability.
	ContextTokenBudget int

	// GenerationTimeout bounds the only unbounded-latency call on the
	// question path. On expiry the synthesizer degrades instead of
	// hanging the caller.
	GenerationTimeout time.Duration
}

// EmbeddingSettings selects and configures the embedding capability.
type EmbeddingSettings struct {
	Provider   AIProvider
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int
}

// IsConfigured returns true if the embedding capability should be wired.
func (s EmbeddingSettings) IsConfigured() bool {
	return s.Provider.IsValid() && s.Provider != AIProviderNone
}

// LLMSettings selects and configures the generation capability.
type LLMSettings struct {
	Provider AIProvider
	BaseURL  string
	APIKey   string
	Model    string
}

// IsConfigured returns true if the generation capability should be wired.
func (s LLMSettings) IsConfigured() bool {
	return s.Provider.IsValid() && s.Provider != AIProviderNone
}

// SourceSettings configures where raw messages come from.
type SourceSettings struct {
	// URL is the upstream messages endpoint. Empty disables the HTTP
	// source.
	URL string

	// FilePath points at a local JSON corpus. Takes precedence over URL
	// when set.
	FilePath string

	// PageSize is the page size requested from the upstream API.
	PageSize int

	// Timeout bounds each upstream request.
	Timeout time.Duration

	// RetryAttempts is the maximum number of attempts per page fetch.
	RetryAttempts int

	// CachePath is the sqlite file for the raw message cache. Empty
	// disables caching.
	CachePath string
}

// ServerSettings configures the HTTP surface.
type ServerSettings struct {
	Host string
	Port int
}

// Settings aggregates all runtime configuration.
type Settings struct {
	Retrieval RetrievalSettings
	Synthesis SynthesisSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Source    SourceSettings
	Server    ServerSettings
}

// DefaultSettings returns the configuration used when no config file is
// present. The fusion weights and confidence constants are policy
// defaults, not tuned values.
func DefaultSettings() Settings {
	return Settings{
		Retrieval: RetrievalSettings{
			TopK:          6,
			PoolSize:      20,
			DenseWeight:   0.6,
			LexicalWeight: 0.4,
		},
		Synthesis: SynthesisSettings{
			ExtractionConfidence: 0.9,
			GenerationConfidence: 0.5,
			ContextTokenBudget:   1200,
			GenerationTimeout:    30 * time.Second,
		},
		Embedding: EmbeddingSettings{
			Provider:   AIProviderOllama,
			Model:      "nomic-embed-text",
			Dimensions: 768,
		},
		LLM: LLMSettings{
			Provider: AIProviderOllama,
			Model:    "llama3.2",
		},
		Source: SourceSettings{
			PageSize:      200,
			Timeout:       10 * time.Second,
			RetryAttempts: 5,
		},
		Server: ServerSettings{
			Host: "127.0.0.1",
			Port: 8070,
		},
	}
}
