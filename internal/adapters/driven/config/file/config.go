// Package file loads runtime settings from a TOML config file.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/caravel-labs/rosterqa/internal/core/domain"
)

// EnvConfigPath overrides the config file location when set.
const EnvConfigPath = "ROSTERQA_CONFIG"

// fileConfig mirrors the TOML document. Every field is optional; zero
// values fall back to domain defaults.
type fileConfig struct {
	Retrieval struct {
		TopK          int     `toml:"top_k"`
		PoolSize      int     `toml:"pool_size"`
		DenseWeight   float64 `toml:"dense_weight"`
		LexicalWeight float64 `toml:"lexical_weight"`
	} `toml:"retrieval"`

	Synthesis struct {
		ExtractionConfidence float64 `toml:"extraction_confidence"`
		GenerationConfidence float64 `toml:"generation_confidence"`
		ContextTokenBudget   int     `toml:"context_token_budget"`
		GenerationTimeoutSec int     `toml:"generation_timeout_seconds"`
	} `toml:"synthesis"`

	Embedding struct {
		Provider   string `toml:"provider"`
		BaseURL    string `toml:"base_url"`
		APIKey     string `toml:"api_key"`
		Model      string `toml:"model"`
		Dimensions int    `toml:"dimensions"`
	} `toml:"embedding"`

	LLM struct {
		Provider string `toml:"provider"`
		BaseURL  string `toml:"base_url"`
		APIKey   string `toml:"api_key"`
		Model    string `toml:"model"`
	} `toml:"llm"`

	Source struct {
		URL           string `toml:"url"`
		FilePath      string `toml:"file_path"`
		PageSize      int    `toml:"page_size"`
		TimeoutSec    int    `toml:"timeout_seconds"`
		RetryAttempts int    `toml:"retry_attempts"`
		CachePath     string `toml:"cache_path"`
	} `toml:"source"`

	Server struct {
		Host string `toml:"host"`
		Port int    `toml:"port"`
	} `toml:"server"`
}

// DefaultPath returns the config file location: $ROSTERQA_CONFIG when set,
// otherwise ~/.rosterqa/config.toml.
func DefaultPath() (string, error) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".rosterqa", "config.toml"), nil
}

// Load reads settings from path. A missing file yields the defaults; a
// present but invalid file is an error. Fields absent from the file keep
// their default values.
func Load(path string) (domain.Settings, error) {
	settings := domain.DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, fmt.Errorf("reading config file: %w", err)
	}

	var cfg fileConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return settings, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	apply(&settings, cfg)

	if err := settings.Retrieval.Validate(); err != nil {
		return settings, fmt.Errorf("config file %s: %w", path, err)
	}
	return settings, nil
}

// apply overlays non-zero file values onto the defaults.
func apply(s *domain.Settings, cfg fileConfig) {
	if cfg.Retrieval.TopK > 0 {
		s.Retrieval.TopK = cfg.Retrieval.TopK
	}
	if cfg.Retrieval.PoolSize > 0 {
		s.Retrieval.PoolSize = cfg.Retrieval.PoolSize
	}
	// Weights travel as a pair; setting one without the other would break
	// the sum-to-one invariant silently.
	if cfg.Retrieval.DenseWeight > 0 || cfg.Retrieval.LexicalWeight > 0 {
		s.Retrieval.DenseWeight = cfg.Retrieval.DenseWeight
		s.Retrieval.LexicalWeight = cfg.Retrieval.LexicalWeight
	}

	if cfg.Synthesis.ExtractionConfidence > 0 {
		s.Synthesis.ExtractionConfidence = cfg.Synthesis.ExtractionConfidence
	}
	if cfg.Synthesis.GenerationConfidence > 0 {
		s.Synthesis.GenerationConfidence = cfg.Synthesis.GenerationConfidence
	}
	if cfg.Synthesis.ContextTokenBudget > 0 {
		s.Synthesis.ContextTokenBudget = cfg.Synthesis.ContextTokenBudget
	}
	if cfg.Synthesis.GenerationTimeoutSec > 0 {
		s.Synthesis.GenerationTimeout = time.Duration(cfg.Synthesis.GenerationTimeoutSec) * time.Second
	}

	if cfg.Embedding.Provider != "" {
		s.Embedding.Provider = domain.AIProvider(cfg.Embedding.Provider)
	}
	if cfg.Embedding.BaseURL != "" {
		s.Embedding.BaseURL = cfg.Embedding.BaseURL
	}
	if cfg.Embedding.APIKey != "" {
		s.Embedding.APIKey = cfg.Embedding.APIKey
	}
	if cfg.Embedding.Model != "" {
		s.Embedding.Model = cfg.Embedding.Model
	}
	if cfg.Embedding.Dimensions > 0 {
		s.Embedding.Dimensions = cfg.Embedding.Dimensions
	}

	if cfg.LLM.Provider != "" {
		s.LLM.Provider = domain.AIProvider(cfg.LLM.Provider)
	}
	if cfg.LLM.BaseURL != "" {
		s.LLM.BaseURL = cfg.LLM.BaseURL
	}
	if cfg.LLM.APIKey != "" {
		s.LLM.APIKey = cfg.LLM.APIKey
	}
	if cfg.LLM.Model != "" {
		s.LLM.Model = cfg.LLM.Model
	}

	if cfg.Source.URL != "" {
		s.Source.URL = cfg.Source.URL
	}
	if cfg.Source.FilePath != "" {
		s.Source.FilePath = cfg.Source.FilePath
	}
	if cfg.Source.PageSize > 0 {
		s.Source.PageSize = cfg.Source.PageSize
	}
	if cfg.Source.TimeoutSec > 0 {
		s.Source.Timeout = time.Duration(cfg.Source.TimeoutSec) * time.Second
	}
	if cfg.Source.RetryAttempts > 0 {
		s.Source.RetryAttempts = cfg.Source.RetryAttempts
	}
	if cfg.Source.CachePath != "" {
		s.Source.CachePath = cfg.Source.CachePath
	}

	if cfg.Server.Host != "" {
		s.Server.Host = cfg.Server.Host
	}
	if cfg.Server.Port > 0 {
		s.Server.Port = cfg.Server.Port
	}
}
