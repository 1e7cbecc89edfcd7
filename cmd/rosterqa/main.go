// Command rosterqa answers natural-language questions about a corpus of
// member messages and reports data-quality anomalies found in it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/caravel-labs/rosterqa/internal/adapters/driven/ai"
	sqlitecache "github.com/caravel-labs/rosterqa/internal/adapters/driven/cache/sqlite"
	configfile "github.com/caravel-labs/rosterqa/internal/adapters/driven/config/file"
	"github.com/caravel-labs/rosterqa/internal/adapters/driven/index/lexical"
	"github.com/caravel-labs/rosterqa/internal/adapters/driven/index/vector"
	filesource "github.com/caravel-labs/rosterqa/internal/adapters/driven/source/file"
	httpsource "github.com/caravel-labs/rosterqa/internal/adapters/driven/source/httpapi"
	"github.com/caravel-labs/rosterqa/internal/adapters/driving/cli"
	"github.com/caravel-labs/rosterqa/internal/core/domain"
	"github.com/caravel-labs/rosterqa/internal/core/ports/driven"
	"github.com/caravel-labs/rosterqa/internal/core/services"
	"github.com/caravel-labs/rosterqa/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.Bootstrap = buildServices

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildServices assembles the application from configuration. AI backends
// that are configured but unreachable are logged and skipped so the
// pipeline degrades (lexical-only retrieval, extraction-only synthesis)
// instead of refusing to start.
func buildServices(configPath string) (*cli.Services, error) {
	if configPath == "" {
		p, err := configfile.DefaultPath()
		if err != nil {
			return nil, err
		}
		configPath = p
	}

	settings, err := configfile.Load(configPath)
	if err != nil {
		return nil, err
	}

	embedder, err := ai.CreateAndValidateEmbeddingService(settings.Embedding)
	if err != nil {
		logger.Warn("embedding service unavailable, dense retrieval disabled: %v", err)
		embedder = nil
	}

	llm, err := ai.CreateAndValidateLLMService(settings.LLM)
	if err != nil {
		logger.Warn("LLM service unavailable, generation fallback disabled: %v", err)
		llm = nil
	}

	corpus := services.NewCorpus(lexical.NewBuilder(), vector.NewBuilder(), embedder)

	retriever, err := services.NewRetriever(embedder, settings.Retrieval)
	if err != nil {
		return nil, err
	}

	synthesizer := services.NewSynthesizer(llm, settings.Synthesis)
	validator := services.NewValidator()
	answerer := services.NewAnswerer(corpus, retriever, synthesizer, validator, settings.Retrieval.TopK)

	source, watch, err := buildSource(settings.Source)
	if err != nil {
		return nil, err
	}

	return &cli.Services{
		Answers: answerer,
		Corpus:  corpus,
		Source:  source,
		Watch:   watch,
	}, nil
}

// buildSource picks the message source. A file path wins over a URL; with
// neither configured the commands that need a source report it.
func buildSource(settings domain.SourceSettings) (driven.MessageSource, cli.WatchFunc, error) {
	if settings.FilePath != "" {
		src, err := filesource.NewSource(settings.FilePath)
		if err != nil {
			return nil, nil, err
		}
		watch := func(ctx context.Context, onChange func()) error {
			w, err := filesource.NewWatcher(src.Path())
			if err != nil {
				return err
			}
			defer w.Close()
			return w.Run(ctx, onChange)
		}
		return src, watch, nil
	}

	if settings.URL != "" {
		var cache driven.MessageCache
		if settings.CachePath != "" {
			c, err := sqlitecache.NewCache(settings.CachePath)
			if err != nil {
				logger.Warn("message cache unavailable, fetching without it: %v", err)
			} else {
				cache = c
			}
		}

		client, err := httpsource.NewClient(httpsource.Config{
			URL:      settings.URL,
			PageSize: settings.PageSize,
			Timeout:  settings.Timeout,
			Attempts: settings.RetryAttempts,
			Cache:    cache,
		})
		if err != nil {
			return nil, nil, err
		}
		return client, nil, nil
	}

	return nil, nil, nil
}
