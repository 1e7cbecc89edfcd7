// Package cli implements the rosterqa command-line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/caravel-labs/rosterqa/internal/core/ports/driven"
	"github.com/caravel-labs/rosterqa/internal/core/ports/driving"
	"github.com/caravel-labs/rosterqa/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	verboseFlag bool
	configFlag  string
)

// WatchFunc blocks watching the message source for changes, invoking
// onChange after each change until the context is cancelled.
type WatchFunc func(ctx context.Context, onChange func()) error

// Services aggregates the ports the commands run against.
type Services struct {
	Answers driving.AnswerService
	Corpus  driving.CorpusService

	// Source is the configured message source, nil when none is set.
	Source driven.MessageSource

	// Watch watches the source for changes. Only file sources support it.
	Watch WatchFunc
}

var (
	answerService driving.AnswerService
	corpusService driving.CorpusService
	messageSource driven.MessageSource
	watchSource   WatchFunc
)

// SetServices injects the service implementations the commands use.
func SetServices(s *Services) {
	if s == nil {
		answerService = nil
		corpusService = nil
		messageSource = nil
		watchSource = nil
		return
	}
	answerService = s.Answers
	corpusService = s.Corpus
	messageSource = s.Source
	watchSource = s.Watch
}

// Bootstrap builds the services once the persistent flags are parsed. The
// entrypoint assigns it; tests inject services directly via SetServices.
var Bootstrap func(configPath string) (*Services, error)

var rootCmd = &cobra.Command{
	Use:   "rosterqa",
	Short: "Question answering over member messages",
	Long: `RosterQA answers natural-language questions about a corpus of member
messages using hybrid retrieval (BM25 + semantic search), and reports
data-quality anomalies found in the corpus.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verboseFlag)
		if Bootstrap != nil && answerService == nil {
			services, err := Bootstrap(configFlag)
			if err != nil {
				return err
			}
			SetServices(services)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "path to the config file")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
