package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/caravel-labs/rosterqa/internal/adapters/driving/httpapi"
	"github.com/caravel-labs/rosterqa/internal/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Runs the HTTP API server. On startup the corpus is built from the
configured source; when the source is a local file it is watched for changes
and the corpus is rebuilt automatically.

Routes:
  GET  /health            liveness and corpus state
  GET  /metrics           Prometheus metrics
  POST /api/ask           {"question": "..."} -> {"answer": "..."}
  POST /api/ask/detailed  full answer with citations and confidence
  POST /api/refresh       re-fetch messages and rebuild the corpus
  GET  /api/insights      the corpus quality report`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if answerService == nil || corpusService == nil {
		return errors.New("services not configured")
	}

	ctx := cmd.Context()

	// Build the first generation before accepting traffic. A failure is
	// not fatal: the server starts and reports not-ready until a refresh
	// succeeds.
	if messageSource != nil {
		if err := rebuildFromSource(ctx); err != nil {
			logger.Error("initial corpus build failed: %v", err)
			cmd.Printf("Warning: initial corpus build failed: %v\n", err)
		}
	}

	if watchSource != nil {
		go func() {
			err := watchSource(ctx, func() {
				if err := rebuildFromSource(ctx); err != nil {
					logger.Error("rebuild after source change failed: %v", err)
				}
			})
			if err != nil && ctx.Err() == nil {
				logger.Error("source watcher stopped: %v", err)
			}
		}()
	}

	server := httpapi.NewServer(answerService, corpusService, messageSource)
	return server.Run(ctx, serveAddr)
}

// rebuildFromSource fetches the current batch and publishes a new generation.
func rebuildFromSource(ctx context.Context) error {
	batch, err := messageSource.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch messages: %w", err)
	}

	genID, report, err := corpusService.Rebuild(ctx, batch.Messages)
	if err != nil {
		return err
	}

	logger.Info("corpus rebuilt: generation %d, %d messages, %d findings",
		genID, report.Highlights.TotalMessages, len(report.Findings))
	return nil
}
