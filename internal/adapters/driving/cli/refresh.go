package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/caravel-labs/rosterqa/internal/core/domain"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch messages and rebuild the corpus",
	Long: `Fetches the latest member messages from the configured source and
rebuilds the corpus: store, lexical index, vector index, and the quality
report are replaced atomically. Questions keep being answered against the
previous corpus until the rebuild completes.`,
	RunE: runRefresh,
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, _ []string) error {
	if messageSource == nil {
		return errors.New("no message source configured - set source.file_path or source.url in the config")
	}
	if corpusService == nil {
		return errors.New("corpus service not configured")
	}

	cmd.Println("Fetching messages...")
	batch, err := messageSource.Fetch(cmd.Context())
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}
	cmd.Printf("Fetched %d messages.\n", len(batch.Messages))

	genID, report, err := corpusService.Rebuild(cmd.Context(), batch.Messages)
	if err != nil {
		if errors.Is(err, domain.ErrRebuildInProgress) {
			return errors.New("a rebuild is already in progress")
		}
		return fmt.Errorf("rebuild failed: %w", err)
	}

	cmd.Printf("Corpus rebuilt (generation %d, %d messages indexed).\n",
		genID, report.Highlights.TotalMessages)
	if len(report.Findings) > 0 {
		cmd.Printf("%d quality findings - run 'rosterqa insights' for details.\n",
			len(report.Findings))
	}

	return nil
}
