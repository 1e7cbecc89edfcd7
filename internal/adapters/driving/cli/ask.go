package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/caravel-labs/rosterqa/internal/core/domain"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the member messages",
	Long: `Answers a natural-language question about the member messages.
Evidence is retrieved with hybrid search (BM25 + semantic), the answer is
synthesized from it, and the result is validated against the evidence.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the full answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	question := strings.Join(args, " ")

	ans, err := answerService.Ask(cmd.Context(), question)
	if err != nil {
		if errors.Is(err, domain.ErrNotReady) {
			return errors.New("corpus not built yet - run 'rosterqa refresh' first")
		}
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(ans, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(ans.Text)

	if !ans.Supported {
		cmd.Println()
		cmd.Println("(not grounded in the messages - treat with caution)")
		return nil
	}

	cmd.Println()
	cmd.Printf("Confidence: %.2f\n", ans.Confidence)
	if len(ans.Citations) > 0 {
		cmd.Println("Sources:")
		for _, c := range ans.Citations {
			cmd.Printf("  [%s] %s: %s\n",
				c.Timestamp.UTC().Format("2006-01-02"), c.SenderName, c.Snippet)
		}
	}

	return nil
}
