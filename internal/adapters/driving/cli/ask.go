package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	askDocument string
	askTopK     int
	askJSON     bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about your documents",
	Long: `Retrieves the chunks most relevant to the question and asks the
configured LLM to answer from them. The answer lists its sources.

Asks one document with --document, otherwise every document.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askDocument, "document", "d", "", "ask only this document")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 5, "number of chunks to use as context")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	answer, err := retrievalService.Ask(commandContext(cmd), askDocument, args[0], askTopK)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return printJSON(cmd, answer)
	}

	cmd.Println(answer.Text)
	if len(answer.Sources) == 0 {
		return nil
	}

	cmd.Println()
	cmd.Println("Sources:")
	for i, src := range answer.Sources {
		title := src.DocumentTitle
		if title == "" {
			title = src.DocumentID
		}
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, title, src.RelevanceScore)
		cmd.Printf("      %s\n", preview(src.Preview, previewLength))
	}
	return nil
}
