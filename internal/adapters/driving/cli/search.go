package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docstudy/internal/core/domain"
)

// previewLength caps chunk text in table output.
const previewLength = 200

var (
	searchDocument string
	searchTopK     int
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search ingested documents",
	Long: `Finds the chunks closest to the query by embedding similarity.

Searches one document with --document, otherwise every document.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchDocument, "document", "d", "", "search only this document")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 5, "number of chunks to return")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	ctx := commandContext(cmd)

	var (
		hits []domain.RetrievalHit
		err  error
	)
	if searchDocument != "" {
		hits, err = retrievalService.Search(ctx, searchDocument, query, searchTopK)
	} else {
		hits, err = retrievalService.SearchAll(ctx, query, searchTopK)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, hits)
	}
	outputSearchTable(cmd, hits)
	return nil
}

// searchHitJSON is the JSON shape of one hit.
type searchHitJSON struct {
	ChunkID       string  `json:"chunk_id"`
	DocumentID    string  `json:"document_id"`
	DocumentTitle string  `json:"document_title,omitempty"`
	Content       string  `json:"content"`
	Distance      float64 `json:"distance"`
	Relevance     float64 `json:"relevance"`
}

func outputSearchJSON(cmd *cobra.Command, hits []domain.RetrievalHit) error {
	out := make([]searchHitJSON, 0, len(hits))
	for _, h := range hits {
		out = append(out, searchHitJSON{
			ChunkID:       h.ChunkID,
			DocumentID:    h.DocumentID,
			DocumentTitle: h.Metadata[domain.MetaDocumentTitle],
			Content:       h.Content,
			Distance:      h.Distance,
			Relevance:     h.Relevance(),
		})
	}
	return printJSON(cmd, out)
}

func outputSearchTable(cmd *cobra.Command, hits []domain.RetrievalHit) {
	if len(hits) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, h := range hits {
		title := h.Metadata[domain.MetaDocumentTitle]
		if title == "" {
			title = h.DocumentID
		}
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, title, h.Relevance())
		cmd.Printf("      %s\n", preview(h.Content, previewLength))
		cmd.Println()
	}
}

// preview flattens whitespace and cuts s to n runes.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
