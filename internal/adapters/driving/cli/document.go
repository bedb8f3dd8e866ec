package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docstudy/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage ingested documents",
	Long:  `List, inspect, or delete ingested documents.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentShowCmd = &cobra.Command{
	Use:   "show [doc-id]",
	Short: "Show a document and its analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentShow,
}

var documentSectionsCmd = &cobra.Command{
	Use:   "sections [doc-id]",
	Short: "Print the document outline",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentSections,
}

var documentChunksCmd = &cobra.Command{
	Use:   "chunks [doc-id]",
	Short: "Print the document chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentChunks,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document",
	Long:  `Removes a document, its sections, chunks, runs and vector collection.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var documentJSON bool

func init() {
	documentListCmd.Flags().BoolVar(&documentJSON, "json", false, "output as JSON")
	documentShowCmd.Flags().BoolVar(&documentJSON, "json", false, "output as JSON")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentShowCmd)
	documentCmd.AddCommand(documentSectionsCmd)
	documentCmd.AddCommand(documentChunksCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if documentJSON {
		return printJSON(cmd, docs)
	}

	if len(docs) == 0 {
		cmd.Println("No documents found. Add one with 'docstudy ingest <file>'.")
		return nil
	}

	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    Title:  %s\n", docs[i].Title)
		cmd.Printf("    Type:   %s\n", docs[i].FileType)
		cmd.Printf("    Status: %s\n", docs[i].Status)
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentShow(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	ctx := commandContext(cmd)
	doc, err := documentService.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	analysis, err := documentService.Analysis(ctx, doc.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("failed to get analysis: %w", err)
	}
	doc.Analysis = analysis

	if documentJSON {
		return printJSON(cmd, doc)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Title:     %s\n", doc.Title)
	cmd.Printf("  File:      %s\n", doc.FilePath)
	cmd.Printf("  Type:      %s\n", doc.FileType)
	cmd.Printf("  Size:      %d bytes\n", doc.FileSize)
	cmd.Printf("  Status:    %s\n", doc.Status)
	cmd.Printf("  Uploaded:  %s\n", doc.UploadedAt.Format(domain.LogTimeFormat))
	if doc.ProcessedAt != nil {
		cmd.Printf("  Processed: %s\n", doc.ProcessedAt.Format(domain.LogTimeFormat))
	}

	if analysis == nil {
		cmd.Println("\n  No analysis yet.")
		return nil
	}
	printAnalysis(cmd, analysis)
	return nil
}

func printAnalysis(cmd *cobra.Command, a *domain.DocumentAnalysis) {
	cmd.Println("\nAnalysis")
	cmd.Printf("  %s\n\n", a.OneSentenceSummary)
	if a.Summary != "" {
		cmd.Printf("  %s\n\n", a.Summary)
	}
	cmd.Printf("  Type:       %s\n", a.DocumentType)
	cmd.Printf("  Difficulty: %s\n", a.DifficultyLevel)
	cmd.Printf("  Audience:   %s\n", a.TargetAudience)
	cmd.Printf("  Reading:    %s\n", a.EstimatedReadingTime)

	printList(cmd, "Key points", a.KeyPoints)
	if len(a.KeyConcepts) > 0 {
		cmd.Println("\n  Key concepts:")
		for _, c := range a.KeyConcepts {
			cmd.Printf("    - %s: %s\n", c.Term, c.Definition)
		}
	}
	printList(cmd, "Suggestions", a.LearningSuggestions)
	printList(cmd, "Common questions", a.CommonQuestions)
}

func printList(cmd *cobra.Command, title string, items []string) {
	if len(items) == 0 {
		return
	}
	cmd.Printf("\n  %s:\n", title)
	for _, item := range items {
		cmd.Printf("    - %s\n", item)
	}
}

func runDocumentSections(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	sections, err := documentService.Sections(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to get sections: %w", err)
	}

	if len(sections) == 0 {
		cmd.Println("No sections found.")
		return nil
	}

	for _, s := range sections {
		indent := strings.Repeat("  ", max(s.Level-1, 0))
		cmd.Printf("%s%s (%d chars)\n", indent, s.Title, len([]rune(s.Content)))
	}
	return nil
}

func runDocumentChunks(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	chunks, err := documentService.Chunks(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("failed to get chunks: %w", err)
	}

	if len(chunks) == 0 {
		cmd.Println("No chunks found.")
		return nil
	}

	for _, c := range chunks {
		cmd.Printf("  [%d] %s\n", c.Index, preview(c.Content, previewLength))
	}
	cmd.Printf("\nTotal: %d chunks\n", len(chunks))
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.Delete(commandContext(cmd), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Document %s deleted.\n", args[0])
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
