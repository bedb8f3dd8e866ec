package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	ingestTitle string
	ingestWait  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a document",
	Long: `Parses, analyses, chunks and indexes a document.

By default the document is processed in the foreground and a summary is
printed when it finishes. With --wait the document is queued on the worker
pool and its progress is shown live.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestTitle, "title", "t", "", "document title (default: file name)")
	ingestCmd.Flags().BoolVar(&ingestWait, "wait", false, "queue the document and show live progress")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx := commandContext(cmd)
	path := args[0]

	if !ingestWait {
		cmd.Printf("Ingesting %s...\n", path)
		sub, runErr := ingestService.Run(ctx, path, ingestTitle)
		if sub == nil {
			return fmt.Errorf("failed to ingest: %w", runErr)
		}
		log, err := ingestService.Progress(ctx, sub.Document.ID)
		if err != nil {
			return fmt.Errorf("failed to get progress: %w", errors.Join(runErr, err))
		}
		if err := reportFinished(cmd, log); err != nil {
			return err
		}
		if runErr != nil {
			return fmt.Errorf("failed to ingest: %w", runErr)
		}
		return nil
	}

	sub, err := ingestService.Submit(ctx, path, ingestTitle)
	if err != nil {
		return fmt.Errorf("failed to submit: %w", err)
	}
	cmd.Printf("Queued %s as %s\n", sub.Document.Title, sub.Document.ID)

	log, err := watchProgress(ctx, cmd, sub.Document.ID)
	if err != nil {
		return err
	}
	return reportFinished(cmd, log)
}
