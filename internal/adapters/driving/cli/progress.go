package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docstudy/internal/adapters/driving/tui"
	"github.com/custodia-labs/docstudy/internal/core/domain"
)

// progressPollInterval is how often plain output polls a run.
var progressPollInterval = 500 * time.Millisecond

var (
	progressWatch bool
	progressJSON  bool
	progressLogs  bool
)

var progressCmd = &cobra.Command{
	Use:   "progress [document-id]",
	Short: "Show ingestion progress of a document",
	Long: `Shows the latest ingestion run of a document: status, percentage,
current step, statistics and the run log.

With --watch the command follows the run until it completes or fails.`,
	Args: cobra.ExactArgs(1),
	RunE: runProgress,
}

func init() {
	progressCmd.Flags().BoolVarP(&progressWatch, "watch", "w", false, "follow the run until it finishes")
	progressCmd.Flags().BoolVar(&progressJSON, "json", false, "output the run as JSON")
	progressCmd.Flags().BoolVar(&progressLogs, "logs", false, "print every log entry")
	rootCmd.AddCommand(progressCmd)
}

func runProgress(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx := commandContext(cmd)
	documentID := args[0]

	if progressWatch {
		log, err := watchProgress(ctx, cmd, documentID)
		if err != nil {
			return err
		}
		return reportFinished(cmd, log)
	}

	log, err := ingestService.Progress(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to get progress: %w", err)
	}

	if progressJSON {
		return printJSON(cmd, log)
	}

	printRun(cmd, log, progressLogs)
	return nil
}

// watchProgress follows a run until it ends. A terminal gets the live view;
// other outputs get one line per change.
func watchProgress(ctx context.Context, cmd *cobra.Command, documentID string) (*domain.ProcessLog, error) {
	if isTerminal(cmd.OutOrStdout()) {
		app, err := tui.NewApp(&tui.Ports{Ingest: ingestService}, documentID)
		if err != nil {
			return nil, err
		}
		return app.WithContext(ctx).WithPollInterval(progressPollInterval).Run()
	}
	return pollProgress(ctx, cmd, documentID)
}

func pollProgress(ctx context.Context, cmd *cobra.Command, documentID string) (*domain.ProcessLog, error) {
	ticker := time.NewTicker(progressPollInterval)
	defer ticker.Stop()

	var lastLine string
	for {
		log, err := ingestService.Progress(ctx, documentID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			// The run row may not be visible yet.
		case err != nil:
			return nil, fmt.Errorf("failed to get progress: %w", err)
		default:
			line := fmt.Sprintf("[%3.0f%%] %-11s %s", log.Progress, log.Status, log.CurrentStep)
			if line != lastLine {
				cmd.Println(line)
				lastLine = line
			}
			if log.Status.IsTerminal() {
				return log, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// reportFinished prints the outcome of a watched run. A failed run is an error.
func reportFinished(cmd *cobra.Command, log *domain.ProcessLog) error {
	if log == nil {
		cmd.Println("Stopped watching. The run continues in the background.")
		return nil
	}
	cmd.Println()
	printRun(cmd, log, false)
	if log.Status == domain.ProcessFailed {
		return fmt.Errorf("ingestion failed: %s", log.ErrorMessage)
	}
	return nil
}

func printRun(cmd *cobra.Command, log *domain.ProcessLog, allLogs bool) {
	cmd.Printf("Document: %s\n", log.DocumentID)
	cmd.Printf("  Status:   %s\n", log.Status)
	cmd.Printf("  Progress: %.0f%% (step %d/%d)\n", log.Progress, log.CompletedSteps, log.TotalSteps)
	if log.CurrentStep != "" {
		cmd.Printf("  Step:     %s\n", log.CurrentStep)
	}
	cmd.Printf("  Started:  %s\n", log.StartedAt.Format(domain.LogTimeFormat))
	if log.CompletedAt != nil {
		cmd.Printf("  Finished: %s\n", log.CompletedAt.Format(domain.LogTimeFormat))
	}
	printStats(cmd, log.Stats)
	if log.ErrorMessage != "" {
		cmd.Printf("  Error:    %s\n", log.ErrorMessage)
	}

	entries := log.Logs
	if !allLogs && len(entries) > 10 {
		cmd.Printf("\n  ... %d earlier entries (use --logs)\n", len(entries)-10)
		entries = entries[len(entries)-10:]
	} else if len(entries) > 0 {
		cmd.Println()
	}
	for _, e := range entries {
		cmd.Printf("  %s [%s] %s\n", e.Time.Format(domain.LogTimeFormat), e.Level, e.Message)
	}
}

func printStats(cmd *cobra.Command, s domain.ProcessStats) {
	if s.ParsedTextLength != nil {
		cmd.Printf("  Text:     %d characters\n", *s.ParsedTextLength)
	}
	if s.SectionsCount != nil {
		cmd.Printf("  Sections: %d\n", *s.SectionsCount)
	}
	if s.ChunksCount != nil {
		cmd.Printf("  Chunks:   %d\n", *s.ChunksCount)
	}
	if s.AIAnalysisTime != nil {
		cmd.Printf("  Analysis: %.1fs\n", *s.AIAnalysisTime)
	}
	if s.TotalTime != nil {
		cmd.Printf("  Total:    %.1fs\n", *s.TotalTime)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
