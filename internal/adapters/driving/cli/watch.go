package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docstudy/internal/adapters/driving/inbox"
)

var (
	watchExisting bool
	watchSettle   time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Ingest documents dropped into a folder",
	Long: `Watches a folder and queues every supported file that is created or
changed in it. Runs until interrupted.

Hidden files and unsupported formats are ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "also ingest files already in the folder")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", inbox.DefaultSettle, "quiet period before a file is ingested")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	w, err := inbox.New(args[0], ingestService, inbox.Options{
		Settle:          watchSettle,
		IncludeExisting: watchExisting,
		OnResult: func(r inbox.Result) {
			if r.Err != nil {
				cmd.PrintErrf("failed  %s: %v\n", r.Path, r.Err)
				return
			}
			cmd.Printf("queued  %s -> %s\n", r.Path, r.Submission.Document.ID)
		},
	})
	if err != nil {
		return err
	}

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", args[0])
	return w.Run(commandContext(cmd))
}
