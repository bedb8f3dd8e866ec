// Package cli provides the docstudy command line.
// It implements a driving adapter following hexagonal architecture principles.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docstudy/internal/core/ports/driving"
	"github.com/custodia-labs/docstudy/internal/logger"
)

// version is set at build time with -ldflags "-X .../cli.version=...".
var version = "dev"

// Services wired by the composition root.
var (
	ingestService    driving.IngestService
	documentService  driving.DocumentService
	retrievalService driving.RetrievalService
	settingsService  driving.SettingsService
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "docstudy",
	Short: "Study documents with local AI",
	Long: `docstudy ingests PDF, Word, Markdown and text documents, analyses them
with an LLM, and answers questions from their content.

Ingestion runs in the background. Use 'docstudy progress <id>' to follow a
run, or 'docstudy ingest --wait' to watch it live.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Services groups the driving ports the commands use.
type Services struct {
	Ingest    driving.IngestService
	Document  driving.DocumentService
	Retrieval driving.RetrievalService
	Settings  driving.SettingsService
}

// SetServices installs the services used by all commands.
func SetServices(s Services) {
	ingestService = s.Ingest
	documentService = s.Document
	retrievalService = s.Retrieval
	settingsService = s.Settings
}

// SetVersion overrides the reported version.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// commandContext returns the command context, or Background when unset.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
