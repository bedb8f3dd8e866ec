package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docstudy/internal/logger"
)

func TestRootCmd_Subcommands(t *testing.T) {
	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"ingest", "progress", "search", "ask", "document", "settings", "watch", "mcp", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCmd_VerboseFlag(t *testing.T) {
	defer logger.SetVerbose(false)

	flag := rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, flag)
	assert.Equal(t, "v", flag.Shorthand)

	_, err := execute("--verbose", "version")
	require.NoError(t, err)
	assert.True(t, logger.IsVerbose())
}

func TestSetServices(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	assert.Same(t, ts.ingest, ingestService)
	assert.Same(t, ts.documents, documentService)
	assert.Same(t, ts.retrieval, retrievalService)
	assert.Same(t, ts.settings, settingsService)
}

func TestServicesNotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	SetServices(Services{})

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"ingest", "a.txt"}, "ingest service not configured"},
		{[]string{"progress", "doc-1"}, "ingest service not configured"},
		{[]string{"watch", "."}, "ingest service not configured"},
		{[]string{"search", "q"}, "retrieval service not configured"},
		{[]string{"ask", "q"}, "retrieval service not configured"},
		{[]string{"document", "list"}, "document service not configured"},
		{[]string{"settings", "show"}, "settings service not configured"},
		{[]string{"settings", "set", "a", "b"}, "settings service not configured"},
	}
	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			_, err := execute(tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
