package cli

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docstudy/internal/core/domain"
)

func TestProgressCmd(t *testing.T) {
	t.Run("prints run", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.ingest.runs = []*domain.ProcessLog{testRun(domain.ProcessAnalyzing, 30)}

		out, err := execute("progress", "doc-1")

		require.NoError(t, err)
		assert.Contains(t, out, "Document: doc-1")
		assert.Contains(t, out, "Progress: 30%")
		assert.Contains(t, out, "Parsing started")
	})

	t.Run("json", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.ingest.runs = []*domain.ProcessLog{testRun(domain.ProcessAnalyzing, 30)}

		out, err := execute("progress", "--json", "doc-1")

		require.NoError(t, err)
		assert.Contains(t, out, `"Status": "analyzing"`)
	})

	t.Run("not found", func(t *testing.T) {
		_, cleanup := setupTestServices()
		defer cleanup()

		_, err := execute("progress", "missing")

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("watch failed run", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		failed := testRun(domain.ProcessFailed, 20)
		failed.ErrorMessage = "boom"
		ts.ingest.runs = []*domain.ProcessLog{testRun(domain.ProcessParsing, 5), failed}

		out, err := execute("progress", "--watch", "doc-1")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "ingestion failed: boom")
		assert.Contains(t, out, "[  5%] parsing")
	})
}

func TestPrintRun_TruncatesLogs(t *testing.T) {
	run := testRun(domain.ProcessCompleted, 100)
	run.Logs = nil
	for i := range 15 {
		run.Logs = append(run.Logs, domain.LogEntry{Time: time.Now(), Level: domain.LogInfo, Message: fmt.Sprintf("entry-%02d", i)})
	}

	t.Run("tail", func(t *testing.T) {
		out := captureOutput(func() { printRun(rootCmd, run, false) })
		assert.Contains(t, out, "5 earlier entries")
		assert.NotContains(t, out, "entry-04")
		assert.Contains(t, out, "entry-14")
	})

	t.Run("all", func(t *testing.T) {
		out := captureOutput(func() { printRun(rootCmd, run, true) })
		assert.Contains(t, out, "entry-00")
	})
}

func TestPollProgress(t *testing.T) {
	t.Run("returns terminal run", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.ingest.runs = []*domain.ProcessLog{testRun(domain.ProcessCompleted, 100)}

		log, err := pollProgress(context.Background(), rootCmd, "doc-1")

		require.NoError(t, err)
		assert.Equal(t, domain.ProcessCompleted, log.Status)
	})

	t.Run("service error", func(t *testing.T) {
		ts, cleanup := setupTestServices()
		defer cleanup()
		ts.ingest.progressErr = errors.New("db closed")

		_, err := pollProgress(context.Background(), rootCmd, "doc-1")

		assert.ErrorContains(t, err, "db closed")
	})

	t.Run("cancelled", func(t *testing.T) {
		_, cleanup := setupTestServices()
		defer cleanup()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := pollProgress(ctx, rootCmd, "doc-1")

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestReportFinished_NilRun(t *testing.T) {
	out := captureOutput(func() {
		assert.NoError(t, reportFinished(rootCmd, nil))
	})
	assert.Contains(t, out, "continues in the background")
}
