package progress

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docstudy/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docstudy/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docstudy/internal/core/domain"
	"github.com/custodia-labs/docstudy/internal/core/ports/driving"
)

// progressMockIngest implements driving.IngestService for testing.
type progressMockIngest struct {
	log *domain.ProcessLog
	err error
	ids []string
}

func (m *progressMockIngest) Submit(ctx context.Context, path, title string) (*driving.Submission, error) {
	return nil, nil
}

func (m *progressMockIngest) Run(ctx context.Context, path, title string) (*driving.Submission, error) {
	return nil, nil
}

func (m *progressMockIngest) Progress(ctx context.Context, documentID string) (*domain.ProcessLog, error) {
	m.ids = append(m.ids, documentID)
	return m.log, m.err
}

func (m *progressMockIngest) SupportedFormats() []string {
	return nil
}

func newTestView(svc *progressMockIngest) *View {
	return NewView(context.Background(), styles.DefaultStyles(), svc, "doc-1")
}

func runningLog() *domain.ProcessLog {
	return &domain.ProcessLog{
		DocumentID:     "doc-1",
		Status:         domain.ProcessAnalyzing,
		Progress:       30,
		CurrentStep:    "Analysing document structure",
		TotalSteps:     5,
		CompletedSteps: 1,
		Logs: []domain.LogEntry{
			{Time: time.Now(), Level: domain.LogInfo, Message: "Parsed 1200 characters"},
		},
	}
}

func TestNewView(t *testing.T) {
	v := NewView(context.Background(), nil, &progressMockIngest{}, "doc-1")

	require.NotNil(t, v)
	assert.Equal(t, DefaultPollInterval, v.interval)
	assert.Nil(t, v.Log())
	assert.False(t, v.Done())
}

func TestView_SetInterval(t *testing.T) {
	v := newTestView(&progressMockIngest{})

	v.SetInterval(0)
	assert.Equal(t, DefaultPollInterval, v.interval)

	v.SetInterval(time.Second)
	assert.Equal(t, time.Second, v.interval)
}

func TestView_Fetch(t *testing.T) {
	svc := &progressMockIngest{log: runningLog()}
	v := newTestView(svc)

	msg := v.fetch()()

	loaded, ok := msg.(messages.ProgressLoaded)
	require.True(t, ok)
	assert.NoError(t, loaded.Err)
	assert.Equal(t, domain.ProcessAnalyzing, loaded.Log.Status)
	assert.Equal(t, []string{"doc-1"}, svc.ids)
}

func TestView_Update_ProgressLoaded(t *testing.T) {
	t.Run("running keeps polling", func(t *testing.T) {
		v := newTestView(&progressMockIngest{})

		v, cmd := v.Update(messages.ProgressLoaded{Log: runningLog()})

		assert.NotNil(t, cmd)
		assert.False(t, v.Done())
		assert.Equal(t, 30.0, v.Log().Progress)
	})

	t.Run("terminal stops", func(t *testing.T) {
		v := newTestView(&progressMockIngest{})
		log := runningLog()
		log.Status = domain.ProcessCompleted
		log.Progress = 100

		v, cmd := v.Update(messages.ProgressLoaded{Log: log})

		assert.NotNil(t, cmd)
		assert.True(t, v.Done())

		// Further ticks are ignored once done.
		_, cmd = v.Update(messages.PollTick{At: time.Now()})
		assert.Nil(t, cmd)
	})

	t.Run("error keeps polling", func(t *testing.T) {
		v := newTestView(&progressMockIngest{})

		v, cmd := v.Update(messages.ProgressLoaded{Err: domain.ErrNotFound})

		assert.NotNil(t, cmd)
		assert.ErrorIs(t, v.Err(), domain.ErrNotFound)
		assert.Contains(t, v.View(), "Error")
	})
}

func TestView_Update_PollTick(t *testing.T) {
	svc := &progressMockIngest{err: errors.New("db closed")}
	v := newTestView(svc)

	_, cmd := v.Update(messages.PollTick{At: time.Now()})
	require.NotNil(t, cmd)

	loaded, ok := cmd().(messages.ProgressLoaded)
	require.True(t, ok)
	assert.EqualError(t, loaded.Err, "db closed")
}

func TestView_Update_Keys(t *testing.T) {
	v := newTestView(&progressMockIngest{})

	v, cmd := v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'l'}})
	assert.Nil(t, cmd)
	assert.True(t, v.ShowLogs())

	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestView_View(t *testing.T) {
	t.Run("waiting", func(t *testing.T) {
		v := newTestView(&progressMockIngest{})
		assert.Contains(t, v.View(), "waiting for run")
	})

	t.Run("running", func(t *testing.T) {
		v := newTestView(&progressMockIngest{})
		v, _ = v.Update(messages.ProgressLoaded{Log: runningLog()})

		out := v.View()
		assert.Contains(t, out, "analyzing")
		assert.Contains(t, out, "Analysing document structure")
		assert.Contains(t, out, "step 1/5")
		assert.Contains(t, out, "Parsed 1200 characters")
	})

	t.Run("failed", func(t *testing.T) {
		v := newTestView(&progressMockIngest{})
		log := runningLog()
		log.Status = domain.ProcessFailed
		log.ErrorMessage = "extract text: unsupported format"
		v, _ = v.Update(messages.ProgressLoaded{Log: log})

		assert.Contains(t, v.View(), "extract text: unsupported format")
	})
}

func TestView_LogsTail(t *testing.T) {
	v := newTestView(&progressMockIngest{})
	log := runningLog()
	log.Logs = nil
	for i := range 8 {
		log.Logs = append(log.Logs, domain.LogEntry{
			Time: time.Now(), Level: domain.LogInfo, Message: fmt.Sprintf("line-%d", i),
		})
	}
	v, _ = v.Update(messages.ProgressLoaded{Log: log})

	out := v.View()
	assert.NotContains(t, out, "line-0")
	assert.Contains(t, out, "line-7")

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'l'}})
	assert.Contains(t, v.View(), "line-0")
}
