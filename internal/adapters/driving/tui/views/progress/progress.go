// Package progress provides the live view of an ingestion run.
package progress

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	bprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docstudy/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docstudy/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docstudy/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docstudy/internal/core/domain"
	"github.com/custodia-labs/docstudy/internal/core/ports/driving"
)

// DefaultPollInterval is how often the run is fetched.
const DefaultPollInterval = 500 * time.Millisecond

// Log lines shown when the full log is collapsed.
const tailLines = 5

// View polls a run and renders its progress.
type View struct {
	ctx        context.Context
	styles     *styles.Styles
	keys       *keymap.KeyMap
	ingest     driving.IngestService
	documentID string
	interval   time.Duration

	bar     bprogress.Model
	spinner spinner.Model

	log      *domain.ProcessLog
	err      error
	showLogs bool
	done     bool

	width  int
	height int
}

// NewView creates a progress view for one document.
func NewView(ctx context.Context, s *styles.Styles, ingest driving.IngestService, documentID string) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(s.Theme().Primary)),
	)
	return &View{
		ctx:        ctx,
		styles:     s,
		keys:       keymap.DefaultKeyMap(),
		ingest:     ingest,
		documentID: documentID,
		interval:   DefaultPollInterval,
		bar:        bprogress.New(bprogress.WithDefaultGradient(), bprogress.WithWidth(40)),
		spinner:    sp,
	}
}

// SetContext sets the context used for fetches.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// SetInterval overrides the poll interval.
func (v *View) SetInterval(d time.Duration) {
	if d > 0 {
		v.interval = d
	}
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	if width > 10 {
		v.bar.Width = min(width-10, 60)
	}
}

// Init fetches the run straight away and starts the spinner.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.fetch(), v.spinner.Tick)
}

// Update handles messages.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.ToggleLogs):
			v.showLogs = !v.showLogs
		}
		return v, nil

	case messages.PollTick:
		if v.done {
			return v, nil
		}
		return v, v.fetch()

	case messages.ProgressLoaded:
		return v.handleLoaded(msg)

	case spinner.TickMsg:
		if v.done {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v *View) handleLoaded(msg messages.ProgressLoaded) (*View, tea.Cmd) {
	if msg.Err != nil {
		v.err = msg.Err
		// Keep polling while the run has not been stored yet.
		return v, v.tick()
	}
	v.err = nil
	v.log = msg.Log
	if v.log != nil && v.log.Status.IsTerminal() {
		v.done = true
		log := v.log
		return v, tea.Sequence(
			func() tea.Msg { return messages.Finished{Log: log} },
			tea.Quit,
		)
	}
	return v, v.tick()
}

func (v *View) tick() tea.Cmd {
	return tea.Tick(v.interval, func(t time.Time) tea.Msg {
		return messages.PollTick{At: t}
	})
}

func (v *View) fetch() tea.Cmd {
	ingest := v.ingest
	ctx := v.ctx
	id := v.documentID
	return func() tea.Msg {
		log, err := ingest.Progress(ctx, id)
		return messages.ProgressLoaded{Log: log, Err: err}
	}
}

// View renders the view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("docstudy") + " ")
	b.WriteString(v.styles.Muted.Render(v.documentID))
	b.WriteString("\n\n")

	if v.log == nil {
		if v.err != nil {
			b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		} else {
			b.WriteString(v.spinner.View() + " waiting for run...")
		}
		b.WriteString("\n\n")
		b.WriteString(v.helpView())
		return b.String()
	}

	status := v.styles.ForStatus(v.log.Status).Render(v.log.Status.String())
	if v.done {
		b.WriteString(status)
	} else {
		b.WriteString(v.spinner.View() + " " + status)
	}
	if v.log.CurrentStep != "" {
		b.WriteString("  " + v.styles.Step.Render(v.log.CurrentStep))
	}
	b.WriteString("\n")

	b.WriteString(v.bar.ViewAs(v.log.Progress / 100))
	b.WriteString(fmt.Sprintf("  step %d/%d\n\n", v.log.CompletedSteps, v.log.TotalSteps))

	b.WriteString(v.logsView())

	if v.log.ErrorMessage != "" {
		b.WriteString("\n" + v.styles.Error.Render("Error: "+v.log.ErrorMessage) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(v.helpView())
	return b.String()
}

func (v *View) logsView() string {
	entries := v.log.Logs
	if !v.showLogs && len(entries) > tailLines {
		entries = entries[len(entries)-tailLines:]
	}

	var b strings.Builder
	for _, e := range entries {
		line := fmt.Sprintf("%s %-7s %s", e.Time.Format("15:04:05"), e.Level, e.Message)
		b.WriteString(v.styles.ForLevel(e.Level).Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func (v *View) helpView() string {
	parts := make([]string, 0, 2)
	for _, binding := range v.keys.ShortHelp() {
		h := binding.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return v.styles.Help.Render(strings.Join(parts, " | "))
}

// Log returns the last fetched run.
func (v *View) Log() *domain.ProcessLog {
	return v.log
}

// Err returns the last fetch error.
func (v *View) Err() error {
	return v.err
}

// Done reports whether the run reached a terminal status.
func (v *View) Done() bool {
	return v.done
}

// ShowLogs reports whether the full log is expanded.
func (v *View) ShowLogs() bool {
	return v.showLogs
}
