package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docstudy/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docstudy/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docstudy/internal/adapters/driving/tui/views/progress"
	"github.com/custodia-labs/docstudy/internal/core/domain"
)

// App is the TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	// progressView renders the watched run.
	progressView *progress.View

	// final is the run once it reached a terminal status.
	final *domain.ProcessLog

	// width and height are terminal dimensions.
	width  int
	height int
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a TUI that watches the run of one document.
func NewApp(ports *Ports, documentID string) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	if documentID == "" {
		return nil, ErrMissingDocumentID
	}

	ctx := context.Background()
	s := styles.DefaultStyles()
	return &App{
		ports:        ports,
		ctx:          ctx,
		styles:       s,
		progressView: progress.NewView(ctx, s, ports.Ingest, documentID),
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.progressView.SetContext(ctx)
	return a
}

// WithPollInterval overrides how often the run is fetched.
func (a *App) WithPollInterval(d time.Duration) *App {
	a.progressView.SetInterval(d)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("docstudy - ingesting"),
		a.progressView.Init(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
	case messages.Finished:
		a.final = msg.Log
		return a, nil
	}

	var cmd tea.Cmd
	a.progressView, cmd = a.progressView.Update(msg)
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	return a.progressView.View() + "\n"
}

// Final returns the terminal run, or nil if the user quit early.
func (a *App) Final() *domain.ProcessLog {
	return a.final
}

// Latest returns the most recently fetched run.
func (a *App) Latest() *domain.ProcessLog {
	return a.progressView.Log()
}

// Run watches a document until its run ends or the user quits.
// It returns the last fetched run.
func (a *App) Run() (*domain.ProcessLog, error) {
	p := tea.NewProgram(a, tea.WithContext(a.ctx))
	if _, err := p.Run(); err != nil {
		return a.Latest(), fmt.Errorf("running progress view: %w", err)
	}
	if a.final != nil {
		return a.final, nil
	}
	return a.Latest(), nil
}
