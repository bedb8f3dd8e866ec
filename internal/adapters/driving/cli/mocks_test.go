package cli

import (
	"bytes"
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/docstudy/internal/core/domain"
	"github.com/custodia-labs/docstudy/internal/core/ports/driving"
)

// cliMockIngest implements driving.IngestService for testing.
type cliMockIngest struct {
	submitted []string
	ran       []string
	runErr    error
	// runs is returned by successive Progress calls; the last one repeats.
	runs        []*domain.ProcessLog
	progressErr error
	calls       int
}

func (m *cliMockIngest) Submit(ctx context.Context, path, title string) (*driving.Submission, error) {
	m.submitted = append(m.submitted, path)
	return testSubmission(path, title), nil
}

func (m *cliMockIngest) Run(ctx context.Context, path, title string) (*driving.Submission, error) {
	m.ran = append(m.ran, path)
	return testSubmission(path, title), m.runErr
}

func (m *cliMockIngest) Progress(ctx context.Context, documentID string) (*domain.ProcessLog, error) {
	if m.progressErr != nil {
		return nil, m.progressErr
	}
	if len(m.runs) == 0 {
		return nil, domain.ErrNotFound
	}
	i := min(m.calls, len(m.runs)-1)
	m.calls++
	return m.runs[i], nil
}

func (m *cliMockIngest) SupportedFormats() []string {
	return []string{".txt", ".md", ".pdf", ".docx"}
}

func testSubmission(path, title string) *driving.Submission {
	if title == "" {
		title = domain.TitleFromPath(path)
	}
	return &driving.Submission{
		Document:     &domain.Document{ID: "doc-1", Title: title, FilePath: path},
		ProcessLogID: "run-1",
	}
}

func testRun(status domain.ProcessStatus, progress float64) *domain.ProcessLog {
	chunks := 4
	return &domain.ProcessLog{
		ID:          "run-1",
		DocumentID:  "doc-1",
		Status:      status,
		Progress:    progress,
		CurrentStep: "step " + string(status),
		TotalSteps:  domain.TotalProcessSteps,
		StartedAt:   time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Stats:       domain.ProcessStats{ChunksCount: &chunks},
		Logs: []domain.LogEntry{
			{Time: time.Date(2025, 3, 1, 10, 0, 1, 0, time.UTC), Level: domain.LogInfo, Message: "Parsing started"},
		},
	}
}

// cliMockDocuments implements driving.DocumentService for testing.
type cliMockDocuments struct {
	docs        []domain.Document
	analysis    *domain.DocumentAnalysis
	analysisErr error
	sections    []domain.Section
	chunks      []domain.Chunk
	deleted     []string
	err         error
}

func (m *cliMockDocuments) List(ctx context.Context) ([]domain.Document, error) {
	return m.docs, m.err
}

func (m *cliMockDocuments) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.docs {
		if m.docs[i].ID == documentID {
			doc := m.docs[i]
			return &doc, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *cliMockDocuments) Analysis(ctx context.Context, documentID string) (*domain.DocumentAnalysis, error) {
	if m.analysisErr != nil {
		return nil, m.analysisErr
	}
	if m.analysis == nil {
		return nil, domain.ErrNotFound
	}
	return m.analysis, nil
}

func (m *cliMockDocuments) Sections(ctx context.Context, documentID string) ([]domain.Section, error) {
	return m.sections, m.err
}

func (m *cliMockDocuments) Chunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	return m.chunks, m.err
}

func (m *cliMockDocuments) Delete(ctx context.Context, documentID string) error {
	m.deleted = append(m.deleted, documentID)
	return m.err
}

// cliMockRetrieval implements driving.RetrievalService for testing.
type cliMockRetrieval struct {
	hits      []domain.RetrievalHit
	answer    *domain.Answer
	err       error
	lastDoc   string
	lastTopK  int
	searchAll bool
}

func (m *cliMockRetrieval) Search(ctx context.Context, documentID, query string, topK int) ([]domain.RetrievalHit, error) {
	m.lastDoc, m.lastTopK, m.searchAll = documentID, topK, false
	return m.hits, m.err
}

func (m *cliMockRetrieval) SearchAll(ctx context.Context, query string, topK int) ([]domain.RetrievalHit, error) {
	m.lastDoc, m.lastTopK, m.searchAll = "", topK, true
	return m.hits, m.err
}

func (m *cliMockRetrieval) Ask(ctx context.Context, documentID, question string, topK int) (*domain.Answer, error) {
	m.lastDoc, m.lastTopK = documentID, topK
	return m.answer, m.err
}

// cliMockSettings implements driving.SettingsService for testing.
type cliMockSettings struct {
	settings    domain.AppSettings
	values      map[string]string
	setErr      error
	validateErr error
	pingErr     error
	llm         []string
}

func (m *cliMockSettings) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *cliMockSettings) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *cliMockSettings) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.Embedding = domain.EmbeddingSettings{Provider: provider, Model: model, APIKey: apiKey}
	return m.setErr
}

func (m *cliMockSettings) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.llm = []string{string(provider), model, apiKey}
	return m.setErr
}

func (m *cliMockSettings) SetValue(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value
	return nil
}

func (m *cliMockSettings) Validate() error {
	return m.validateErr
}

func (m *cliMockSettings) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *cliMockSettings) ValidateEmbeddingConfig() error {
	return m.pingErr
}

func (m *cliMockSettings) ValidateLLMConfig() error {
	return m.pingErr
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	ingest    *cliMockIngest
	documents *cliMockDocuments
	retrieval *cliMockRetrieval
	settings  *cliMockSettings
}

// setupTestServices installs fresh mocks and returns them with a cleanup.
func setupTestServices() (*testServices, func()) {
	oldIngest, oldDocs, oldRetrieval, oldSettings := ingestService, documentService, retrievalService, settingsService
	oldInterval := progressPollInterval

	ts := &testServices{
		ingest:    &cliMockIngest{},
		documents: &cliMockDocuments{},
		retrieval: &cliMockRetrieval{},
		settings:  &cliMockSettings{settings: domain.DefaultAppSettings()},
	}
	SetServices(Services{
		Ingest:    ts.ingest,
		Document:  ts.documents,
		Retrieval: ts.retrieval,
		Settings:  ts.settings,
	})
	progressPollInterval = time.Millisecond

	return ts, func() {
		ingestService, documentService, retrievalService, settingsService = oldIngest, oldDocs, oldRetrieval, oldSettings
		progressPollInterval = oldInterval
	}
}

// execute runs the root command with args and returns its output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag of cmd and its children to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// captureOutput returns what fn prints through rootCmd.
func captureOutput(fn func()) string {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	fn()
	return buf.String()
}
