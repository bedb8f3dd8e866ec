package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/docstudy/internal/core/domain"
	"github.com/custodia-labs/docstudy/internal/core/ports/driven"
	"github.com/custodia-labs/docstudy/internal/logger"
)

// Analysis limits, in characters.
const (
	analysisInputLimit   = 6000
	sectionsInputLimit   = 4000
	fallbackSummaryLimit = 300
	overviewLimit        = 500
	sectionContentLimit  = 500
	sectionTitleLimit    = 255
	sectionWindowLines   = 50

	analysisTemperature = 0.3
	sectionsTemperature = 0.2

	analysisTruncationNotice = "...\n\n[文档内容过长，已截取前6000字进行分析]"

	// OverviewSectionTitle is the title of the whole-document section
	// that leads every rule-based outline.
	OverviewSectionTitle = "全文"
)

var fencedJSON = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// AnalysisResult is the outcome of Analyze.
type AnalysisResult struct {
	// Analysis is the LLM analysis, or the rule-based fallback.
	Analysis domain.DocumentAnalysis

	// FellBack is true when the fallback was used.
	FellBack bool

	// Warning explains why the fallback was used.
	Warning string
}

// SectionsResult is the outcome of ExtractSections.
type SectionsResult struct {
	// Sections is the outline with dense OrderIndex values.
	// IDs and DocumentID are left for the caller to assign.
	Sections []domain.Section

	// FellBack is true when the rule-based outline was used.
	FellBack bool

	// Warning explains why the fallback was used.
	Warning string
}

// Analyzer asks the LLM for a document analysis and outline, degrading to
// rule-based results whenever the LLM is absent, fails, or answers badly.
type Analyzer struct {
	llm      driven.LLMService
	prompts  driven.PromptStore
	headings HeadingStrategy
}

// NewAnalyzer creates an analyzer. llm and prompts may be nil.
func NewAnalyzer(llm driven.LLMService, prompts driven.PromptStore, headings HeadingStrategy) *Analyzer {
	if len(headings.Markers) == 0 {
		headings = DefaultHeadingStrategy()
	}
	return &Analyzer{llm: llm, prompts: prompts, headings: headings}
}

// Headings returns the heading strategy used by the rule-based outline.
func (a *Analyzer) Headings() HeadingStrategy {
	return a.headings
}

// Analyze produces the structured analysis of text. It never fails; LLM and
// parse errors are reported through FellBack and Warning.
func (a *Analyzer) Analyze(ctx context.Context, text string) AnalysisResult {
	content := truncateWithSuffix(text, analysisInputLimit, analysisTruncationNotice)

	response, err := a.generate(ctx, driven.PromptDocumentAnalysis, analysisTemperature, content)
	if err != nil {
		return AnalysisResult{
			Analysis: FallbackAnalysis(text),
			FellBack: true,
			Warning:  fmt.Sprintf("AI analysis failed, using basic summary: %v", err),
		}
	}

	analysis, err := ParseAnalysis(ExtractJSON(response))
	if err != nil {
		logger.Debug("analysis response preview: %q", truncateRunes(response, 200))
		return AnalysisResult{
			Analysis: FallbackAnalysis(text),
			FellBack: true,
			Warning:  fmt.Sprintf("AI analysis could not be parsed, using basic summary: %v", err),
		}
	}
	return AnalysisResult{Analysis: analysis}
}

// ExtractSections produces the outline of text. It never fails; when the LLM
// cannot supply a usable outline the rule-based one is returned.
func (a *Analyzer) ExtractSections(ctx context.Context, text string) SectionsResult {
	content := truncateWithSuffix(text, sectionsInputLimit, "...")

	fallback := func(reason string) SectionsResult {
		return SectionsResult{
			Sections: RuleSections(text, a.headings),
			FellBack: true,
			Warning:  "AI section extraction failed, using rule-based outline: " + reason,
		}
	}

	response, err := a.generate(ctx, driven.PromptSectionExtraction, sectionsTemperature, content)
	if err != nil {
		return fallback(err.Error())
	}

	sections, err := ParseSections(ExtractJSON(response))
	if err != nil {
		return fallback(err.Error())
	}
	if len(sections) == 0 {
		return fallback("no sections returned")
	}
	return SectionsResult{Sections: sections}
}

func (a *Analyzer) generate(ctx context.Context, promptName string, temperature float64, content string) (string, error) {
	if a.llm == nil {
		return "", domain.ErrLLMUnavailable
	}
	prompt := fmt.Sprintf(a.loadPrompt(promptName), content)

	response, err := a.llm.Generate(ctx, prompt, driven.GenerateOptions{Temperature: temperature})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}
	if strings.TrimSpace(response) == "" {
		return "", fmt.Errorf("%w: empty response", domain.ErrGeneration)
	}
	return response, nil
}

func (a *Analyzer) loadPrompt(name string) string {
	if a.prompts != nil {
		if p, err := a.prompts.Load(name); err == nil && p != "" {
			return p
		}
	}
	return driven.DefaultPrompt(name)
}

// ExtractJSON returns the body of the first ```json fenced block in response,
// or the trimmed response when there is none.
func ExtractJSON(response string) string {
	if m := fencedJSON.FindStringSubmatch(response); m != nil {
		return m[1]
	}
	return strings.TrimSpace(response)
}

// analysisPayload mirrors DocumentAnalysis for decoding. Reading time is
// often returned as a bare number, so it accepts both forms.
type analysisPayload struct {
	OneSentenceSummary   string              `json:"one_sentence_summary"`
	Summary              string              `json:"summary"`
	KeyPoints            []string            `json:"key_points"`
	KeyConcepts          []domain.KeyConcept `json:"key_concepts"`
	DocumentType         string              `json:"document_type"`
	DifficultyLevel      string              `json:"difficulty_level"`
	TargetAudience       string              `json:"target_audience"`
	LearningSuggestions  []string            `json:"learning_suggestions"`
	EstimatedReadingTime flexString          `json:"estimated_reading_time"`
	CommonQuestions      []string            `json:"common_questions"`
}

// flexString decodes a JSON string or number into a string.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = flexString(n.String())
	return nil
}

// ParseAnalysis decodes an analysis payload. The body must be a JSON object
// whose known keys have the expected types; missing keys become empty values.
func ParseAnalysis(body string) (domain.DocumentAnalysis, error) {
	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, "{") {
		return domain.DocumentAnalysis{}, fmt.Errorf("%w: expected a JSON object", domain.ErrAnalysisParse)
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return domain.DocumentAnalysis{}, fmt.Errorf("%w: %w", domain.ErrAnalysisParse, err)
	}

	analysis := domain.DocumentAnalysis{
		OneSentenceSummary:   payload.OneSentenceSummary,
		Summary:              payload.Summary,
		KeyPoints:            payload.KeyPoints,
		KeyConcepts:          payload.KeyConcepts,
		DocumentType:         payload.DocumentType,
		DifficultyLevel:      payload.DifficultyLevel,
		TargetAudience:       payload.TargetAudience,
		LearningSuggestions:  payload.LearningSuggestions,
		EstimatedReadingTime: string(payload.EstimatedReadingTime),
		CommonQuestions:      payload.CommonQuestions,
	}
	analysis.Normalise()
	return analysis, nil
}

// FallbackAnalysis builds the analysis used when the LLM cannot provide one:
// the first 300 characters as summary and every other field empty.
func FallbackAnalysis(text string) domain.DocumentAnalysis {
	analysis := domain.DocumentAnalysis{
		Summary: truncateWithSuffix(text, fallbackSummaryLimit, "..."),
	}
	analysis.Normalise()
	return analysis
}

type sectionPayload struct {
	Title   string          `json:"title"`
	Level   json.RawMessage `json:"level"`
	Summary string          `json:"summary"`
}

// ParseSections decodes a JSON array of {title, level, summary} into sections
// in array order. Items without a title are dropped; the remaining sections
// get dense OrderIndex values. Missing or non-positive levels become 1.
func ParseSections(body string) ([]domain.Section, error) {
	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, "[") {
		return nil, fmt.Errorf("%w: expected a JSON array", domain.ErrAnalysisParse)
	}

	var items []sectionPayload
	if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAnalysisParse, err)
	}

	sections := make([]domain.Section, 0, len(items))
	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		sections = append(sections, domain.Section{
			Title:      truncateRunes(title, sectionTitleLimit),
			Content:    item.Summary,
			Level:      parseLevel(item.Level),
			OrderIndex: len(sections),
		})
	}
	return sections, nil
}

func parseLevel(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 1
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil && n >= 1 {
		return int(n)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && v >= 1 {
			return v
		}
	}
	return 1
}

// RuleSections builds an outline without the LLM. The first section covers
// the whole document; each heading line then becomes a level 2 section whose
// content is the non-blank lines that follow it, up to the next heading or
// the end of a 50 line window.
func RuleSections(text string, headings HeadingStrategy) []domain.Section {
	sections := []domain.Section{{
		Title:      OverviewSectionTitle,
		Content:    truncateWithSuffix(text, overviewLimit, "..."),
		Level:      1,
		OrderIndex: 0,
	}}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if !headings.IsHeading(line) {
			continue
		}
		sections = append(sections, domain.Section{
			Title:      truncateRunes(line, sectionTitleLimit),
			Content:    truncateRunes(sectionBody(lines, i, headings), sectionContentLimit),
			Level:      2,
			OrderIndex: len(sections),
		})
	}
	return sections
}

// sectionBody collects the lines after lines[start] inside the window.
func sectionBody(lines []string, start int, headings HeadingStrategy) string {
	end := start + sectionWindowLines
	if end > len(lines) {
		end = len(lines)
	}

	var body []string
	for i := start + 1; i < end; i++ {
		line := strings.TrimSpace(lines[i])
		if headings.IsHeading(line) {
			break
		}
		if line != "" {
			body = append(body, line)
		}
	}
	return strings.Join(body, "\n")
}
