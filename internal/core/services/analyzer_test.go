package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docstudy/internal/core/domain"
	"github.com/custodia-labs/docstudy/internal/core/ports/driven"
)

// mockLLM answers Generate from a queue of responses.
type mockLLM struct {
	responses []string
	err       error
	prompts   []string
	opts      []driven.GenerateOptions
}

func (m *mockLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return "", nil
	}
	r := m.responses[0]
	m.responses = m.responses[1:]
	return r, nil
}

func (m *mockLLM) Chat(_ context.Context, _ []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	return "", errors.New("not implemented")
}

func (m *mockLLM) ModelName() string { return "mock-llm" }

func (m *mockLLM) Ping(_ context.Context) error { return m.err }

func (m *mockLLM) Close() error { return nil }

type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

const fullAnalysisJSON = `{
  "one_sentence_summary": "安全培训手册",
  "summary": "介绍工厂安全规范",
  "key_points": ["佩戴安全帽", "禁止吸烟"],
  "key_concepts": [{"term": "PPE", "definition": "个人防护装备"}],
  "document_type": "手册",
  "difficulty_level": "入门",
  "target_audience": "新员工",
  "learning_suggestions": ["先读第一章"],
  "estimated_reading_time": "15分钟",
  "common_questions": ["何时佩戴安全帽？"]
}`

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		expected string
	}{
		{"fenced", "结果如下：\n```json\n{\"a\":1}\n```\n谢谢", `{"a":1}`},
		{"fenced first block wins", "```json\n[1]\n```\n```json\n[2]\n```", "[1]"},
		{"bare", "  {\"a\":1}\n", `{"a":1}`},
		{"plain fence is not json fence", "```\n{}\n```", "```\n{}\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractJSON(tt.response))
		})
	}
}

func TestParseAnalysis(t *testing.T) {
	t.Run("full payload", func(t *testing.T) {
		a, err := ParseAnalysis(fullAnalysisJSON)
		require.NoError(t, err)
		assert.Equal(t, "安全培训手册", a.OneSentenceSummary)
		assert.Equal(t, []string{"佩戴安全帽", "禁止吸烟"}, a.KeyPoints)
		require.Len(t, a.KeyConcepts, 1)
		assert.Equal(t, "PPE", a.KeyConcepts[0].Term)
		assert.Equal(t, "15分钟", a.EstimatedReadingTime)
	})

	t.Run("missing keys become empty", func(t *testing.T) {
		a, err := ParseAnalysis(`{"summary": "only summary"}`)
		require.NoError(t, err)
		assert.Equal(t, "only summary", a.Summary)
		assert.NotNil(t, a.KeyPoints)
		assert.Empty(t, a.KeyPoints)
		assert.NotNil(t, a.CommonQuestions)
	})

	t.Run("numeric reading time", func(t *testing.T) {
		a, err := ParseAnalysis(`{"estimated_reading_time": 20}`)
		require.NoError(t, err)
		assert.Equal(t, "20", a.EstimatedReadingTime)
	})

	t.Run("array is rejected", func(t *testing.T) {
		_, err := ParseAnalysis(`[{"summary": "x"}]`)
		assert.ErrorIs(t, err, domain.ErrAnalysisParse)
	})

	t.Run("wrong field type is rejected", func(t *testing.T) {
		_, err := ParseAnalysis(`{"key_points": "not a list"}`)
		assert.ErrorIs(t, err, domain.ErrAnalysisParse)
	})

	t.Run("invalid json is rejected", func(t *testing.T) {
		_, err := ParseAnalysis(`{"summary": `)
		assert.ErrorIs(t, err, domain.ErrAnalysisParse)
	})
}

func TestFallbackAnalysis(t *testing.T) {
	short := FallbackAnalysis("短文本")
	assert.Equal(t, "短文本", short.Summary)
	assert.Empty(t, short.OneSentenceSummary)
	assert.NotNil(t, short.KeyPoints)

	long := FallbackAnalysis(strings.Repeat("字", 400))
	assert.Equal(t, strings.Repeat("字", 300)+"...", long.Summary)
}

func TestParseSections(t *testing.T) {
	t.Run("array order and dense indices", func(t *testing.T) {
		sections, err := ParseSections(`[
			{"title": "概述", "level": 1, "summary": "总体介绍"},
			{"title": "", "level": 2, "summary": "dropped"},
			{"title": "细则", "level": 2, "summary": "具体规定"}
		]`)
		require.NoError(t, err)
		require.Len(t, sections, 2)
		assert.Equal(t, "概述", sections[0].Title)
		assert.Equal(t, "总体介绍", sections[0].Content)
		assert.Equal(t, 0, sections[0].OrderIndex)
		assert.Equal(t, "细则", sections[1].Title)
		assert.Equal(t, 2, sections[1].Level)
		assert.Equal(t, 1, sections[1].OrderIndex)
	})

	t.Run("level defaults", func(t *testing.T) {
		sections, err := ParseSections(`[{"title": "a"}, {"title": "b", "level": 0}, {"title": "c", "level": "3"}]`)
		require.NoError(t, err)
		require.Len(t, sections, 3)
		assert.Equal(t, 1, sections[0].Level)
		assert.Equal(t, 1, sections[1].Level)
		assert.Equal(t, 3, sections[2].Level)
	})

	t.Run("long title truncated", func(t *testing.T) {
		sections, err := ParseSections(`[{"title": "` + strings.Repeat("标", 300) + `"}]`)
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("标", 255), sections[0].Title)
	})

	t.Run("object is rejected", func(t *testing.T) {
		_, err := ParseSections(`{"title": "x"}`)
		assert.ErrorIs(t, err, domain.ErrAnalysisParse)
	})
}

func TestRuleSections(t *testing.T) {
	text := "员工手册\n第一章 总则\n本手册适用于全体员工。\n\n所有员工必须遵守。\n第二章 安全\n进入车间须佩戴安全帽。"

	sections := RuleSections(text, DefaultHeadingStrategy())

	require.Len(t, sections, 3)
	assert.Equal(t, OverviewSectionTitle, sections[0].Title)
	assert.Equal(t, 1, sections[0].Level)
	assert.Equal(t, text, sections[0].Content)

	assert.Equal(t, "第一章 总则", sections[1].Title)
	assert.Equal(t, 2, sections[1].Level)
	assert.Equal(t, "本手册适用于全体员工。\n所有员工必须遵守。", sections[1].Content)
	assert.Equal(t, 1, sections[1].OrderIndex)

	assert.Equal(t, "第二章 安全", sections[2].Title)
	assert.Equal(t, "进入车间须佩戴安全帽。", sections[2].Content)
	assert.Equal(t, 2, sections[2].OrderIndex)
}

func TestRuleSections_NoHeadings(t *testing.T) {
	long := strings.Repeat("a", 600)

	sections := RuleSections(long, DefaultHeadingStrategy())

	require.Len(t, sections, 1)
	assert.Equal(t, strings.Repeat("a", 500)+"...", sections[0].Content)
}

func TestRuleSections_WindowLimit(t *testing.T) {
	lines := []string{"第一章"}
	for i := 0; i < 80; i++ {
		lines = append(lines, "x")
	}

	sections := RuleSections(strings.Join(lines, "\n"), DefaultHeadingStrategy())

	require.Len(t, sections, 2)
	assert.Equal(t, 49, strings.Count(sections[1].Content, "x"))
}

func TestAnalyzer_Analyze(t *testing.T) {
	t.Run("llm success", func(t *testing.T) {
		llm := &mockLLM{responses: []string{"```json\n" + fullAnalysisJSON + "\n```"}}
		a := NewAnalyzer(llm, nil, HeadingStrategy{})

		res := a.Analyze(context.Background(), "文档正文")

		assert.False(t, res.FellBack)
		assert.Empty(t, res.Warning)
		assert.Equal(t, "介绍工厂安全规范", res.Analysis.Summary)
		require.Len(t, llm.opts, 1)
		assert.InDelta(t, 0.3, llm.opts[0].Temperature, 1e-9)
		assert.Contains(t, llm.prompts[0], "文档正文")
	})

	t.Run("long input truncated with notice", func(t *testing.T) {
		llm := &mockLLM{responses: []string{fullAnalysisJSON}}
		a := NewAnalyzer(llm, nil, HeadingStrategy{})

		a.Analyze(context.Background(), strings.Repeat("文", 7000))

		assert.Contains(t, llm.prompts[0], analysisTruncationNotice)
		assert.NotContains(t, llm.prompts[0], strings.Repeat("文", 6001))
	})

	t.Run("unparseable response falls back", func(t *testing.T) {
		llm := &mockLLM{responses: []string{"抱歉，我无法分析"}}
		a := NewAnalyzer(llm, nil, HeadingStrategy{})

		res := a.Analyze(context.Background(), "正文内容")

		assert.True(t, res.FellBack)
		assert.NotEmpty(t, res.Warning)
		assert.Equal(t, "正文内容", res.Analysis.Summary)
	})

	t.Run("llm error falls back", func(t *testing.T) {
		a := NewAnalyzer(&mockLLM{err: errors.New("timeout")}, nil, HeadingStrategy{})

		res := a.Analyze(context.Background(), "正文内容")

		assert.True(t, res.FellBack)
		assert.Contains(t, res.Warning, "timeout")
	})

	t.Run("nil llm falls back", func(t *testing.T) {
		res := NewAnalyzer(nil, nil, HeadingStrategy{}).Analyze(context.Background(), "正文")
		assert.True(t, res.FellBack)
		assert.Contains(t, res.Warning, domain.ErrLLMUnavailable.Error())
	})
}

func TestAnalyzer_ExtractSections(t *testing.T) {
	text := "第一章 总则\n适用于全体员工。"

	t.Run("llm outline", func(t *testing.T) {
		llm := &mockLLM{responses: []string{`[{"title": "总则", "level": 1, "summary": "范围"}]`}}
		res := NewAnalyzer(llm, nil, HeadingStrategy{}).ExtractSections(context.Background(), text)

		assert.False(t, res.FellBack)
		require.Len(t, res.Sections, 1)
		assert.Equal(t, "总则", res.Sections[0].Title)
		assert.InDelta(t, 0.2, llm.opts[0].Temperature, 1e-9)
	})

	t.Run("empty array falls back to rules", func(t *testing.T) {
		llm := &mockLLM{responses: []string{"[]"}}
		res := NewAnalyzer(llm, nil, HeadingStrategy{}).ExtractSections(context.Background(), text)

		assert.True(t, res.FellBack)
		require.Len(t, res.Sections, 2)
		assert.Equal(t, OverviewSectionTitle, res.Sections[0].Title)
		assert.Equal(t, "第一章 总则", res.Sections[1].Title)
	})

	t.Run("object falls back to rules", func(t *testing.T) {
		llm := &mockLLM{responses: []string{`{"sections": []}`}}
		res := NewAnalyzer(llm, nil, HeadingStrategy{}).ExtractSections(context.Background(), text)
		assert.True(t, res.FellBack)
	})

	t.Run("custom markers", func(t *testing.T) {
		res := NewAnalyzer(nil, nil, HeadingStrategyFor([]string{"## "})).
			ExtractSections(context.Background(), "intro\n## Setup\nrun it\n## Usage\ncall it")

		require.Len(t, res.Sections, 3)
		assert.Equal(t, "## Setup", res.Sections[1].Title)
		assert.Equal(t, "run it", res.Sections[1].Content)
	})
}

func TestAnalyzer_PromptStoreOverride(t *testing.T) {
	llm := &mockLLM{responses: []string{fullAnalysisJSON}}
	store := &mockPromptStore{prompts: map[string]string{
		driven.PromptDocumentAnalysis: "CUSTOM %s",
	}}

	NewAnalyzer(llm, store, HeadingStrategy{}).Analyze(context.Background(), "body")

	assert.Equal(t, "CUSTOM body", llm.prompts[0])
}

func TestAnalyzer_PromptStoreMissingFallsBackToDefault(t *testing.T) {
	llm := &mockLLM{responses: []string{"[]"}}
	store := &mockPromptStore{prompts: map[string]string{}}

	NewAnalyzer(llm, store, HeadingStrategy{}).ExtractSections(context.Background(), "body")

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "body")
}

func TestHeadingStrategy(t *testing.T) {
	h := DefaultHeadingStrategy()

	assert.True(t, h.IsHeading("第一章 总则"))
	assert.True(t, h.IsHeading("  一、目的  "))
	assert.True(t, h.IsHeading("（二）适用范围"))
	assert.True(t, h.IsHeading("3. Scope"))
	assert.False(t, h.IsHeading(""))
	assert.False(t, h.IsHeading("普通句子"))
	assert.False(t, h.IsHeading("第"+strings.Repeat("长", 100)))

	custom := HeadingStrategyFor([]string{" ", "Chapter"})
	assert.Equal(t, HeadingStrategyCustom, custom.Version)
	assert.Equal(t, []string{"Chapter"}, custom.Markers)
	assert.Equal(t, HeadingStrategyV1, HeadingStrategyFor(nil).Version)
}
