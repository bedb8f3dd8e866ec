package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAIProvider_IsValid tests all valid and invalid providers
func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		provider AIProvider
		expected bool
	}{
		{"ollama is valid", AIProviderOllama, true},
		{"openai is valid", AIProviderOpenAI, true},
		{"anthropic is valid", AIProviderAnthropic, true},
		{"deepseek is valid", AIProviderDeepSeek, true},
		{"gemini is valid", AIProviderGemini, true},
		{"empty is invalid", AIProvider(""), false},
		{"unknown is invalid", AIProvider("cohere"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

// TestAIProvider_RequiresAPIKey tests which providers need keys
func TestAIProvider_RequiresAPIKey(t *testing.T) {
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.True(t, AIProviderAnthropic.RequiresAPIKey())
	assert.True(t, AIProviderDeepSeek.RequiresAPIKey())
	assert.True(t, AIProviderGemini.RequiresAPIKey())
	assert.False(t, AIProvider("nope").RequiresAPIKey())
}

// TestAIProvider_Description tests human readable names
func TestAIProvider_Description(t *testing.T) {
	for _, p := range AllLLMProviders() {
		assert.NotEqual(t, unknownDescription, p.Description(), p.String())
	}
	assert.Equal(t, unknownDescription, AIProvider("x").Description())
}

// TestEmbeddingSettings_IsConfigured tests embedding configuration checks
func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		expected bool
	}{
		{"empty", EmbeddingSettings{}, false},
		{"ollama without key", EmbeddingSettings{Provider: AIProviderOllama}, true},
		{"openai without key", EmbeddingSettings{Provider: AIProviderOpenAI}, false},
		{"openai with key", EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "sk"}, true},
		{"gemini with key", EmbeddingSettings{Provider: AIProviderGemini, APIKey: "g"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

// TestLLMSettings_IsConfigured tests LLM configuration checks
func TestLLMSettings_IsConfigured(t *testing.T) {
	assert.False(t, LLMSettings{}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderDeepSeek}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderDeepSeek, APIKey: "k"}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderOllama}.IsConfigured())
}

// TestDefaultAppSettings tests the default ingest configuration
func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.False(t, s.Embedding.IsConfigured())
	assert.False(t, s.LLM.IsConfigured())
	assert.Equal(t, 500, s.Ingest.ChunkSize)
	assert.Equal(t, 50, s.Ingest.ChunkOverlap)
	assert.Equal(t, 10, s.Ingest.MinTextLength)
	assert.Positive(t, s.Ingest.Workers)
	assert.Empty(t, s.Ingest.HeadingMarkers)
}

// TestDefaultModels tests every provider has a default model
func TestDefaultModels(t *testing.T) {
	llm := DefaultLLMModels()
	for _, p := range AllLLMProviders() {
		assert.NotEmpty(t, llm[p], p.String())
	}
	assert.Equal(t, "deepseek-chat", llm[AIProviderDeepSeek])

	emb := DefaultEmbeddingModels()
	dims := EmbeddingDimensions()
	for _, p := range AllEmbeddingProviders() {
		model := emb[p]
		require.NotEmpty(t, model, p.String())
		assert.Positive(t, dims[model], model)
	}
}

// TestPipelineConfigFor tests the chunking pipeline is built from settings
func TestPipelineConfigFor(t *testing.T) {
	cfg := PipelineConfigFor(IngestSettings{ChunkSize: 800, ChunkOverlap: 0})

	assert.Equal(t, []string{"chunker", "section_linker"}, cfg.Processors)
	chunker := cfg.GetProcessorConfig("chunker")
	require.NotNil(t, chunker)
	assert.Equal(t, 800, chunker["chunk_size"])
	assert.Equal(t, 0, chunker["overlap"])
	assert.Nil(t, cfg.GetProcessorConfig("section_linker"))

	var empty PipelineConfig
	assert.Nil(t, empty.GetProcessorConfig("chunker"))
}

// TestDefaultPipelineConfig tests defaults flow into the pipeline config
func TestDefaultPipelineConfig(t *testing.T) {
	cfg := DefaultPipelineConfig()
	assert.Equal(t, DefaultChunkSize, cfg.GetProcessorConfig("chunker")["chunk_size"])
	assert.Equal(t, DefaultChunkOverlap, cfg.GetProcessorConfig("chunker")["overlap"])
}
