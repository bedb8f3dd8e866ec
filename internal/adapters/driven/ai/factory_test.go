package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docstudy/internal/adapters/driven/llm/resilient"
	"github.com/custodia-labs/docstudy/internal/core/domain"
)

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name        string
		settings    *domain.EmbeddingSettings
		wantNil     bool
		errContains string
	}{
		{name: "nil settings", settings: nil, wantNil: true},
		{name: "unconfigured", settings: &domain.EmbeddingSettings{}, wantNil: true},
		{
			name:     "ollama",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "nomic-embed-text"},
		},
		{
			name:     "openai",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, APIKey: "sk"},
		},
		{
			name:     "gemini",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderGemini, APIKey: "key"},
		},
		{
			name:        "openai without key is unconfigured",
			settings:    &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI},
			wantNil:     true,
			errContains: "",
		},
		{
			name:        "anthropic has no embeddings",
			settings:    &domain.EmbeddingSettings{Provider: domain.AIProviderAnthropic, APIKey: "key"},
			wantNil:     true,
			errContains: "anthropic does not support embeddings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(context.Background(), tt.settings)

			if tt.errContains != "" {
				assert.ErrorContains(t, err, tt.errContains)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			assert.NoError(t, svc.Close())
		})
	}
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name      string
		settings  *domain.LLMSettings
		wantNil   bool
		wantModel string
	}{
		{name: "nil settings", wantNil: true},
		{name: "unconfigured", settings: &domain.LLMSettings{}, wantNil: true},
		{
			name:      "ollama",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderOllama},
			wantModel: "llama3.2",
		},
		{
			name:      "openai",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "sk", Model: "gpt-4o"},
			wantModel: "gpt-4o",
		},
		{
			name:      "deepseek",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderDeepSeek, APIKey: "ds"},
			wantModel: "deepseek-chat",
		},
		{
			name:      "anthropic",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "key"},
			wantModel: "claude-3-5-sonnet-latest",
		},
		{
			name:      "gemini",
			settings:  &domain.LLMSettings{Provider: domain.AIProviderGemini, APIKey: "key"},
			wantModel: "gemini-1.5-flash",
		},
		{
			name:     "deepseek without key",
			settings: &domain.LLMSettings{Provider: domain.AIProviderDeepSeek},
			wantNil:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(context.Background(), tt.settings)

			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			assert.Equal(t, tt.wantModel, svc.ModelName())
			assert.NoError(t, svc.Close())
		})
	}
}

func TestNewLLMService_WrapsResilient(t *testing.T) {
	svc, err := NewLLMService(context.Background(), &domain.LLMSettings{
		Provider:          domain.AIProviderOllama,
		RequestsPerMinute: 30,
	})

	require.NoError(t, err)
	_, ok := svc.(*resilient.LLMService)
	assert.True(t, ok)
}

func TestNewLLMService_Unconfigured(t *testing.T) {
	svc, err := NewLLMService(context.Background(), &domain.LLMSettings{})

	require.NoError(t, err)
	assert.Nil(t, svc)
}

func TestNewEmbeddingGateway(t *testing.T) {
	t.Run("unconfigured fails on first use", func(t *testing.T) {
		g := NewEmbeddingGateway(domain.EmbeddingSettings{})

		err := g.EnsureReady(context.Background())

		assert.ErrorIs(t, err, domain.ErrModelUnavailable)
		assert.ErrorContains(t, err, "not configured")
	})

	t.Run("ollama backend loads lazily", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/tags":
				_, _ = w.Write([]byte(`{"models":[]}`))
			case "/api/embed":
				_, _ = w.Write([]byte(`{"embeddings":[[0.1,0.2,0.3]]}`))
			}
		}))
		defer server.Close()

		g := NewEmbeddingGateway(domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama,
			BaseURL:  server.URL,
			Model:    "tiny-embed",
		})

		dim, err := g.Dimension(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 3, dim)
	})
}

func TestValidateLLMConfig(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	ok := &domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: server.URL}
	bad := &domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: "http://127.0.0.1:1"}

	assert.NoError(t, ValidateLLMConfig(context.Background(), ok))
	assert.Error(t, ValidateLLMConfig(context.Background(), bad))
	assert.NoError(t, ValidateLLMConfig(context.Background(), nil))
}
