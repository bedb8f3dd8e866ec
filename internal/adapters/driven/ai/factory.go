// Package ai builds embedding and LLM adapters from settings.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/docstudy/internal/adapters/driven/embedding/gateway"
	geminiembed "github.com/custodia-labs/docstudy/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/custodia-labs/docstudy/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/docstudy/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/docstudy/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/docstudy/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/docstudy/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/docstudy/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/docstudy/internal/adapters/driven/llm/resilient"
	"github.com/custodia-labs/docstudy/internal/core/domain"
	"github.com/custodia-labs/docstudy/internal/core/ports/driven"
)

// pingTimeout bounds connectivity checks.
const pingTimeout = 5 * time.Second

// CreateEmbeddingService builds the raw embedding backend for settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderGemini:
		return geminiembed.NewEmbeddingService(ctx, geminiembed.Config{
			APIKey: settings.APIKey,
			Model:  settings.Model,
		})

	default:
		return nil, fmt.Errorf("%s does not support embeddings, use ollama, openai or gemini", settings.Provider)
	}
}

// NewEmbeddingGateway returns a gateway that builds its backend on first use.
// An unconfigured provider surfaces as ErrModelUnavailable on that first use.
func NewEmbeddingGateway(settings domain.EmbeddingSettings) *gateway.Gateway {
	load := func(ctx context.Context) (driven.EmbeddingService, error) {
		svc, err := CreateEmbeddingService(ctx, &settings)
		if err != nil {
			return nil, err
		}
		if svc == nil {
			return nil, fmt.Errorf("embedding provider not configured")
		}
		return svc, nil
	}
	return gateway.New(load, settings.Provider.String(), settings.Model)
}

// CreateLLMService builds the raw LLM backend for settings.
// Returns nil if the provider is not configured.
func CreateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderDeepSeek:
		return openaillm.NewDeepSeekService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderGemini:
		return geminillm.NewLLMService(ctx, geminillm.Config{
			APIKey: settings.APIKey,
			Model:  settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// NewLLMService builds the LLM backend wrapped in the circuit breaker and
// rate limiter. A nil service with a nil error means no LLM is configured
// and callers use their rule-based fallbacks.
func NewLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'docstudy settings set llm.provider <provider>' to fix",
			domain.ErrLLMUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}
	return resilient.New(svc, resilient.Config{RequestsPerMinute: settings.RequestsPerMinute}), nil
}

// ValidateEmbeddingConfig creates the backend and pings it.
func ValidateEmbeddingConfig(ctx context.Context, settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(ctx, settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateLLMConfig creates the backend and pings it.
func ValidateLLMConfig(ctx context.Context, settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(ctx, settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}
