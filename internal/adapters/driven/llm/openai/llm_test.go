package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docstudy/internal/core/domain"
	"github.com/custodia-labs/docstudy/internal/core/ports/driven"
)

func newLLMTestServer(t *testing.T, status int, body string, check func(chatCompletionRequest)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk", r.Header.Get("Authorization"))
		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if check != nil {
			check(req)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewLLMService(t *testing.T) {
	t.Run("requires key", func(t *testing.T) {
		_, err := NewLLMService(LLMConfig{})
		assert.ErrorContains(t, err, "openai: API key is required")
	})

	t.Run("defaults", func(t *testing.T) {
		svc, err := NewLLMService(LLMConfig{APIKey: "sk"})
		require.NoError(t, err)
		assert.Equal(t, DefaultLLMModel, svc.ModelName())
		assert.Equal(t, DefaultBaseURL, svc.baseURL)
	})

	t.Run("deepseek", func(t *testing.T) {
		svc, err := NewDeepSeekService(LLMConfig{APIKey: "ds"})
		require.NoError(t, err)
		assert.Equal(t, "deepseek-chat", svc.ModelName())
		assert.Equal(t, DeepSeekBaseURL, svc.baseURL)

		_, err = NewDeepSeekService(LLMConfig{})
		assert.ErrorContains(t, err, "deepseek: API key is required")
	})
}

func TestLLMService_Generate(t *testing.T) {
	server := newLLMTestServer(t, http.StatusOK,
		`{"choices":[{"message":{"content":"[{\"title\":\"A\"}]"},"finish_reason":"stop"}]}`,
		func(req chatCompletionRequest) {
			assert.Equal(t, "gpt-4o-mini", req.Model)
			require.Len(t, req.Messages, 1)
			assert.Equal(t, "user", req.Messages[0].Role)
			assert.Equal(t, "split this", req.Messages[0].Content)
			assert.InDelta(t, 0.2, req.Temperature, 1e-9)
			assert.Equal(t, 256, req.MaxTokens)
		})

	svc, err := NewLLMService(LLMConfig{APIKey: "sk", BaseURL: server.URL})
	require.NoError(t, err)

	out, err := svc.Generate(context.Background(), "split this", driven.GenerateOptions{MaxTokens: 256, Temperature: 0.2})

	require.NoError(t, err)
	assert.Equal(t, `[{"title":"A"}]`, out)
}

func TestLLMService_Chat(t *testing.T) {
	server := newLLMTestServer(t, http.StatusOK, `{"choices":[{"message":{"content":"hi"}}]}`,
		func(req chatCompletionRequest) {
			require.Len(t, req.Messages, 2)
			assert.Equal(t, "system", req.Messages[0].Role)
		})
	svc, _ := NewLLMService(LLMConfig{APIKey: "sk", BaseURL: server.URL})

	out, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hello"},
	}, driven.ChatOptions{})

	require.NoError(t, err)
	assert.Equal(t, "hi", out)
}

func TestLLMService_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"api error", http.StatusBadRequest, `{"error":{"message":"context too long","type":"invalid"}}`, "context too long"},
		{"no choices", http.StatusOK, `{"choices":[]}`, "no response choices"},
		{"bad json", http.StatusBadGateway, `<html>`, "decode response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newLLMTestServer(t, tt.status, tt.body, nil)
			svc, _ := NewLLMService(LLMConfig{APIKey: "sk", BaseURL: server.URL})

			_, err := svc.Generate(context.Background(), "x", driven.GenerateOptions{})

			assert.ErrorContains(t, err, tt.want)
		})
	}

	t.Run("rate limited", func(t *testing.T) {
		server := newLLMTestServer(t, http.StatusTooManyRequests, `{}`, nil)
		svc, _ := NewDeepSeekService(LLMConfig{APIKey: "sk", BaseURL: server.URL})

		_, err := svc.Generate(context.Background(), "x", driven.GenerateOptions{})

		assert.ErrorIs(t, err, domain.ErrRateLimited)
		assert.ErrorContains(t, err, "deepseek")
	})
}

func TestLLMService_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer sk" {
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer server.Close()

	good, _ := NewLLMService(LLMConfig{APIKey: "sk", BaseURL: server.URL})
	bad, _ := NewLLMService(LLMConfig{APIKey: "nope", BaseURL: server.URL})

	assert.NoError(t, good.Ping(context.Background()))
	assert.ErrorContains(t, bad.Ping(context.Background()), "status 401")
	assert.NoError(t, good.Close())
}
