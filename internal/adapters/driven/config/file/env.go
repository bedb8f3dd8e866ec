package file

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read on every Load.
//
//nolint:gosec // G101: These are variable names, not credentials.
const (
	EnvLLMProvider       = "DOCSTUDY_LLM_PROVIDER"
	EnvLLMModel          = "DOCSTUDY_LLM_MODEL"
	EnvLLMBaseURL        = "DOCSTUDY_LLM_BASE_URL"
	EnvLLMAPIKey         = "DOCSTUDY_LLM_API_KEY"
	EnvEmbeddingProvider = "DOCSTUDY_EMBEDDING_PROVIDER"
	EnvEmbeddingModel    = "DOCSTUDY_EMBEDDING_MODEL"
	EnvChunkSize         = "DOCSTUDY_CHUNK_SIZE"
	EnvChunkOverlap      = "DOCSTUDY_CHUNK_OVERLAP"
	EnvWorkers           = "DOCSTUDY_WORKERS"
	EnvVectorDir         = "DOCSTUDY_VECTOR_DIR"
	EnvDeepSeekAPIKey    = "DEEPSEEK_API_KEY"
	EnvOpenAIAPIKey      = "OPENAI_API_KEY"
	EnvGeminiAPIKey      = "GEMINI_API_KEY"
)

// directEnv maps variables onto config keys one to one.
var directEnv = map[string]string{
	EnvLLMProvider:       "llm.provider",
	EnvLLMModel:          "llm.model",
	EnvLLMBaseURL:        "llm.base_url",
	EnvEmbeddingProvider: "embedding.provider",
	EnvEmbeddingModel:    "embedding.model",
	EnvChunkSize:         "ingest.chunk_size",
	EnvChunkOverlap:      "ingest.chunk_overlap",
	EnvWorkers:           "ingest.workers",
	EnvVectorDir:         "vector_store.dir",
}

// providerKeyEnv maps a provider to the vendor variable holding its key.
var providerKeyEnv = map[string]string{
	"deepseek": EnvDeepSeekAPIKey,
	"openai":   EnvOpenAIAPIKey,
	"gemini":   EnvGeminiAPIKey,
}

// LoadDotEnv loads variables from the given .env files without overriding
// variables already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// envOverrides builds the config values supplied by the environment. Vendor
// API keys apply to whichever section selects that vendor; the explicit
// DOCSTUDY_LLM_API_KEY wins over a vendor key.
func envOverrides(getenv func(string) string, file map[string]any) map[string]any {
	env := make(map[string]any)
	for name, key := range directEnv {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			env[key] = v
		}
	}

	provider := func(key string) string {
		if v, ok := env[key].(string); ok {
			return v
		}
		v, _ := file[key].(string)
		return v
	}

	if name, ok := providerKeyEnv[provider("llm.provider")]; ok {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			env["llm.api_key"] = v
		}
	}
	if v := strings.TrimSpace(getenv(EnvLLMAPIKey)); v != "" {
		env["llm.api_key"] = v
	}
	if name, ok := providerKeyEnv[provider("embedding.provider")]; ok {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			env["embedding.api_key"] = v
		}
	}
	return env
}
