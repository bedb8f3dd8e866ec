package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/docstudy/internal/core/domain"
	"github.com/custodia-labs/docstudy/internal/core/ports/driven"
	"github.com/custodia-labs/docstudy/internal/core/ports/driving"
	"github.com/custodia-labs/docstudy/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

const (
	// DefaultTopK is the number of hits returned when none is requested.
	DefaultTopK = 5

	answerTemperature = 0.3
	sourcePreviewLen  = 200

	noAnswerDocument = "抱歉，我在文档中没有找到相关内容来回答您的问题。"
	noAnswerAll      = "抱歉，我在所有文档中没有找到相关内容来回答您的问题。请先上传相关文档。"
)

// RetrievalService answers searches and questions from the vector index.
type RetrievalService struct {
	gateway driven.EmbeddingGateway
	index   driven.VectorIndex
	llm     driven.LLMService
	prompts driven.PromptStore
}

// NewRetrievalService creates a retrieval service. llm and prompts may be
// nil; Ask then fails with domain.ErrLLMUnavailable.
func NewRetrievalService(
	gateway driven.EmbeddingGateway,
	index driven.VectorIndex,
	llm driven.LLMService,
	prompts driven.PromptStore,
) *RetrievalService {
	return &RetrievalService{gateway: gateway, index: index, llm: llm, prompts: prompts}
}

// Search returns the chunks of one document closest to query.
func (s *RetrievalService) Search(ctx context.Context, documentID, query string, topK int) ([]domain.RetrievalHit, error) {
	if documentID == "" {
		return nil, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	vec, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.index.Search(ctx, documentID, vec, normaliseTopK(topK))
}

// SearchAll returns the chunks closest to query across every document.
func (s *RetrievalService) SearchAll(ctx context.Context, query string, topK int) ([]domain.RetrievalHit, error) {
	vec, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.index.SearchAll(ctx, vec, normaliseTopK(topK))
}

// Ask answers question from the retrieved chunks. An empty documentID
// searches every document.
func (s *RetrievalService) Ask(ctx context.Context, documentID, question string, topK int) (*domain.Answer, error) {
	var (
		hits []domain.RetrievalHit
		err  error
	)
	if documentID != "" {
		hits, err = s.Search(ctx, documentID, question, topK)
	} else {
		hits, err = s.SearchAll(ctx, question, topK)
	}
	if err != nil {
		return nil, err
	}

	if len(hits) == 0 {
		text := noAnswerAll
		if documentID != "" {
			text = noAnswerDocument
		}
		return &domain.Answer{Text: text, Sources: []domain.AnswerSource{}, HasAnswer: false}, nil
	}

	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	prompt := fmt.Sprintf(s.loadPrompt(), BuildContext(hits), question)
	text, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{Temperature: answerTemperature})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}

	return &domain.Answer{
		Text:      strings.TrimSpace(text),
		Sources:   answerSources(hits),
		HasAnswer: true,
	}, nil
}

func (s *RetrievalService) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}
	if s.gateway == nil {
		return nil, domain.ErrModelUnavailable
	}
	if s.index == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	vec, err := s.gateway.EmbedOne(ctx, query)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyInput) {
			return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
		}
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return vec, nil
}

func (s *RetrievalService) loadPrompt() string {
	if s.prompts != nil {
		if p, err := s.prompts.Load(driven.PromptRAGAnswer); err == nil && p != "" {
			return p
		}
		logger.Debug("rag prompt not found, using default")
	}
	return driven.DefaultPrompt(driven.PromptRAGAnswer)
}

// BuildContext renders hits as numbered "[片段i]" blocks, starting at 1.
func BuildContext(hits []domain.RetrievalHit) string {
	var b strings.Builder
	for i, h := range hits {
		fmt.Fprintf(&b, "[片段%d]\n%s\n", i+1, h.Content)
		if i < len(hits)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func answerSources(hits []domain.RetrievalHit) []domain.AnswerSource {
	sources := make([]domain.AnswerSource, len(hits))
	for i, h := range hits {
		sources[i] = domain.AnswerSource{
			ChunkID:        h.ChunkID,
			Preview:        truncateWithSuffix(h.Content, sourcePreviewLen, "..."),
			RelevanceScore: h.Relevance(),
			DocumentID:     h.DocumentID,
			DocumentTitle:  h.Metadata[domain.MetaDocumentTitle],
		}
	}
	return sources
}

func normaliseTopK(topK int) int {
	if topK <= 0 {
		return DefaultTopK
	}
	return topK
}
