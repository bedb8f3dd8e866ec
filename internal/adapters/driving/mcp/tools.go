package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docstudy/internal/core/domain"
)

// IngestInput is the input schema for the ingest_document tool.
type IngestInput struct {
	Path  string `json:"path" jsonschema:"absolute path of a pdf, docx, doc, txt or md file"`
	Title string `json:"title,omitempty" jsonschema:"document title (default: derived from the file name)"`
}

// IngestOutput is the output schema for the ingest_document tool.
type IngestOutput struct {
	DocumentID   string `json:"document_id"`
	ProcessLogID string `json:"process_log_id"`
	Title        string `json:"title"`
	Status       string `json:"status"`
}

// ProgressInput is the input schema for the get_progress tool.
type ProgressInput struct {
	DocumentID string `json:"document_id" jsonschema:"the document to report on"`
}

// ProgressOutput is the output schema for the get_progress tool.
type ProgressOutput struct {
	Status         string            `json:"status"`
	Progress       float64           `json:"progress"`
	CurrentStep    string            `json:"current_step"`
	CompletedSteps int               `json:"completed_steps"`
	TotalSteps     int               `json:"total_steps"`
	ErrorMessage   string            `json:"error_message,omitempty"`
	Logs           []domain.LogEntry `json:"logs"`
}

// SearchDocumentInput is the input schema for the search_document tool.
type SearchDocumentInput struct {
	DocumentID string `json:"document_id" jsonschema:"the document to search"`
	Query      string `json:"query" jsonschema:"what to look for"`
	TopK       int    `json:"top_k,omitempty" jsonschema:"maximum number of chunks to return (default 5)"`
}

// SearchAllInput is the input schema for the search_all tool.
type SearchAllInput struct {
	Query string `json:"query" jsonschema:"what to look for"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"maximum number of chunks to return (default 5)"`
}

// SearchOutput is the output schema for both search tools.
type SearchOutput struct {
	Hits  []HitOutput `json:"hits"`
	Count int         `json:"count"`
}

// HitOutput is one retrieved chunk.
type HitOutput struct {
	ChunkID       string  `json:"chunk_id"`
	DocumentID    string  `json:"document_id"`
	DocumentTitle string  `json:"document_title,omitempty"`
	Content       string  `json:"content"`
	Distance      float64 `json:"distance"`
	Relevance     float64 `json:"relevance"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question   string `json:"question" jsonschema:"the question to answer from the documents"`
	DocumentID string `json:"document_id,omitempty" jsonschema:"restrict retrieval to one document"`
	TopK       int    `json:"top_k,omitempty" jsonschema:"number of chunks used as context (default 5)"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_document",
		Description: "Queue a local file for text extraction, analysis, chunking and embedding",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_progress",
		Description: "Report the processing progress and log of a document",
	}, s.handleProgress)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_document",
		Description: "Semantic search within one document",
	}, s.handleSearchDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_all",
		Description: "Semantic search across every ingested document",
	}, s.handleSearchAll)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the ingested documents, citing the chunks used",
	}, s.handleAsk)
}

func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	sub, err := s.ports.Ingest.Submit(ctx, input.Path, input.Title)
	if err != nil {
		return nil, IngestOutput{}, err
	}
	return nil, IngestOutput{
		DocumentID:   sub.Document.ID,
		ProcessLogID: sub.ProcessLogID,
		Title:        sub.Document.Title,
		Status:       string(sub.Document.Status),
	}, nil
}

func (s *Server) handleProgress(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ProgressInput,
) (*mcp.CallToolResult, ProgressOutput, error) {
	log, err := s.ports.Ingest.Progress(ctx, input.DocumentID)
	if err != nil {
		return nil, ProgressOutput{}, err
	}
	logs := log.Logs
	if logs == nil {
		logs = []domain.LogEntry{}
	}
	return nil, ProgressOutput{
		Status:         log.Status.String(),
		Progress:       log.Progress,
		CurrentStep:    log.CurrentStep,
		CompletedSteps: log.CompletedSteps,
		TotalSteps:     log.TotalSteps,
		ErrorMessage:   log.ErrorMessage,
		Logs:           logs,
	}, nil
}

func (s *Server) handleSearchDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchDocumentInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	hits, err := s.ports.Retrieval.Search(ctx, input.DocumentID, input.Query, input.TopK)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, toSearchOutput(hits), nil
}

func (s *Server) handleSearchAll(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchAllInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	hits, err := s.ports.Retrieval.SearchAll(ctx, input.Query, input.TopK)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, toSearchOutput(hits), nil
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, domain.Answer, error) {
	answer, err := s.ports.Retrieval.Ask(ctx, input.DocumentID, input.Question, input.TopK)
	if err != nil {
		return nil, domain.Answer{}, err
	}
	if answer.Sources == nil {
		answer.Sources = []domain.AnswerSource{}
	}
	return nil, *answer, nil
}

func toSearchOutput(hits []domain.RetrievalHit) SearchOutput {
	out := SearchOutput{
		Hits:  make([]HitOutput, len(hits)),
		Count: len(hits),
	}
	for i, h := range hits {
		out.Hits[i] = HitOutput{
			ChunkID:       h.ChunkID,
			DocumentID:    h.DocumentID,
			DocumentTitle: h.Metadata[domain.MetaDocumentTitle],
			Content:       h.Content,
			Distance:      h.Distance,
			Relevance:     h.Relevance(),
		}
	}
	return out
}
