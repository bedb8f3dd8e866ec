package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docstudy/internal/core/domain"
)

const (
	uriScheme    = "docstudy://"
	mimeJSON     = "application/json"
	analysisPath = "/analysis"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "documents",
		Name:        "documents",
		Description: "Every ingested document with its status",
		MIMEType:    mimeJSON,
	}, s.handleDocumentsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}/analysis",
		Name:        "document-analysis",
		Description: "Structured analysis of a document: summary, key points, concepts and questions",
		MIMEType:    mimeJSON,
	}, s.handleAnalysisResource)
}

type documentInfo struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	FileType    string     `json:"file_type"`
	FileSize    int64      `json:"file_size"`
	Status      string     `json:"status"`
	UploadedAt  time.Time  `json:"uploaded_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Document == nil {
		return jsonResult(req.Params.URI, []documentInfo{})
	}

	docs, err := s.ports.Document.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	infos := make([]documentInfo, len(docs))
	for i := range docs {
		infos[i] = documentInfo{
			ID:          docs[i].ID,
			Title:       docs[i].Title,
			FileType:    docs[i].FileType,
			FileSize:    docs[i].FileSize,
			Status:      string(docs[i].Status),
			UploadedAt:  docs[i].UploadedAt,
			ProcessedAt: docs[i].ProcessedAt,
		}
	}
	return jsonResult(req.Params.URI, infos)
}

func (s *Server) handleAnalysisResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Document == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	docID := extractAnalysisDocumentID(req.Params.URI)
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	analysis, err := s.ports.Document.Analysis(ctx, docID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting analysis: %w", err)
	}
	return jsonResult(req.Params.URI, analysis)
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: mimeJSON,
			Text:     string(data),
		}},
	}, nil
}

// extractAnalysisDocumentID extracts the ID from docstudy://documents/{id}/analysis.
func extractAnalysisDocumentID(uri string) string {
	rest, ok := strings.CutPrefix(uri, uriScheme+"documents/")
	if !ok {
		return ""
	}
	id, ok := strings.CutSuffix(rest, analysisPath)
	if !ok || strings.Contains(id, "/") {
		return ""
	}
	return id
}
