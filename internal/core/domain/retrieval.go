package domain

// Metadata keys stored alongside every vector record.
const (
	MetaChunkIndex    = "chunk_index"
	MetaDocumentID    = "document_id"
	MetaDocumentTitle = "document_title"
	MetaSectionID     = "section_id"
)

// VectorRecord is a chunk prepared for the vector index.
type VectorRecord struct {
	// ID is the chunk ID.
	ID string

	// Content is the chunk text.
	Content string

	// Metadata holds string-valued attributes (see the Meta* keys).
	Metadata map[string]string
}

// RetrievalHit is one vector search result.
type RetrievalHit struct {
	// ChunkID is the ID of the matched chunk.
	ChunkID string

	// DocumentID is the document whose collection produced the hit.
	DocumentID string

	// Content is the chunk text.
	Content string

	// Metadata is the record metadata.
	Metadata map[string]string

	// Distance is the cosine distance to the query; lower is closer.
	Distance float64
}

// Relevance converts distance into a 0..1 style score.
func (h RetrievalHit) Relevance() float64 {
	return 1 - h.Distance
}

// AnswerSource is a retrieved chunk cited by an answer.
type AnswerSource struct {
	ChunkID        string  `json:"chunk_id"`
	Preview        string  `json:"content"`
	RelevanceScore float64 `json:"relevance_score"`
	DocumentID     string  `json:"document_id"`
	DocumentTitle  string  `json:"document_title"`
}

// Answer is a retrieval-augmented response to a question.
type Answer struct {
	Text      string         `json:"answer"`
	Sources   []AnswerSource `json:"sources"`
	HasAnswer bool           `json:"has_answer"`
}
