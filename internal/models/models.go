package models

import "time"

// PageText is the extracted text of a single non-empty page
type PageText struct {
	Text       string
	PageNumber int
}

// ChunkMetadata records the token window a chunk was cut from
type ChunkMetadata struct {
	StartToken int `json:"start_token"`
	EndToken   int `json:"end_token"`
	TokenCount int `json:"token_count"`
}

// Chunk represents a parsed chunk with metadata
type Chunk struct {
	Content    string        `json:"content"`
	PageNumber int           `json:"page_number"`
	ChunkIndex int           `json:"chunk_index"`
	Metadata   ChunkMetadata `json:"metadata"`
}

// IndexedVector is one chunk ready to be written to a vector store.
// ID is "{document_id}_{sequence}" where sequence runs across all pages.
type IndexedVector struct {
	ID         string
	Embedding  []float32
	Content    string
	DocumentID string
	PageNumber int
	ChunkIndex int
	Preview    string
}

// MatchMetadata identifies where a search match came from
type MatchMetadata struct {
	DocumentID string `json:"document_id"`
	PageNumber int    `json:"page_number"`
	ChunkIndex int    `json:"chunk_index"`
}

// SearchMatch is a single nearest-neighbour hit. Distance is cosine distance
// and RelevanceScore is 1 - Distance.
type SearchMatch struct {
	Content        string        `json:"content"`
	Metadata       MatchMetadata `json:"metadata"`
	Distance       float64       `json:"distance"`
	RelevanceScore float64       `json:"relevance_score"`
}

// Filter restricts a vector store operation by metadata. The zero value matches everything.
type Filter struct {
	DocumentID string
}

func (f Filter) IsEmpty() bool {
	return f.DocumentID == ""
}

type Citation struct {
	PageNumber     int     `json:"page_number"`
	Section        string  `json:"section,omitempty"`
	Content        string  `json:"content"`
	RelevanceScore float64 `json:"relevance_score"`
}

type QueryRequest struct {
	Question         string `json:"question" binding:"required"`
	DocumentID       string `json:"document_id,omitempty"`
	IncludeCitations bool   `json:"include_citations"`
	MaxCitations     int    `json:"max_citations"`
}

// NewQueryRequest returns a request with citations enabled and the default citation limit
func NewQueryRequest(question string) QueryRequest {
	return QueryRequest{
		Question:         question,
		IncludeCitations: true,
		MaxCitations:     DefaultMaxCitations,
	}
}

type QueryResponse struct {
	Answer          string     `json:"answer"`
	Citations       []Citation `json:"citations"`
	ConfidenceScore float64    `json:"confidence_score"`
	ProcessingTime  float64    `json:"processing_time"`
}

// IndexResult summarizes a completed indexing run
type IndexResult struct {
	DocumentID  string `json:"document_id"`
	TotalPages  int    `json:"total_pages"`
	TotalChunks int    `json:"total_chunks"`
	Pages       []int  `json:"pages"`
	Status      string `json:"status"`
}

type DocumentInfo struct {
	DocumentID  string    `json:"document_id"`
	Filename    string    `json:"filename"`
	UploadDate  time.Time `json:"upload_date"`
	TotalPages  int       `json:"total_pages"`
	TotalChunks int       `json:"total_chunks"`
	Pages       []int     `json:"-"`
	Status      string    `json:"status"`
	StorageKey  string    `json:"-"`
}

type DocumentSummary struct {
	DocumentID  string `json:"document_id"`
	TotalChunks int    `json:"total_chunks"`
	TotalPages  int    `json:"total_pages"`
	Pages       []int  `json:"pages"`
}
