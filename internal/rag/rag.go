package rag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"policy-rag/internal/chunker"
	"policy-rag/internal/config"
	"policy-rag/internal/helper"
	"policy-rag/internal/llmservice"
	"policy-rag/internal/metrics"
	"policy-rag/internal/models"
	"policy-rag/internal/parser"
	"policy-rag/internal/registry"
	"policy-rag/internal/storage"
)

// RAG ties ingestion and question answering over one vector store.
// Ingestion, queries and deletes share a read lock; Reset takes the write
// lock so it never interleaves with them.
type RAG struct {
	mu sync.RWMutex

	cfg         config.RAGConfig
	store       VectorStore
	indexer     *Indexer
	retriever   *Retriever
	synthesizer *Synthesizer

	parser      *parser.Parser
	files       storage.FileStore
	registry    *registry.Registry
	metrics     *metrics.Metrics
	maxFileSize int64
}

type Option func(*RAG)

func WithParser(p *parser.Parser) Option {
	return func(r *RAG) { r.parser = p }
}

// WithFileStore keeps the raw upload of every ingested document
func WithFileStore(fs storage.FileStore) Option {
	return func(r *RAG) { r.files = fs }
}

func WithRegistry(reg *registry.Registry) Option {
	return func(r *RAG) { r.registry = reg }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *RAG) { r.metrics = m }
}

// WithMaxFileSize rejects uploads larger than n bytes. Zero means no limit.
func WithMaxFileSize(n int64) Option {
	return func(r *RAG) { r.maxFileSize = n }
}

// NewRAG builds the pipeline. Zero-valued knobs in cfg take their defaults;
// an overlap that is not smaller than the chunk size is rejected.
func NewRAG(cfg *config.RAGConfig, store VectorStore, embedder embeddings.Embedder, generator llmservice.Generator, tokenizer chunker.Tokenizer, opts ...Option) (*RAG, error) {
	c := *cfg
	c.ApplyDefaults()

	ch, err := chunker.NewChunker(tokenizer, c.ChunkSize, c.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	r := &RAG{
		cfg:      c,
		store:    store,
		parser:   parser.NewParser([]string{"pdf"}),
		registry: registry.New(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.indexer = NewIndexer(ch, embedder, store, c.PreviewLength)
	r.retriever = NewRetriever(embedder, store, c.RelevanceThreshold)
	r.synthesizer = NewSynthesizer(generator, c.MaxTokens, c.Temperature, r.metrics)
	return r, nil
}

// Query answers req.Question from the indexed documents.
// Search or embedding failures are returned; generation failures are not.
func (r *RAG) Query(ctx context.Context, req models.QueryRequest) (*models.QueryResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	start := time.Now()
	documentID := r.resolveDocumentID(req.DocumentID)

	matches, err := r.retriever.Search(ctx, req.Question, documentID, r.cfg.TopK)
	if err != nil {
		r.metrics.QueryDone(metrics.OutcomeFailed, time.Since(start))
		return nil, err
	}

	if len(matches) == 0 {
		elapsed := time.Since(start)
		r.metrics.QueryDone(metrics.OutcomeNoResults, elapsed)
		return &models.QueryResponse{
			Answer:          models.NoResultsAnswer,
			Citations:       []models.Citation{},
			ConfidenceScore: 0,
			ProcessingTime:  elapsed.Seconds(),
		}, nil
	}

	answer := r.synthesizer.Answer(ctx, req.Question, matches)

	citations := []models.Citation{}
	if req.IncludeCitations {
		citations = BuildCitations(matches, r.citationLimit(req.MaxCitations), r.cfg.CitationLength)
	}

	elapsed := time.Since(start)
	r.metrics.QueryDone(metrics.OutcomeAnswered, elapsed)
	return &models.QueryResponse{
		Answer:          answer,
		Citations:       citations,
		ConfidenceScore: Confidence(matches),
		ProcessingTime:  elapsed.Seconds(),
	}, nil
}

// citationLimit caps the per-request limit by the configured one.
// A request value <= 0 means the configured limit.
func (r *RAG) citationLimit(requested int) int {
	if requested <= 0 || requested > r.cfg.MaxCitations {
		return r.cfg.MaxCitations
	}
	return requested
}

// Ingest extracts, indexes and registers one uploaded document. On any
// failure the stored upload is removed and nothing stays indexed.
func (r *RAG) Ingest(ctx context.Context, filename string, data []byte) (*models.DocumentInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	filename = filepath.Base(filename)
	if !r.parser.Supports(filename) {
		return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedFile, filepath.Ext(filename))
	}
	if r.maxFileSize > 0 && int64(len(data)) > r.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", models.ErrFileTooLarge, len(data), r.maxFileSize)
	}

	documentID, err := helper.GenerateUUID()
	if err != nil {
		return nil, err
	}
	storageKey := documentID + "_" + filename

	if r.files != nil {
		if err := r.files.Save(ctx, storageKey, data); err != nil {
			return nil, fmt.Errorf("failed to store upload: %w", err)
		}
	}

	result, err := r.extractAndIndex(ctx, filename, data, documentID)
	if err != nil {
		r.discardUpload(ctx, storageKey)
		r.metrics.IngestionDone(metrics.StatusFailed, 0)
		log.Error().Err(err).Str("file", filename).Msg("Ingestion failed")
		return nil, err
	}

	info := models.DocumentInfo{
		DocumentID:  documentID,
		Filename:    filename,
		UploadDate:  time.Now().UTC(),
		TotalPages:  result.TotalPages,
		TotalChunks: result.TotalChunks,
		Pages:       result.Pages,
		Status:      result.Status,
		StorageKey:  storageKey,
	}
	r.registry.Add(info)
	r.metrics.IngestionDone(metrics.StatusOK, result.TotalChunks)
	return &info, nil
}

func (r *RAG) extractAndIndex(ctx context.Context, filename string, data []byte, documentID string) (*models.IndexResult, error) {
	pages, err := r.parser.Extract(filename, data)
	if err != nil {
		return nil, err
	}
	return r.indexer.Index(ctx, pages, documentID)
}

// IngestFile reads the file at path and ingests it under its base name
func (r *RAG) IngestFile(ctx context.Context, path string) (*models.DocumentInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return r.Ingest(ctx, filepath.Base(path), data)
}

func (r *RAG) discardUpload(ctx context.Context, storageKey string) {
	if r.files == nil {
		return
	}
	if err := r.files.Remove(ctx, storageKey); err != nil {
		log.Warn().Err(err).Str("key", storageKey).Msg("Failed to remove stored upload")
	}
}

// DeleteDocument removes a document's vectors, registry entry and upload
func (r *RAG) DeleteDocument(ctx context.Context, idOrFilename string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.registry.ResolveID(idOrFilename)
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrDocumentNotFound, idOrFilename)
	}
	if err := r.store.Delete(ctx, models.Filter{DocumentID: id}); err != nil {
		return err
	}
	if info, ok := r.registry.Remove(id); ok {
		r.discardUpload(ctx, info.StorageKey)
	}
	log.Info().Str("document_id", id).Msg("Deleted document")
	return nil
}

func (r *RAG) Documents() []models.DocumentInfo {
	return r.registry.List()
}

func (r *RAG) Document(idOrFilename string) (models.DocumentInfo, error) {
	id, ok := r.registry.ResolveID(idOrFilename)
	if !ok {
		return models.DocumentInfo{}, fmt.Errorf("%w: %s", models.ErrDocumentNotFound, idOrFilename)
	}
	info, ok := r.registry.Get(id)
	if !ok {
		return models.DocumentInfo{}, fmt.Errorf("%w: %s", models.ErrDocumentNotFound, idOrFilename)
	}
	return info, nil
}

func (r *RAG) DocumentSummary(idOrFilename string) (models.DocumentSummary, error) {
	info, err := r.Document(idOrFilename)
	if err != nil {
		return models.DocumentSummary{}, err
	}
	return models.DocumentSummary{
		DocumentID:  info.DocumentID,
		TotalChunks: info.TotalChunks,
		TotalPages:  info.TotalPages,
		Pages:       info.Pages,
	}, nil
}

// ResolveDocumentID maps a document id or uploaded filename to the id used
// in the vector store. Unknown values are returned as given so a document
// indexed by another process can still be addressed by id.
func (r *RAG) ResolveDocumentID(idOrFilename string) string {
	return r.resolveDocumentID(idOrFilename)
}

func (r *RAG) resolveDocumentID(idOrFilename string) string {
	if idOrFilename == "" {
		return ""
	}
	if id, ok := r.registry.ResolveID(idOrFilename); ok {
		return id
	}
	return idOrFilename
}

// Reset clears every indexed vector, registered document and stored upload
func (r *RAG) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset vector store: %w", err)
	}
	removed := r.registry.Clear()
	for _, info := range removed {
		r.discardUpload(ctx, info.StorageKey)
	}
	log.Info().Int("documents", len(removed)).Msg("Index reset")
	return nil
}
