package chromemdb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"policy-rag/internal/config"
	"policy-rag/internal/models"
)

// VectorDBManager encapsulates the chromem-go database operations
type VectorDBManager struct {
	db             *chromem.DB
	collection     *chromem.Collection
	collectionName string
	inMemory       bool
	compress       bool
	encryptionKey  string
	filePath       string
}

// NewVectorDBManager opens a persistent DB under cfg.Path, or an in-memory DB
// when cfg.InMemory is set. An in-memory DB with an encryption key is seeded
// from its last export, if one exists.
func NewVectorDBManager(cfg *config.ChromemConfig) (*VectorDBManager, error) {
	var db *chromem.DB
	var err error
	if cfg.InMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(cfg.Path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	m := &VectorDBManager{
		db:             db,
		collectionName: cfg.Collection,
		inMemory:       cfg.InMemory,
		compress:       cfg.Compress,
		encryptionKey:  cfg.EncryptionKey,
		filePath:       filepath.Join(cfg.Path, cfg.Collection+".chromem"),
	}

	if m.exportEnabled() {
		if _, err := os.Stat(m.filePath); err == nil {
			if err := m.Import(); err != nil {
				return nil, err
			}
		}
	}

	if _, err := m.getOrCreateCollection(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *VectorDBManager) getOrCreateCollection() (*chromem.Collection, error) {
	c, err := m.db.GetOrCreateCollection(m.collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}
	m.collection = c
	return c, nil
}

// Upsert writes all vectors, replacing any with the same id
func (m *VectorDBManager) Upsert(ctx context.Context, vectors []models.IndexedVector) error {
	if len(vectors) == 0 {
		return nil
	}

	docs := make([]chromem.Document, 0, len(vectors))
	for _, v := range vectors {
		docs = append(docs, chromem.Document{
			ID:        v.ID,
			Content:   v.Content,
			Embedding: v.Embedding,
			Metadata: map[string]string{
				models.MetadataKeyDocumentID: v.DocumentID,
				models.MetadataKeyPageNumber: strconv.Itoa(v.PageNumber),
				models.MetadataKeyChunkIndex: strconv.Itoa(v.ChunkIndex),
				models.MetadataKeyPreview:    v.Preview,
			},
		})
	}

	if err := m.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

// Query returns up to k matches ordered by ascending cosine distance
func (m *VectorDBManager) Query(ctx context.Context, embedding []float32, k int, filter models.Filter) ([]models.SearchMatch, error) {
	if len(embedding) == 0 {
		return nil, errors.New("query embedding is empty")
	}
	// chromem rejects k larger than the collection
	if count := m.collection.Count(); k > count {
		k = count
	}
	if k <= 0 {
		return nil, nil
	}

	results, err := m.collection.QueryEmbedding(ctx, embedding, k, whereClause(filter), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	matches := make([]models.SearchMatch, 0, len(results))
	for _, r := range results {
		distance := 1 - float64(r.Similarity)
		matches = append(matches, models.SearchMatch{
			Content:        r.Content,
			Metadata:       matchMetadata(r.Metadata),
			Distance:       distance,
			RelevanceScore: 1 - distance,
		})
	}
	return matches, nil
}

// Delete removes every vector matching filter. An empty filter is refused,
// use Reset to clear the collection.
func (m *VectorDBManager) Delete(ctx context.Context, filter models.Filter) error {
	if filter.IsEmpty() {
		return errors.New("delete requires a filter")
	}
	if err := m.collection.Delete(ctx, whereClause(filter), nil); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	return nil
}

// Reset drops the collection and recreates it empty
func (m *VectorDBManager) Reset(ctx context.Context) error {
	if err := m.db.DeleteCollection(m.collectionName); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	if _, err := m.getOrCreateCollection(); err != nil {
		return err
	}
	log.Info().Str("collection", m.collectionName).Msg("Vector collection reset")
	return nil
}

// Count returns the number of stored vectors
func (m *VectorDBManager) Count() int {
	return m.collection.Count()
}

// Export writes the collection to an encrypted snapshot file
func (m *VectorDBManager) Export() error {
	if m.encryptionKey == "" {
		return fmt.Errorf("encryption key is required")
	}
	if err := os.MkdirAll(filepath.Dir(m.filePath), 0o755); err != nil {
		return err
	}

	log.Debug().Str("collection", m.collectionName).Str("file", m.filePath).Bool("compress", m.compress).Msg("Exporting collection")
	if err := m.db.ExportToFile(m.filePath, m.compress, m.encryptionKey, m.collectionName); err != nil {
		return fmt.Errorf("failed to export database: %w", err)
	}
	return nil
}

// Import loads the collection from the snapshot written by Export
func (m *VectorDBManager) Import() error {
	log.Debug().Str("collection", m.collectionName).Str("file", m.filePath).Msg("Importing collection")
	if err := m.db.ImportFromFile(m.filePath, m.encryptionKey, m.collectionName); err != nil {
		return fmt.Errorf("failed to import database: %w", err)
	}
	return nil
}

// Close snapshots an in-memory DB when an encryption key is configured.
// Persistent DBs write through on every change and need nothing here.
func (m *VectorDBManager) Close() error {
	if !m.exportEnabled() {
		return nil
	}
	return m.Export()
}

func (m *VectorDBManager) exportEnabled() bool {
	return m.inMemory && m.encryptionKey != ""
}

func whereClause(filter models.Filter) map[string]string {
	if filter.IsEmpty() {
		return nil
	}
	return map[string]string{models.MetadataKeyDocumentID: filter.DocumentID}
}

func matchMetadata(md map[string]string) models.MatchMetadata {
	page, _ := strconv.Atoi(md[models.MetadataKeyPageNumber])
	chunk, _ := strconv.Atoi(md[models.MetadataKeyChunkIndex])
	return models.MatchMetadata{
		DocumentID: md[models.MetadataKeyDocumentID],
		PageNumber: page,
		ChunkIndex: chunk,
	}
}
