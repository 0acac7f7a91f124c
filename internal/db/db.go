package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"policy-rag/internal/config"
	"policy-rag/internal/models"
)

const DriverLibPQ = "postgres"

type chunkRow struct {
	bun.BaseModel `bun:"table:document_chunks,alias:dc"`
	ID            string          `bun:"id,pk"`
	DocumentID    string          `bun:"document_id,notnull"`
	PageNumber    int             `bun:"page_number,notnull"`
	ChunkIndex    int             `bun:"chunk_index,notnull"`
	Content       string          `bun:"content,notnull"`
	Preview       string          `bun:"preview"`
	Embedding     pgvector.Vector `bun:"embedding,notnull"`
	Distance      float64         `bun:"distance,scanonly"`
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// ConnectDB opens the database with lib/pq when the driver is "postgres"
// and with bun's pgdriver otherwise.
func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	if cfg.Driver == DriverLibPQ {
		return sql.Open(DriverLibPQ, cfg.DSN)
	}
	opts := []pgdriver.Option{pgdriver.WithDSN(cfg.DSN)}
	if cfg.Password != "" {
		opts = append(opts, pgdriver.WithPassword(cfg.Password))
	}
	return sql.OpenDB(pgdriver.NewConnector(opts...)), nil
}

// PgVectorStore keeps chunk vectors in a pgvector table and searches them
// by cosine distance.
type PgVectorStore struct {
	db         *bun.DB
	dimensions int
}

func NewPgVectorStore(db *bun.DB, dimensions int) *PgVectorStore {
	return &PgVectorStore{db: db, dimensions: dimensions}
}

// Init creates the vector extension, the chunk table and its document index
func (s *PgVectorStore) Init(ctx context.Context) error {
	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS document_chunks (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	page_number INTEGER NOT NULL,
	chunk_index INTEGER NOT NULL,
	content TEXT NOT NULL,
	preview TEXT,
	embedding vector(%d) NOT NULL
)`, s.dimensions),
		"CREATE INDEX IF NOT EXISTS document_chunks_document_id_idx ON document_chunks (document_id)",
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to init vector table: %w", err)
		}
	}
	return nil
}

func (s *PgVectorStore) Upsert(ctx context.Context, vectors []models.IndexedVector) error {
	if len(vectors) == 0 {
		return nil
	}

	rows := make([]chunkRow, 0, len(vectors))
	for _, v := range vectors {
		rows = append(rows, chunkRow{
			ID:         v.ID,
			DocumentID: v.DocumentID,
			PageNumber: v.PageNumber,
			ChunkIndex: v.ChunkIndex,
			Content:    v.Content,
			Preview:    v.Preview,
			Embedding:  pgvector.NewVector(v.Embedding),
		})
	}

	_, err := s.db.NewInsert().
		Model(&rows).
		On("CONFLICT (id) DO UPDATE").
		Set("document_id = EXCLUDED.document_id").
		Set("page_number = EXCLUDED.page_number").
		Set("chunk_index = EXCLUDED.chunk_index").
		Set("content = EXCLUDED.content").
		Set("preview = EXCLUDED.preview").
		Set("embedding = EXCLUDED.embedding").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert chunks: %w", err)
	}
	return nil
}

// Query returns up to k rows ordered by ascending cosine distance (<=>)
func (s *PgVectorStore) Query(ctx context.Context, embedding []float32, k int, filter models.Filter) ([]models.SearchMatch, error) {
	if len(embedding) == 0 {
		return nil, errors.New("query embedding is empty")
	}
	if k <= 0 {
		return nil, nil
	}

	vec := pgvector.NewVector(embedding)
	var rows []chunkRow
	q := s.db.NewSelect().
		Model(&rows).
		Column("id", "document_id", "page_number", "chunk_index", "content").
		ColumnExpr("embedding <=> ? AS distance", vec)
	if !filter.IsEmpty() {
		q = q.Where("document_id = ?", filter.DocumentID)
	}
	err := q.OrderExpr("embedding <=> ?", vec).Limit(k).Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	matches := make([]models.SearchMatch, 0, len(rows))
	for _, r := range rows {
		matches = append(matches, models.SearchMatch{
			Content: r.Content,
			Metadata: models.MatchMetadata{
				DocumentID: r.DocumentID,
				PageNumber: r.PageNumber,
				ChunkIndex: r.ChunkIndex,
			},
			Distance:       r.Distance,
			RelevanceScore: 1 - r.Distance,
		})
	}
	return matches, nil
}

func (s *PgVectorStore) Delete(ctx context.Context, filter models.Filter) error {
	if filter.IsEmpty() {
		return errors.New("delete requires a filter")
	}
	res, err := s.db.NewDelete().
		Model((*chunkRow)(nil)).
		Where("document_id = ?", filter.DocumentID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		log.Debug().Str("document_id", filter.DocumentID).Int64("rows", n).Msg("Deleted chunks")
	}
	return nil
}

// Reset drops the chunk table and recreates it empty
func (s *PgVectorStore) Reset(ctx context.Context) error {
	if _, err := s.db.NewDropTable().Model((*chunkRow)(nil)).IfExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to drop chunk table: %w", err)
	}
	return s.Init(ctx)
}

func (s *PgVectorStore) Close() error {
	return s.db.Close()
}
