package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"policy-rag/internal/api"
	"policy-rag/internal/chromemdb"
	"policy-rag/internal/chunker"
	"policy-rag/internal/config"
	"policy-rag/internal/db"
	"policy-rag/internal/embedding"
	"policy-rag/internal/helper"
	"policy-rag/internal/llmservice"
	"policy-rag/internal/metrics"
	"policy-rag/internal/models"
	"policy-rag/internal/parser"
	"policy-rag/internal/rag"
	"policy-rag/internal/storage"
)

const configFilePath = "./configs/config.yaml"

// store is the vector store plus the shutdown hook each backend needs
type store interface {
	rag.VectorStore
	io.Closer
}

func main() {
	configPath := flag.String("config", configFilePath, "Path to the yaml config")
	filePath := flag.String("file", "", "Path to a policy document to ingest")
	query := flag.String("query", "", "Question to answer")
	documentID := flag.String("document", "", "Restrict the query to a document id or filename")
	maxCitations := flag.Int("max-citations", models.DefaultMaxCitations, "Maximum number of citations to return")
	reset := flag.Bool("reset", false, "Clear every indexed document before anything else")
	serve := flag.Bool("serve", false, "Start the HTTP API")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		helper.SetupLogger("info")
		log.Fatal().Err(err).Msg("Error loading config")
	}
	helper.SetupLogger(cfg.Log.Level)
	log.Debug().Interface("config", cfg.RAG).Msg("Loaded config")

	if *filePath == "" && *query == "" && !*reset && !*serve {
		log.Fatal().Msg("Please provide a document using -file, a question using -query, -reset or -serve")
	}

	ctx := context.Background()
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	vectorStore, err := newVectorStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating vector store")
	}
	defer func() {
		if err := vectorStore.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing vector store")
		}
	}()

	pipeline, err := newPipeline(ctx, cfg, vectorStore, metrics.New(registry))
	if err != nil {
		log.Error().Err(err).Msg("Error building pipeline")
		return
	}

	if *reset {
		if err := pipeline.Reset(ctx); err != nil {
			log.Error().Err(err).Msg("Error resetting documents")
			return
		}
		log.Info().Msg("All documents cleared")
	}

	if *filePath != "" {
		ingestDocument(ctx, pipeline, *filePath)
	}

	if *query != "" {
		req := models.NewQueryRequest(*query)
		req.DocumentID = *documentID
		req.MaxCitations = *maxCitations
		answerQuestion(ctx, pipeline, req)
	}

	if *serve {
		runServer(cfg, pipeline, registry)
	}
}

func newVectorStore(ctx context.Context, cfg *config.Config) (store, error) {
	switch cfg.VectorStore.Type {
	case config.VectorStorePgvector:
		sqldb, err := db.ConnectDB(&cfg.Database)
		if err != nil {
			return nil, err
		}
		s := db.NewPgVectorStore(db.NewDB(sqldb, cfg.Database.Debug), cfg.Database.Dimensions)
		if err := s.Init(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	default:
		m, err := chromemdb.NewVectorDBManager(&cfg.Chromem)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

func newPipeline(ctx context.Context, cfg *config.Config, vectorStore rag.VectorStore, m *metrics.Metrics) (*rag.RAG, error) {
	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	generator, err := llmservice.NewGenerator(&cfg.InferenceLLM)
	if err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}
	tokenizer, err := chunker.NewTokenizer(cfg.RAG.Tokenizer)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: %w", err)
	}
	files, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("upload storage: %w", err)
	}

	return rag.NewRAG(&cfg.RAG, vectorStore, embedder, generator, tokenizer,
		rag.WithParser(parser.NewParser(cfg.Upload.AllowedExtensions)),
		rag.WithFileStore(files),
		rag.WithMetrics(m),
		rag.WithMaxFileSize(int64(cfg.Upload.MaxFileSizeMB)<<20),
	)
}

func ingestDocument(ctx context.Context, pipeline *rag.RAG, filePath string) {
	start := time.Now()
	info, err := pipeline.IngestFile(ctx, filePath)
	if err != nil {
		log.Error().Err(err).Str("file", filePath).Msg("Error ingesting document")
		return
	}
	log.Info().
		Str("document_id", info.DocumentID).
		Int("pages", info.TotalPages).
		Int("chunks", info.TotalChunks).
		Dur("elapsed", time.Since(start)).
		Msg("Document processed")
	helper.PrettyPrint(info)
}

func answerQuestion(ctx context.Context, pipeline *rag.RAG, req models.QueryRequest) {
	resp, err := pipeline.Query(ctx, req)
	if err != nil {
		log.Error().Err(err).Msg("Error answering question")
		return
	}

	fmt.Println(resp.Answer)
	fmt.Println()
	for _, c := range resp.Citations {
		fmt.Printf("[page %d, relevance %.2f] %s\n", c.PageNumber, c.RelevanceScore, c.Content)
	}
	log.Info().
		Float64("confidence", resp.ConfidenceScore).
		Float64("processing_time", resp.ProcessingTime).
		Int("citations", len(resp.Citations)).
		Msg("Question answered")
}

func runServer(cfg *config.Config, pipeline *rag.RAG, gatherer prometheus.Gatherer) {
	maxUpload := int64(cfg.Upload.MaxFileSizeMB) << 20
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewRouter(api.NewAPI(pipeline, maxUpload), gatherer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	if err := serve(srv, quit); err != nil {
		log.Error().Err(err).Msg("HTTP server failed")
		return
	}
	log.Info().Msg("Server stopped")
}

// serve runs srv until a signal arrives on quit or the listener fails.
// It always returns to the caller so deferred cleanup still runs.
func serve(srv *http.Server, quit <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Starting HTTP server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	return nil
}
