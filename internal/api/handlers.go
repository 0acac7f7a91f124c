package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"policy-rag/internal/models"
)

// Pipeline is the part of the RAG service the HTTP layer calls
type Pipeline interface {
	Query(ctx context.Context, req models.QueryRequest) (*models.QueryResponse, error)
	Ingest(ctx context.Context, filename string, data []byte) (*models.DocumentInfo, error)
	Documents() []models.DocumentInfo
	Document(idOrFilename string) (models.DocumentInfo, error)
	DocumentSummary(idOrFilename string) (models.DocumentSummary, error)
	DeleteDocument(ctx context.Context, idOrFilename string) error
	Reset(ctx context.Context) error
}

type API struct {
	pipeline       Pipeline
	maxUploadBytes int64
}

// NewAPI serves pipeline over HTTP. Uploads larger than maxUploadBytes are
// rejected before they are read; zero means no limit.
func NewAPI(pipeline Pipeline, maxUploadBytes int64) *API {
	return &API{pipeline: pipeline, maxUploadBytes: maxUploadBytes}
}

func (a *API) RootHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "Insurance policy document RAG API",
		"status":    "ok",
		"documents": len(a.pipeline.Documents()),
	})
}

// UploadHandler ingests the multipart field "file"
func (a *API) UploadHandler(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a file is required in the 'file' form field"})
		return
	}
	if a.maxUploadBytes > 0 && fh.Size > a.maxUploadBytes {
		a.writeError(c, fmt.Errorf("%w: %d bytes, limit %d", models.ErrFileTooLarge, fh.Size, a.maxUploadBytes))
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return
	}

	info, err := a.pipeline.Ingest(c.Request.Context(), fh.Filename, data)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"document_id":  info.DocumentID,
		"filename":     info.Filename,
		"status":       info.Status,
		"total_pages":  info.TotalPages,
		"total_chunks": info.TotalChunks,
		"message":      "Document processed successfully",
	})
}

// QueryHandler answers a question. document_id may be an id or an uploaded
// filename; a value matching neither is used as an exact id filter, so it
// yields the no-results answer rather than a search over every document.
func (a *API) QueryHandler(c *gin.Context) {
	req := models.NewQueryRequest("")
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	resp, err := a.pipeline.Query(c.Request.Context(), req)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (a *API) ListDocumentsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"documents": a.pipeline.Documents()})
}

func (a *API) GetDocumentHandler(c *gin.Context) {
	info, err := a.pipeline.Document(c.Param("id"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (a *API) DocumentSummaryHandler(c *gin.Context) {
	summary, err := a.pipeline.DocumentSummary(c.Param("id"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (a *API) DeleteDocumentHandler(c *gin.Context) {
	id := c.Param("id")
	if err := a.pipeline.DeleteDocument(c.Request.Context(), id); err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Document deleted", "document_id": id})
}

func (a *API) ResetHandler(c *gin.Context) {
	if err := a.pipeline.Reset(c.Request.Context()); err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All documents and indexed vectors cleared"})
}

func (a *API) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrUnsupportedFile),
		errors.Is(err, models.ErrFileTooLarge),
		errors.Is(err, models.ErrExtractionEmpty),
		errors.Is(err, models.ErrExtractionFailed):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrDocumentNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
