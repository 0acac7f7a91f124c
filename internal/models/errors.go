package models

import "errors"

var (
	// ErrExtractionEmpty means the document produced no usable page text
	ErrExtractionEmpty = errors.New("no text could be extracted from the document")
	// ErrExtractionFailed means both the primary and the fallback extractor failed
	ErrExtractionFailed     = errors.New("text extraction failed")
	ErrEmbeddingFailed      = errors.New("embedding failed")
	ErrGenerationFailed     = errors.New("generation failed")
	ErrQuotaExhausted       = errors.New("generation quota exhausted")
	ErrConfigurationInvalid = errors.New("invalid configuration")
	ErrDocumentNotFound     = errors.New("document not found")
	ErrUnsupportedFile      = errors.New("unsupported file format")
	ErrFileTooLarge         = errors.New("file size exceeds limit")
)
