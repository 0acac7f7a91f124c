package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"policy-rag/internal/models"
)

// Extractor returns the ordered, non-empty pages of a document
type Extractor interface {
	Extract(data []byte) ([]models.PageText, error)
}

// Parser dispatches extraction by file extension over an allow-list
type Parser struct {
	extractors map[string]Extractor
	allowed    map[string]bool
}

// NewParser builds a parser that only accepts the given extensions
// (with or without the leading dot, case-insensitive).
func NewParser(allowedExtensions []string) *Parser {
	p := &Parser{
		extractors: map[string]Extractor{
			".pdf":  &PDFExtractor{},
			".docx": &DOCXExtractor{},
			".pptx": &PPTXExtractor{},
			".xlsx": &SheetExtractor{},
			".md":   &MarkdownExtractor{},
			".txt":  &TextExtractor{},
		},
		allowed: make(map[string]bool),
	}
	for _, ext := range allowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		p.allowed[ext] = true
	}
	return p
}

// Supports reports whether filename has an allowed extension with a known extractor
func (p *Parser) Supports(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	_, ok := p.extractors[ext]
	return ok && p.allowed[ext]
}

// Extract parses data according to the extension of filename
func (p *Parser) Extract(filename string, data []byte) ([]models.PageText, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !p.Supports(filename) {
		return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedFile, ext)
	}

	pages, err := p.extractors[ext].Extract(data)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("file", filename).Int("pages", len(pages)).Msg("Extracted page text")
	return pages, nil
}

// ExtractFile reads and parses the file at filePath
func (p *Parser) ExtractFile(filePath string) ([]models.PageText, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return p.Extract(filePath, data)
}

// appendPage keeps only pages with visible text, trimmed
func appendPage(pages []models.PageText, text string, pageNumber int) []models.PageText {
	text = strings.TrimSpace(text)
	if text == "" {
		return pages
	}
	return append(pages, models.PageText{Text: text, PageNumber: pageNumber})
}

// withFallback runs primary and, if it fails, fallback. Both failing is an
// ExtractionFailed error carrying both causes.
func withFallback(kind string, primary, fallback func() ([]models.PageText, error)) ([]models.PageText, error) {
	pages, err := primary()
	if err == nil {
		return pages, nil
	}
	log.Warn().Err(err).Str("kind", kind).Msg("Primary extractor failed, trying fallback")

	pages, fbErr := fallback()
	if fbErr != nil {
		return nil, fmt.Errorf("%w: %s: primary: %v; fallback: %v", models.ErrExtractionFailed, kind, err, fbErr)
	}
	return pages, nil
}
