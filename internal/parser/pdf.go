package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"policy-rag/internal/models"
)

// PDFExtractor reads page text with the content-stream plain text extractor
// and falls back to row-based extraction when that fails.
type PDFExtractor struct{}

func (e *PDFExtractor) Extract(data []byte) ([]models.PageText, error) {
	return withFallback("pdf",
		func() ([]models.PageText, error) { return extractPDF(data, plainPageText) },
		func() ([]models.PageText, error) { return extractPDF(data, rowPageText) },
	)
}

func extractPDF(data []byte, pageText func(pdf.Page) (string, error)) (pages []models.PageText, err error) {
	// the pdf package panics on some malformed content streams
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := pageText(page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = appendPage(pages, text, i)
	}
	return pages, nil
}

func plainPageText(page pdf.Page) (string, error) {
	return page.GetPlainText(nil)
}

func rowPageText(page pdf.Page) (string, error) {
	rows, err := page.GetTextByRow()
	if err != nil {
		return "", err
	}
	var text strings.Builder
	for _, row := range rows {
		for _, word := range row.Content {
			text.WriteString(word.S)
		}
		text.WriteString("\n")
	}
	return text.String(), nil
}
