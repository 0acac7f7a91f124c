package parser

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"

	"policy-rag/internal/models"
)

const defaultPageNumber = 1

var (
	wordTextRe  = regexp.MustCompile(`<w:t(?:\s[^>]*)?>([^<]*)</w:t>`)
	slideTextRe = regexp.MustCompile(`<a:t(?:\s[^>]*)?>([^<]*)</a:t>`)
	slideNameRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)
)

// DOCXExtractor returns the whole document as page 1, DOCX has no page numbers
type DOCXExtractor struct{}

func (e *DOCXExtractor) Extract(data []byte) ([]models.PageText, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: docx: %v", models.ErrExtractionFailed, err)
	}
	defer r.Close()

	content := extractTextFromXML(r.Editable().GetContent(), wordTextRe, "</w:p>")
	return appendPage(nil, content, defaultPageNumber), nil
}

// PPTXExtractor treats every slide as a page, numbered by its slide file
type PPTXExtractor struct{}

func (e *PPTXExtractor) Extract(data []byte) ([]models.PageText, error) {
	f, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: pptx: %v", models.ErrExtractionFailed, err)
	}

	type slide struct {
		number int
		text   string
	}
	var slides []slide
	for _, file := range f.File {
		m := slideNameRe.FindStringSubmatch(file.Name)
		if m == nil {
			continue
		}
		number, _ := strconv.Atoi(m[1])
		rc, err := file.Open()
		if err != nil {
			continue
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		slides = append(slides, slide{number: number, text: extractTextFromXML(string(raw), slideTextRe, "</a:p>")})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })

	var pages []models.PageText
	for _, s := range slides {
		pages = appendPage(pages, s.text, s.number)
	}
	return pages, nil
}

// SheetExtractor treats every worksheet as a page. excelize is tried first,
// tealeg/xlsx is the fallback for workbooks excelize refuses.
type SheetExtractor struct{}

func (e *SheetExtractor) Extract(data []byte) ([]models.PageText, error) {
	return withFallback("xlsx",
		func() ([]models.PageText, error) { return excelizeSheets(data) },
		func() ([]models.PageText, error) { return xlsxSheets(data) },
	)
}

func excelizeSheets(data []byte) ([]models.PageText, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages []models.PageText
	for i, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return nil, err
		}
		pages = appendPage(pages, sheetText(sheetName, rows), i+1)
	}
	return pages, nil
}

func xlsxSheets(data []byte) ([]models.PageText, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, err
	}

	var pages []models.PageText
	for i, sheet := range f.Sheets {
		rows := make([][]string, 0, len(sheet.Rows))
		for _, row := range sheet.Rows {
			cells := make([]string, 0, len(row.Cells))
			for _, cell := range row.Cells {
				cells = append(cells, cell.String())
			}
			rows = append(rows, cells)
		}
		pages = appendPage(pages, sheetText(sheet.Name, rows), i+1)
	}
	return pages, nil
}

func sheetText(name string, rows [][]string) string {
	var text strings.Builder
	hasCells := false
	text.WriteString(fmt.Sprintf("## Sheet: %s\n", name))
	for _, row := range rows {
		line := strings.TrimSpace(strings.Join(row, "\t"))
		if line == "" {
			continue
		}
		hasCells = true
		text.WriteString(line)
		text.WriteString("\n")
	}
	if !hasCells {
		return ""
	}
	return text.String()
}

// TextExtractor returns plain text files as a single page
type TextExtractor struct{}

func (e *TextExtractor) Extract(data []byte) ([]models.PageText, error) {
	return appendPage(nil, string(data), defaultPageNumber), nil
}

// extractTextFromXML collects the text runs matched by re, starting a new
// line at every paragraph end tag.
func extractTextFromXML(xmlContent string, re *regexp.Regexp, paragraphEnd string) string {
	var text strings.Builder
	for _, paragraph := range strings.Split(xmlContent, paragraphEnd) {
		var line strings.Builder
		for _, m := range re.FindAllStringSubmatch(paragraph, -1) {
			line.WriteString(html.UnescapeString(m[1]))
		}
		if strings.TrimSpace(line.String()) == "" {
			continue
		}
		text.WriteString(line.String())
		text.WriteString("\n")
	}
	return text.String()
}
