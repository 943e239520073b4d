// Package pdftext implements the textextract port for PDF guidelines using
// ledongthuc/pdf.
package pdftext

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/stabledocs/regula/internal/extract"
)

// Extractor extracts per-page plain text from PDF bytes.
type Extractor struct{}

// New creates a PDF text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Pages extracts the plain text of every page. Pages that fail to parse are
// skipped: guideline PDFs occasionally contain image-only pages and a
// partial extraction still yields reviewable rules.
func (e *Extractor) Pages(ctx context.Context, data []byte) ([]extract.Page, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	numPages := reader.NumPage()
	pages := make([]extract.Page, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil || text == "" {
			continue
		}
		pages = append(pages, extract.Page{Number: i, Text: text})
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("no extractable text in %d-page pdf", numPages)
	}
	return pages, nil
}
