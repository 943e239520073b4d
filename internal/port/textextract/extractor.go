// Package textextract defines the port for extracting plain text pages from
// an uploaded guideline document.
package textextract

import (
	"context"

	"github.com/stabledocs/regula/internal/extract"
)

// Extractor turns document bytes into per-page plain text. Implementations
// exist per file format; the allocation pipeline itself only ever sees
// pages.
type Extractor interface {
	// Pages extracts per-page text from the document bytes.
	Pages(ctx context.Context, data []byte) ([]extract.Page, error)
}
