package loaders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"DocChat/backend/go/internal/rag_service/rag/errs"
	"DocChat/backend/go/internal/rag_service/rag/interfaces"

	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned for PDFs whose pages carry no extractable text (scans).
var ErrNoText = errors.New("pdf contains no extractable text")

// PdfLoader implements the Loader interface for PDF documents.
type PdfLoader struct{}

// NewPdfLoader creates a new PdfLoader.
func NewPdfLoader() *PdfLoader {
	return &PdfLoader{}
}

// Load reads every page of the PDF and joins the page texts with blank lines, so page
// boundaries survive normalization as paragraph breaks. Any failure is an ExtractionError.
//
// Extraction runs on its own goroutine so a cancelled ctx returns promptly even while
// the parser is stuck inside a single page. The goroutine finishes once r stops blocking.
func (l *PdfLoader) Load(ctx context.Context, r io.ReaderAt, size int64) (string, error) {
	if size <= 0 {
		return "", errs.E(errs.KindExtraction, "pdf.load", errors.New("empty pdf content"))
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := extractText(ctx, r, size)
		done <- result{text: text, err: err}
	}()

	select {
	case res := <-done:
		return res.text, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func extractText(ctx context.Context, r io.ReaderAt, size int64) (text string, err error) {
	// ledongthuc/pdf panics on some malformed cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", errs.E(errs.KindExtraction, "pdf.load", fmt.Errorf("malformed pdf: %v", rec))
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", errs.E(errs.KindExtraction, "pdf.load", fmt.Errorf("open pdf: %w", err))
	}

	var sb strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", errs.E(errs.KindExtraction, "pdf.load", fmt.Errorf("page %d: %w", i, err))
		}
		pageText = strings.TrimSpace(pageText)
		if pageText == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(pageText)
	}

	if sb.Len() == 0 {
		return "", errs.E(errs.KindExtraction, "pdf.load", ErrNoText)
	}
	return sb.String(), nil
}

// compile-time check to ensure PdfLoader implements the Loader interface
var _ interfaces.Loader = (*PdfLoader)(nil)
