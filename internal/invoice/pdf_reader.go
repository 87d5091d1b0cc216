package invoice

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/fatura-reader/internal/models"
	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// pageSeparator joins the text of consecutive non-empty pages.
const pageSeparator = "\n\n"

var pdfMagic = []byte("%PDF-")

// TextReader turns PDF bytes into plain text.
type TextReader interface {
	ReadText(ctx context.Context, pdf []byte) (string, error)
}

// IsPDF reports whether data starts with the PDF header, allowing leading whitespace.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n\x00"), pdfMagic)
}

// PDFReader reads page text through MuPDF.
type PDFReader struct {
	logger *zap.Logger
}

// NewPDFReader creates a MuPDF backed text reader
func NewPDFReader(logger *zap.Logger) *PDFReader {
	return &PDFReader{logger: logger}
}

// ReadText extracts the text of every page and joins the non-empty ones
func (r *PDFReader) ReadText(ctx context.Context, pdf []byte) (string, error) {
	if !IsPDF(pdf) {
		return "", models.ErrUnsupportedInput
	}

	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	r.logger.Debug("Reading PDF text", zap.Int("total_pages", pageCount))

	pages := make([]string, 0, pageCount)
	for pageNum := 0; pageNum < pageCount; pageNum++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := doc.Text(pageNum)
		if err != nil {
			r.logger.Warn("Failed to extract page text",
				zap.Int("page", pageNum),
				zap.Error(err))
			continue
		}
		pages = append(pages, text)
	}

	return joinPages(pages)
}

// joinPages trims each page and concatenates the non-empty ones.
func joinPages(pages []string) (string, error) {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "", models.ErrExtractionEmpty
	}
	return strings.Join(parts, pageSeparator), nil
}
