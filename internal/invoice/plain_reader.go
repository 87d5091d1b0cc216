package invoice

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/garyjia/fatura-reader/internal/models"
	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// PlainReader reads page text with a pure Go PDF parser. It needs no cgo and
// serves as the fallback when MuPDF cannot open a document.
type PlainReader struct {
	logger *zap.Logger
}

// NewPlainReader creates a pure Go text reader
func NewPlainReader(logger *zap.Logger) *PlainReader {
	return &PlainReader{logger: logger}
}

// ReadText extracts the plain text of every page
func (r *PlainReader) ReadText(ctx context.Context, data []byte) (text string, err error) {
	if !IsPDF(data) {
		return "", models.ErrUnsupportedInput
	}

	// the parser panics on some malformed cross-reference tables
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("failed to parse PDF: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to create PDF reader: %w", err)
	}

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			r.logger.Warn("Failed to extract page text",
				zap.Int("page", i),
				zap.Error(err))
			continue
		}
		pages = append(pages, pageText)
	}

	return joinPages(pages)
}

// FallbackReader tries each reader in order and returns the first non-empty text.
type FallbackReader struct {
	readers []TextReader
	names   []string
	logger  *zap.Logger
}

// NewFallbackReader chains readers; names label them in logs.
func NewFallbackReader(readers []TextReader, names []string, logger *zap.Logger) *FallbackReader {
	return &FallbackReader{readers: readers, names: names, logger: logger}
}

// ReadText returns the first successful extraction. When every reader fails
// and at least one reported empty text, the result is ErrExtractionEmpty.
func (f *FallbackReader) ReadText(ctx context.Context, data []byte) (string, error) {
	var lastErr error
	sawEmpty := false
	for i, reader := range f.readers {
		text, err := reader.ReadText(ctx, data)
		if err == nil {
			return text, nil
		}
		if errors.Is(err, models.ErrUnsupportedInput) || ctx.Err() != nil {
			return "", err
		}
		if errors.Is(err, models.ErrExtractionEmpty) {
			sawEmpty = true
		}
		f.logger.Warn("Text reader failed, trying next",
			zap.String("reader", f.name(i)),
			zap.Error(err))
		lastErr = err
	}
	if sawEmpty || lastErr == nil {
		return "", models.ErrExtractionEmpty
	}
	return "", lastErr
}

func (f *FallbackReader) name(i int) string {
	if i < len(f.names) {
		return f.names[i]
	}
	return fmt.Sprintf("reader-%d", i)
}
