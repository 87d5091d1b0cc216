package pipeline

import (
	"context"

	"github.com/garyjia/fatura-reader/internal/models"
)

// TextReader turns PDF bytes into plain text
type TextReader interface {
	ReadText(ctx context.Context, pdf []byte) (string, error)
}

// FieldExtractor turns invoice text into a validated record
type FieldExtractor interface {
	ExtractFromText(ctx context.Context, text string) (*models.InvoiceRecord, error)
}

// Deriver fills in computed fields
type Deriver interface {
	Derive(rec *models.InvoiceRecord) *models.InvoiceRecord
}

// ReportRenderer renders the final PDF report
type ReportRenderer interface {
	Render(ctx context.Context, rec *models.InvoiceRecord) ([]byte, error)
}
