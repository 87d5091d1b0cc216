// Package report renders a validated InvoiceRecord into a PDF document
// through an HTML intermediate.
package report

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"time"

	"github.com/garyjia/fatura-reader/internal/models"
	"go.uber.org/zap"
)

//go:embed templates/invoice_report.html
var reportTemplate string

// Converter turns an HTML document into PDF bytes
type Converter interface {
	Convert(ctx context.Context, html string) ([]byte, error)
}

// Renderer renders invoice reports
type Renderer struct {
	tmpl      *template.Template
	converter Converter
	assets    Assets
	now       func() time.Time
	logger    *zap.Logger
}

// NewRenderer creates a new report renderer
func NewRenderer(converter Converter, assets Assets, logger *zap.Logger) (*Renderer, error) {
	tmpl, err := template.New("invoice_report").Parse(reportTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse report template: %w", err)
	}
	return &Renderer{
		tmpl:      tmpl,
		converter: converter,
		assets:    assets,
		now:       time.Now,
		logger:    logger,
	}, nil
}

// RenderHTML executes the report template for rec
func (r *Renderer) RenderHTML(rec *models.InvoiceRecord) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, BuildContext(rec, r.now(), r.assets)); err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrRenderingFailure, err)
	}
	return buf.String(), nil
}

// Render produces the PDF report for rec. Every failure wraps ErrRenderingFailure.
func (r *Renderer) Render(ctx context.Context, rec *models.InvoiceRecord) ([]byte, error) {
	html, err := r.RenderHTML(rec)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	pdf, err := r.converter.Convert(ctx, html)
	if err != nil {
		r.logger.Error("Failed to convert report to PDF", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", models.ErrRenderingFailure, err)
	}
	if len(pdf) == 0 {
		return nil, fmt.Errorf("%w: converter returned no data", models.ErrRenderingFailure)
	}

	r.logger.Debug("Report rendered",
		zap.Int("html_bytes", len(html)),
		zap.Int("pdf_bytes", len(pdf)),
		zap.Duration("elapsed", time.Since(start)))

	return pdf, nil
}
