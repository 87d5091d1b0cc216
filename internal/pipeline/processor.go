// Package pipeline runs uploaded invoices through text reading, field
// extraction, derivation and report rendering.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/garyjia/fatura-reader/internal/models"
	"go.uber.org/zap"
)

// Processing stages reported on failure
const (
	StageRead     = "read"
	StageExtract  = "extract"
	StageRender   = "render"
	StageCanceled = "canceled"
)

// ProcessingError ties a failure to the file and stage where it happened
type ProcessingError struct {
	File  string
	Stage string
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.File, e.Stage, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// Failure converts the error into its user-facing report
func (e *ProcessingError) Failure() models.Failure {
	return models.Failure{File: e.File, Stage: e.Stage, Message: e.Err.Error()}
}

// Upload is one file submitted for processing
type Upload struct {
	Name string
	Data []byte
}

// BatchResult holds the outcome of a batch in upload order
type BatchResult struct {
	Results  []models.ProcessedInvoice `json:"results"`
	Failures []models.Failure          `json:"failures"`
}

// Processor runs the per-invoice pipeline
type Processor struct {
	reader    TextReader
	extractor FieldExtractor
	deriver   Deriver
	renderer  ReportRenderer
	logger    *zap.Logger
}

// NewProcessor creates a new Processor
func NewProcessor(
	reader TextReader,
	extractor FieldExtractor,
	deriver Deriver,
	renderer ReportRenderer,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		reader:    reader,
		extractor: extractor,
		deriver:   deriver,
		renderer:  renderer,
		logger:    logger,
	}
}

// Process runs one upload through every stage. No report is rendered unless
// extraction fully succeeded.
func (p *Processor) Process(ctx context.Context, name string, data []byte) (*models.ProcessedInvoice, error) {
	start := time.Now()
	p.logger.Info("Processing invoice",
		zap.String("file", name),
		zap.Int("size", len(data)))

	// Step 1: Read PDF text
	text, err := p.reader.ReadText(ctx, data)
	if err != nil {
		return nil, p.fail(name, StageRead, err)
	}

	// Step 2: Extract and validate fields
	rec, err := p.extractor.ExtractFromText(ctx, text)
	if err != nil {
		return nil, p.fail(name, StageExtract, err)
	}

	// Step 3: Recompute derived fields
	rec = p.deriver.Derive(rec)

	// Step 4: Render report
	pdf, err := p.renderer.Render(ctx, rec)
	if err != nil {
		return nil, p.fail(name, StageRender, err)
	}

	p.logger.Info("Invoice processed successfully",
		zap.String("file", name),
		zap.String("customer_code", rec.CustomerCode),
		zap.Duration("elapsed", time.Since(start)))

	return &models.ProcessedInvoice{
		Filename: Stem(name),
		Record:   rec,
		PDF:      pdf,
	}, nil
}

// ProcessBatch processes uploads one after another. A failing upload is
// recorded and the batch continues; a canceled context marks the remaining
// uploads as canceled.
func (p *Processor) ProcessBatch(ctx context.Context, uploads []Upload) *BatchResult {
	result := &BatchResult{
		Results:  make([]models.ProcessedInvoice, 0, len(uploads)),
		Failures: make([]models.Failure, 0),
	}

	for _, up := range uploads {
		if err := ctx.Err(); err != nil {
			result.Failures = append(result.Failures, models.Failure{
				File:    up.Name,
				Stage:   StageCanceled,
				Message: err.Error(),
			})
			continue
		}

		processed, err := p.Process(ctx, up.Name, up.Data)
		if err != nil {
			result.Failures = append(result.Failures, toFailure(up.Name, err))
			continue
		}
		result.Results = append(result.Results, *processed)
	}

	p.logger.Info("Batch finished",
		zap.Int("total", len(uploads)),
		zap.Int("succeeded", len(result.Results)),
		zap.Int("failed", len(result.Failures)))

	return result
}

func (p *Processor) fail(name, stage string, err error) error {
	p.logger.Error("Invoice processing failed",
		zap.String("file", name),
		zap.String("stage", stage),
		zap.Error(err))
	return &ProcessingError{File: name, Stage: stage, Err: err}
}

func toFailure(name string, err error) models.Failure {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.Failure()
	}
	return models.Failure{File: name, Message: err.Error()}
}

// Stem returns the base file name without its extension. Windows separators
// from browser uploads are handled too.
func Stem(name string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}
