package invoice

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/fatura-reader/internal/ai"
	"github.com/garyjia/fatura-reader/internal/models"
	"github.com/garyjia/fatura-reader/internal/prompt"
	"go.uber.org/zap"
)

// Extractor turns invoice text into a validated InvoiceRecord using the
// completion service. It never derives values itself.
type Extractor struct {
	prompts   *prompt.Builder
	completer ai.Completer
	validator *Validator
	logger    *zap.Logger
}

// NewExtractor creates a new invoice extractor
func NewExtractor(prompts *prompt.Builder, completer ai.Completer, validator *Validator, logger *zap.Logger) *Extractor {
	return &Extractor{
		prompts:   prompts,
		completer: completer,
		validator: validator,
		logger:    logger,
	}
}

// ExtractFromText builds the instruction for text, sends it and validates the
// response. Blank text fails with ErrExtractionEmpty before any model call.
func (e *Extractor) ExtractFromText(ctx context.Context, text string) (*models.InvoiceRecord, error) {
	if strings.TrimSpace(text) == "" {
		return nil, models.ErrExtractionEmpty
	}

	e.logger.Info("Extracting invoice fields",
		zap.Int("text_length", len(text)),
		zap.String("variant", string(e.prompts.Variant())))

	instruction, err := e.prompts.Build(text)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	raw, err := e.completer.Complete(ctx, ai.Request{
		System: e.prompts.System(),
		Prompt: instruction,
	})
	if err != nil {
		return nil, err
	}

	rec, err := e.validator.Validate(raw)
	if err != nil {
		e.logger.Error("Failed to validate extraction result", zap.Error(err))
		return nil, fmt.Errorf("failed to validate extraction result: %w", err)
	}

	e.logger.Info("Invoice fields extracted",
		zap.String("customer_code", rec.CustomerCode),
		zap.String("reference_month", rec.ReferenceMonth))

	return rec, nil
}
