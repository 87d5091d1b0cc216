package invoice

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/garyjia/fatura-reader/internal/brnum"
	"github.com/garyjia/fatura-reader/internal/models"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Validator decodes a raw model response into a fully populated InvoiceRecord
type Validator struct {
	schema *jsonschema.Schema
	logger *zap.Logger
}

// NewValidator compiles the response schema
func NewValidator(logger *zap.Logger) (*Validator, error) {
	schema, err := compileSchema(BuildInvoiceJSONSchema())
	if err != nil {
		return nil, err
	}
	return &Validator{schema: schema, logger: logger}, nil
}

// Validate decodes raw and coerces every declared field to a type-correct value.
// Text that is not a single JSON value fails with ErrMalformedResponse; a JSON
// value with the wrong shape fails with ErrSchemaMismatch.
func (v *Validator) Validate(raw string) (*models.InvoiceRecord, error) {
	doc, err := decodeStrict(stripCodeFence(raw))
	if err != nil {
		v.logger.Debug("Model response is not valid JSON",
			zap.Error(err),
			zap.String("content", truncate(raw, 500)))
		return nil, fmt.Errorf("%w: %w", models.ErrMalformedResponse, err)
	}

	if err := v.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSchemaMismatch, err)
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top-level value is not an object", models.ErrSchemaMismatch)
	}

	rec := models.NewInvoiceRecord()
	for _, f := range models.Fields {
		value, present := obj[f.Label()]
		if !present {
			continue
		}
		if f.IsList() {
			rec.ConsumptionHistory = coerceHistory(value)
			continue
		}
		rec.Set(f, coerceScalar(value))
	}

	v.logger.Debug("Model response validated",
		zap.Int("history_items", len(rec.ConsumptionHistory)),
		zap.Int("unknown_keys", countUnknown(obj)))

	return rec, nil
}

// decodeStrict decodes exactly one JSON value, keeping numbers as written.
func decodeStrict(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty response")
		}
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level JSON value")
	}
	return doc, nil
}

// stripCodeFence removes a Markdown code fence wrapped around the JSON body.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	// drop the opening line (``` or ```json)
	idx := strings.Index(s, "\n")
	if idx == -1 {
		return s
	}
	s = strings.TrimSpace(s[idx+1:])
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func coerceScalar(value any) string {
	switch t := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			return strings.Replace(t.String(), ".", ",", 1)
		}
		return brnum.FormatExact(d)
	}
	return ""
}

func coerceHistory(value any) []models.HistoryItem {
	items, _ := value.([]any)
	out := make([]models.HistoryItem, 0, len(items))
	for _, raw := range items {
		obj, _ := raw.(map[string]any)
		out = append(out, models.HistoryItem{
			Month:       coerceScalar(obj[models.HistoryMonthLabel]),
			Consumption: coerceScalar(obj[models.HistoryConsumptionLabel]),
		})
	}
	return out
}

func countUnknown(obj map[string]any) int {
	n := 0
	for key := range obj {
		if _, ok := models.FieldForLabel(key); !ok {
			n++
		}
	}
	return n
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// Encode serializes a record with its external labels.
func Encode(rec *models.InvoiceRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
