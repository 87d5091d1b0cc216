package invoice

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/garyjia/fatura-reader/internal/models"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "fatura.schema.json"

// BuildInvoiceJSONSchema returns the accepted response shape as a JSON-Schema
// map. Scalars may be strings, numbers or null; the history must be an array
// of objects. Unknown keys are allowed and dropped later.
func BuildInvoiceJSONSchema() map[string]any {
	props := make(map[string]any, len(models.Fields))
	for _, f := range models.Fields {
		if f.IsList() {
			props[f.Label()] = map[string]any{
				"type": []string{"array", "null"},
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						models.HistoryMonthLabel:       scalarProp(),
						models.HistoryConsumptionLabel: scalarProp(),
					},
				},
			}
			continue
		}
		props[f.Label()] = scalarProp()
	}

	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}

func scalarProp() map[string]any {
	return map[string]any{"type": []string{"string", "number", "null"}}
}

// compileSchema turns a schema map into a reusable validator.
func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}
