package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildInvoiceJSONSchema returns the JSON-Schema (draft 2020-12 subset)
// the persisted extraction record must satisfy. Kept as a generic map so
// it can be serialized alongside the data if ever needed.
func BuildInvoiceJSONSchema() map[string]any {
	amount := map[string]any{"type": []string{"number", "null"}}
	pct := map[string]any{"type": []string{"number", "null"}, "minimum": 0.0, "maximum": 100.0}

	line := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"designacao":     map[string]any{"type": "string", "maxLength": 150},
			"codigo":         map[string]any{"type": "string", "pattern": `^(\d{6,15})?$`},
			"quantidade":     map[string]any{"type": "number"},
			"unidade":        map[string]any{"type": "string"},
			"preco_unitario": amount,
			"valor_liquido":  amount,
			"iva_pct":        pct,
		},
		"required": []string{"designacao", "quantidade", "unidade"},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"fornecedor": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"nome":   map[string]any{"type": "string", "maxLength": 200},
					"nif":    map[string]any{"type": "string", "pattern": `^(\d{9})?$`},
					"morada": map[string]any{"type": "string"},
				},
			},
			"cliente": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"nome": map[string]any{"type": "string", "maxLength": 200},
					"nif":  map[string]any{"type": "string", "pattern": `^(\d{9})?$`},
				},
			},
			"documento": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"numero": map[string]any{"type": "string", "maxLength": 80},
					"data":   map[string]any{"type": "string", "pattern": `^(\d{4}-\d{2}-\d{2})?$`},
					"tipo":   map[string]any{"type": "string"},
				},
			},
			"linhas": map[string]any{"type": []string{"array", "null"}, "items": line},
			"totais": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"valor_liquido":   amount,
					"total_iva":       amount,
					"total_documento": amount,
				},
			},
			"origem":                map[string]any{"type": "string"},
			"centro_custo_sugerido": map[string]any{"type": "string"},
		},
		"required": []string{"fornecedor", "cliente", "documento", "linhas", "totais"},
	}
}

// ValidateAgainstSchema validates data against schemaMap.
func ValidateAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
