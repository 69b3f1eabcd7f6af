package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildTableJSONSchema returns a JSON-Schema (draft 2020-12 subset) as
// a generic map. It is embedded in the extraction instruction and used
// locally to validate the response before decoding.
func BuildTableJSONSchema() map[string]any {
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				"state":     map[string]any{"type": "string"},
				"year":      map[string]any{"type": "integer"},
				"week":      map[string]any{"type": "integer"},
				"suspected": countProp(),
				"confirmed": countProp(),
				"probable":  countProp(),
				"hcw":       countProp(),
				"deaths":    countProp(),
			},
			"required": []string{"state", "year", "week", "suspected", "confirmed", "probable", "hcw", "deaths"},
		},
	}
}

// countProp admits an integer or the "unknown"/blank string forms.
// Range semantics stay with the consistency validator so a negative
// number is rejected with a rule tag, not a schema error.
func countProp() map[string]any {
	return map[string]any{
		"type": []string{"integer", "string"},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
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
