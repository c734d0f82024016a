package toolbox

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidateArguments checks arguments against schema's declared properties
// and required list, compiling schema into a JSON Schema document and
// running it through jsonschema/v5. Missing required fields or a type
// mismatch both surface as a validation error, never a panic.
func ValidateArguments(schema InputSchema, arguments map[string]any) error {
	compiled, err := compile(schema)
	if err != nil {
		return fmt.Errorf("toolbox: invalid input_schema: %w", err)
	}

	if err := compiled.Validate(toInterface(arguments)); err != nil {
		return fmt.Errorf("toolbox: arguments invalid: %w", err)
	}
	return nil
}

func compile(schema InputSchema) (*jsonschema.Schema, error) {
	doc := map[string]any{
		"type":       "object",
		"properties": schema.Properties,
	}
	if len(schema.Required) > 0 {
		doc["required"] = schema.Required
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	const resourceID = "toolbox://input-schema.json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resourceID, bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return compiler.Compile(resourceID)
}

// toInterface round-trips arguments through JSON so jsonschema/v5 sees plain
// map[string]interface{}/float64/etc. values rather than Go-native types it
// does not recognize (e.g. map[string]any values containing ints).
func toInterface(arguments map[string]any) any {
	raw, err := json.Marshal(arguments)
	if err != nil {
		return arguments
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return arguments
	}
	return v
}
