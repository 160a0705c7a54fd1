package tools

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// ToolDefinition is a static description of a callable tool.
// Function receives raw JSON arguments that have already passed InputSchema.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
	Function    func(input json.RawMessage) (string, error)
}

// GenerateSchema reflects T into an inline object schema that rejects
// unknown properties. Fields without omitempty are required.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		Anonymous:                 true,
	}
	var v T
	return reflector.Reflect(v)
}

// SchemaMap renders the input schema as a generic JSON object, the shape
// provider SDKs expect for function parameters.
func (d ToolDefinition) SchemaMap() (map[string]any, error) {
	b, err := json.Marshal(d.InputSchema)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	// Draft and id markers are noise for model APIs.
	delete(m, "$schema")
	delete(m, "$id")
	return m, nil
}
