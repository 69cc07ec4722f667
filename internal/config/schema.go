package config

import (
	"github.com/invopop/jsonschema"
)

// SchemaID identifies the configuration schema.
const SchemaID = "https://github.com/agentic-research/fsbuild/config.schema.json"

// Schema returns the JSON Schema of the configuration document.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	s := r.Reflect(&Config{})
	s.ID = SchemaID
	s.Title = "fsbuild configuration"
	return s
}
