package tools

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// schemaCache compiles each tool's JSONSchema once and reuses it across
// calls — tool definitions are static for the lifetime of a registry, so
// recompiling on every dispatch would be pure waste.
var schemaCache sync.Map

// ValidateSchema validates args against def's declared parameter schema.
// Tools without a Parameters schema (none registered so far, but the
// interface allows it) are accepted unconditionally.
func ValidateSchema(def ToolDefinition, args map[string]any) error {
	if def.Parameters == nil {
		return nil
	}

	compiled, err := compileSchema(def.Name, def.Parameters)
	if err != nil {
		return fmt.Errorf("tool %s: compile schema: %w", def.Name, err)
	}

	payload, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("tool %s: encode arguments: %w", def.Name, err)
	}
	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return fmt.Errorf("tool %s: decode arguments: %w", def.Name, err)
	}

	if err := compiled.Validate(decoded); err != nil {
		return fmt.Errorf("tool %s: arguments invalid: %w", def.Name, err)
	}
	return nil
}

func compileSchema(name string, schema *JSONSchema) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(name); ok {
		if compiled, ok := cached.(*jsonschema.Schema); ok {
			return compiled, nil
		}
	}

	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}

	compiled, err := jsonschema.CompileString(name+".schema.json", string(raw))
	if err != nil {
		return nil, err
	}
	schemaCache.Store(name, compiled)
	return compiled, nil
}
