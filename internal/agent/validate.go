package agent

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/relaykit/conduit/pkg/models"
)

// compileArgSchema turns a tool's externalized ToolSchema into a JSON Schema
// document and compiles it, so a model-supplied argument blob can be
// rejected before it ever reaches Tool.Execute. Grounded on SPEC_FULL.md §6's
// jsonschema/v5 wiring: tool schema validation of LLM-supplied arguments
// before dispatch.
func compileArgSchema(ts models.ToolSchema) (*jsonschema.Schema, error) {
	properties := make(map[string]any, len(ts.Params))
	var required []string
	for name, p := range ts.Params {
		prop := map[string]any{"type": jsonSchemaType(p.Type)}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		properties[name] = prop
		if p.Required {
			required = append(required, name)
		}
	}

	doc := map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": true,
	}
	if len(required) > 0 {
		doc["required"] = required
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshaling generated schema for %s: %w", ts.Name, err)
	}

	resourceID := "conduit://tool-schema/" + ts.Name
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resourceID, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("adding schema resource for %s: %w", ts.Name, err)
	}
	schema, err := compiler.Compile(resourceID)
	if err != nil {
		return nil, fmt.Errorf("compiling schema for %s: %w", ts.Name, err)
	}
	return schema, nil
}

// jsonSchemaType maps the tool-schema's informal param types (as used across
// internal/registry/defaults.go) onto JSON Schema primitive type names.
// Unknown types fall back to "string" rather than being rejected, since the
// param vocabulary here is hand-authored, not user input.
func jsonSchemaType(t string) string {
	switch t {
	case "string", "number", "integer", "boolean", "object", "array":
		return t
	default:
		return "string"
	}
}

// validateArgs decodes raw into a generic value and validates it against
// schema. A nil schema (compilation failed or was skipped) always passes --
// argument validation is a defense-in-depth check, not the sole gate on
// tool dispatch.
func validateArgs(schema *jsonschema.Schema, raw json.RawMessage) error {
	if schema == nil {
		return nil
	}
	var v any
	if len(raw) == 0 {
		v = map[string]any{}
	} else if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("arguments are not valid JSON: %w", err)
	}
	return schema.Validate(v)
}
