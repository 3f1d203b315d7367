package typeregistry

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/ast"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/intern"
)

// jsonSchemaFor renders t as a JSON Schema fragment (a plain
// map[string]any, ready for json.Marshal). Records and unions are rendered
// inline rather than via $ref: the registry has no stable document root to
// hang definitions off of, and the schemas here are small enough that
// inlining keeps Compile/Validate call sites simple.
func (r *Registry) jsonSchemaFor(t ast.TypeExpr) map[string]any {
	switch v := t.(type) {
	case ast.PrimitiveType:
		return r.primitiveSchema(r.interner.MustResolve(v.Name))
	case ast.NamedType:
		if rec, ok := r.records[v.Name]; ok {
			return r.recordSchema(rec)
		}
		if u, ok := r.unions[v.Name]; ok {
			return r.unionSchema(u)
		}
		return map[string]any{}
	case ast.GenericType:
		base := r.interner.MustResolve(v.Base)
		switch base {
		case "Seq", "List", "Set":
			var items map[string]any
			if len(v.Params) > 0 {
				items = r.jsonSchemaFor(v.Params[0])
			}
			schema := map[string]any{"type": "array"}
			if items != nil {
				schema["items"] = items
			}
			if base == "Set" {
				schema["uniqueItems"] = true
			}
			return schema
		case "Map":
			var additional map[string]any
			if len(v.Params) > 1 {
				additional = r.jsonSchemaFor(v.Params[1])
			}
			schema := map[string]any{"type": "object"}
			if additional != nil {
				schema["additionalProperties"] = additional
			}
			return schema
		case "Option":
			var inner map[string]any
			if len(v.Params) > 0 {
				inner = r.jsonSchemaFor(v.Params[0])
			}
			return map[string]any{"anyOf": []any{inner, map[string]any{"type": "null"}}}
		default:
			return map[string]any{}
		}
	case ast.RefinementType:
		// The predicate itself is checked by the runtime assertion
		// machinery, not re-derived into a JSON Schema keyword; the schema
		// only constrains the base shape.
		return r.jsonSchemaFor(v.Base)
	default:
		return map[string]any{}
	}
}

func (r *Registry) primitiveSchema(name string) map[string]any {
	switch name {
	case "Int", "Nat":
		schema := map[string]any{"type": "integer"}
		if name == "Nat" {
			schema["minimum"] = 0
		}
		return schema
	case "Float":
		return map[string]any{"type": "number"}
	case "Bool":
		return map[string]any{"type": "boolean"}
	case "Char":
		return map[string]any{"type": "string", "minLength": 1, "maxLength": 1}
	case "Text":
		return map[string]any{"type": "string"}
	case "Byte":
		return map[string]any{"type": "integer", "minimum": 0, "maximum": 255}
	case "Nothing":
		return map[string]any{"type": "null"}
	case "Date", "Moment", "TimeOfDay", "Duration", "Span":
		return map[string]any{"type": "string", "format": "date-time"}
	default:
		return map[string]any{}
	}
}

func (r *Registry) recordSchema(rec *Record) map[string]any {
	properties := map[string]any{}
	required := make([]any, 0, len(rec.Fields))
	for _, f := range rec.Fields {
		name := r.interner.MustResolve(f.Name)
		properties[name] = r.jsonSchemaFor(f.Type)
		required = append(required, name)
	}
	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

// unionSchema renders a tagged union as a oneOf of per-variant object
// schemas, each tagged with a literal "variant" discriminator field beside
// the variant's own fields. The C-ABI's union to_json/from_json glue uses a
// different layout, nesting the fields under a "fields" key next to
// "variant", and does not validate against this schema.
func (r *Registry) unionSchema(u *Union) map[string]any {
	alternatives := make([]any, 0, len(u.Variants))
	for _, variant := range u.Variants {
		properties := map[string]any{
			"variant": map[string]any{
				"const": r.interner.MustResolve(variant.Name),
			},
		}
		required := []any{"variant"}
		for _, f := range variant.Fields {
			name := r.interner.MustResolve(f.Name)
			properties[name] = r.jsonSchemaFor(f.Type)
			required = append(required, name)
		}
		alternatives = append(alternatives, map[string]any{
			"type":                 "object",
			"properties":           properties,
			"required":             required,
			"additionalProperties": false,
		})
	}
	return map[string]any{"oneOf": alternatives}
}

// JSONSchema returns the marshaled JSON Schema document for a record or
// tagged union declared in the registry, consumed by the C-ABI emitter's
// record from_json glue and by the interpreter's mount validation.
func (r *Registry) JSONSchema(name intern.Symbol) ([]byte, error) {
	var schema map[string]any
	if rec, ok := r.records[name]; ok {
		schema = r.recordSchema(rec)
	} else if u, ok := r.unions[name]; ok {
		schema = r.unionSchema(u)
	} else {
		return nil, fmt.Errorf("typeregistry: no record or union named %q", r.interner.MustResolve(name))
	}
	return json.Marshal(schema)
}

// ValidateJSON checks payloadJSON against the JSON Schema for the record
// or union named name: build a jsonschema.Compiler, register the schema
// document as an in-memory resource, compile it, then validate the decoded
// payload against it.
func (r *Registry) ValidateJSON(name intern.Symbol, payloadJSON []byte) error {
	schemaBytes, err := r.JSONSchema(name)
	if err != nil {
		return err
	}

	var schemaDoc any
	if err := json.Unmarshal(schemaBytes, &schemaDoc); err != nil {
		return fmt.Errorf("typeregistry: unmarshal generated schema: %w", err)
	}
	var payloadDoc any
	if err := json.Unmarshal(payloadJSON, &payloadDoc); err != nil {
		return fmt.Errorf("typeregistry: unmarshal payload: %w", err)
	}

	c := jsonschema.NewCompiler()
	resourceName := fmt.Sprintf("%s.json", r.interner.MustResolve(name))
	if err := c.AddResource(resourceName, schemaDoc); err != nil {
		return fmt.Errorf("typeregistry: add schema resource: %w", err)
	}
	schema, err := c.Compile(resourceName)
	if err != nil {
		return fmt.Errorf("typeregistry: compile schema: %w", err)
	}
	if err := schema.Validate(payloadDoc); err != nil {
		return fmt.Errorf("typeregistry: %s failed validation: %w", r.interner.MustResolve(name), err)
	}
	return nil
}
