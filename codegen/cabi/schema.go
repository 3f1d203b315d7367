package cabi

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidateJSONAgainstSchema checks payload against schemaJSON, the same
// jsonschema/v6 compile-then-validate sequence typeregistry.Registry's
// ValidateJSON runs for interpreter mount payloads. The record from_json
// entry point EmitRecord generates calls this with the record's schema
// embedded as a string literal at emit time, so a malformed payload is
// rejected before it ever reaches json.Unmarshal. The union from_json that
// EmitUnion generates does not call it.
func ValidateJSONAgainstSchema(schemaJSON, payload []byte) error {
	var schemaDoc any
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return fmt.Errorf("cabi: unmarshal embedded schema: %w", err)
	}
	var payloadDoc any
	if err := json.Unmarshal(payload, &payloadDoc); err != nil {
		return fmt.Errorf("cabi: unmarshal payload: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("embedded-schema.json", schemaDoc); err != nil {
		return fmt.Errorf("cabi: add schema resource: %w", err)
	}
	schema, err := c.Compile("embedded-schema.json")
	if err != nil {
		return fmt.Errorf("cabi: compile schema: %w", err)
	}
	if err := schema.Validate(payloadDoc); err != nil {
		return fmt.Errorf("cabi: payload failed schema validation: %w", err)
	}
	return nil
}
