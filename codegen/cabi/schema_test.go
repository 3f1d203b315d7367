package cabi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/codegen/cabi"
)

func TestValidateJSONAgainstSchemaAcceptsConformingPayload(t *testing.T) {
	schema := []byte(`{"type":"object","properties":{"x":{"type":"integer"}},"required":["x"],"additionalProperties":false}`)
	err := cabi.ValidateJSONAgainstSchema(schema, []byte(`{"x": 1}`))
	assert.NoError(t, err)
}

func TestValidateJSONAgainstSchemaRejectsNonConformingPayload(t *testing.T) {
	schema := []byte(`{"type":"object","properties":{"x":{"type":"integer"}},"required":["x"],"additionalProperties":false}`)
	err := cabi.ValidateJSONAgainstSchema(schema, []byte(`{"x": "not a number"}`))
	assert.Error(t, err)
}
