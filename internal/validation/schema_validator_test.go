package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"id": {"type": "string", "pattern": "^[a-z_]+$"},
		"maxStack": {"type": "integer", "minimum": 1}
	},
	"required": ["id"]
}`

func writeSchema(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.schema.json")
	require.NoError(t, os.WriteFile(path, []byte(testSchema), 0o644))
	return path
}

func TestValidateBytes(t *testing.T) {
	v := NewSchemaValidator()
	schemaPath := writeSchema(t)

	tests := []struct {
		name     string
		data     string
		errorMsg string
	}{
		{name: "valid", data: `{"id": "oak_log", "maxStack": 50}`},
		{name: "optional field omitted", data: `{"id": "oak_log"}`},
		{name: "missing required", data: `{"maxStack": 5}`, errorMsg: "required"},
		{name: "bad pattern", data: `{"id": "Oak Log"}`, errorMsg: "/id"},
		{name: "below minimum", data: `{"id": "x", "maxStack": 0}`, errorMsg: "/maxStack"},
		{name: "invalid JSON", data: `{"id": }`, errorMsg: "parse JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateBytes([]byte(tt.data), schemaPath)
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestValidateFile(t *testing.T) {
	v := NewSchemaValidator()
	schemaPath := writeSchema(t)

	dataPath := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(dataPath, []byte(`{"id": "stone"}`), 0o644))

	assert.NoError(t, v.ValidateFile(dataPath, schemaPath))
	assert.Error(t, v.ValidateFile(filepath.Join(t.TempDir(), "missing.json"), schemaPath))
}

func TestMissingSchema(t *testing.T) {
	v := NewSchemaValidator()
	err := v.ValidateBytes([]byte(`{}`), "configs/schemas/does-not-exist.schema.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema file not found")
}
