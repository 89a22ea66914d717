// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

package bootstrap

import (
	_ "embed"
	"encoding/json"
	"sync"

	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *jschema.Schema
	schemaErr  error
)

// ValidateSchema validates YAML seed data against the seed JSON Schema.
func ValidateSchema(data []byte) error {
	if len(data) == 0 {
		return oops.In("bootstrap").Code("SEED_EMPTY").Errorf("seed data is empty")
	}

	var yamlData any
	if err := yaml.Unmarshal(data, &yamlData); err != nil {
		return oops.In("bootstrap").Code("SEED_INVALID_YAML").Wrap(err)
	}
	jsonData := convertToJSONTypes(yamlData)

	sch, err := compiledSchema()
	if err != nil {
		return err
	}
	if err := sch.Validate(jsonData); err != nil {
		return oops.In("bootstrap").Code("SEED_SCHEMA_VIOLATION").Wrap(err)
	}
	return nil
}

// compiledSchema compiles the embedded schema once.
func compiledSchema() (*jschema.Schema, error) {
	schemaOnce.Do(func() {
		var schemaData any
		if err := json.Unmarshal(schemaJSON, &schemaData); err != nil {
			schemaErr = oops.In("bootstrap").Code("SCHEMA_INVALID").Wrap(err)
			return
		}
		c := jschema.NewCompiler()
		if err := c.AddResource("seed.schema.json", schemaData); err != nil {
			schemaErr = oops.In("bootstrap").Code("SCHEMA_COMPILE_FAILED").Wrap(err)
			return
		}
		schema, schemaErr = c.Compile("seed.schema.json")
		if schemaErr != nil {
			schemaErr = oops.In("bootstrap").Code("SCHEMA_COMPILE_FAILED").Wrap(schemaErr)
		}
	})
	return schema, schemaErr
}

// convertToJSONTypes converts YAML-parsed data to JSON-compatible types.
// yaml.v3 produces map[string]any, but nested values need a recursive
// pass so the validator sees plain JSON shapes.
func convertToJSONTypes(v any) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, item := range val {
			result[k] = convertToJSONTypes(item)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, item := range val {
			result[i] = convertToJSONTypes(item)
		}
		return result
	default:
		return val
	}
}
