// Package schema converts tool parameter structs into the JSON schema
// shape the chat-completions tools field expects.
package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// Generator converts Go structs to JSON schemas
type Generator struct{}

// NewGenerator creates a new schema generator
func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateFunctionSchema creates an OpenAI-compatible function schema
func (g *Generator) GenerateFunctionSchema(name, description string, params interface{}) map[string]interface{} {
	schema, _ := g.Generate(params)

	return map[string]interface{}{
		"type": "function",
		"function": map[string]interface{}{
			"name":        name,
			"description": description,
			"parameters":  schema,
		},
	}
}

// Generate creates a JSON schema from a Go struct type
func (g *Generator) Generate(v interface{}) (map[string]interface{}, error) {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("expected struct, got %s", t.Kind())
	}
	return g.generateObject(t), nil
}

func (g *Generator) generateObject(t reflect.Type) map[string]interface{} {
	properties := make(map[string]interface{})
	required := []string{}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		fieldName := fieldName(field, jsonTag)

		schemaTag := field.Tag.Get("schema")
		if strings.Contains(schemaTag, "required") || !strings.Contains(jsonTag, "omitempty") {
			required = append(required, fieldName)
		}

		fieldSchema := g.fieldSchema(field.Type)
		if desc := field.Tag.Get("description"); desc != "" {
			fieldSchema["description"] = desc
		}
		for _, part := range strings.Split(schemaTag, ",") {
			if strings.HasPrefix(part, "enum:") {
				fieldSchema["enum"] = strings.Split(part[5:], "|")
			}
		}

		properties[fieldName] = fieldSchema
	}

	return map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

func (g *Generator) fieldSchema(t reflect.Type) map[string]interface{} {
	schema := make(map[string]interface{})

	switch t.Kind() {
	case reflect.String:
		schema["type"] = "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		schema["type"] = "integer"
	case reflect.Float32, reflect.Float64:
		schema["type"] = "number"
	case reflect.Bool:
		schema["type"] = "boolean"
	case reflect.Slice:
		schema["type"] = "array"
		schema["items"] = g.fieldSchema(t.Elem())
	case reflect.Struct:
		return g.generateObject(t)
	case reflect.Ptr:
		return g.fieldSchema(t.Elem())
	default:
		schema["type"] = "string"
	}

	return schema
}

func fieldName(field reflect.StructField, jsonTag string) string {
	name := strings.TrimSpace(strings.Split(jsonTag, ",")[0])
	if name == "" {
		return field.Name
	}
	return name
}
