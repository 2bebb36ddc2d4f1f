// Package validator enforces the schema tags declared on tool parameter
// structs before a tool runs.
package validator

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Validator validates structs based on their schema tags
type Validator struct {
	tagName string
}

// New creates a new validator
func New() *Validator {
	return &Validator{tagName: "schema"}
}

// Validate validates a struct based on its schema tags
func (v *Validator) Validate(s interface{}) error {
	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return fmt.Errorf("expected struct, got %s", val.Kind())
	}

	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		structField := typ.Field(i)
		if !structField.IsExported() {
			continue
		}

		jsonTag := structField.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		name := fieldName(structField, jsonTag)
		tag := structField.Tag.Get(v.tagName)
		if tag == "" {
			continue
		}

		if strings.Contains(tag, "required") && isZeroValue(field) {
			return fmt.Errorf("field '%s' is required", name)
		}
		if isZeroValue(field) {
			continue
		}

		for _, part := range strings.Split(tag, ",") {
			if err := v.validateConstraint(field, strings.TrimSpace(part), name); err != nil {
				return err
			}
		}
	}

	return nil
}

func (v *Validator) validateConstraint(value reflect.Value, tag, name string) error {
	switch {
	case strings.HasPrefix(tag, "enum:"):
		allowed := strings.Split(tag[5:], "|")
		current := fmt.Sprintf("%v", value.Interface())
		for _, a := range allowed {
			if current == a {
				return nil
			}
		}
		return fmt.Errorf("field '%s' must be one of: %s", name, strings.Join(allowed, ", "))

	case strings.HasPrefix(tag, "min:"):
		return v.validateBound(value, tag[4:], name, true)

	case strings.HasPrefix(tag, "max:"):
		return v.validateBound(value, tag[4:], name, false)
	}

	return nil
}

func (v *Validator) validateBound(value reflect.Value, boundStr, name string, min bool) error {
	switch value.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		bound, err := strconv.ParseInt(boundStr, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid bound for field '%s': %s", name, boundStr)
		}
		if min && value.Int() < bound {
			return fmt.Errorf("field '%s' must be at least %d", name, bound)
		}
		if !min && value.Int() > bound {
			return fmt.Errorf("field '%s' must be at most %d", name, bound)
		}
	case reflect.String:
		bound, err := strconv.Atoi(boundStr)
		if err != nil {
			return fmt.Errorf("invalid bound for field '%s': %s", name, boundStr)
		}
		if min && len(value.String()) < bound {
			return fmt.Errorf("field '%s' must be at least %d characters", name, bound)
		}
		if !min && len(value.String()) > bound {
			return fmt.Errorf("field '%s' must be at most %d characters", name, bound)
		}
	}
	return nil
}

func isZeroValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Ptr:
		return v.IsNil()
	}
	return false
}

func fieldName(field reflect.StructField, jsonTag string) string {
	name := strings.TrimSpace(strings.Split(jsonTag, ",")[0])
	if name == "" {
		return field.Name
	}
	return name
}
