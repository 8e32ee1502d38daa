// ABOUTME: Coerces loosely-typed argument values to the types a schema declares
// ABOUTME: Models often send numbers and booleans as strings; this fixes them before validation

package tools

import (
	"math"
	"strconv"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// coerce rewrites string values in obj whose schema property expects a
// number, integer or boolean. Values that do not parse are left alone for
// validation to report.
func coerce(schema *jsonschema.Schema, obj map[string]any) {
	for name, prop := range schema.Properties {
		v, ok := obj[name]
		if !ok || prop == nil {
			continue
		}
		obj[name] = coerceValue(prop, v)
	}
}

func coerceValue(schema *jsonschema.Schema, v any) any {
	switch t := v.(type) {
	case string:
		return coerceString(schema, t)
	case map[string]any:
		if len(schema.Properties) > 0 {
			coerce(schema, t)
		}
	case []any:
		if schema.Items != nil {
			for i := range t {
				t[i] = coerceValue(schema.Items, t[i])
			}
		}
	}
	return v
}

func coerceString(schema *jsonschema.Schema, s string) any {
	if allows(schema, "string") {
		return s
	}
	trimmed := strings.TrimSpace(s)
	if allows(schema, "integer") {
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil && f == math.Trunc(f) {
			return f
		}
	}
	if allows(schema, "number") {
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return f
		}
	}
	if allows(schema, "boolean") {
		if b, err := strconv.ParseBool(trimmed); err == nil {
			return b
		}
	}
	return s
}

func allows(schema *jsonschema.Schema, typ string) bool {
	if schema.Type == typ {
		return true
	}
	for _, t := range schema.Types {
		if t == typ {
			return true
		}
	}
	return false
}
