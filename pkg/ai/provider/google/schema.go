// ABOUTME: Reduces JSON Schema tool parameters to the OpenAPI subset Gemini accepts
// ABOUTME: Unsupported keywords are dropped; ["T","null"] type unions become type T + nullable

package google

import (
	"encoding/json"
	"fmt"

	"github.com/mauromedda/toolagent-go/pkg/ai"
)

// allowedSchemaKeys are the keywords Gemini function declarations accept.
var allowedSchemaKeys = map[string]bool{
	"type":        true,
	"description": true,
	"properties":  true,
	"required":    true,
	"enum":        true,
	"items":       true,
	"format":      true,
	"nullable":    true,
}

// declarationSchema renders def's parameters in the Gemini subset. A tool
// without properties gets no parameters at all, since Gemini rejects an
// OBJECT schema with empty properties.
func declarationSchema(def ai.ToolDefinition) (map[string]any, error) {
	raw, err := def.SchemaJSON()
	if err != nil {
		return nil, fmt.Errorf("tool %s: encoding parameters: %w", def.Name, err)
	}
	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("tool %s: parameters must be an object schema: %w", def.Name, err)
	}
	out := filterSchema(schema)
	if props, _ := out["properties"].(map[string]any); len(props) == 0 {
		return nil, nil
	}
	return out, nil
}

func filterSchema(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if !allowedSchemaKeys[k] {
			continue
		}
		switch k {
		case "type":
			typ, nullable := normalizeType(v)
			if typ != "" {
				out["type"] = typ
			}
			if nullable {
				out["nullable"] = true
			}
		case "properties":
			props, ok := v.(map[string]any)
			if !ok {
				continue
			}
			filtered := make(map[string]any, len(props))
			for name, p := range props {
				if sub, ok := p.(map[string]any); ok {
					filtered[name] = filterSchema(sub)
				}
			}
			out["properties"] = filtered
		case "items":
			if sub, ok := v.(map[string]any); ok {
				out["items"] = filterSchema(sub)
			}
		case "nullable":
			if b, ok := v.(bool); ok && b {
				out["nullable"] = true
			}
		default:
			out[k] = v
		}
	}
	return out
}

// normalizeType collapses a type union into its first non-null member.
func normalizeType(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, false
	case []any:
		var typ string
		var nullable bool
		for _, e := range t {
			s, _ := e.(string)
			switch {
			case s == "null":
				nullable = true
			case typ == "" && s != "":
				typ = s
			}
		}
		return typ, nullable
	default:
		return "", false
	}
}
