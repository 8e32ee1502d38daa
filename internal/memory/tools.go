// ABOUTME: remember/recall tools that expose the memory store to the model
// ABOUTME: Results are JSON objects so the fallback formatter can render them

package memory

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/mauromedda/toolagent-go/internal/tools"
)

type memoryEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Tools returns the remember and recall tools backed by s.
func Tools(s *Store) []tools.Tool {
	return []tools.Tool{
		{
			Name:        "remember",
			Description: "Save a fact for future conversations. Optionally give it a short key.",
			Parameters: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"content": {Type: "string", Description: "The fact to remember"},
					"key":     {Type: "string", Description: "Optional key (letters, digits, dash, underscore)"},
				},
				Required: []string{"content"},
			},
			Handler: func(_ context.Context, args map[string]any) (any, error) {
				content, _ := args["content"].(string)
				key, _ := args["key"].(string)
				n, err := s.Remember(key, content)
				if err != nil {
					return nil, err
				}
				return map[string]any{"saved": true, "key": n.Key, "content": n.Content}, nil
			},
		},
		{
			Name:        "recall",
			Description: "Search saved memories. An empty query returns everything.",
			Parameters: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"query": {Type: "string", Description: "Text to look for"},
				},
			},
			Handler: func(_ context.Context, args map[string]any) (any, error) {
				query, _ := args["query"].(string)
				notes := s.Notes(query)
				entries := make([]memoryEntry, 0, len(notes))
				for _, n := range notes {
					entries = append(entries, memoryEntry{Key: n.Key, Value: n.Content})
				}
				return map[string]any{"memories": entries}, nil
			},
		},
		{
			Name:        "forget",
			Description: "Delete a saved memory by key.",
			Parameters: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"key": {Type: "string", Description: "Key of the memory to delete"},
				},
				Required: []string{"key"},
			},
			Handler: func(_ context.Context, args map[string]any) (any, error) {
				key, _ := args["key"].(string)
				if err := s.Forget(key); err != nil {
					return nil, fmt.Errorf("forget %s: %w", key, err)
				}
				return map[string]any{"deleted": true, "key": key}, nil
			},
		},
	}
}
