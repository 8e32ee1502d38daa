// ABOUTME: Tool registry: name dispatch, argument coercion and schema validation
// ABOUTME: Implements Executor; every failure comes back as an error-shaped JSON payload

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/sahilm/fuzzy"

	pilog "github.com/mauromedda/toolagent-go/internal/log"
	"github.com/mauromedda/toolagent-go/pkg/ai"
)

// maxSuggestions caps the "did you mean" list for unknown tool names.
const maxSuggestions = 3

// Executor runs a named tool with its raw argument payload. Implementations
// must not fail across this boundary: errors are encoded in the result.
type Executor interface {
	Execute(ctx context.Context, name, args string) string
}

// Handler implements a tool. args has already been coerced and validated
// against the tool's schema. A string result is returned verbatim; any
// other value is marshaled to JSON.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Tool is a named, schema-described function the model may call.
type Tool struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
	Handler     Handler
}

type entry struct {
	tool     Tool
	resolved *jsonschema.Resolved
}

// Registry dispatches tool calls by name.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*entry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*entry)}
}

// Register adds a tool, replacing any existing tool with the same name.
// The parameter schema must resolve.
func (r *Registry) Register(t Tool) error {
	if t.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if t.Handler == nil {
		return fmt.Errorf("tool %s: handler is required", t.Name)
	}

	e := &entry{tool: t}
	if t.Parameters != nil {
		resolved, err := t.Parameters.Resolve(nil)
		if err != nil {
			return fmt.Errorf("tool %s: resolving schema: %w", t.Name, err)
		}
		e.resolved = resolved
	}

	r.mu.Lock()
	r.tools[t.Name] = e
	r.mu.Unlock()
	return nil
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns the catalogue advertised to the model, sorted by name.
func (r *Registry) Definitions() []ai.ToolDefinition {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]ai.ToolDefinition, 0, len(names))
	for _, name := range names {
		t := r.tools[name].tool
		defs = append(defs, ai.ToolDefinition{Name: t.Name, Description: t.Description, Parameters: t.Parameters})
	}
	return defs
}

// Execute runs the named tool.
func (r *Registry) Execute(ctx context.Context, name, args string) string {
	r.mu.RLock()
	e, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return errorPayload(fmt.Sprintf("unknown tool %q", name), r.suggest(name))
	}

	params, err := parseArgs(args)
	if err != nil {
		return errorPayload(fmt.Sprintf("invalid arguments for %s: %v", name, err), nil)
	}
	if e.tool.Parameters != nil {
		coerce(e.tool.Parameters, params)
	}
	if e.resolved != nil {
		if err := e.resolved.Validate(params); err != nil {
			return errorPayload(fmt.Sprintf("invalid arguments for %s: %v", name, err), nil)
		}
	}

	start := time.Now()
	result, err := safeCall(ctx, e.tool.Handler, params)
	pilog.Logger().Debug("tool executed", "tool", name, "duration", time.Since(start), "failed", err != nil)
	if err != nil {
		return errorPayload(err.Error(), nil)
	}
	return encodeResult(result)
}

func (r *Registry) suggest(name string) []string {
	names := r.Names()
	matches := fuzzy.Find(name, names)
	out := make([]string, 0, min(len(matches), maxSuggestions))
	for i, m := range matches {
		if i == maxSuggestions {
			break
		}
		out = append(out, m.Str)
	}
	return out
}

// safeCall runs h, converting a panic into an error.
func safeCall(ctx context.Context, h Handler, params map[string]any) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			pilog.Error("tool panic: %v\n%s", p, debug.Stack())
			err = fmt.Errorf("tool panicked: %v", p)
		}
	}()
	return h(ctx, params)
}

// parseArgs decodes the argument payload into an object. An empty payload
// is an empty object.
func parseArgs(args string) (map[string]any, error) {
	if len(args) == 0 {
		return map[string]any{}, nil
	}
	var v any
	if err := json.Unmarshal([]byte(args), &v); err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case map[string]any:
		return t, nil
	case nil:
		return map[string]any{}, nil
	default:
		return nil, fmt.Errorf("expected a JSON object, got %T", v)
	}
}

func encodeResult(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case json.RawMessage:
		return string(t)
	case nil:
		return "{}"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return errorPayload(fmt.Sprintf("encoding result: %v", err), nil)
	}
	return string(data)
}

// errorPayload renders the error-shaped result every tool failure uses.
func errorPayload(msg string, suggestions []string) string {
	payload := map[string]any{"error": msg}
	if len(suggestions) > 0 {
		payload["suggestions"] = suggestions
	}
	data, _ := json.Marshal(payload)
	return string(data)
}
