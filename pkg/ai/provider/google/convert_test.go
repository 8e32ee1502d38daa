// ABOUTME: Tests for Gemini conversion: roles, function responses, schema filtering, finish mapping
// ABOUTME: Function responses must recover the tool name from the earlier call

package google

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/mauromedda/toolagent-go/pkg/ai"
)

func TestConvertMessagesRolesAndResults(t *testing.T) {
	t.Parallel()

	msgs := []ai.Message{
		ai.NewTextMessage(ai.RoleUser, "weather in two cities"),
		{Role: ai.RoleAssistant, ToolCalls: []ai.ToolCall{
			{ID: "c1", Name: "lookup", Arguments: `{"city":"Rome"}`},
			{ID: "c2", Name: "lookup", Arguments: `not json`},
		}},
		ai.NewToolResultMessage("c1", `{"temp":21}`),
		ai.NewToolResultMessage("c2", `sunny`),
		ai.NewTextMessage(ai.RoleAssistant, "Both warm."),
	}
	got := convertMessages(msgs)

	if len(got) != 4 {
		t.Fatalf("got %d contents, want 4", len(got))
	}
	if got[0].Role != "user" || got[1].Role != "model" || got[2].Role != "user" || got[3].Role != "model" {
		t.Errorf("roles = %s %s %s %s", got[0].Role, got[1].Role, got[2].Role, got[3].Role)
	}
	if string(got[1].Parts[1].FunctionCall.Args) != "{}" {
		t.Errorf("invalid args must become {}, got %s", got[1].Parts[1].FunctionCall.Args)
	}

	results := got[2].Parts
	if len(results) != 2 {
		t.Fatalf("function responses = %d, want 2", len(results))
	}
	if results[0].FunctionResponse.Name != "lookup" || string(results[0].FunctionResponse.Response) != `{"temp":21}` {
		t.Errorf("first response = %+v", results[0].FunctionResponse)
	}
	if string(results[1].FunctionResponse.Response) != `{"result":"sunny"}` {
		t.Errorf("second response = %s", results[1].FunctionResponse.Response)
	}
}

func TestResponseObject(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		`{"a":1}`: `{"a":1}`,
		`[1,2]`:   `{"result":[1,2]}`,
		`42`:      `{"result":42}`,
		`plain`:   `{"result":"plain"}`,
		``:        `{"result":""}`,
	}
	for in, want := range tests {
		if got := string(responseObject(in)); got != want {
			t.Errorf("responseObject(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestBuildRequestSystemAndTools(t *testing.T) {
	t.Parallel()

	llmCtx := &ai.Context{
		Messages: []ai.Message{
			ai.NewTextMessage(ai.RoleSystem, "be exact"),
			ai.NewTextMessage(ai.RoleUser, "hi"),
		},
		Tools: []ai.ToolDefinition{{
			Name:        "lookup",
			Description: "Look things up",
			Parameters: &jsonschema.Schema{
				Type:                 "object",
				AdditionalProperties: &jsonschema.Schema{Not: &jsonschema.Schema{}},
				Properties: map[string]*jsonschema.Schema{
					"q":     {Type: "string", Pattern: "^[a-z]+$"},
					"limit": {Types: []string{"integer", "null"}},
				},
				Required: []string{"q"},
			},
		}},
	}
	req, err := buildRequest(llmCtx, nil)
	if err != nil {
		t.Fatal(err)
	}

	raw, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"system_instruction"`, `"function_declarations"`} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("request missing %s: %s", want, raw)
		}
	}
	if req.GenerationConfig != nil {
		t.Error("generationConfig must be omitted without options")
	}

	params := req.Tools[0].FunctionDeclarations[0].Parameters
	if _, ok := params["additionalProperties"]; ok {
		t.Error("additionalProperties must be filtered out")
	}
	props := params["properties"].(map[string]any)
	if _, ok := props["q"].(map[string]any)["pattern"]; ok {
		t.Error("pattern must be filtered out")
	}
	limit := props["limit"].(map[string]any)
	if limit["type"] != "integer" || limit["nullable"] != true {
		t.Errorf("limit = %v", limit)
	}
}

func TestDeclarationOmitsEmptyParameters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		params *jsonschema.Schema
	}{
		{"nil schema", nil},
		{"object without properties", &jsonschema.Schema{Type: "object"}},
		{"empty properties", &jsonschema.Schema{Type: "object", Properties: map[string]*jsonschema.Schema{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req, err := buildRequest(&ai.Context{
				Messages: []ai.Message{ai.NewTextMessage(ai.RoleUser, "hi")},
				Tools:    []ai.ToolDefinition{{Name: "now", Parameters: tt.params}},
			}, nil)
			if err != nil {
				t.Fatal(err)
			}
			raw, err := json.Marshal(req.Tools[0].FunctionDeclarations[0])
			if err != nil {
				t.Fatal(err)
			}
			if strings.Contains(string(raw), "parameters") {
				t.Errorf("declaration = %s, want parameters omitted", raw)
			}
		})
	}
}

func TestFilterSchemaNested(t *testing.T) {
	t.Parallel()

	in := map[string]any{
		"type":    "array",
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"items": map[string]any{
			"type":     "object",
			"examples": []any{"x"},
			"properties": map[string]any{
				"kind": map[string]any{"type": "string", "enum": []any{"a", "b"}, "default": "a"},
			},
		},
	}
	want := map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"kind": map[string]any{"type": "string", "enum": []any{"a", "b"}},
			},
		},
	}
	if got := filterSchema(in); !reflect.DeepEqual(got, want) {
		t.Errorf("filterSchema = %#v\nwant %#v", got, want)
	}
}

func TestParseResponseSynthesizesIDs(t *testing.T) {
	t.Parallel()

	var r generateResponse
	raw := `{"candidates":[{"content":{"role":"model","parts":[
		{"text":"thinking...","thought":true},
		{"functionCall":{"name":"lookup","args":{"q":"a"}}},
		{"functionCall":{"name":"lookup","args":{"q":"b"}}}]},"finishReason":"STOP"}],
		"usageMetadata":{"promptTokenCount":4,"candidatesTokenCount":9}}`
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		t.Fatal(err)
	}
	resp := parseResponse(&r)

	if resp.Content != "" {
		t.Errorf("thought text leaked: %q", resp.Content)
	}
	if resp.FinishReason != ai.FinishToolUse {
		t.Errorf("finish = %q, want tool_use", resp.FinishReason)
	}
	if len(resp.ToolCalls) != 2 {
		t.Fatalf("tool calls = %+v", resp.ToolCalls)
	}
	a, b := resp.ToolCalls[0], resp.ToolCalls[1]
	if a.ID == "" || a.ID == b.ID || !strings.HasPrefix(a.ID, "call_") {
		t.Errorf("ids must be unique and non-empty: %q %q", a.ID, b.ID)
	}
	if a.Arguments != `{"q":"a"}` {
		t.Errorf("arguments = %s", a.Arguments)
	}
	if resp.Usage.OutputTokens != 9 {
		t.Errorf("usage = %+v", resp.Usage)
	}
}

func TestResponseFinish(t *testing.T) {
	t.Parallel()

	blocked := &generateResponse{PromptFeedback: &promptFeedback{BlockReason: "SAFETY"}}
	if got := responseFinish(blocked, false); got != ai.FinishSafety {
		t.Errorf("blocked prompt = %q", got)
	}

	tests := map[string]ai.FinishReason{
		"STOP":       ai.FinishEndTurn,
		"MAX_TOKENS": ai.FinishMaxTokens,
		"SAFETY":     ai.FinishSafety,
		"RECITATION": ai.FinishSafety,
		"OTHER":      ai.FinishOther,
	}
	for in, want := range tests {
		if got := mapFinishReason(in); got != want {
			t.Errorf("mapFinishReason(%q) = %q, want %q", in, got, want)
		}
	}
}
