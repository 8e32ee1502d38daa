// ABOUTME: Converts canonical history to Gemini contents and parses candidates back
// ABOUTME: Gemini calls carry no IDs, so calls get synthesized IDs and results are matched by name

package google

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	pilog "github.com/mauromedda/toolagent-go/internal/log"
	"github.com/mauromedda/toolagent-go/pkg/ai"
)

func buildRequest(llmCtx *ai.Context, opts *ai.Options) (*generateRequest, error) {
	system, msgs := ai.SplitSystem(llmCtx.Messages)

	req := &generateRequest{Contents: convertMessages(msgs)}
	if system != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: system}}}
	}

	if len(llmCtx.Tools) > 0 {
		decls := make([]functionDecl, 0, len(llmCtx.Tools))
		for _, t := range llmCtx.Tools {
			params, err := declarationSchema(t)
			if err != nil {
				return nil, err
			}
			decls = append(decls, functionDecl{Name: t.Name, Description: t.Description, Parameters: params})
		}
		req.Tools = []toolDef{{FunctionDeclarations: decls}}
	}

	if opts != nil && (opts.MaxTokens > 0 || opts.Temperature > 0) {
		req.GenerationConfig = &generationConfig{MaxOutputTokens: opts.MaxTokens, Temperature: opts.Temperature}
	}
	return req, nil
}

// convertMessages maps non-system messages to contents. Consecutive tool
// results share one user content, as the API expects all responses to a
// turn's calls together.
func convertMessages(msgs []ai.Message) []content {
	names := ai.ToolNames(msgs)
	out := make([]content, 0, len(msgs))

	for _, m := range msgs {
		switch m.Role {
		case ai.RoleTool:
			p := part{FunctionResponse: &functionResponse{
				Name:     toolName(names, m.ToolCallID),
				Response: responseObject(m.Content),
			}}
			if n := len(out); n > 0 && isFunctionResponseContent(out[n-1]) {
				out[n-1].Parts = append(out[n-1].Parts, p)
				continue
			}
			out = append(out, content{Role: "user", Parts: []part{p}})

		case ai.RoleAssistant:
			var parts []part
			if m.Content != "" {
				parts = append(parts, part{Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				parts = append(parts, part{FunctionCall: &functionCall{Name: tc.Name, Args: argsObject(tc.Arguments)}})
			}
			if len(parts) > 0 {
				out = append(out, content{Role: "model", Parts: parts})
			}

		default:
			if m.Content != "" {
				out = append(out, content{Role: "user", Parts: []part{{Text: m.Content}}})
			}
		}
	}
	return out
}

func isFunctionResponseContent(c content) bool {
	if c.Role != "user" || len(c.Parts) == 0 {
		return false
	}
	for _, p := range c.Parts {
		if p.FunctionResponse == nil {
			return false
		}
	}
	return true
}

func toolName(names map[string]string, callID string) string {
	if name, ok := names[callID]; ok {
		return name
	}
	pilog.Debug("google: no call found for tool result %s", callID)
	return "unknown_tool"
}

// responseObject wraps a tool result as the JSON object functionResponse
// requires. Non-object results land under "result".
func responseObject(result string) json.RawMessage {
	trimmed := bytes.TrimSpace([]byte(result))
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	var value any = result
	if json.Valid(trimmed) {
		value = json.RawMessage(trimmed)
	}
	wrapped, _ := json.Marshal(map[string]any{"result": value})
	return wrapped
}

// argsObject returns arguments as a JSON object; anything else becomes {}.
func argsObject(args string) json.RawMessage {
	trimmed := strings.TrimSpace(args)
	if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed)
	}
	return json.RawMessage("{}")
}

// newCallID synthesizes an identifier for a function call.
func newCallID() string {
	return "call_" + uuid.NewString()
}

// responseParts extracts visible text and function calls from the first
// candidate. Thought parts are skipped.
func responseParts(r *generateResponse) (string, []ai.ToolCall) {
	if len(r.Candidates) == 0 {
		return "", nil
	}
	var text strings.Builder
	var calls []ai.ToolCall
	for _, p := range r.Candidates[0].Content.Parts {
		if p.Thought {
			continue
		}
		text.WriteString(p.Text)
		if p.FunctionCall != nil {
			calls = append(calls, toToolCall(p.FunctionCall))
		}
	}
	return text.String(), calls
}

func toToolCall(fc *functionCall) ai.ToolCall {
	id := fc.ID
	if id == "" {
		id = newCallID()
	}
	args := "{}"
	if len(fc.Args) > 0 && string(fc.Args) != "null" {
		args = string(fc.Args)
	}
	return ai.ToolCall{ID: id, Name: fc.Name, Arguments: args}
}

func parseResponse(r *generateResponse) *ai.Response {
	text, calls := responseParts(r)
	resp := &ai.Response{
		Content:      text,
		ToolCalls:    calls,
		FinishReason: responseFinish(r, len(calls) > 0),
	}
	if r.UsageMetadata != nil {
		resp.Usage = ai.Usage{InputTokens: r.UsageMetadata.PromptTokenCount, OutputTokens: r.UsageMetadata.CandidatesTokenCount}
	}
	return resp
}

func responseFinish(r *generateResponse, hasCalls bool) ai.FinishReason {
	if hasCalls {
		return ai.FinishToolUse
	}
	if len(r.Candidates) == 0 {
		if r.PromptFeedback != nil && r.PromptFeedback.BlockReason != "" {
			return ai.FinishSafety
		}
		return ai.FinishEndTurn
	}
	return mapFinishReason(r.Candidates[0].FinishReason)
}

func mapFinishReason(reason string) ai.FinishReason {
	switch reason {
	case "STOP", "":
		return ai.FinishEndTurn
	case "MAX_TOKENS":
		return ai.FinishMaxTokens
	case "SAFETY", "RECITATION", "BLOCKLIST", "PROHIBITED_CONTENT", "SPII", "IMAGE_SAFETY":
		return ai.FinishSafety
	default:
		return ai.FinishOther
	}
}
