// ABOUTME: Converts canonical history to Anthropic Messages API format and back
// ABOUTME: Tool results become tool_result blocks; consecutive ones share one user message

package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	pilog "github.com/mauromedda/toolagent-go/internal/log"
	"github.com/mauromedda/toolagent-go/pkg/ai"
)

const fallbackMaxTokens = 4096

// buildRequest creates the Messages API body for one call.
func buildRequest(model *ai.Model, llmCtx *ai.Context, opts *ai.Options, stream bool) (*messagesRequest, error) {
	tools, err := convertTools(llmCtx.Tools)
	if err != nil {
		return nil, err
	}

	system, msgs := ai.SplitSystem(llmCtx.Messages)
	req := &messagesRequest{
		Model:     model.ID,
		MaxTokens: maxTokens(model, opts),
		System:    system,
		Messages:  convertMessages(msgs),
		Tools:     tools,
		Stream:    stream,
	}
	if opts != nil {
		req.Temperature = opts.Temperature
	}
	return req, nil
}

// maxTokens is mandatory for this API: the caller's limit, else the
// model's output cap, else a conservative default.
func maxTokens(model *ai.Model, opts *ai.Options) int {
	if opts != nil && opts.MaxTokens > 0 {
		return opts.MaxTokens
	}
	if model.MaxOutputTokens > 0 {
		return model.MaxOutputTokens
	}
	return fallbackMaxTokens
}

// convertMessages maps non-system messages. Empty text blocks are dropped
// and messages left with no blocks are omitted.
func convertMessages(msgs []ai.Message) []wireMessage {
	out := make([]wireMessage, 0, len(msgs))

	for _, m := range msgs {
		switch m.Role {
		case ai.RoleTool:
			block := contentBlock{Type: "tool_result", ToolUseID: m.ToolCallID, Content: m.Content}
			if n := len(out); n > 0 && isToolResultMessage(out[n-1]) {
				out[n-1].Content = append(out[n-1].Content, block)
				continue
			}
			out = append(out, wireMessage{Role: "user", Content: []contentBlock{block}})

		case ai.RoleAssistant:
			var blocks []contentBlock
			if m.Content != "" {
				blocks = append(blocks, contentBlock{Type: "text", Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, contentBlock{
					Type:  "tool_use",
					ID:    tc.ID,
					Name:  tc.Name,
					Input: toolInput(tc),
				})
			}
			if len(blocks) > 0 {
				out = append(out, wireMessage{Role: "assistant", Content: blocks})
			}

		default:
			if m.Content != "" {
				out = append(out, wireMessage{Role: "user", Content: []contentBlock{{Type: "text", Text: m.Content}}})
			}
		}
	}
	return out
}

func isToolResultMessage(m wireMessage) bool {
	if m.Role != "user" || len(m.Content) == 0 {
		return false
	}
	for _, b := range m.Content {
		if b.Type != "tool_result" {
			return false
		}
	}
	return true
}

// toolInput returns the call's arguments as a JSON object; the API
// rejects anything else.
func toolInput(tc ai.ToolCall) json.RawMessage {
	args := strings.TrimSpace(tc.Arguments)
	if args == "" {
		return json.RawMessage("{}")
	}
	if !json.Valid([]byte(args)) || args[0] != '{' {
		pilog.Debug("anthropic: tool_use %s has non-object arguments, sending {}", tc.ID)
		return json.RawMessage("{}")
	}
	return json.RawMessage(args)
}

func convertTools(defs []ai.ToolDefinition) ([]toolDef, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	out := make([]toolDef, 0, len(defs))
	for _, d := range defs {
		schema, err := d.SchemaJSON()
		if err != nil {
			return nil, fmt.Errorf("tool %s: encoding parameters: %w", d.Name, err)
		}
		out = append(out, toolDef{Name: d.Name, Description: d.Description, InputSchema: schema})
	}
	return out, nil
}

// parseResponse concatenates text blocks in order and collects tool_use blocks.
func parseResponse(r *messagesResponse) *ai.Response {
	resp := &ai.Response{
		FinishReason: mapStopReason(r.StopReason),
		Usage:        ai.Usage{InputTokens: r.Usage.InputTokens, OutputTokens: r.Usage.OutputTokens},
	}
	var text strings.Builder
	for _, b := range r.Content {
		switch b.Type {
		case "text":
			text.WriteString(b.Text)
		case "tool_use":
			args := "{}"
			if len(b.Input) > 0 {
				args = string(b.Input)
			}
			resp.ToolCalls = append(resp.ToolCalls, ai.ToolCall{ID: b.ID, Name: b.Name, Arguments: args})
		}
	}
	resp.Content = text.String()
	if resp.HasToolCalls() {
		resp.FinishReason = ai.FinishToolUse
	}
	return resp
}

func mapStopReason(reason string) ai.FinishReason {
	switch reason {
	case "end_turn", "stop_sequence", "":
		return ai.FinishEndTurn
	case "tool_use":
		return ai.FinishToolUse
	case "max_tokens":
		return ai.FinishMaxTokens
	case "refusal":
		return ai.FinishSafety
	default:
		return ai.FinishOther
	}
}
