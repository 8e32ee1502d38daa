// ABOUTME: Converts canonical history to OpenAI Chat Completions messages and back
// ABOUTME: System instructions go inline as one leading system message; tool results use role "tool"

package openai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mauromedda/toolagent-go/pkg/ai"
)

// buildRequest creates the chat completion body for one call.
func buildRequest(model *ai.Model, llmCtx *ai.Context, opts *ai.Options, stream bool) (*chatRequest, error) {
	tools, err := convertTools(llmCtx.Tools)
	if err != nil {
		return nil, err
	}

	req := &chatRequest{
		Model:    model.ID,
		Messages: convertMessages(llmCtx.Messages),
		Tools:    tools,
		Stream:   stream,
	}
	if len(tools) > 0 {
		req.ToolChoice = "auto"
	}
	if stream {
		req.StreamOptions = &streamOptions{IncludeUsage: true}
	}
	if opts != nil {
		req.MaxTokens = opts.MaxTokens
		req.Temperature = opts.Temperature
	}
	return req, nil
}

// convertMessages maps canonical messages to the wire format. All system
// messages collapse into a single leading one.
func convertMessages(msgs []ai.Message) []chatMessage {
	system, rest := ai.SplitSystem(msgs)

	out := make([]chatMessage, 0, len(rest)+1)
	if system != "" {
		out = append(out, chatMessage{Role: "system", Content: system})
	}

	for _, m := range rest {
		switch m.Role {
		case ai.RoleAssistant:
			cm := chatMessage{Role: "assistant"}
			if m.Content != "" || len(m.ToolCalls) == 0 {
				cm.Content = m.Content
			}
			for _, tc := range m.ToolCalls {
				cm.ToolCalls = append(cm.ToolCalls, toolCallReq{
					ID:   tc.ID,
					Type: "function",
					Function: toolCallFuncReq{
						Name:      tc.Name,
						Arguments: argumentsOrEmpty(tc.Arguments),
					},
				})
			}
			out = append(out, cm)
		case ai.RoleTool:
			out = append(out, chatMessage{Role: "tool", Content: m.Content, ToolCallID: m.ToolCallID})
		default:
			out = append(out, chatMessage{Role: string(m.Role), Content: m.Content})
		}
	}
	return out
}

func convertTools(defs []ai.ToolDefinition) ([]toolDef, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	out := make([]toolDef, 0, len(defs))
	for _, d := range defs {
		params, err := d.SchemaJSON()
		if err != nil {
			return nil, fmt.Errorf("tool %s: encoding parameters: %w", d.Name, err)
		}
		out = append(out, toolDef{
			Type: "function",
			Function: toolFuncDef{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  params,
			},
		})
	}
	return out, nil
}

// parseCompletion extracts the first choice of a non-streaming reply.
func parseCompletion(c *chatCompletion) (*ai.Response, error) {
	if len(c.Choices) == 0 {
		return nil, fmt.Errorf("openai: reply has no choices")
	}
	choice := c.Choices[0]

	resp := &ai.Response{
		Content:      contentText(choice.Message.Content),
		FinishReason: mapFinishReason(choice.FinishReason),
	}
	for i, tc := range choice.Message.ToolCalls {
		resp.ToolCalls = append(resp.ToolCalls, ai.ToolCall{
			ID:        callID(tc.ID, i),
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	if resp.HasToolCalls() {
		resp.FinishReason = ai.FinishToolUse
	}
	if c.Usage != nil {
		resp.Usage = ai.Usage{InputTokens: c.Usage.PromptTokens, OutputTokens: c.Usage.CompletionTokens}
	}
	return resp, nil
}

// contentText accepts a string, null, or an array of text parts; parts are
// concatenated in order.
func contentText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}
	var b strings.Builder
	for _, p := range parts {
		if p.Type == "" || p.Type == "text" {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

func mapFinishReason(reason string) ai.FinishReason {
	switch reason {
	case "stop", "":
		return ai.FinishEndTurn
	case "length":
		return ai.FinishMaxTokens
	case "tool_calls", "function_call":
		return ai.FinishToolUse
	case "content_filter":
		return ai.FinishSafety
	default:
		return ai.FinishOther
	}
}

// callID keeps the provider's ID; some compatible servers omit it.
func callID(id string, index int) string {
	if id != "" {
		return id
	}
	return fmt.Sprintf("call_%d", index)
}

func argumentsOrEmpty(args string) string {
	if strings.TrimSpace(args) == "" {
		return "{}"
	}
	return args
}
