// ABOUTME: Canonical conversation types: Message, ToolCall, ToolDefinition, Response, FinishReason
// ABOUTME: Shared across all providers; wire-format agnostic

package ai

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
)

// Role represents a message role in the conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// FinishReason indicates why the model stopped generating.
type FinishReason string

const (
	FinishEndTurn   FinishReason = "end_turn"
	FinishToolUse   FinishReason = "tool_use"
	FinishMaxTokens FinishReason = "max_tokens"
	FinishSafety    FinishReason = "safety"
	FinishOther     FinishReason = "other"
)

// ToolCall is a model request to invoke a tool. Arguments holds the raw
// serialized payload exactly as the provider produced it.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is a single conversation entry.
//
// ToolCalls is set only on assistant messages; ToolCallID only on tool
// messages, where it must match the ID of a ToolCall from an earlier
// assistant message.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// NewTextMessage creates a message with plain text content.
func NewTextMessage(role Role, text string) Message {
	return Message{Role: role, Content: text}
}

// NewToolResultMessage creates the tool message answering call.
func NewToolResultMessage(callID, result string) Message {
	return Message{Role: RoleTool, Content: result, ToolCallID: callID}
}

// ToolDefinition advertises a tool the model can invoke.
type ToolDefinition struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

// SchemaJSON returns the parameter schema as JSON. A nil schema becomes an
// empty object schema, which every provider accepts.
func (d ToolDefinition) SchemaJSON() (json.RawMessage, error) {
	if d.Parameters == nil {
		return json.RawMessage(`{"type":"object","properties":{}}`), nil
	}
	return json.Marshal(d.Parameters)
}

// Response is the parsed result of one provider round-trip.
type Response struct {
	Content      string       `json:"content"`
	ToolCalls    []ToolCall   `json:"tool_calls,omitempty"`
	FinishReason FinishReason `json:"finish_reason"`
	Usage        Usage        `json:"usage"`
}

// HasToolCalls reports whether the model asked to act before answering.
func (r *Response) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Api identifies a provider protocol family.
type Api string

const (
	ApiOpenAI    Api = "openai"
	ApiAnthropic Api = "anthropic"
	ApiGoogle    Api = "google"
)

// Model defines a model's metadata.
type Model struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Api             Api    `json:"api"`
	MaxTokens       int    `json:"max_tokens"`
	MaxOutputTokens int    `json:"max_output_tokens"`
}

// Context holds the history and tool catalogue for one provider call.
// Tools is nil when tool calling is disabled.
type Context struct {
	Messages []Message        `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
}

// Options configures a single call.
type Options struct {
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// SplitSystem separates system messages from the rest of the history.
// Multiple system messages are joined with a blank line so providers that
// take a single system field receive the instructions exactly once.
func SplitSystem(msgs []Message) (string, []Message) {
	var system string
	rest := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role != RoleSystem {
			rest = append(rest, m)
			continue
		}
		if m.Content == "" {
			continue
		}
		if system != "" {
			system += "\n\n"
		}
		system += m.Content
	}
	return system, rest
}

// ToolNames maps tool call IDs to tool names across the history.
func ToolNames(msgs []Message) map[string]string {
	names := make(map[string]string)
	for _, m := range msgs {
		for _, tc := range m.ToolCalls {
			names[tc.ID] = tc.Name
		}
	}
	return names
}
