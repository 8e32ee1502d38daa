// ABOUTME: Wire types for the Anthropic Messages API: request, reply, and SSE payloads
// ABOUTME: Delta payloads decode through easyjson lexers (decode.go); the rest use encoding/json

package anthropic

import "encoding/json"

type messagesRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	System      string        `json:"system,omitempty"`
	Messages    []wireMessage `json:"messages"`
	Tools       []toolDef     `json:"tools,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type wireMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

// contentBlock covers the text, tool_use and tool_result block shapes.
type contentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
}

type toolDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// messagesResponse is the non-streaming reply body.
type messagesResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      wireUsage      `json:"usage"`
}

type wireUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// messageStartPayload is the SSE payload for "message_start" events.
type messageStartPayload struct {
	Message struct {
		Model string    `json:"model"`
		Usage wireUsage `json:"usage"`
	} `json:"message"`
}

// contentBlockStartPayload is the SSE payload for "content_block_start" events.
type contentBlockStartPayload struct {
	Index        int `json:"index"`
	ContentBlock struct {
		Type string `json:"type"`
		ID   string `json:"id"`
		Name string `json:"name"`
		Text string `json:"text"`
	} `json:"content_block"`
}

// contentBlockDeltaPayload is the SSE payload for "content_block_delta" events.
type contentBlockDeltaPayload struct {
	Index int
	Delta struct {
		Type        string
		Text        string
		PartialJSON string
	}
}

// contentBlockStopPayload is the SSE payload for "content_block_stop" events.
type contentBlockStopPayload struct {
	Index int `json:"index"`
}

// messageDeltaPayload is the SSE payload for "message_delta" events.
type messageDeltaPayload struct {
	Delta struct {
		StopReason string
	}
	Usage struct {
		OutputTokens int
	}
}

// sseErrorPayload is the SSE payload for "error" events.
type sseErrorPayload struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
