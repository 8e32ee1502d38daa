// ABOUTME: easyjson lexer decoders for streaming chunk types (no reflection per SSE event)
// ABOUTME: Unknown keys are skipped; null values leave the zero value in place

package openai

import (
	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jlexer"

	"github.com/mauromedda/toolagent-go/pkg/ai/internal/jlex"
)

var _ easyjson.Unmarshaler = (*chatCompletionChunk)(nil)

// UnmarshalJSON supports json.Unmarshaler.
func (v *chatCompletionChunk) UnmarshalJSON(data []byte) error {
	return jlex.Decode(data, v.UnmarshalEasyJSON)
}

// UnmarshalEasyJSON supports easyjson.Unmarshaler.
func (v *chatCompletionChunk) UnmarshalEasyJSON(in *jlexer.Lexer) {
	jlex.Object(in, func(key string) {
		switch key {
		case "id":
			v.ID = in.String()
		case "choices":
			v.Choices = v.Choices[:0]
			jlex.Array(in, func() {
				var c chunkChoice
				c.decode(in)
				v.Choices = append(v.Choices, c)
			})
		case "usage":
			v.Usage = &chunkUsage{}
			v.Usage.decode(in)
		default:
			in.SkipRecursive()
		}
	})
}

func (v *chunkChoice) decode(in *jlexer.Lexer) {
	jlex.Object(in, func(key string) {
		switch key {
		case "index":
			v.Index = in.Int()
		case "delta":
			v.Delta.decode(in)
		case "finish_reason":
			v.FinishReason = in.String()
		default:
			in.SkipRecursive()
		}
	})
}

func (v *chunkDelta) decode(in *jlexer.Lexer) {
	jlex.Object(in, func(key string) {
		switch key {
		case "role":
			v.Role = in.String()
		case "content":
			v.Content = in.String()
		case "tool_calls":
			jlex.Array(in, func() {
				var tc toolCallDelta
				tc.decode(in)
				v.ToolCalls = append(v.ToolCalls, tc)
			})
		default:
			in.SkipRecursive()
		}
	})
}

func (v *toolCallDelta) decode(in *jlexer.Lexer) {
	jlex.Object(in, func(key string) {
		switch key {
		case "index":
			v.Index = in.Int()
		case "id":
			v.ID = in.String()
		case "type":
			v.Type = in.String()
		case "function":
			jlex.Object(in, func(key string) {
				switch key {
				case "name":
					v.Function.Name = in.String()
				case "arguments":
					v.Function.Arguments = in.String()
				default:
					in.SkipRecursive()
				}
			})
		default:
			in.SkipRecursive()
		}
	})
}

func (v *chunkUsage) decode(in *jlexer.Lexer) {
	jlex.Object(in, func(key string) {
		switch key {
		case "prompt_tokens":
			v.PromptTokens = in.Int()
		case "completion_tokens":
			v.CompletionTokens = in.Int()
		case "total_tokens":
			v.TotalTokens = in.Int()
		default:
			in.SkipRecursive()
		}
	})
}
