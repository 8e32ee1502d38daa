// ABOUTME: easyjson lexer decoders for the high-frequency Anthropic delta events
// ABOUTME: One content_block_delta arrives per token, so these skip reflection entirely

package anthropic

import (
	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jlexer"

	"github.com/mauromedda/toolagent-go/pkg/ai/internal/jlex"
)

var (
	_ easyjson.Unmarshaler = (*contentBlockDeltaPayload)(nil)
	_ easyjson.Unmarshaler = (*messageDeltaPayload)(nil)
)

// UnmarshalJSON supports json.Unmarshaler.
func (v *contentBlockDeltaPayload) UnmarshalJSON(data []byte) error {
	return jlex.Decode(data, v.UnmarshalEasyJSON)
}

// UnmarshalEasyJSON supports easyjson.Unmarshaler.
func (v *contentBlockDeltaPayload) UnmarshalEasyJSON(in *jlexer.Lexer) {
	jlex.Object(in, func(key string) {
		switch key {
		case "index":
			v.Index = in.Int()
		case "delta":
			jlex.Object(in, func(key string) {
				switch key {
				case "type":
					v.Delta.Type = in.String()
				case "text":
					v.Delta.Text = in.String()
				case "partial_json":
					v.Delta.PartialJSON = in.String()
				default:
					in.SkipRecursive()
				}
			})
		default:
			in.SkipRecursive()
		}
	})
}

// UnmarshalJSON supports json.Unmarshaler.
func (v *messageDeltaPayload) UnmarshalJSON(data []byte) error {
	return jlex.Decode(data, v.UnmarshalEasyJSON)
}

// UnmarshalEasyJSON supports easyjson.Unmarshaler.
func (v *messageDeltaPayload) UnmarshalEasyJSON(in *jlexer.Lexer) {
	jlex.Object(in, func(key string) {
		switch key {
		case "delta":
			jlex.Object(in, func(key string) {
				if key == "stop_reason" {
					v.Delta.StopReason = in.String()
					return
				}
				in.SkipRecursive()
			})
		case "usage":
			jlex.Object(in, func(key string) {
				if key == "output_tokens" {
					v.Usage.OutputTokens = in.Int()
					return
				}
				in.SkipRecursive()
			})
		default:
			in.SkipRecursive()
		}
	})
}
