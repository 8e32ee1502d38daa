// ABOUTME: Detects provider replies that reject tool calling for the configured model
// ABOUTME: Error text is case-folded with x/text/cases before phrase matching

package agent

import (
	"strings"

	"golang.org/x/text/cases"
)

// unsupportedPhrases are known wordings, across providers and
// OpenAI-compatible servers, for "this model cannot take tools".
var unsupportedPhrases = []string{
	"does not support tools",
	"does not support tool use",
	"does not support tool calling",
	"does not support function calling",
	"does not support functions",
	"tools are not supported",
	"tools is not supported",
	"tool use is not supported",
	"tool calling is not supported",
	"tool calls are not supported",
	"function calling is not enabled",
	"function calling is not supported",
	"unsupported parameter: 'tools'",
	"unrecognized request argument supplied: tools",
	"tool_choice is not supported",
}

var fold = cases.Fold()

// isToolsUnsupported reports whether err reads like a provider refusing
// tool calls for this model.
func isToolsUnsupported(err error) bool {
	if err == nil {
		return false
	}
	text := fold.String(err.Error())
	for _, p := range unsupportedPhrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// modelDenied reports whether model is on the deny-list. Entries match
// case-insensitively; a trailing "*" matches any suffix.
func modelDenied(model string, denyList []string) bool {
	id := fold.String(model)
	for _, entry := range denyList {
		e := fold.String(strings.TrimSpace(entry))
		if e == "" {
			continue
		}
		if prefix, ok := strings.CutSuffix(e, "*"); ok {
			if strings.HasPrefix(id, prefix) {
				return true
			}
			continue
		}
		if id == e {
			return true
		}
	}
	return false
}
