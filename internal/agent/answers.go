// ABOUTME: Fixed answers the agent gives instead of model text: degradation notice, errors, limits
// ABOUTME: Provider error bodies are probed with gjson for a human-readable message

package agent

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/mauromedda/toolagent-go/pkg/ai"
)

const (
	// ToolsDisabledNotice is returned when the provider rejects tool calls.
	ToolsDisabledNotice = "This model does not support tool calls, so tools have been disabled for the rest of this conversation. Please repeat your request."

	// IterationLimitNotice is returned when the loop runs out of iterations
	// without an answer or any tool results.
	IterationLimitNotice = "I couldn't produce an answer within the iteration limit. Please try rephrasing your request."

	maxErrorText = 500
)

// errorMessagePaths are the JSON paths where providers put the reason.
var errorMessagePaths = []string{"error.message", "message", "error", "detail"}

// errorAnswer renders a provider failure as the assistant's reply.
func errorAnswer(err error) string {
	apiErr, ok := ai.AsAPIError(err)
	if !ok {
		return "Error: " + truncateText(err.Error())
	}

	msg := strings.TrimSpace(apiErr.Body)
	if gjson.Valid(apiErr.Body) {
		for _, path := range errorMessagePaths {
			if r := gjson.Get(apiErr.Body, path); r.Type == gjson.String && r.Str != "" {
				msg = r.Str
				break
			}
		}
	}
	if msg == "" {
		msg = "empty response body"
	}
	return fmt.Sprintf("Error: %s API returned status %d: %s", apiErr.Api, apiErr.StatusCode, truncateText(msg))
}

func truncateText(s string) string {
	if len(s) <= maxErrorText {
		return s
	}
	return strings.ToValidUTF8(s[:maxErrorText], "") + "..."
}
