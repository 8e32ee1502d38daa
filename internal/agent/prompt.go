// ABOUTME: Builds the session system message from the configured prompt and memory
// ABOUTME: Memory text is purely additive; an empty result means no system message

package agent

import (
	"context"
	"strings"

	"github.com/mauromedda/toolagent-go/pkg/ai"
)

// Memory is the persistence collaborator consulted at session boundaries.
type Memory interface {
	FormatForPrompt() string
	RecentSummary(n int) string
	SaveSession(ctx context.Context, history []ai.Message) error
}

// systemPrompt joins the base prompt with memory sections.
func systemPrompt(base string, mem Memory, recent int) string {
	parts := make([]string, 0, 3)
	if s := strings.TrimSpace(base); s != "" {
		parts = append(parts, s)
	}
	if mem != nil {
		if s := strings.TrimSpace(mem.FormatForPrompt()); s != "" {
			parts = append(parts, s)
		}
		if recent > 0 {
			if s := strings.TrimSpace(mem.RecentSummary(recent)); s != "" {
				parts = append(parts, s)
			}
		}
	}
	return strings.Join(parts, "\n\n")
}
