// ABOUTME: Human-readable rendering of effective configuration
// ABOUTME: Used by the "config" CLI subcommand; API keys are masked

package config

import (
	"fmt"
	"strings"
)

// Explain renders a human-readable summary of the effective settings.
// Shows non-zero values grouped by section.
func Explain(s *Settings) string {
	if s == nil {
		s = &Settings{}
	}

	var b strings.Builder

	b.WriteString("=== Provider ===\n")
	fmt.Fprintf(&b, "  Provider:       %s\n", s.Provider)
	fmt.Fprintf(&b, "  Model:          %s\n", s.Model)
	if s.BaseURL != "" {
		fmt.Fprintf(&b, "  BaseURL:        %s\n", s.BaseURL)
	}
	if s.APIKey != "" {
		fmt.Fprintf(&b, "  APIKey:         %s\n", MaskKey(s.APIKey))
	}
	fmt.Fprintf(&b, "  RequestTimeout: %s\n", s.RequestTimeout)
	b.WriteString("\n")

	b.WriteString("=== Agent ===\n")
	fmt.Fprintf(&b, "  MaxIterations:  %d\n", s.MaxIterations)
	fmt.Fprintf(&b, "  HistoryLimit:   %d\n", s.HistoryLimit)
	fmt.Fprintf(&b, "  MaxTokens:      %d\n", s.MaxTokens)
	if s.Temperature != 0 {
		fmt.Fprintf(&b, "  Temperature:    %.2f\n", s.Temperature)
	}
	if s.Streaming() {
		b.WriteString("  Stream:         true\n")
	}
	if s.SystemPrompt != "" {
		fmt.Fprintf(&b, "  SystemPrompt:   %d chars\n", len(s.SystemPrompt))
	}
	if len(s.ToolsUnsupportedModels) > 0 {
		fmt.Fprintf(&b, "  NoToolsModels:  %s\n", strings.Join(s.ToolsUnsupportedModels, ", "))
	}
	fmt.Fprintf(&b, "  MemoryDir:      %s\n", s.MemoryDir)
	b.WriteString("\n")

	b.WriteString("=== Tools ===\n")
	for _, t := range s.Tools {
		fmt.Fprintf(&b, "  %s: %s", t.Name, t.Command)
		if len(t.Args) > 0 {
			fmt.Fprintf(&b, " %s", strings.Join(t.Args, " "))
		}
		if t.Timeout != 0 {
			fmt.Fprintf(&b, " (timeout %s)", t.Timeout)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// MaskKey hides all but the last three characters of a secret.
func MaskKey(key string) string {
	if len(key) <= 3 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-3) + key[len(key)-3:]
}
