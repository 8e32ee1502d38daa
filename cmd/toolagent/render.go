// ABOUTME: Terminal output: glamour markdown for answers, lipgloss styles for notices
// ABOUTME: Plain text when stdout is not a terminal, so pipes get the raw answer

package main

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const defaultWrapWidth = 100

type styles struct {
	prompt lipgloss.Style
	tool   lipgloss.Style
	result lipgloss.Style
	notice lipgloss.Style
	err    lipgloss.Style
}

func terminalStyles() styles {
	return styles{
		prompt: lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true),
		tool:   lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		result: lipgloss.NewStyle().Faint(true),
		notice: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		err:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

func plainStyles() styles {
	plain := lipgloss.NewStyle()
	return styles{prompt: plain, tool: plain, result: plain, notice: plain, err: plain}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// markdownRenderer returns a function rendering markdown for w. Without a
// terminal, text passes through unchanged.
func markdownRenderer(w io.Writer) func(string) string {
	if !isTerminal(w) {
		return func(s string) string { return s }
	}

	width := defaultWrapWidth
	if f, ok := w.(*os.File); ok {
		if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols > 20 {
			width = min(cols-2, defaultWrapWidth)
		}
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return func(s string) string { return s }
	}
	return func(md string) string {
		out, err := renderer.Render(md)
		if err != nil {
			return md
		}
		return strings.Trim(out, "\n")
	}
}
