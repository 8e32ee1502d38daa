// ABOUTME: Observer receives streaming side-effects: text deltas, tool calls and tool results
// ABOUTME: ObserverFuncs adapts optional callbacks to the interface

package agent

import "github.com/mauromedda/toolagent-go/pkg/ai"

// Observer is notified while ConverseStreaming runs. Calls happen on the
// goroutine running the conversation, in event order.
type Observer interface {
	OnTextDelta(text string)
	OnToolCall(call ai.ToolCall)
	OnToolResult(call ai.ToolCall, result string)
}

// ObserverFuncs implements Observer with optional callbacks.
type ObserverFuncs struct {
	TextDelta  func(text string)
	ToolCall   func(call ai.ToolCall)
	ToolResult func(call ai.ToolCall, result string)
}

func (o ObserverFuncs) OnTextDelta(text string) {
	if o.TextDelta != nil {
		o.TextDelta(text)
	}
}

func (o ObserverFuncs) OnToolCall(call ai.ToolCall) {
	if o.ToolCall != nil {
		o.ToolCall(call)
	}
}

func (o ObserverFuncs) OnToolResult(call ai.ToolCall, result string) {
	if o.ToolResult != nil {
		o.ToolResult(call, result)
	}
}

type nopObserver struct{}

func (nopObserver) OnTextDelta(string)               {}
func (nopObserver) OnToolCall(ai.ToolCall)           {}
func (nopObserver) OnToolResult(ai.ToolCall, string) {}
