// ABOUTME: Accumulates content blocks during Anthropic SSE streaming
// ABOUTME: Blocks are keyed by index; tool_use input JSON arrives in fragments

package anthropic

import (
	"strings"

	"github.com/mauromedda/toolagent-go/pkg/ai"
)

// accumulator gathers streaming metadata and in-progress blocks.
type accumulator struct {
	model      string
	stopReason string
	usage      ai.Usage
	blocks     map[int]*blockState
	sawStop    bool
}

// blockState tracks one in-progress content block.
type blockState struct {
	kind      string
	id        string
	name      string
	toolInput strings.Builder
}

func newAccumulator() *accumulator {
	return &accumulator{blocks: make(map[int]*blockState)}
}

func (a *accumulator) startBlock(index int, kind, id, name string) {
	a.blocks[index] = &blockState{kind: kind, id: id, name: name}
}

func (a *accumulator) appendToolInput(index int, partial string) {
	if b, ok := a.blocks[index]; ok {
		b.toolInput.WriteString(partial)
	}
}

// finishBlock removes the block at index and returns the completed tool
// call, if it was a tool_use block.
func (a *accumulator) finishBlock(index int) (ai.ToolCall, bool) {
	b, ok := a.blocks[index]
	if !ok {
		return ai.ToolCall{}, false
	}
	delete(a.blocks, index)
	if b.kind != "tool_use" {
		return ai.ToolCall{}, false
	}
	args := b.toolInput.String()
	if strings.TrimSpace(args) == "" {
		args = "{}"
	}
	return ai.ToolCall{ID: b.id, Name: b.name, Arguments: args}, true
}

func (a *accumulator) finishReason(sawToolCalls bool) ai.FinishReason {
	if sawToolCalls {
		return ai.FinishToolUse
	}
	return mapStopReason(a.stopReason)
}
