// ABOUTME: Agent loop: user turn -> model call -> sequential tool dispatch -> repeat
// ABOUTME: Bounded iterations, permanent degradation when the model rejects tools, fallback answers

package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mauromedda/toolagent-go/internal/fallback"
	"github.com/mauromedda/toolagent-go/internal/history"
	pilog "github.com/mauromedda/toolagent-go/internal/log"
	"github.com/mauromedda/toolagent-go/internal/tools"
	"github.com/mauromedda/toolagent-go/pkg/ai"
)

const (
	DefaultMaxIterations  = 8
	DefaultHistoryLimit   = 80
	DefaultRecentSessions = 3
)

// Config wires an Agent to its collaborators.
type Config struct {
	Provider ai.Provider
	Model    *ai.Model

	// Executor runs tool calls; Tools is the catalogue advertised to the
	// model. Both are optional.
	Executor tools.Executor
	Tools    []ai.ToolDefinition

	// MaxIterations bounds model calls per user turn. Zero means default.
	MaxIterations int
	// HistoryLimit caps stored messages. Zero means default; negative
	// disables bounding.
	HistoryLimit int

	SystemPrompt string
	// ToolsUnsupportedModels lists model IDs that never get tools.
	ToolsUnsupportedModels []string

	Memory         Memory
	RecentSessions int

	Options *ai.Options
}

// Agent holds one conversation. Methods are safe for concurrent use, but
// turns are serialized: only one provider call is in flight at a time.
type Agent struct {
	provider      ai.Provider
	model         *ai.Model
	executor      tools.Executor
	tools         []ai.ToolDefinition
	maxIterations int
	historyLimit  int
	systemPrompt  string
	memory        Memory
	recent        int
	opts          *ai.Options

	mu             sync.Mutex
	history        []ai.Message
	toolsSupported bool
}

// New creates an Agent. Provider and Model are required.
func New(cfg Config) (*Agent, error) {
	if cfg.Provider == nil {
		return nil, errors.New("agent: provider is required")
	}
	if cfg.Model == nil {
		return nil, errors.New("agent: model is required")
	}

	a := &Agent{
		provider:       cfg.Provider,
		model:          cfg.Model,
		executor:       cfg.Executor,
		tools:          cfg.Tools,
		maxIterations:  cfg.MaxIterations,
		historyLimit:   cfg.HistoryLimit,
		systemPrompt:   cfg.SystemPrompt,
		memory:         cfg.Memory,
		recent:         cfg.RecentSessions,
		opts:           cfg.Options,
		toolsSupported: !modelDenied(cfg.Model.ID, cfg.ToolsUnsupportedModels),
	}
	if a.maxIterations <= 0 {
		a.maxIterations = DefaultMaxIterations
	}
	switch {
	case a.historyLimit == 0:
		a.historyLimit = DefaultHistoryLimit
	case a.historyLimit < 0:
		a.historyLimit = 0
	}
	if a.recent == 0 {
		a.recent = DefaultRecentSessions
	}
	if !a.toolsSupported {
		pilog.Logger().Info("tools disabled by deny-list", "model", cfg.Model.ID)
	}
	return a, nil
}

// Converse runs one user turn and returns the final answer. Provider and
// tool failures are reported inside the answer; the error is non-nil only
// when ctx is cancelled or its deadline passes.
func (a *Agent) Converse(ctx context.Context, text string) (string, error) {
	return a.converse(ctx, text, nil)
}

// ConverseStreaming is Converse over the provider's streaming API. obs
// sees every text delta, tool call and tool result as it happens.
func (a *Agent) ConverseStreaming(ctx context.Context, text string, obs Observer) (string, error) {
	if obs == nil {
		obs = nopObserver{}
	}
	return a.converse(ctx, text, obs)
}

// Reset saves the session to memory and starts a new one. The tools mode
// is kept: a model that rejected tools stays degraded.
func (a *Agent) Reset(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	saved := a.history
	a.history = nil
	if a.memory == nil || len(saved) == 0 {
		return nil
	}
	if err := a.memory.SaveSession(ctx, saved); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// History returns a copy of the conversation so far.
func (a *Agent) History() []ai.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]ai.Message(nil), a.history...)
}

// ToolsSupported reports whether tools are still advertised to the model.
func (a *Agent) ToolsSupported() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.toolsSupported
}

// converse is the shared loop; obs is nil for the blocking form. A
// cancelled turn leaves history as it was before the turn began.
func (a *Agent) converse(ctx context.Context, text string, obs Observer) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	before := a.history
	answer, err := a.turn(ctx, text, obs)
	if err != nil {
		a.history = before
		return "", err
	}
	return answer, nil
}

func (a *Agent) turn(ctx context.Context, text string, obs Observer) (string, error) {
	if len(a.history) == 0 {
		if sys := systemPrompt(a.systemPrompt, a.memory, a.recent); sys != "" {
			a.history = append(a.history, ai.NewTextMessage(ai.RoleSystem, sys))
		}
	}
	a.history = append(a.history, ai.NewTextMessage(ai.RoleUser, text))
	a.history = history.Bound(a.history, a.historyLimit)

	var results []fallback.Result
	for i := range a.maxIterations {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		pilog.Debug("agent: iteration %d/%d (%d messages, tools=%v)", i+1, a.maxIterations, len(a.history), a.toolsSupported)
		withTools := a.toolsSupported && len(a.tools) > 0
		resp, err := a.call(ctx, withTools, obs)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			if withTools && isToolsUnsupported(err) {
				a.toolsSupported = false
				pilog.Logger().Warn("provider rejected tool calls, disabling tools", "model", a.model.ID, "error", err)
				return a.answer(ToolsDisabledNotice), nil
			}
			pilog.Logger().Error("provider call failed", "model", a.model.ID, "error", err)
			return a.answer(errorAnswer(err)), nil
		}

		if resp.HasToolCalls() {
			results = append(results, a.runTools(ctx, resp, obs)...)
			continue
		}
		if resp.Content != "" {
			return a.answer(resp.Content), nil
		}
		if len(results) > 0 {
			pilog.Debug("agent: empty answer after %d tool results, using fallback", len(results))
			return a.answer(fallback.Format(results)), nil
		}
		pilog.Debug("agent: empty response with no tool results (finish=%s)", resp.FinishReason)
	}

	if len(results) > 0 {
		return a.answer(fallback.Format(results)), nil
	}
	return a.answer(IterationLimitNotice), nil
}

// call performs one provider round-trip, streaming when obs is set.
func (a *Agent) call(ctx context.Context, withTools bool, obs Observer) (*ai.Response, error) {
	llmCtx := &ai.Context{Messages: a.history}
	if withTools {
		llmCtx.Tools = a.tools
	}

	if obs == nil {
		return a.provider.Send(ctx, a.model, llmCtx, a.opts)
	}

	stream := a.provider.SendStreaming(ctx, a.model, llmCtx, a.opts)
	return ai.Collect(stream, func(ev ai.StreamEvent) {
		if ev.Type == ai.EventTextDelta {
			obs.OnTextDelta(ev.Text)
		}
	})
}

// runTools records the assistant's tool calls and executes them in order.
// The assistant message and every tool result are appended together so
// the history never holds an unanswered call.
func (a *Agent) runTools(ctx context.Context, resp *ai.Response, obs Observer) []fallback.Result {
	msgs := make([]ai.Message, 0, len(resp.ToolCalls)+1)
	msgs = append(msgs, ai.Message{Role: ai.RoleAssistant, Content: resp.Content, ToolCalls: resp.ToolCalls})

	results := make([]fallback.Result, 0, len(resp.ToolCalls))
	for _, tc := range resp.ToolCalls {
		if obs != nil {
			obs.OnToolCall(tc)
		}
		start := time.Now()
		out := a.execute(ctx, tc)
		pilog.Logger().Debug("tool dispatched", "tool", tc.Name, "call_id", tc.ID, "duration", time.Since(start))
		if obs != nil {
			obs.OnToolResult(tc, out)
		}
		msgs = append(msgs, ai.NewToolResultMessage(tc.ID, out))
		results = append(results, fallback.Result{Name: tc.Name, Payload: out})
	}

	a.history = append(a.history, msgs...)
	return results
}

func (a *Agent) execute(ctx context.Context, tc ai.ToolCall) string {
	if a.executor == nil {
		data, _ := json.Marshal(map[string]string{"error": fmt.Sprintf("no tool executor configured for %s", tc.Name)})
		return string(data)
	}
	return a.executor.Execute(ctx, tc.Name, tc.Arguments)
}

// answer appends text as the assistant turn and returns it.
func (a *Agent) answer(text string) string {
	a.history = append(a.history, ai.NewTextMessage(ai.RoleAssistant, text))
	return text
}
