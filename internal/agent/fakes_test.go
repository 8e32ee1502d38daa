// ABOUTME: Scripted fakes for agent tests: provider, tool executor and memory
// ABOUTME: The provider records a snapshot of every request it receives

package agent

import (
	"context"
	"sync"

	"github.com/mauromedda/toolagent-go/pkg/ai"
)

type step struct {
	resp *ai.Response
	err  error
}

// fakeProvider replays steps in order; the last step repeats.
type fakeProvider struct {
	mu    sync.Mutex
	steps []step
	calls []ai.Context

	// block makes every call wait for ctx cancellation; started is
	// closed on the first call.
	block   bool
	started chan struct{}
	once    sync.Once
}

func newFakeProvider(steps ...step) *fakeProvider {
	return &fakeProvider{steps: steps, started: make(chan struct{})}
}

func (p *fakeProvider) Api() ai.Api { return ai.ApiOpenAI }

func (p *fakeProvider) record(llmCtx *ai.Context) step {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, ai.Context{
		Messages: append([]ai.Message(nil), llmCtx.Messages...),
		Tools:    llmCtx.Tools,
	})
	p.once.Do(func() { close(p.started) })
	if len(p.steps) == 0 {
		return step{resp: &ai.Response{}}
	}
	s := p.steps[0]
	if len(p.steps) > 1 {
		p.steps = p.steps[1:]
	}
	return s
}

func (p *fakeProvider) Send(ctx context.Context, _ *ai.Model, llmCtx *ai.Context, _ *ai.Options) (*ai.Response, error) {
	s := p.record(llmCtx)
	if p.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	cp := *s.resp
	return &cp, nil
}

func (p *fakeProvider) SendStreaming(ctx context.Context, _ *ai.Model, llmCtx *ai.Context, _ *ai.Options) *ai.EventStream {
	s := p.record(llmCtx)
	stream := ai.NewEventStream(4)
	go func() {
		if p.block {
			<-ctx.Done()
			stream.Finish(ctx.Err())
			return
		}
		if s.err != nil {
			stream.Finish(s.err)
			return
		}
		// Split text in two deltas to exercise accumulation.
		text := s.resp.Content
		half := len(text) / 2
		for _, part := range []string{text[:half], text[half:]} {
			if part == "" {
				continue
			}
			if !stream.Send(ctx, ai.TextDelta(part)) {
				stream.Finish(ctx.Err())
				return
			}
		}
		for _, tc := range s.resp.ToolCalls {
			if !stream.Send(ctx, ai.ToolCallComplete(tc)) {
				stream.Finish(ctx.Err())
				return
			}
		}
		if !stream.Send(ctx, ai.Done(s.resp.FinishReason, &s.resp.Usage)) {
			stream.Finish(ctx.Err())
			return
		}
		stream.Finish(nil)
	}()
	return stream
}

func (p *fakeProvider) requests() []ai.Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ai.Context(nil), p.calls...)
}

type execCall struct {
	name, args string
}

// fakeExecutor returns results[name], or a generic success payload.
type fakeExecutor struct {
	mu      sync.Mutex
	results map[string]string
	calls   []execCall
}

func (e *fakeExecutor) Execute(_ context.Context, name, args string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, execCall{name, args})
	if r, ok := e.results[name]; ok {
		return r
	}
	return `{"ok":true}`
}

type fakeMemory struct {
	prompt  string
	summary string
	saved   [][]ai.Message
	saveErr error
	asked   []int
}

func (m *fakeMemory) FormatForPrompt() string { return m.prompt }

func (m *fakeMemory) RecentSummary(n int) string {
	m.asked = append(m.asked, n)
	return m.summary
}

func (m *fakeMemory) SaveSession(_ context.Context, history []ai.Message) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, append([]ai.Message(nil), history...))
	return nil
}

var (
	testModel = &ai.Model{ID: "test-model", Api: ai.ApiOpenAI}
	testTools = []ai.ToolDefinition{{Name: "lookup", Description: "look things up"}}
)

func text(s string) step {
	return step{resp: &ai.Response{Content: s, FinishReason: ai.FinishEndTurn}}
}

func calls(tcs ...ai.ToolCall) step {
	return step{resp: &ai.Response{ToolCalls: tcs, FinishReason: ai.FinishToolUse}}
}

func fail(err error) step {
	return step{err: err}
}

func newTestAgent(t interface{ Fatalf(string, ...any) }, p ai.Provider, cfg Config) *Agent {
	cfg.Provider = p
	if cfg.Model == nil {
		cfg.Model = testModel
	}
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}
