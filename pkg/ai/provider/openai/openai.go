// ABOUTME: OpenAI Chat Completions provider (also serves Ollama, vLLM, Groq, OpenRouter)
// ABOUTME: Blocking Send plus SSE streaming with tool-call deltas accumulated by index

package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	pilog "github.com/mauromedda/toolagent-go/internal/log"
	"github.com/mauromedda/toolagent-go/pkg/ai"
	"github.com/mauromedda/toolagent-go/pkg/ai/internal/httputil"
	"github.com/mauromedda/toolagent-go/pkg/ai/internal/sse"
)

const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	chatCompletionPath = "/chat/completions"
)

func init() {
	ai.RegisterProvider(ai.ApiOpenAI, func(cfg ai.ProviderConfig) ai.Provider {
		return New(cfg.APIKey, cfg.BaseURL, httputil.WithTimeout(cfg.Timeout))
	})
}

// Provider implements the OpenAI Chat Completions API.
type Provider struct {
	client *httputil.Client
}

// New creates an OpenAI provider. An empty baseURL selects the public API;
// an empty apiKey sends no Authorization header (local servers).
func New(apiKey, baseURL string, opts ...httputil.Option) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = httputil.NormalizeBaseURL(baseURL, chatCompletionPath)

	headers := map[string]string{"Content-Type": "application/json"}
	if apiKey != "" {
		headers["Authorization"] = "Bearer " + apiKey
	}

	return &Provider{client: httputil.NewClient(baseURL, headers, opts...)}
}

// Api returns the provider identifier.
func (p *Provider) Api() ai.Api {
	return ai.ApiOpenAI
}

// Send performs one blocking chat completion.
func (p *Provider) Send(ctx context.Context, model *ai.Model, llmCtx *ai.Context, opts *ai.Options) (*ai.Response, error) {
	req, err := buildRequest(model, llmCtx, opts, false)
	if err != nil {
		return nil, err
	}

	pilog.Debug("openai: send model=%s messages=%d tools=%d", model.ID, len(req.Messages), len(req.Tools))
	resp, err := p.client.PostJSON(ctx, ai.ApiOpenAI, chatCompletionPath, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var completion chatCompletion
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("openai: decoding reply: %w", err)
	}
	return parseCompletion(&completion)
}

// SendStreaming starts a streaming chat completion.
func (p *Provider) SendStreaming(ctx context.Context, model *ai.Model, llmCtx *ai.Context, opts *ai.Options) *ai.EventStream {
	stream := ai.NewEventStream(64)

	go func() {
		stream.Finish(p.doStream(ctx, model, llmCtx, opts, stream))
	}()

	return stream
}

func (p *Provider) doStream(ctx context.Context, model *ai.Model, llmCtx *ai.Context, opts *ai.Options, stream *ai.EventStream) error {
	req, err := buildRequest(model, llmCtx, opts, true)
	if err != nil {
		return err
	}

	pilog.Debug("openai: stream model=%s messages=%d tools=%d", model.ID, len(req.Messages), len(req.Tools))
	reader, resp, err := p.client.StreamSSE(ctx, ai.ApiOpenAI, chatCompletionPath, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	defer reader.Close()

	return processSSE(ctx, reader, stream)
}

// toolCallAccumulator gathers the fragments of one streamed tool call.
type toolCallAccumulator struct {
	index int
	id    string
	name  string
	args  []byte
}

func processSSE(ctx context.Context, reader *sse.Reader, stream *ai.EventStream) error {
	var (
		calls  = make(map[int]*toolCallAccumulator)
		finish ai.FinishReason
		usage  *ai.Usage
	)

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("openai: reading stream: %w", err)
		}
		if event.IsDone() {
			break
		}

		var chunk chatCompletionChunk
		if err := chunk.UnmarshalJSON([]byte(event.Data)); err != nil {
			pilog.Debug("openai: skipping malformed chunk: %v", err)
			continue
		}

		for _, choice := range chunk.Choices {
			if choice.Delta.Content != "" {
				if !stream.Send(ctx, ai.TextDelta(choice.Delta.Content)) {
					return ctx.Err()
				}
			}
			for _, d := range choice.Delta.ToolCalls {
				acc, ok := calls[d.Index]
				if !ok {
					acc = &toolCallAccumulator{index: d.Index}
					calls[d.Index] = acc
				}
				if d.ID != "" {
					acc.id = d.ID
				}
				if d.Function.Name != "" {
					acc.name = d.Function.Name
				}
				acc.args = append(acc.args, d.Function.Arguments...)
			}
			if choice.FinishReason != "" {
				finish = mapFinishReason(choice.FinishReason)
			}
		}
		if chunk.Usage != nil {
			usage = &ai.Usage{InputTokens: chunk.Usage.PromptTokens, OutputTokens: chunk.Usage.CompletionTokens}
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	ordered := make([]*toolCallAccumulator, 0, len(calls))
	for _, acc := range calls {
		ordered = append(ordered, acc)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].index < ordered[j].index })

	for _, acc := range ordered {
		tc := ai.ToolCall{ID: callID(acc.id, acc.index), Name: acc.name, Arguments: string(acc.args)}
		if !stream.Send(ctx, ai.ToolCallComplete(tc)) {
			return ctx.Err()
		}
	}

	if len(ordered) > 0 {
		finish = ai.FinishToolUse
	}
	if finish == "" {
		finish = ai.FinishEndTurn
	}
	if !stream.Send(ctx, ai.Done(finish, usage)) {
		return ctx.Err()
	}
	return nil
}
