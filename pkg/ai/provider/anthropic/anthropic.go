// ABOUTME: Anthropic Messages API provider: blocking Send and SSE streaming
// ABOUTME: Handles content block accumulation and tool_use input streaming

package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	pilog "github.com/mauromedda/toolagent-go/internal/log"
	"github.com/mauromedda/toolagent-go/pkg/ai"
	"github.com/mauromedda/toolagent-go/pkg/ai/internal/httputil"
	"github.com/mauromedda/toolagent-go/pkg/ai/internal/sse"
)

const (
	DefaultBaseURL   = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"
	messagesPath     = "/v1/messages"
	streamBufferSize = 64
)

func init() {
	ai.RegisterProvider(ai.ApiAnthropic, func(cfg ai.ProviderConfig) ai.Provider {
		return New(cfg.APIKey, cfg.BaseURL, httputil.WithTimeout(cfg.Timeout))
	})
}

// Provider implements ai.Provider for the Anthropic Messages API.
type Provider struct {
	client *httputil.Client
}

// New creates an Anthropic provider.
func New(apiKey, baseURL string, opts ...httputil.Option) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = httputil.NormalizeBaseURL(baseURL, messagesPath, "/v1")

	headers := map[string]string{
		"x-api-key":         apiKey,
		"anthropic-version": anthropicVersion,
		"content-type":      "application/json",
	}

	return &Provider{client: httputil.NewClient(baseURL, headers, opts...)}
}

// Api returns the Anthropic API identifier.
func (p *Provider) Api() ai.Api {
	return ai.ApiAnthropic
}

// Send performs one blocking Messages API call.
func (p *Provider) Send(ctx context.Context, model *ai.Model, llmCtx *ai.Context, opts *ai.Options) (*ai.Response, error) {
	req, err := buildRequest(model, llmCtx, opts, false)
	if err != nil {
		return nil, err
	}

	pilog.Debug("anthropic: send model=%s messages=%d tools=%d", model.ID, len(req.Messages), len(req.Tools))
	resp, err := p.client.PostJSON(ctx, ai.ApiAnthropic, messagesPath, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var reply messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("anthropic: decoding reply: %w", err)
	}
	return parseResponse(&reply), nil
}

// SendStreaming initiates a streaming call to the Messages API.
func (p *Provider) SendStreaming(ctx context.Context, model *ai.Model, llmCtx *ai.Context, opts *ai.Options) *ai.EventStream {
	stream := ai.NewEventStream(streamBufferSize)

	go func() {
		stream.Finish(p.runStream(ctx, stream, model, llmCtx, opts))
	}()

	return stream
}

func (p *Provider) runStream(ctx context.Context, stream *ai.EventStream, model *ai.Model, llmCtx *ai.Context, opts *ai.Options) error {
	req, err := buildRequest(model, llmCtx, opts, true)
	if err != nil {
		return err
	}

	pilog.Debug("anthropic: stream model=%s messages=%d tools=%d", model.ID, len(req.Messages), len(req.Tools))
	reader, resp, err := p.client.StreamSSE(ctx, ai.ApiAnthropic, messagesPath, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	defer reader.Close()

	return processEvents(ctx, stream, reader)
}

// streamState carries per-stream bookkeeping between handlers.
type streamState struct {
	ctx       context.Context
	stream    *ai.EventStream
	acc       *accumulator
	toolCalls int
}

// processEvents reads SSE events and dispatches them to the EventStream.
func processEvents(ctx context.Context, stream *ai.EventStream, reader *sse.Reader) error {
	st := &streamState{ctx: ctx, stream: stream, acc: newAccumulator()}

	for !st.acc.sawStop {
		ev, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("anthropic: reading stream: %w", err)
		}
		if err := st.dispatch(ev); err != nil {
			return err
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	usage := st.acc.usage
	if !stream.Send(ctx, ai.Done(st.acc.finishReason(st.toolCalls > 0), &usage)) {
		return ctx.Err()
	}
	return nil
}

// dispatch routes a single SSE event to its handler.
func (st *streamState) dispatch(ev *sse.Event) error {
	switch ev.Type {
	case "message_start":
		st.handleMessageStart(ev)
	case "content_block_start":
		st.handleContentBlockStart(ev)
	case "content_block_delta":
		return st.handleContentBlockDelta(ev)
	case "content_block_stop":
		return st.handleContentBlockStop(ev)
	case "message_delta":
		st.handleMessageDelta(ev)
	case "message_stop":
		st.acc.sawStop = true
	case "error":
		return handleSSEError(ev)
	}
	return nil
}

func (st *streamState) handleMessageStart(ev *sse.Event) {
	var payload messageStartPayload
	if json.Unmarshal([]byte(ev.Data), &payload) == nil {
		st.acc.model = payload.Message.Model
		st.acc.usage.InputTokens = payload.Message.Usage.InputTokens
		st.acc.usage.OutputTokens = payload.Message.Usage.OutputTokens
	}
}

func (st *streamState) handleContentBlockStart(ev *sse.Event) {
	var payload contentBlockStartPayload
	if json.Unmarshal([]byte(ev.Data), &payload) != nil {
		return
	}
	b := payload.ContentBlock
	st.acc.startBlock(payload.Index, b.Type, b.ID, b.Name)
}

func (st *streamState) handleContentBlockDelta(ev *sse.Event) error {
	var payload contentBlockDeltaPayload
	if payload.UnmarshalJSON([]byte(ev.Data)) != nil {
		return nil
	}

	switch payload.Delta.Type {
	case "text_delta":
		if payload.Delta.Text != "" && !st.stream.Send(st.ctx, ai.TextDelta(payload.Delta.Text)) {
			return st.ctx.Err()
		}
	case "input_json_delta":
		st.acc.appendToolInput(payload.Index, payload.Delta.PartialJSON)
	}
	return nil
}

func (st *streamState) handleContentBlockStop(ev *sse.Event) error {
	var payload contentBlockStopPayload
	if json.Unmarshal([]byte(ev.Data), &payload) != nil {
		return nil
	}
	tc, ok := st.acc.finishBlock(payload.Index)
	if !ok {
		return nil
	}
	st.toolCalls++
	if !st.stream.Send(st.ctx, ai.ToolCallComplete(tc)) {
		return st.ctx.Err()
	}
	return nil
}

func (st *streamState) handleMessageDelta(ev *sse.Event) {
	var payload messageDeltaPayload
	if payload.UnmarshalJSON([]byte(ev.Data)) != nil {
		return
	}
	if payload.Delta.StopReason != "" {
		st.acc.stopReason = payload.Delta.StopReason
	}
	if payload.Usage.OutputTokens > 0 {
		st.acc.usage.OutputTokens = payload.Usage.OutputTokens
	}
}

// handleSSEError turns an in-stream error event into an *ai.APIError so
// callers can inspect the provider's wording like any other failure.
func handleSSEError(ev *sse.Event) error {
	var payload sseErrorPayload
	msg := ev.Data
	if json.Unmarshal([]byte(ev.Data), &payload) == nil && payload.Error.Message != "" {
		msg = payload.Error.Message
	}
	pilog.Warn("anthropic: stream error: %s", msg)
	return &ai.APIError{Api: ai.ApiAnthropic, StatusCode: 200, Body: ev.Data}
}
