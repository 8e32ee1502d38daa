// ABOUTME: Google Generative AI (Gemini) provider for the AI Studio API
// ABOUTME: Key travels as a query parameter and is redacted from every logged URL

package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"

	pilog "github.com/mauromedda/toolagent-go/internal/log"
	"github.com/mauromedda/toolagent-go/pkg/ai"
	"github.com/mauromedda/toolagent-go/pkg/ai/internal/httputil"
	"github.com/mauromedda/toolagent-go/pkg/ai/internal/sse"
)

const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

func init() {
	ai.RegisterProvider(ai.ApiGoogle, func(cfg ai.ProviderConfig) ai.Provider {
		return New(cfg.APIKey, cfg.BaseURL, httputil.WithTimeout(cfg.Timeout))
	})
}

// Provider implements the Google Generative AI API.
type Provider struct {
	client *httputil.Client
	apiKey string
}

// New creates a Google AI provider.
func New(apiKey, baseURL string, opts ...httputil.Option) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	headers := map[string]string{"Content-Type": "application/json"}
	return &Provider{
		client: httputil.NewClient(httputil.NormalizeBaseURL(baseURL), headers, opts...),
		apiKey: apiKey,
	}
}

// Api returns the provider identifier.
func (p *Provider) Api() ai.Api {
	return ai.ApiGoogle
}

// Send performs one blocking generateContent call.
func (p *Provider) Send(ctx context.Context, model *ai.Model, llmCtx *ai.Context, opts *ai.Options) (*ai.Response, error) {
	req, err := buildRequest(llmCtx, opts)
	if err != nil {
		return nil, err
	}

	path := p.path(model, "generateContent", nil)
	pilog.Debug("google: send %s contents=%d", httputil.RedactURL(path), len(req.Contents))
	resp, err := p.client.PostJSON(ctx, ai.ApiGoogle, path, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var reply generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("google: decoding reply: %w", err)
	}
	return parseResponse(&reply), nil
}

// SendStreaming starts a streamGenerateContent call in SSE mode.
func (p *Provider) SendStreaming(ctx context.Context, model *ai.Model, llmCtx *ai.Context, opts *ai.Options) *ai.EventStream {
	stream := ai.NewEventStream(64)

	go func() {
		stream.Finish(p.doStream(ctx, model, llmCtx, opts, stream))
	}()

	return stream
}

func (p *Provider) doStream(ctx context.Context, model *ai.Model, llmCtx *ai.Context, opts *ai.Options, stream *ai.EventStream) error {
	req, err := buildRequest(llmCtx, opts)
	if err != nil {
		return err
	}

	path := p.path(model, "streamGenerateContent", url.Values{"alt": {"sse"}})
	pilog.Debug("google: stream %s contents=%d", httputil.RedactURL(path), len(req.Contents))
	reader, resp, err := p.client.StreamSSE(ctx, ai.ApiGoogle, path, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	defer reader.Close()

	return processSSE(ctx, reader, stream)
}

// path builds "/models/{id}:{method}?key=...".
func (p *Provider) path(model *ai.Model, method string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	if p.apiKey != "" {
		query.Set("key", p.apiKey)
	}
	path := "/models/" + url.PathEscape(model.ID) + ":" + method
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return path
}

func processSSE(ctx context.Context, reader *sse.Reader, stream *ai.EventStream) error {
	var (
		last     generateResponse
		sawCalls bool
		usage    *ai.Usage
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
			return fmt.Errorf("google: reading stream: %w", err)
		}

		var chunk generateResponse
		if err := json.Unmarshal([]byte(event.Data), &chunk); err != nil {
			pilog.Debug("google: skipping malformed chunk: %v", err)
			continue
		}

		text, calls := responseParts(&chunk)
		if text != "" && !stream.Send(ctx, ai.TextDelta(text)) {
			return ctx.Err()
		}
		for _, tc := range calls {
			sawCalls = true
			if !stream.Send(ctx, ai.ToolCallComplete(tc)) {
				return ctx.Err()
			}
		}
		if chunk.UsageMetadata != nil {
			usage = &ai.Usage{InputTokens: chunk.UsageMetadata.PromptTokenCount, OutputTokens: chunk.UsageMetadata.CandidatesTokenCount}
		}
		if len(chunk.Candidates) > 0 || chunk.PromptFeedback != nil {
			last = chunk
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if !stream.Send(ctx, ai.Done(responseFinish(&last, sawCalls), usage)) {
		return ctx.Err()
	}
	return nil
}
