// ABOUTME: Provider interface and registry mapping API families to provider factories
// ABOUTME: Thread-safe registration and lookup of Provider implementations

package ai

import (
	"context"
	"sync"
	"time"
)

// Provider is the interface every protocol adapter implements. Providers
// hold no conversation state and may be shared across conversations.
type Provider interface {
	// Api returns the provider's protocol family.
	Api() Api

	// Send performs one blocking round-trip. Non-success statuses return an
	// *APIError carrying the raw body.
	Send(ctx context.Context, model *Model, llmCtx *Context, opts *Options) (*Response, error)

	// SendStreaming starts a streaming call. Cancelling ctx stops event
	// production; the stream then finishes with ctx.Err() and no Done event.
	SendStreaming(ctx context.Context, model *Model, llmCtx *Context, opts *Options) *EventStream
}

// ProviderConfig carries deployment settings for a provider factory.
type ProviderConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// ProviderFactory creates a Provider from deployment settings.
type ProviderFactory func(cfg ProviderConfig) Provider

var (
	registryMu sync.RWMutex
	registry   = make(map[Api]ProviderFactory)
)

// RegisterProvider registers a factory for the given API.
func RegisterProvider(api Api, factory ProviderFactory) {
	registryMu.Lock()
	registry[api] = factory
	registryMu.Unlock()
}

// GetProvider returns a provider for the given API.
// Returns nil if no provider is registered.
func GetProvider(api Api, cfg ProviderConfig) Provider {
	registryMu.RLock()
	factory, ok := registry[api]
	registryMu.RUnlock()
	if !ok {
		return nil
	}
	return factory(cfg)
}

// HasProvider checks if a provider is registered for the given API.
func HasProvider(api Api) bool {
	registryMu.RLock()
	_, ok := registry[api]
	registryMu.RUnlock()
	return ok
}
