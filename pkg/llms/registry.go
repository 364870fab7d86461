package llms

import (
	"context"
	"sync"
)

// ProviderHandler is the runtime-registrable provider surface. Registered
// handlers take precedence over the built-in builders in NewExecutor.
type ProviderHandler interface {
	// IsAvailable reports whether the provider can serve requests at all,
	// e.g. whether local credentials exist.
	IsAvailable() bool

	CreateExecutor(ctx context.Context, cfg NamedModelConfig) (Executor, error)

	// GetAvailableModels returns the last known catalog without touching
	// the network.
	GetAvailableModels() []Model

	// FetchAvailableModels refreshes the catalog from the provider.
	FetchAvailableModels(ctx context.Context) ([]Model, error)

	GetDefaultBaseURL() string
}

// providerRegistry is process-wide; Clear exists for test isolation.
var providerRegistry = struct {
	mu       sync.RWMutex
	handlers map[Provider]ProviderHandler
}{handlers: make(map[Provider]ProviderHandler)}

// RegisterProvider installs or replaces a runtime provider handler.
func RegisterProvider(tag Provider, handler ProviderHandler) {
	providerRegistry.mu.Lock()
	defer providerRegistry.mu.Unlock()
	providerRegistry.handlers[tag] = handler
}

// GetProvider looks up a registered handler.
func GetProvider(tag Provider) (ProviderHandler, bool) {
	providerRegistry.mu.RLock()
	defer providerRegistry.mu.RUnlock()
	handler, ok := providerRegistry.handlers[tag]
	return handler, ok
}

// UnregisterProvider removes a handler; unknown tags are a no-op.
func UnregisterProvider(tag Provider) {
	providerRegistry.mu.Lock()
	defer providerRegistry.mu.Unlock()
	delete(providerRegistry.handlers, tag)
}

// ClearProviders empties the registry.
func ClearProviders() {
	providerRegistry.mu.Lock()
	defer providerRegistry.mu.Unlock()
	providerRegistry.handlers = make(map[Provider]ProviderHandler)
}

// RegisteredProviders returns the tags currently registered.
func RegisteredProviders() []Provider {
	providerRegistry.mu.RLock()
	defer providerRegistry.mu.RUnlock()
	tags := make([]Provider, 0, len(providerRegistry.handlers))
	for tag := range providerRegistry.handlers {
		tags = append(tags, tag)
	}
	return tags
}
