// Package provider normalizes every backend LLM API into one shape: stream
// chat completions for a ModelId and a domain.Context, report which models
// a backend serves, and report per-model capabilities. Every backend-
// specific request/response format is translated at the edge, here, so
// nothing above this package ever sees an OpenAI delta or an Ollama
// response envelope.
package provider

import (
	"context"
	"time"

	"github.com/simonyos/zcode-core/internal/domain"
)

// defaultTimeout bounds a single HTTP request to a backend, shared by
// every concrete Provider in this package.
const defaultTimeout = 2 * time.Minute

// Provider is the interface every backend implements.
type Provider interface {
	// Chat streams normalized completion chunks for ctx against model.
	// The returned channel is closed when the stream ends, whether by a
	// finish reason, a backend error, or ctx cancellation. A backend error
	// ends the stream without a chunk carrying a FinishReason;
	// ChatCompletionMessage has no field that carries the error itself.
	Chat(ctx context.Context, model domain.ModelId, chatCtx domain.Context) (<-chan domain.ChatCompletionMessage, error)

	// Models lists the models this provider can serve.
	Models(ctx context.Context) ([]domain.ModelId, error)

	// Parameters reports the capability descriptor for model.
	Parameters(ctx context.Context, model domain.ModelId) (domain.Parameters, error)
}

// Registry routes a ModelId to the Provider that serves it based on the
// "<provider>/<model>" naming convention every ModelId follows.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register associates a provider name (the prefix before the first "/" in
// a ModelId) with its Provider implementation.
func (r *Registry) Register(name string, p Provider) {
	r.providers[name] = p
}

// Resolve splits a ModelId into its provider name and model name and
// returns the registered Provider.
func (r *Registry) Resolve(model domain.ModelId) (Provider, string, error) {
	name, rest := splitModelId(model)
	p, ok := r.providers[name]
	if !ok {
		return nil, "", &UnknownProviderError{Provider: name}
	}
	return p, rest, nil
}

func splitModelId(model domain.ModelId) (provider, rest string) {
	s := string(model)
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			return s[:i], s[i+1:]
		}
	}
	return s, ""
}

// UnknownProviderError is returned when a ModelId names a provider the
// registry has nothing registered for.
type UnknownProviderError struct {
	Provider string
}

func (e *UnknownProviderError) Error() string {
	return "provider: no backend registered for " + e.Provider
}
