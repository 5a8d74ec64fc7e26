package domain

// HostType names the wire protocol family a provider speaks. It is the Go
// analog of forge's HostType enum: most providers speak the OpenAI-compatible
// dialect, Ollama is called out separately because it has its own default
// base URL and no hosted API key.
type HostType string

const (
	HostOpenAICompatible HostType = "openai_compatible"
	HostAnthropic        HostType = "anthropic"
	HostOllama           HostType = "ollama"
	HostSubprocess       HostType = "subprocess"
)

// ProviderDescriptor is the static configuration for one backend: which
// host protocol it speaks, its base URL, and where to find credentials.
type ProviderDescriptor struct {
	Name     string
	Host     HostType
	BaseURL  string
	APIKeyEnv string
}

// Environment is the set of facts the agent loop needs about its run that
// don't belong in any single conversation: the working directory tool calls
// are rooted at, the default and small (title-generation) models, and the
// providers available to route to.
type Environment struct {
	WorkingDir       string
	DefaultModel     ModelId
	SmallModel       ModelId
	Providers        []ProviderDescriptor
}

// ProviderFor returns the descriptor for name, or false if none is
// configured.
func (e Environment) ProviderFor(name string) (ProviderDescriptor, bool) {
	for _, p := range e.Providers {
		if p.Name == name {
			return p, true
		}
	}
	return ProviderDescriptor{}, false
}
