// Package llms provides the LLM executor façade: named model configs,
// provider dispatch, model metadata and streaming execution over
// OpenAI-compatible and Anthropic HTTP APIs.
package llms

import (
	"context"
)

// Provider tags the supported LLM backends.
type Provider string

const (
	ProviderOpenAI           Provider = "OPENAI"
	ProviderAnthropic        Provider = "ANTHROPIC"
	ProviderGoogle           Provider = "GOOGLE"
	ProviderDeepSeek         Provider = "DEEPSEEK"
	ProviderOllama           Provider = "OLLAMA"
	ProviderOpenRouter       Provider = "OPENROUTER"
	ProviderGLM              Provider = "GLM"
	ProviderQwen             Provider = "QWEN"
	ProviderKimi             Provider = "KIMI"
	ProviderMiniMax          Provider = "MINIMAX"
	ProviderCustomOpenAIBase Provider = "CUSTOM_OPENAI_BASE"
	ProviderCopilot          Provider = "COPILOT"
)

// NamedModelConfig selects one provider/model pairing with its credentials.
type NamedModelConfig struct {
	Name     string `yaml:"name" mapstructure:"name"`
	Provider string `yaml:"provider" mapstructure:"provider"`
	APIKey   string `yaml:"apiKey" mapstructure:"apiKey"`
	BaseURL  string `yaml:"baseUrl" mapstructure:"baseUrl"`
	Model    string `yaml:"model" mapstructure:"model"`
}

// Capability enumerates what a model can do.
type Capability string

const (
	CapCompletion      Capability = "Completion"
	CapTemperature     Capability = "Temperature"
	CapTools           Capability = "Tools"
	CapToolChoice      Capability = "ToolChoice"
	CapVisionImage     Capability = "Vision.Image"
	CapVisionVideo     Capability = "Vision.Video"
	CapAudio           Capability = "Audio"
	CapDocument        Capability = "Document"
	CapMultipleChoices Capability = "MultipleChoices"
	CapSpeculation     Capability = "Speculation"
	CapEmbed           Capability = "Embed"
)

// Model is a provider model with derived capability metadata.
type Model struct {
	Provider        Provider     `json:"provider"`
	ID              string       `json:"id"`
	Capabilities    []Capability `json:"capabilities"`
	ContextLength   int          `json:"context_length"`
	MaxOutputTokens int          `json:"max_output_tokens,omitempty"`
}

// HasCapability reports whether the model supports c.
func (m Model) HasCapability(c Capability) bool {
	for _, have := range m.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// Message is one turn of a chat prompt.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Request is a single completion request. Native tool definitions are
// intentionally absent; tool semantics ride inside message text.
type Request struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// DeltaKind tags streaming events.
type DeltaKind string

const (
	DeltaAppend DeltaKind = "APPEND"
	DeltaEnd    DeltaKind = "END"
	DeltaError  DeltaKind = "ERROR"
)

// StreamDelta is one unit of a streamed completion.
type StreamDelta struct {
	Kind DeltaKind
	Text string
	Err  error
}

// Executor runs completion requests against one configured backend.
// Implementations are safe for concurrent use.
type Executor interface {
	Execute(ctx context.Context, req Request) (string, error)

	ExecuteStreaming(ctx context.Context, req Request) (<-chan StreamDelta, error)

	// DefaultModel is the model used when a request leaves Model empty.
	DefaultModel() string

	Close() error
}
