package llms

import (
	"strings"
)

// DefaultContextLength is used when no metadata rule matches a model name.
var DefaultContextLength = 128000

// metadataRule derives capabilities and limits from model-name substrings.
// Rules are checked in order; the first match wins.
type metadataRule struct {
	substrings      []string
	capabilities    []Capability
	contextLength   int
	maxOutputTokens int
}

var metadataRules = []metadataRule{
	{
		substrings:      []string{"o1", "o3", "o4-mini"},
		capabilities:    []Capability{CapCompletion, CapTools, CapToolChoice, CapVisionImage},
		contextLength:   200000,
		maxOutputTokens: 100000,
	},
	{
		substrings:      []string{"gpt-4.1"},
		capabilities:    []Capability{CapCompletion, CapTemperature, CapTools, CapToolChoice, CapVisionImage, CapMultipleChoices},
		contextLength:   1047576,
		maxOutputTokens: 32768,
	},
	{
		substrings:      []string{"gpt-4o"},
		capabilities:    []Capability{CapCompletion, CapTemperature, CapTools, CapToolChoice, CapVisionImage, CapAudio, CapMultipleChoices},
		contextLength:   128000,
		maxOutputTokens: 16384,
	},
	{
		substrings:      []string{"gpt-5"},
		capabilities:    []Capability{CapCompletion, CapTools, CapToolChoice, CapVisionImage},
		contextLength:   400000,
		maxOutputTokens: 128000,
	},
	{
		substrings:      []string{"claude-3-5"},
		capabilities:    []Capability{CapCompletion, CapTemperature, CapTools, CapToolChoice, CapVisionImage, CapDocument},
		contextLength:   200000,
		maxOutputTokens: 8192,
	},
	{
		substrings:      []string{"claude"},
		capabilities:    []Capability{CapCompletion, CapTemperature, CapTools, CapToolChoice, CapVisionImage, CapDocument},
		contextLength:   200000,
		maxOutputTokens: 64000,
	},
	{
		substrings:      []string{"gemini-1.5-pro"},
		capabilities:    []Capability{CapCompletion, CapTemperature, CapTools, CapToolChoice, CapVisionImage, CapVisionVideo, CapAudio, CapDocument},
		contextLength:   2097152,
		maxOutputTokens: 8192,
	},
	{
		substrings:      []string{"gemini"},
		capabilities:    []Capability{CapCompletion, CapTemperature, CapTools, CapToolChoice, CapVisionImage, CapVisionVideo, CapAudio, CapDocument},
		contextLength:   1048576,
		maxOutputTokens: 65536,
	},
	{
		substrings:      []string{"deepseek"},
		capabilities:    []Capability{CapCompletion, CapTemperature, CapTools, CapToolChoice},
		contextLength:   65536,
		maxOutputTokens: 8192,
	},
	{
		substrings:      []string{"qwen"},
		capabilities:    []Capability{CapCompletion, CapTemperature, CapTools, CapToolChoice},
		contextLength:   131072,
		maxOutputTokens: 8192,
	},
	{
		substrings:      []string{"glm"},
		capabilities:    []Capability{CapCompletion, CapTemperature, CapTools, CapToolChoice},
		contextLength:   131072,
		maxOutputTokens: 8192,
	},
	{
		substrings:      []string{"kimi", "moonshot"},
		capabilities:    []Capability{CapCompletion, CapTemperature, CapTools, CapToolChoice},
		contextLength:   131072,
		maxOutputTokens: 8192,
	},
	{
		substrings:      []string{"embed"},
		capabilities:    []Capability{CapEmbed},
		contextLength:   8192,
		maxOutputTokens: 0,
	},
}

// CreateModel builds model metadata for a provider/name pair. The provider
// argument is honored as given rather than collapsed to a single backend.
func CreateModel(provider Provider, name string) Model {
	lower := strings.ToLower(name)
	for _, rule := range metadataRules {
		for _, sub := range rule.substrings {
			if strings.Contains(lower, sub) {
				return Model{
					Provider:        provider,
					ID:              name,
					Capabilities:    append([]Capability(nil), rule.capabilities...),
					ContextLength:   rule.contextLength,
					MaxOutputTokens: rule.maxOutputTokens,
				}
			}
		}
	}
	return Model{
		Provider:      provider,
		ID:            name,
		Capabilities:  []Capability{CapCompletion, CapTemperature},
		ContextLength: DefaultContextLength,
	}
}

var knownModels = map[Provider][]string{
	ProviderOpenAI:     {"gpt-4.1", "gpt-4.1-mini", "gpt-4o", "gpt-4o-mini", "o3", "o4-mini"},
	ProviderAnthropic:  {"claude-3-5-sonnet-latest", "claude-3-5-haiku-latest", "claude-sonnet-4-20250514"},
	ProviderGoogle:     {"gemini-2.0-flash", "gemini-1.5-pro", "gemini-1.5-flash"},
	ProviderDeepSeek:   {"deepseek-chat", "deepseek-reasoner"},
	ProviderOllama:     {"llama3.1", "qwen2.5-coder", "mistral"},
	ProviderOpenRouter: {"openai/gpt-4o", "anthropic/claude-3.5-sonnet", "deepseek/deepseek-chat"},
	ProviderGLM:        {"glm-4-plus", "glm-4-flash"},
	ProviderQwen:       {"qwen-max", "qwen-plus", "qwen-turbo"},
	ProviderKimi:       {"moonshot-v1-8k", "moonshot-v1-32k", "moonshot-v1-128k"},
	ProviderMiniMax:    {"abab6.5s-chat", "MiniMax-Text-01"},
}

// GetAvailableModels returns the static model catalog for a built-in
// provider. Registered runtime providers supply their own catalogs.
func GetAvailableModels(provider Provider) []Model {
	names := knownModels[provider]
	models := make([]Model, 0, len(names))
	for _, name := range names {
		models = append(models, CreateModel(provider, name))
	}
	return models
}

var defaultBaseURLs = map[Provider]string{
	ProviderOpenAI:     "https://api.openai.com/v1/",
	ProviderAnthropic:  "https://api.anthropic.com/v1/",
	ProviderGoogle:     "https://generativelanguage.googleapis.com/v1beta/openai/",
	ProviderDeepSeek:   "https://api.deepseek.com/v1/",
	ProviderOllama:     "http://localhost:11434/v1/",
	ProviderOpenRouter: "https://openrouter.ai/api/v1/",
	ProviderGLM:        "https://open.bigmodel.cn/api/paas/v4/",
	ProviderQwen:       "https://dashscope.aliyuncs.com/compatible-mode/v1/",
	ProviderKimi:       "https://api.moonshot.cn/v1/",
	ProviderMiniMax:    "https://api.minimax.chat/v1/",
}

// GetDefaultBaseURL returns the built-in default endpoint for a provider,
// always with a trailing slash. Empty for providers without one.
func GetDefaultBaseURL(provider Provider) string {
	return defaultBaseURLs[provider]
}

// NormalizeBaseURL guarantees a trailing slash so downstream relative URL
// joining keeps the full path.
func NormalizeBaseURL(baseURL string) string {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return ""
	}
	if !strings.HasSuffix(trimmed, "/") {
		trimmed += "/"
	}
	return trimmed
}
