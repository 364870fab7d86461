package llms

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateModel_MetadataTable(t *testing.T) {
	tests := []struct {
		name      string
		model     string
		context   int
		maxOutput int
	}{
		{"o-series", "o3", 200000, 100000},
		{"o4 mini", "o4-mini", 200000, 100000},
		{"gpt-4.1", "gpt-4.1", 1047576, 32768},
		{"gpt-4o", "gpt-4o-mini", 128000, 16384},
		{"claude 3.5", "claude-3-5-sonnet-latest", 200000, 8192},
		{"gemini 1.5 pro", "gemini-1.5-pro", 2097152, 8192},
		{"deepseek", "deepseek-chat", 65536, 8192},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := CreateModel(ProviderOpenAI, tt.model)
			assert.Equal(t, tt.context, model.ContextLength)
			assert.Equal(t, tt.maxOutput, model.MaxOutputTokens)
			assert.True(t, model.HasCapability(CapCompletion))
		})
	}
}

func TestCreateModel_UnknownFallback(t *testing.T) {
	model := CreateModel(ProviderOllama, "some-local-model")
	assert.Equal(t, []Capability{CapCompletion, CapTemperature}, model.Capabilities)
	assert.Equal(t, DefaultContextLength, model.ContextLength)
	assert.Zero(t, model.MaxOutputTokens)
}

func TestCreateModel_HonorsProvider(t *testing.T) {
	model := CreateModel(ProviderAnthropic, "claude-3-5-haiku-latest")
	assert.Equal(t, ProviderAnthropic, model.Provider)

	viaRouter := CreateModel(ProviderOpenRouter, "anthropic/claude-3.5-sonnet")
	assert.Equal(t, ProviderOpenRouter, viaRouter.Provider)
}

func TestGetAvailableModels(t *testing.T) {
	models := GetAvailableModels(ProviderOpenAI)
	assert.NotEmpty(t, models)
	for _, model := range models {
		assert.Equal(t, ProviderOpenAI, model.Provider)
	}

	assert.Empty(t, GetAvailableModels(ProviderCustomOpenAIBase))
}

func TestGetDefaultBaseURL(t *testing.T) {
	for provider, url := range defaultBaseURLs {
		assert.True(t, len(url) > 0, provider)
		assert.Equal(t, byte('/'), url[len(url)-1], "base URL for %s must end with /", provider)
	}
	assert.Equal(t, "http://localhost:11434/v1/", GetDefaultBaseURL(ProviderOllama))
	assert.Empty(t, GetDefaultBaseURL(ProviderCustomOpenAIBase))
}

func TestNormalizeBaseURL(t *testing.T) {
	assert.Equal(t, "https://x.test/v1/", NormalizeBaseURL("https://x.test/v1"))
	assert.Equal(t, "https://x.test/v1/", NormalizeBaseURL("https://x.test/v1/"))
	assert.Equal(t, "https://x.test/v1/", NormalizeBaseURL("  https://x.test/v1 "))
	assert.Empty(t, NormalizeBaseURL(""))
}
