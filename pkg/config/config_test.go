package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routa-ai/routa/pkg/coordination"
)

const sampleYAML = `
active: work
configs:
  - name: work
    provider: COPILOT
    model: gpt-4.1
  - name: personal
    provider: ANTHROPIC
    apiKey: ${ROUTA_TEST_KEY}
    model: claude-sonnet-4
  - name: local
    provider: OLLAMA
    baseUrl: http://localhost:11434/v1
    model: qwen2.5-coder
`

func TestParse(t *testing.T) {
	t.Setenv("ROUTA_TEST_KEY", "sk-ant-secret")

	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "work", cfg.Active)
	require.Len(t, cfg.Configs, 3)

	active, err := cfg.ActiveConfig()
	require.NoError(t, err)
	assert.Equal(t, "COPILOT", active.Provider)
	assert.Equal(t, "gpt-4.1", active.Model)

	personal, err := cfg.Select("personal")
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-secret", personal.APIKey)
}

func TestParse_EnvDefault(t *testing.T) {
	cfg, err := Parse([]byte(`
configs:
  - name: only
    provider: OPENAI
    baseUrl: ${ROUTA_UNSET_BASE:-https://api.openai.com/v1}
`))
	require.NoError(t, err)

	active, err := cfg.ActiveConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://api.openai.com/v1", active.BaseURL)
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"bad yaml":         "configs: [",
		"missing name":     "configs:\n  - provider: OPENAI\n",
		"missing provider": "configs:\n  - name: x\n",
		"duplicate name":   "configs:\n  - name: x\n    provider: OPENAI\n  - name: x\n    provider: ANTHROPIC\n",
		"unknown active":   "active: nope\nconfigs:\n  - name: x\n    provider: OPENAI\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(input))
			require.Error(t, err)
			assert.Equal(t, coordination.KindBadInput, coordination.ErrKind(err))
		})
	}
}

func TestActiveConfig_Ambiguous(t *testing.T) {
	cfg, err := Parse([]byte(`
configs:
  - name: a
    provider: OPENAI
  - name: b
    provider: ANTHROPIC
`))
	require.NoError(t, err)

	_, err = cfg.ActiveConfig()
	require.Error(t, err)
	assert.Equal(t, coordination.KindBadInput, coordination.ErrKind(err))
}

func TestSelect_NotFound(t *testing.T) {
	cfg, err := Parse([]byte("configs:\n  - name: x\n    provider: OPENAI\n"))
	require.NoError(t, err)

	_, err = cfg.Select("missing")
	require.Error(t, err)
	assert.True(t, coordination.IsNotFound(err))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))
	t.Setenv("ROUTA_TEST_KEY", "k")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "work", cfg.Active)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.True(t, coordination.IsNotFound(err))
}
