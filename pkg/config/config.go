// Package config loads the model-selection file: a list of named
// provider/model pairings plus an "active" key naming the one in use.
package config

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/routa-ai/routa/pkg/coordination"
	"github.com/routa-ai/routa/pkg/llms"
)

// Config is the parsed model-selection file.
type Config struct {
	Active  string                  `yaml:"active" mapstructure:"active"`
	Configs []llms.NamedModelConfig `yaml:"configs" mapstructure:"configs"`
}

// DefaultPath returns the platform-standard location of the config file,
// e.g. ~/.config/routa/models.yaml on Linux.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", coordination.WrapError(coordination.KindBadInput, err, "cannot resolve user config directory")
	}
	return filepath.Join(dir, "routa", "models.yaml"), nil
}

// Parse decodes raw YAML bytes, expanding environment variable references
// in string values before decoding.
func Parse(data []byte) (*Config, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, coordination.WrapError(coordination.KindBadInput, err, "invalid config YAML")
	}

	expanded, _ := ExpandEnvVarsInData(raw).(map[string]interface{})
	if expanded == nil {
		expanded = map[string]interface{}{}
	}

	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, coordination.WrapError(coordination.KindBadInput, err, "cannot build config decoder")
	}
	if err := decoder.Decode(expanded); err != nil {
		return nil, coordination.WrapError(coordination.KindBadInput, err, "invalid config structure")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads and parses the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, coordination.WrapError(coordination.KindNotFound, err, "config file %s not found", path)
		}
		return nil, coordination.WrapError(coordination.KindBadInput, err, "cannot read config file %s", path)
	}
	return Parse(data)
}

func (c *Config) validate() error {
	seen := make(map[string]bool, len(c.Configs))
	for i, mc := range c.Configs {
		if mc.Name == "" {
			return coordination.NewError(coordination.KindBadInput, "configs[%d] is missing a name", i)
		}
		if seen[mc.Name] {
			return coordination.NewError(coordination.KindBadInput, "duplicate config name %q", mc.Name)
		}
		seen[mc.Name] = true
		if mc.Provider == "" {
			return coordination.NewError(coordination.KindBadInput, "config %q is missing a provider", mc.Name)
		}
	}
	if c.Active != "" && !seen[c.Active] {
		return coordination.NewError(coordination.KindBadInput, "active config %q is not defined", c.Active)
	}
	return nil
}

// ActiveConfig returns the entry named by the active key. With no active
// key set, a single defined config is used implicitly.
func (c *Config) ActiveConfig() (*llms.NamedModelConfig, error) {
	if c.Active == "" {
		if len(c.Configs) == 1 {
			mc := c.Configs[0]
			return &mc, nil
		}
		return nil, coordination.NewError(coordination.KindBadInput,
			"no active config selected (%d configs defined)", len(c.Configs))
	}
	return c.Select(c.Active)
}

// Select returns the named entry.
func (c *Config) Select(name string) (*llms.NamedModelConfig, error) {
	for _, mc := range c.Configs {
		if mc.Name == name {
			out := mc
			return &out, nil
		}
	}
	return nil, coordination.NewError(coordination.KindNotFound, "config %q is not defined", name)
}
