package main

import (
	"fmt"

	"github.com/routa-ai/routa/pkg/config"
)

// ValidateCmd checks the model configuration file.
type ValidateCmd struct{}

func (c *ValidateCmd) Run(cli *CLI) error {
	path, err := cli.configPath()
	if err != nil {
		return err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Printf("✓ %s is valid (%d configs)\n", path, len(cfg.Configs))
	for _, mc := range cfg.Configs {
		marker := " "
		if mc.Name == cfg.Active {
			marker = "*"
		}
		fmt.Printf("  %s %s: provider=%s model=%s\n", marker, mc.Name, mc.Provider, mc.Model)
	}
	if cfg.Active == "" {
		fmt.Println("  (no active config selected)")
	}
	return nil
}
