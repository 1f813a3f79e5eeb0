package chipsupplier

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads and parses a YAML supplier configuration.
//
// Dtypes and the mode are written by name:
//
//	workers: 4
//	slots: 8
//	imagery_path: mem://scene
//	label_path: mem://labels
//	imagery_dtype: uint16
//	label_dtype: uint8
//	mode: training
//	window_size: 256
//	bands: [3, 1, 2]
//
// The file is a convenience; Start accepts a Config built in code just as
// well. The returned configuration is already validated.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("chipsupplier: failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("chipsupplier: failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("chipsupplier: invalid configuration: %w", err)
	}

	return &cfg, nil
}
