package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// ErrInvalidConfig wraps validation failures returned by LoadFile.
var ErrInvalidConfig = errors.New("invalid configuration")

// LoadFile reads, decodes and validates the configuration at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Load(path, data)
}

// Load decodes and validates configuration source. filename is used in
// diagnostics and selects the syntax (".hcl" or ".json").
func Load(filename string, data []byte) (*Config, error) {
	cfg, err := decode(filename, data)
	if err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); errs.HasErrors() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, errs)
	}
	return cfg, nil
}

func decode(filename string, data []byte) (*Config, error) {
	var cfg Config
	if err := hclsimple.Decode(filename, data, nil, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}
