// Package config holds ASML's construction-time tunables: machine
// memory size and label-map capacity. These are overridable via an
// optional TOML file; a missing file simply yields the defaults.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is ASML's construction-time configuration.
type Config struct {
	Memory struct {
		Size int `toml:"size"`
	} `toml:"memory"`

	Labels struct {
		Capacity int `toml:"capacity"`
	} `toml:"labels"`
}

// DefaultConfig returns the built-in defaults used when no config file
// is present.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Memory.Size = 1 << 16
	cfg.Labels.Capacity = 64
	return cfg
}

// Load loads configuration from ./asml.toml, falling back to defaults
// if it does not exist.
func Load() (*Config, error) {
	return LoadFrom("asml.toml")
}

// LoadFrom loads configuration from the given path. A missing file is
// not an error: it yields DefaultConfig().
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to ./asml.toml.
func (c *Config) Save() error {
	return c.SaveTo("asml.toml")
}

// SaveTo writes the configuration to the given path.
func (c *Config) SaveTo(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
