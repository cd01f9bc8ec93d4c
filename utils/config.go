package utils

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds defaults for command line flags, read from a YAML file.
// Flags given explicitly on the command line take precedence.
type Config struct {
	Task              string `yaml:"task"`
	Function          string `yaml:"fun"`
	Order             string `yaml:"order"`
	MaxRounds         int    `yaml:"max-rounds"`
	MaxDomain         int    `yaml:"max-domain"`
	Workers           int    `yaml:"workers"`
	Strict            bool   `yaml:"strict"`
	KillRedefinitions bool   `yaml:"kill-redefs"`
	Metrics           bool   `yaml:"metrics"`
	Verbose           bool   `yaml:"verbose"`
	NoColorize        bool   `yaml:"no-colorize"`
}

// LoadConfig reads a configuration from a file.
func LoadConfig(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(b, config); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file %s: %w", filename, err)
	}
	return config, nil
}

// apply copies the values set in the configuration to o, unless the
// corresponding flag is explicit.
func (c *Config) apply(o *options, explicit map[string]bool) {
	for _, setting := range []struct {
		flag  string
		isSet bool
		set   func()
	}{
		{"task", c.Task != "", func() { o.task = c.Task }},
		{"fun", c.Function != "", func() { o.function = c.Function }},
		{"order", c.Order != "", func() { o.order = c.Order }},
		{"max-rounds", c.MaxRounds != 0, func() { o.maxRounds = c.MaxRounds }},
		{"max-domain", c.MaxDomain != 0, func() { o.maxDomain = c.MaxDomain }},
		{"workers", c.Workers != 0, func() { o.workers = c.Workers }},
		{"strict", c.Strict, func() { o.strict = true }},
		{"kill-redefs", c.KillRedefinitions, func() { o.killing = true }},
		{"metrics", c.Metrics, func() { o.metrics = true }},
		{"verbose", c.Verbose, func() { o.verbose = true }},
		{"no-colorize", c.NoColorize, func() { o.noColorize = true }},
	} {
		if setting.isSet && !explicit[setting.flag] {
			setting.set()
		}
	}
}
