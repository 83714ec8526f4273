// Package config loads nusdl's YAML configuration: which CDN to pull
// from and where downloaded titles land on disk.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	NUS    NUSConfig    `yaml:"nus"`
	Output OutputConfig `yaml:"output"`
}

type NUSConfig struct {
	Dev *bool `yaml:"dev"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
}

func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	cfg.resolvePaths(path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Output.Dir) == "" {
		return fmt.Errorf("config.output.dir is required")
	}
	return nil
}

// IsDev reports whether to use the dev CDN, defaulting to false (retail)
// when unset.
func (c *Config) IsDev() bool {
	return c.NUS.Dev != nil && *c.NUS.Dev
}

func (c *Config) resolvePaths(configPath string) {
	configDir := filepath.Dir(configPath)
	c.Output.Dir = resolvePath(configDir, c.Output.Dir)
}

func resolvePath(baseDir, path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || filepath.IsAbs(trimmed) {
		return trimmed
	}
	return filepath.Clean(filepath.Join(baseDir, trimmed))
}
