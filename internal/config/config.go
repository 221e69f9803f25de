// Package config loads the parameters the pool coordinator is constructed
// with (§6 Configuration at construction).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds buffer pool and disk manager construction parameters.
type Config struct {
	PoolSize     int    `yaml:"pool_size"`
	ReplacerK    int    `yaml:"replacer_k"`
	DataFile     string `yaml:"data_file"`
	InitialPages int    `yaml:"initial_pages"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		PoolSize:     64,
		ReplacerK:    2,
		DataFile:     "bustub.db",
		InitialPages: 16,
	}
}

// Load reads a YAML config file, starting from Default and overwriting
// whichever fields the file sets.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.PoolSize <= 0 {
		return fmt.Errorf("config: pool_size must be positive, got %d", c.PoolSize)
	}
	if c.ReplacerK < 1 {
		return fmt.Errorf("config: replacer_k must be at least 1, got %d", c.ReplacerK)
	}
	if c.InitialPages <= 0 {
		return fmt.Errorf("config: initial_pages must be positive, got %d", c.InitialPages)
	}
	return nil
}
