package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFilename is the default configuration filename.
const DefaultConfigFilename = "stackpilot.yaml"

// ErrConfigNotFound is returned by FindConfigFile when no file exists.
var ErrConfigNotFound = errors.New("config file not found")

// Load reads the configuration. An empty path searches for
// DefaultConfigFilename and falls back to environment-only configuration.
// The result has the environment overlay and defaults applied and is
// validated.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		found, err := FindConfigFile()
		switch {
		case err == nil:
			path = found
		case !errors.Is(err, ErrConfigNotFound):
			return nil, err
		}
	}

	if path != "" {
		fromFile, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fromFile
	}

	cfg.ApplyEnv(os.Getenv)
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadFile parses a configuration file without overlay or validation.
func LoadFile(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return parseConfig(data)
}

// parseConfig parses YAML data into a Config struct.
func parseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &cfg, nil
}

// FindConfigFile looks for DefaultConfigFilename in the current directory
// and then in every parent directory.
func FindConfigFile() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	dir := cwd
	for {
		path := filepath.Join(dir, DefaultConfigFilename)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%w: %s", ErrConfigNotFound, DefaultConfigFilename)
}
