package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds user defaults loaded from a YAML config file. Flags set
// explicitly on the command line always win over config values.
type Config struct {
	// Eps is the default convergence tolerance.
	Eps float64 `yaml:"eps,omitempty"`

	// MaxIter is the default iteration cap.
	MaxIter int `yaml:"max_iter,omitempty"`

	// Database is the default run-history database path.
	Database string `yaml:"database,omitempty"`

	// Divergence holds default guard overrides.
	Divergence *ConfigDivergence `yaml:"divergence,omitempty"`
}

// ConfigDivergence mirrors the solver guard policy in config form.
type ConfigDivergence struct {
	Disabled     bool    `yaml:"disabled,omitempty"`
	Factor       float64 `yaml:"factor,omitempty"`
	MinIteration int     `yaml:"min_iteration,omitempty"`
}

// DefaultConfigPath returns the conventional config location, or empty
// when the user config dir cannot be resolved.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "converge", "config.yaml")
}

// LoadConfig reads a YAML config file. A missing file at the default
// path is not an error; a missing file at an explicitly requested path is.
func LoadConfig(path string, explicit bool) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}
