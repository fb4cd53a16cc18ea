// Package config provides unified configuration loading for facsexne.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/facsexne/facsexne/internal/constants"
	"github.com/facsexne/facsexne/internal/pathutil"
	"gopkg.in/yaml.v3"
)

// Config contains all facsexne configuration settings. Simulation
// parameters themselves are positional arguments and never come from here.
type Config struct {
	// Output contains settings for the result files.
	Output OutputConfig `json:"output" yaml:"output"`

	// Seed fixes the random seed unless --seed or FACSEXNE_SEED is given.
	// Nil falls back to GSL_RNG_SEED, then the clock.
	Seed *uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`

	// MaxGenerations caps the length of a single trial. 0 (the default)
	// leaves trials unbounded.
	MaxGenerations int `json:"max_generations" yaml:"max_generations"`

	// Archive contains settings for the SQLite run archive.
	Archive ArchiveConfig `json:"archive" yaml:"archive"`

	// Logging contains settings for operational logging and trial tracing.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// OutputConfig configures where result files are written.
type OutputConfig struct {
	// Dir is the directory that receives result files. Supports a leading ~.
	Dir string `json:"dir" yaml:"dir"`
}

// ArchiveConfig configures the optional run archive.
type ArchiveConfig struct {
	// Path is the SQLite database file. Empty disables the archive.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// LoggingConfig configures facsexne's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables trial tracing to <output dir>/trials.jsonl.
	// "trace" additionally logs every generation to stderr.
	Level string `json:"level" yaml:"level"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Dir: ".",
		},
		MaxGenerations: 0,
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns ~/.facsexne/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, constants.ConfigDirName, constants.ConfigFileName), nil
}

// DefaultArchivePath returns ~/.facsexne/facsexne.db.
func DefaultArchivePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, constants.ConfigDirName, constants.DefaultArchiveFileName), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> path (or ~/.facsexne/config.yaml when path is empty) -> environment variables.
// An explicit path must exist; the default path is optional.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		config = fileConfig
	} else if defaultPath, err := DefaultPath(); err == nil {
		if _, statErr := os.Stat(defaultPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(defaultPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", pathutil.RedactPath(path), err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", pathutil.RedactPath(path), err)
	}

	config.Output.Dir = os.ExpandEnv(config.Output.Dir)
	config.Archive.Path = os.ExpandEnv(config.Archive.Path)

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.MaxGenerations < 0 {
		return fmt.Errorf("max_generations must be non-negative, got %d", c.MaxGenerations)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Seed variables are left to drift.ResolveSeed, which also records where
// the seed came from.
func applyEnvOverrides(config *Config) error {
	if v := os.Getenv("FACSEXNE_OUTPUT_DIR"); v != "" {
		config.Output.Dir = v
	}

	if v := os.Getenv("FACSEXNE_ARCHIVE"); v != "" {
		config.Archive.Path = v
	}

	if v := os.Getenv("FACSEXNE_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	if v := os.Getenv("FACSEXNE_MAX_GENERATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid FACSEXNE_MAX_GENERATIONS %q: %w", v, err)
		}
		config.MaxGenerations = n
	}

	return nil
}
