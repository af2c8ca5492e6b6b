// Package config loads and validates lit.toml, the project configuration
// file: project metadata, language/framework defaults, model configuration,
// and a list of static files written verbatim on every run.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/clintonboys/lit/internal/errs"
)

// ConfigFileName is the name lit looks for, walking up from the current
// directory, per FindAndLoad.
const ConfigFileName = "lit.toml"

// DefaultAPIKeyEnv is used when ModelConfig.API is not set.
const DefaultAPIKeyEnv = "LIT_API_KEY"

// ValidMappingModes are the project mapping modes lit understands.
var ValidMappingModes = []string{"direct", "manifest", "modular", "inferred"}

// ValidProviders are the model providers lit understands.
var ValidProviders = []string{"anthropic", "openai"}

// StaticFile is a (path, content) pair written verbatim before every
// pipeline run; it participates in no fingerprinting or caching.
type StaticFile struct {
	Path    string `toml:"path"`
	Content string `toml:"content"`
}

// ProjectConfig is the project's identity and output-mapping mode.
type ProjectConfig struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	Mapping string `toml:"mapping"`
}

// LanguageConfig is the project's default target language.
type LanguageConfig struct {
	Default string `toml:"default"`
	Version string `toml:"version"`
}

// FrameworkConfig is the project's default target framework, if any.
type FrameworkConfig struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// PricingConfig overrides the built-in per-model pricing table used for
// cost estimation.
type PricingConfig struct {
	InputPerMillion  float64 `toml:"input_per_million"`
	OutputPerMillion float64 `toml:"output_per_million"`
}

// APIConfig names the environment variable holding the provider API key.
type APIConfig struct {
	KeyEnv string `toml:"key_env"`
}

// ModelConfig is the project's default model configuration; individual
// prompts may override model/temperature/seed. A prompt's provider field is
// parsed but not applied: every prompt in a run uses this provider.
type ModelConfig struct {
	Provider    string         `toml:"provider"`
	Model       string         `toml:"model"`
	Temperature float64        `toml:"temperature"`
	Seed        *uint64        `toml:"seed"`
	API         *APIConfig     `toml:"api"`
	Pricing     *PricingConfig `toml:"pricing"`
}

// Config is the full contents of lit.toml.
type Config struct {
	Project   ProjectConfig    `toml:"project"`
	Language  LanguageConfig   `toml:"language"`
	Framework *FrameworkConfig `toml:"framework"`
	Model     ModelConfig      `toml:"model"`
	Static    []StaticFile     `toml:"static"`
}

// FromString parses raw TOML content into a Config and validates it.
func FromString(raw string) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(raw, &cfg); err != nil {
		return nil, &errs.ConfigError{Field: "lit.toml", Reason: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads and parses a lit.toml at path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errs.IOError{Op: "read config", Path: path, Err: err}
	}
	return FromString(string(data))
}

// FindAndLoad walks up from startDir looking for lit.toml, loading the
// first one found. It fails with a "not a lit repository" ConfigError if
// none is found before reaching the filesystem root.
func FindAndLoad(startDir string) (cfg *Config, root string, err error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, "", &errs.IOError{Op: "resolve start dir", Path: startDir, Err: err}
	}
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, statErr := os.Stat(candidate); statErr == nil {
			cfg, err := FromFile(candidate)
			if err != nil {
				return nil, "", err
			}
			return cfg, dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, "", &errs.ConfigError{Field: "lit.toml", Reason: "not a lit repository (no lit.toml found in any parent directory)"}
		}
		dir = parent
	}
}

// Validate checks mapping mode, temperature range, and provider name.
func (c *Config) Validate() error {
	if !contains(ValidMappingModes, c.Project.Mapping) {
		return &errs.ConfigError{
			Field:  "project.mapping",
			Reason: fmt.Sprintf("must be one of %v, got %q", ValidMappingModes, c.Project.Mapping),
		}
	}
	if c.Model.Temperature < 0.0 || c.Model.Temperature > 2.0 {
		return &errs.ConfigError{
			Field:  "model.temperature",
			Reason: fmt.Sprintf("must be in range [0.0, 2.0], got %v", c.Model.Temperature),
		}
	}
	if !contains(ValidProviders, c.Model.Provider) {
		return &errs.ConfigError{
			Field:  "model.provider",
			Reason: fmt.Sprintf("must be one of %v, got %q", ValidProviders, c.Model.Provider),
		}
	}
	return nil
}

// ResolveAPIKey reads the provider API key from the environment, using
// Model.API.KeyEnv if set, else DefaultAPIKeyEnv.
func (c *Config) ResolveAPIKey() (string, error) {
	envVar := DefaultAPIKeyEnv
	if c.Model.API != nil && c.Model.API.KeyEnv != "" {
		envVar = c.Model.API.KeyEnv
	}
	val := os.Getenv(envVar)
	if val == "" {
		return "", &errs.ConfigError{
			Field:  "model.api.key_env",
			Reason: fmt.Sprintf("environment variable %s is not set; export it or set model.api.key_env in lit.toml", envVar),
		}
	}
	return val, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
