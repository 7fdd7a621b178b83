// Package config loads the .linkrun.yaml project configuration.
package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/linkrun/internal/errors"
	"github.com/felixgeelhaar/linkrun/internal/hashalg"
	"github.com/felixgeelhaar/linkrun/internal/interchange"
	"github.com/felixgeelhaar/linkrun/internal/log"
)

// DefaultFile is looked up in the current directory when no --config is given
const DefaultFile = ".linkrun.yaml"

// Config holds the defaults applied to every run. Command-line flags take
// precedence over any value set here.
type Config struct {
	HashAlgorithms  []string  `yaml:"hash_algorithms,omitempty"`
	KeyPath         string    `yaml:"key_path,omitempty"`
	ExcludePatterns []string  `yaml:"exclude_patterns,omitempty"`
	LStripPaths     []string  `yaml:"lstrip_paths,omitempty"`
	OutputFormat    string    `yaml:"output_format,omitempty"`
	Log             LogConfig `yaml:"log,omitempty"`
}

// LogConfig selects the logger's level and output format
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format,omitempty"` // "text", "json"
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		HashAlgorithms: []string{string(hashalg.Default)},
		OutputFormat:   string(interchange.FormatJSON),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the configuration at p. An empty p reads DefaultFile if it
// exists and falls back to Default otherwise. An explicitly named file that
// does not exist is an error.
func Load(p string) (*Config, error) {
	explicit := p != ""
	if !explicit {
		p = DefaultFile
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if !explicit && stderrors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "failed to read config", err).WithPath(p)
	}

	cfg, err := Parse(data)
	if err != nil {
		var le *errors.LinkError
		if stderrors.As(err, &le) {
			return nil, le.WithPath(p)
		}
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML over Default and validates the result
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "failed to parse config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field without touching the filesystem
func (c *Config) Validate() error {
	if _, err := hashalg.Select(c.HashAlgorithms); err != nil {
		return err
	}
	if _, err := interchange.ParseFormat(c.OutputFormat); err != nil {
		return errors.Wrap(errors.ErrCodeConfigInvalid, "invalid output_format", err)
	}
	for _, pattern := range c.ExcludePatterns {
		if _, err := path.Match(pattern, ""); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPattern,
				fmt.Sprintf("invalid exclude pattern %q", pattern), err)
		}
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return errors.New(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("invalid log.format %q", c.Log.Format)).
			WithSuggestion("Use text or json")
	}
	return nil
}

// LoggerConfig converts the log section into a logger configuration
func (c *Config) LoggerConfig() log.Config {
	lc := log.DefaultConfig()
	lc.Level = log.ParseLevel(c.Log.Level)
	lc.Format = log.ParseFormat(c.Log.Format)
	return lc
}

// Format returns the parsed output format. Validate has already run.
func (c *Config) Format() interchange.Format {
	f, err := interchange.ParseFormat(c.OutputFormat)
	if err != nil {
		return interchange.FormatJSON
	}
	return f
}

// Save writes the configuration as YAML
func (c *Config) Save(p string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeConfigInvalid, "failed to marshal config", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to write config", err).WithPath(p)
	}
	return nil
}
