package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration to support YAML unmarshalling from strings.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses duration strings like "5s" or "1m".
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		return fmt.Errorf("duration value node is nil")
	}
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("decode duration: %w", err)
	}
	if raw == "" {
		d.Duration = 0
		return nil
	}
	dur, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	d.Duration = dur
	return nil
}

// MarshalYAML renders the duration as a string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// OutputConfig controls the generated artifact.
type OutputConfig struct {
	Path     string   `yaml:"path,omitempty"`
	Prefix   string   `yaml:"prefix,omitempty"`
	Header   string   `yaml:"header,omitempty"`
	Includes []string `yaml:"includes,omitempty"`
}

// LintConfig configures the structural checks run before generation.
type LintConfig struct {
	Strict   bool     `yaml:"strict,omitempty"`
	Disabled []string `yaml:"disabled,omitempty"`
}

// LokiConfig configures optional Loki integration for logging.
type LokiConfig struct {
	Enabled bool              `yaml:"enabled"`
	URL     string            `yaml:"url"`
	Labels  map[string]string `yaml:"labels"`
}

// LoggingConfig encapsulates runtime logging options.
type LoggingConfig struct {
	Level  string     `yaml:"level"`
	Format string     `yaml:"format,omitempty"`
	Loki   LokiConfig `yaml:"loki"`
}

// TelemetryConfig configures metric collection.
type TelemetryConfig struct {
	Enabled bool `yaml:"enabled"`
	// Textfile receives the metrics in Prometheus text format after each run.
	Textfile string `yaml:"textfile,omitempty"`
}

// WatchConfig configures regeneration on input changes.
type WatchConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Interval Duration `yaml:"interval,omitempty"`
}

// Config is the root configuration structure of the generator.
type Config struct {
	Output    OutputConfig    `yaml:"output"`
	Lint      LintConfig      `yaml:"lint"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Watch     WatchConfig     `yaml:"watch"`

	// Source is the file the configuration was read from, if any.
	Source string `yaml:"-"`
}

// DefaultOutputPath is used when neither the command line nor the
// configuration names an output file.
const DefaultOutputPath = "nwocg_generated.c"

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Path:     DefaultOutputPath,
			Prefix:   "nwocg",
			Includes: []string{"math.h"},
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Watch:   WatchConfig{Interval: Duration{Duration: time.Second}},
	}
}

// Load reads and decodes the configuration file from disk. Files ending in
// .cue are evaluated against the built-in schema, .hcl files are decoded as
// HCL and everything else is YAML.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path must not be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(abs)) {
	case ".hcl":
		if err := decodeHCL(abs, raw, cfg); err != nil {
			return nil, err
		}
	case ".cue":
		raw, err = evaluateCUE(abs, raw)
		if err != nil {
			return nil, err
		}
		fallthrough
	default:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}
	cfg.Source = abs
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise produce uncompilable output.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config must not be nil")
	}
	if err := ensureIdentifier(c.Output.Prefix, "output prefix"); err != nil {
		return err
	}
	for _, inc := range c.Output.Includes {
		if strings.TrimSpace(inc) == "" {
			return errors.New("output includes must not contain empty entries")
		}
	}
	if c.Watch.Interval.Duration < 0 {
		return fmt.Errorf("watch interval must not be negative")
	}
	return nil
}

// WatchInterval returns the polling interval for watch mode.
func (c *Config) WatchInterval() time.Duration {
	if c == nil || c.Watch.Interval.Duration <= 0 {
		return time.Second
	}
	return c.Watch.Interval.Duration
}

// LintDisabled reports whether a lint code has been switched off.
func (c *Config) LintDisabled(code string) bool {
	if c == nil {
		return false
	}
	for _, disabled := range c.Lint.Disabled {
		if disabled == code {
			return true
		}
	}
	return false
}

// SourceFiles lists the files the configuration was built from.
func SourceFiles(cfg *Config) []string {
	if cfg == nil || cfg.Source == "" {
		return nil
	}
	return []string{cfg.Source}
}

func ensureIdentifier(value, kind string) error {
	if value == "" {
		return fmt.Errorf("%s must not be empty", kind)
	}
	for idx, r := range value {
		if r > unicode.MaxASCII {
			return fmt.Errorf("%s %q contains non-ASCII character %q", kind, value, r)
		}
		if idx == 0 && unicode.IsDigit(r) {
			return fmt.Errorf("%s %q must not start with a digit", kind, value)
		}
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			return fmt.Errorf("%s %q contains invalid character %q", kind, value, r)
		}
	}
	return nil
}
