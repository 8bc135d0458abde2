// Package config provides configuration types and defaults for walkabout.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zjrosen/walkabout/internal/log"
	"github.com/zjrosen/walkabout/internal/topo"
	"github.com/zjrosen/walkabout/internal/tracing"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds all configuration options for walkabout.
type Config struct {
	// Manifest is used when a command is given no manifest argument.
	Manifest string         `mapstructure:"manifest"`
	Sorter   SorterConfig   `mapstructure:"sorter"`
	Log      LogConfig      `mapstructure:"log"`
	Tracing  tracing.Config `mapstructure:"tracing"`
	Output   OutputConfig   `mapstructure:"output"`
}

// SorterConfig holds the default ordering constraints applied to predicates
// that declare none. Entries are predicate names or FIRST / LAST.
type SorterConfig struct {
	After  []string `mapstructure:"after"`
	Before []string `mapstructure:"before"`
}

// Options converts the defaults into sorter options. Nil when neither list
// is set, leaving the sorter's own default (before LAST) in place.
func (s SorterConfig) Options() []topo.Option[string] {
	if len(s.After) == 0 && len(s.Before) == 0 {
		return nil
	}
	return []topo.Option[string]{
		topo.WithDefaults(topo.ParseRefs(s.After...), topo.ParseRefs(s.Before...)),
	}
}

// LogConfig controls the debug log file.
type LogConfig struct {
	Debug bool   `mapstructure:"debug"`
	Path  string `mapstructure:"path"`  // default: walkabout.log in the working directory
	Level string `mapstructure:"level"` // debug, info, warn or error
}

// OutputConfig controls how results are printed.
type OutputConfig struct {
	Format string `mapstructure:"format"` // "text" (default) or "json"
	Color  bool   `mapstructure:"color"`
}

// DefaultTracesFilePath returns ~/.config/walkabout/traces/traces.jsonl, or
// an empty string if the home directory is unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "walkabout", "traces", "traces.jsonl")
}

// ValidateSorter checks that no default ref is blank.
func ValidateSorter(s SorterConfig) error {
	for i, n := range s.After {
		if n == "" {
			return fmt.Errorf("sorter.after[%d]: name is required", i)
		}
	}
	for i, n := range s.Before {
		if n == "" {
			return fmt.Errorf("sorter.before[%d]: name is required", i)
		}
	}
	return nil
}

// ValidateLog checks the log level.
func ValidateLog(l LogConfig) error {
	if l.Level == "" {
		return nil
	}
	if _, err := log.ParseLevel(l.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// ValidateOutput checks the output format.
func ValidateOutput(o OutputConfig) error {
	switch o.Format {
	case "", FormatText, FormatJSON:
		return nil
	default:
		return fmt.Errorf("output.format must be %q or %q, got %q", FormatText, FormatJSON, o.Format)
	}
}

// ValidateTracing checks tracing configuration. Empty values use defaults.
func ValidateTracing(t tracing.Config) error {
	if t.SampleRate < 0.0 || t.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}
	if err := t.Validate(); err != nil {
		return err
	}
	return nil
}

// Validate runs every section validator.
func (c Config) Validate() error {
	if err := ValidateSorter(c.Sorter); err != nil {
		return err
	}
	if err := ValidateLog(c.Log); err != nil {
		return err
	}
	if err := ValidateTracing(c.Tracing); err != nil {
		return err
	}
	return ValidateOutput(c.Output)
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	traces := tracing.DefaultConfig()
	traces.FilePath = DefaultTracesFilePath()
	return Config{
		Sorter: SorterConfig{
			Before: []string{"LAST"},
		},
		Log: LogConfig{
			Path:  "walkabout.log",
			Level: "debug",
		},
		Tracing: traces,
		Output: OutputConfig{
			Format: FormatText,
			Color:  true,
		},
	}
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Walkabout Configuration

# Manifest used when a command is run without one
# manifest: walkabout.yaml

# Default ordering for predicates that declare no before/after.
# Entries are predicate names or the anchors FIRST and LAST.
sorter:
  before: [LAST]
  # after: [FIRST]

# Debug logging (also enabled with --debug)
log:
  debug: false
  path: walkabout.log
  level: debug   # debug, info, warn, error

# Output settings
output:
  format: text   # text or json
  color: true

# Tracing of order/elect/explain runs
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/walkabout/traces/traces.jsonl
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
