// Package config loads tinyjs settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fortio.org/log"
	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable that points at a config file.
const EnvVar = "TINYJS_CONFIG"

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "tinyjs.yml"

// Config holds every tunable of the CLI and the interpreter it drives.
type Config struct {
	HistoryFile        string   `yaml:"history_file"`
	Prompt             string   `yaml:"prompt"`
	ContinuationPrompt string   `yaml:"continuation_prompt"`
	MaxLoopIterations  int      `yaml:"max_loop_iterations"`
	MaxSteps           int      `yaml:"max_steps"`
	Timeout            Duration `yaml:"timeout"`
	StrictDivision     bool     `yaml:"strict_division"`
	MirrorDeclarations bool     `yaml:"mirror_declarations"`
	ShowUndefined      bool     `yaml:"show_undefined"`
	LogLevel           string   `yaml:"log_level"`

	// Path is the file the values came from, empty for defaults.
	Path string `yaml:"-"`
}

// Duration is a time.Duration written as a Go duration string ("2s", "500ms").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q", node.Line, s)
	}
	*d = Duration(v)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		HistoryFile:        "history.txt",
		Prompt:             "js => ",
		ContinuationPrompt: "...   ",
		MirrorDeclarations: true,
		LogLevel:           "info",
	}
}

// ValidationError aggregates config validation failures.
type ValidationError struct {
	Path   string
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "config: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("config validation failed")
	if e.Path != "" {
		b.WriteString(" for " + e.Path)
	}
	b.WriteString(":")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Load reads a config file on top of the defaults. Keys that are not known
// are an error, as are negative limits.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", absPath, err)
	}
	defer file.Close()

	cfg := Default()
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse %s: %w", absPath, err)
	}
	cfg.Path = absPath
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.LogVf("config loaded from %s", absPath)
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	errs := ValidationError{Path: c.Path}
	if c.MaxLoopIterations < 0 {
		errs.Issues = append(errs.Issues, fmt.Sprintf("max_loop_iterations must be >= 0, got %d", c.MaxLoopIterations))
	}
	if c.MaxSteps < 0 {
		errs.Issues = append(errs.Issues, fmt.Sprintf("max_steps must be >= 0, got %d", c.MaxSteps))
	}
	if c.Timeout < 0 {
		errs.Issues = append(errs.Issues, fmt.Sprintf("timeout must not be negative, got %s", c.Timeout.Std()))
	}
	if c.Prompt == "" {
		errs.Issues = append(errs.Issues, "prompt must not be empty")
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

// Resolve finds the config to use: the explicit path if given, else the file
// named by TINYJS_CONFIG, else ./tinyjs.yml when it exists, else the defaults.
// Only an implicitly found file may be missing.
func Resolve(flagPath string) (*Config, error) {
	if flagPath != "" {
		return Load(flagPath)
	}
	if env := os.Getenv(EnvVar); env != "" {
		return Load(env)
	}
	if _, err := os.Stat(DefaultFile); err == nil {
		return Load(DefaultFile)
	} else if !errors.Is(err, os.ErrNotExist) {
		log.Warnf("Ignoring %s: %v", DefaultFile, err)
	}
	return Default(), nil
}
