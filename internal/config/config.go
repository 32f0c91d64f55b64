// Package config loads CLI settings from defaults, a YAML file and
// MDSTREAM_* environment variables, in that order.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MDSTREAM_"

// DefaultFile is looked up in the working directory when no file is given.
const DefaultFile = ".mdstream.yaml"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config holds the settings of the mdstream command.
type Config struct {
	Format      string        `yaml:"format"`
	Width       int           `yaml:"width"`
	Simulate    bool          `yaml:"simulate"`
	Chunk       int           `yaml:"chunk"`
	Delay       time.Duration `yaml:"delay"`
	LogLevel    string        `yaml:"log_level"`
	FrontMatter bool          `yaml:"front_matter"`
	Strict      bool          `yaml:"strict"`
	DetectLang  bool          `yaml:"detect_lang"`
	Partial     bool          `yaml:"partial"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Format:   FormatText,
		Chunk:    4,
		Delay:    20 * time.Millisecond,
		LogLevel: "info",
	}
}

// Load applies the YAML file at path and then the environment on top of
// Default. An empty path tries DefaultFile and tolerates its absence; an
// explicit path must exist.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := Decode(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: %s: %w", path, err)
		}
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := ApplyEnv(&cfg, getenv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Decode reads YAML settings into cfg. Unknown keys are rejected.
func Decode(data []byte, cfg *Config) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(cfg)
}

type envKind uint8

const (
	envString envKind = iota
	envBool
	envInt
	envDuration
)

var envFields = []struct {
	name string
	kind envKind
	set  func(*Config, any)
}{
	{"FORMAT", envString, func(c *Config, v any) { c.Format = v.(string) }},
	{"WIDTH", envInt, func(c *Config, v any) { c.Width = v.(int) }},
	{"SIMULATE", envBool, func(c *Config, v any) { c.Simulate = v.(bool) }},
	{"CHUNK", envInt, func(c *Config, v any) { c.Chunk = v.(int) }},
	{"DELAY", envDuration, func(c *Config, v any) { c.Delay = v.(time.Duration) }},
	{"LOG_LEVEL", envString, func(c *Config, v any) { c.LogLevel = v.(string) }},
	{"FRONT_MATTER", envBool, func(c *Config, v any) { c.FrontMatter = v.(bool) }},
	{"STRICT", envBool, func(c *Config, v any) { c.Strict = v.(bool) }},
	{"DETECT_LANG", envBool, func(c *Config, v any) { c.DetectLang = v.(bool) }},
	{"PARTIAL", envBool, func(c *Config, v any) { c.Partial = v.(bool) }},
}

// ApplyEnv overrides cfg with MDSTREAM_* variables read through getenv.
// Empty variables are ignored.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	for _, f := range envFields {
		name := EnvPrefix + f.name
		raw := strings.TrimSpace(getenv(name))
		if raw == "" {
			continue
		}
		var (
			v   any
			err error
		)
		switch f.kind {
		case envString:
			v = raw
		case envBool:
			v, err = strconv.ParseBool(raw)
		case envInt:
			v, err = strconv.Atoi(raw)
		case envDuration:
			v, err = time.ParseDuration(raw)
		}
		if err != nil {
			return fmt.Errorf("config: %s: invalid value %q: %w", name, raw, err)
		}
		f.set(cfg, v)
	}
	return nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch c.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("config: unknown format %q (want text, json or yaml)", c.Format)
	}
	if c.Width < 0 {
		return fmt.Errorf("config: width must be >= 0")
	}
	if c.Chunk <= 0 {
		return fmt.Errorf("config: chunk must be > 0")
	}
	if c.Delay < 0 {
		return fmt.Errorf("config: delay must be >= 0")
	}
	return nil
}
