package config

import (
	"fmt"
	"log/slog"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config is the tone engine's service configuration: the admin HTTP
// surface, the cadence registry's default language and optional
// cadence-pack file, and the detector defaults a Consumer is built
// with when its stream name does not override them.
type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Cadence  CadenceConfig  `mapstructure:"cadence"`
	Detector DetectorConfig `mapstructure:"detector"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// HTTPConfig controls the admin/diagnostics HTTP surface
// (internal/httpapi): health, Prometheus metrics, and read-only
// registry/pool introspection. It never carries audio.
type HTTPConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// CadenceConfig configures the cadence registry: the default language
// consulted by Resolve when no explicit prefix is given, and an
// optional cadence-pack file layered on top of the built-in set.
type CadenceConfig struct {
	DefaultLanguage string `mapstructure:"default_language"`
	PackPath        string `mapstructure:"pack_path"`
}

// DetectorConfig mirrors the "*" filter-list default a Consumer is
// built with when a stream name supplies no explicit filter-list
// (spec.md 4.5): which checks run unless overridden.
type DetectorConfig struct {
	FaxEnabled         bool `mapstructure:"fax_enabled"`
	DTMFEnabled        bool `mapstructure:"dtmf_enabled"`
	ContinuityVerified bool `mapstructure:"continuity_verified"`
	ContinuitySend     bool `mapstructure:"continuity_send"`
	CallSetup          bool `mapstructure:"call_setup"`
}

// LoggingConfig controls the single *slog.Logger every package is
// handed at construction.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Loader owns the Viper instance a Config was parsed from, so Watch
// can re-parse and re-validate the same file on change.
type Loader struct {
	v      *viper.Viper
	logger *slog.Logger
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.enabled", true)
	v.SetDefault("http.address", ":8090")
	v.SetDefault("cadence.default_language", "")
	v.SetDefault("cadence.pack_path", "")
	v.SetDefault("detector.fax_enabled", true)
	v.SetDefault("detector.dtmf_enabled", true)
	v.SetDefault("detector.continuity_verified", false)
	v.SetDefault("detector.continuity_send", false)
	v.SetDefault("detector.call_setup", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")
}

// Load reads and validates the service configuration at path, returning
// both the parsed Config and a Loader that can later Watch the same
// file for hot reload. logger receives parse-error diagnostics from
// later Watch callbacks; it may be nil (defaults to slog.Default()).
func Load(path string, logger *slog.Logger) (*Config, *Loader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg, err := unmarshalValidate(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, &Loader{v: v, logger: logger}, nil
}

func unmarshalValidate(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: parsing: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return &cfg, nil
}

// Watch starts watching the loaded config file for changes, invoking
// onChange with the freshly parsed and validated Config whenever it is
// rewritten. A rewrite that fails to parse or validate is logged at
// warn level and otherwise ignored: the caller keeps running with
// whatever Config it already has, per spec.md 7's "no error is
// retryable inside the core" — config hot-reload is ambient, not core,
// but still never tears down a running server over a bad edit.
func (l *Loader) Watch(onChange func(*Config)) {
	l.v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalValidate(l.v)
		if err != nil {
			l.logger.Warn("config reload failed, keeping previous configuration", "error", err)
			return
		}
		onChange(cfg)
	})
	l.v.WatchConfig()
}

// Validate checks that every field is within its valid range.
func (c *Config) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// Validate validates the HTTP configuration.
func (h *HTTPConfig) Validate() error {
	if !h.Enabled {
		return nil
	}
	if h.Address == "" {
		return fmt.Errorf("address cannot be empty when http is enabled")
	}
	return nil
}

// Validate validates the logging configuration.
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got %q", l.Format)
	}
	if l.Output == "" {
		return fmt.Errorf("output cannot be empty")
	}
	return nil
}
