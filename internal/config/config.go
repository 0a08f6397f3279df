package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/nocms/internal/foundation/errors"
)

// DefaultPath is the configuration file looked up when no -c flag is given.
const DefaultPath = "nocms.yaml"

// Config is the complete nocms configuration.
type Config struct {
	Site       SiteConfig       `yaml:"site"`
	Paths      PathsConfig      `yaml:"paths"`
	Build      BuildConfig      `yaml:"build"`
	Watch      WatchConfig      `yaml:"watch"`
	History    HistoryConfig    `yaml:"history"`
	Notify     NotifyConfig     `yaml:"notify"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// SiteConfig is exposed to templates as the `config` binding.
type SiteConfig struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	BaseURL     string         `yaml:"base_url"`
	Params      map[string]any `yaml:"params,omitempty"`
}

// PathsConfig locates the source roots and the generated artifacts.
type PathsConfig struct {
	Pages    string `yaml:"pages"`
	Layouts  string `yaml:"layouts"`
	Data     string `yaml:"data"`
	Output   string `yaml:"output"`
	Snapshot string `yaml:"snapshot"`
}

// BuildConfig controls layout selection and file extensions.
type BuildConfig struct {
	DefaultLayout string `yaml:"default_layout"`
	MasterLayout  string `yaml:"master_layout"`
	SourceExt     string `yaml:"source_ext"`
	LayoutExt     string `yaml:"layout_ext"`
	OutputExt     string `yaml:"output_ext"`
}

// WatchConfig tunes the watch dispatcher.
type WatchConfig struct {
	Debounce            string `yaml:"debounce"`
	FullRebuildInterval string `yaml:"full_rebuild_interval,omitempty"` // empty disables periodic rebuilds
}

// HistoryConfig enables the sqlite build log.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// NotifyConfig publishes render events to NATS when URL is set.
type NotifyConfig struct {
	URL     string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// MonitoringConfig represents metrics and logging configuration.
type MonitoringConfig struct {
	MetricsAddr string            `yaml:"metrics_addr,omitempty"`
	Logging     MonitoringLogging `yaml:"logging"`
}

// MonitoringLogging represents logging configuration.
type MonitoringLogging struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// DebounceDuration returns the parsed watch debounce.
func (w WatchConfig) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(w.Debounce)
	if err != nil || d <= 0 {
		return defaultDebounce
	}
	return d
}

// RebuildInterval returns the periodic full rebuild interval, zero when disabled.
func (w WatchConfig) RebuildInterval() time.Duration {
	if w.FullRebuildInterval == "" {
		return 0
	}
	d, err := time.ParseDuration(w.FullRebuildInterval)
	if err != nil {
		return 0
	}
	return d
}

// Load reads, expands, normalizes, defaults and validates a configuration file.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.NotFoundError("configuration file not found").
			WithContext("path", configPath).
			Build()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).
			Fatal().
			Build()
	}

	cfg, err := Parse([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes configuration YAML and runs the normalize, default and validate passes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Fatal().Build()
	}

	warnings, err := normalizeConfig(&cfg)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "normalize").Fatal().Build()
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "config normalization: %s\n", w)
	}

	if err := NewDefaultApplier().ApplyDefaults(&cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to apply defaults").Fatal().Build()
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "configuration validation failed").Build()
	}
	return &cfg, nil
}

// Default returns a configuration populated only with defaults.
func Default() *Config {
	var cfg Config
	_ = NewDefaultApplier().ApplyDefaults(&cfg)
	return &cfg
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	example := Default()
	example.Site = SiteConfig{
		Title:       "My Site",
		Description: "Built with nocms",
		BaseURL:     "https://example.com",
		Params:      map[string]any{"author": "${USER}"},
	}
	example.Watch.FullRebuildInterval = "1h"
	example.History = HistoryConfig{Enabled: true, Path: "./.nocms/history.db"}
	example.Monitoring.MetricsAddr = ":9090"

	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}
