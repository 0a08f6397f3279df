package config

import (
	"fmt"
	"time"
)

const defaultDebounce = 100 * time.Millisecond

// ConfigDefaultApplier applies defaults for one configuration domain.
type ConfigDefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// CompositeDefaultApplier applies defaults across all configuration domains.
type CompositeDefaultApplier struct {
	appliers []ConfigDefaultApplier
}

// NewDefaultApplier creates a composite default applier with all domain appliers.
func NewDefaultApplier() *CompositeDefaultApplier {
	return &CompositeDefaultApplier{
		appliers: []ConfigDefaultApplier{
			&SiteDefaultApplier{},
			&PathsDefaultApplier{},
			&BuildDefaultApplier{},
			&WatchDefaultApplier{},
			&HistoryDefaultApplier{},
			&NotifyDefaultApplier{},
			&MonitoringDefaultApplier{},
		},
	}
}

// ApplyDefaults applies defaults for all configuration domains.
func (c *CompositeDefaultApplier) ApplyDefaults(cfg *Config) error {
	for _, applier := range c.appliers {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return fmt.Errorf("applying defaults for %s: %w", applier.Domain(), err)
		}
	}
	return nil
}

// GetApplierByDomain returns a specific domain applier (useful for testing).
func (c *CompositeDefaultApplier) GetApplierByDomain(domain string) ConfigDefaultApplier {
	for _, applier := range c.appliers {
		if applier.Domain() == domain {
			return applier
		}
	}
	return nil
}

// SiteDefaultApplier handles site defaults.
type SiteDefaultApplier struct{}

func (s *SiteDefaultApplier) Domain() string { return "site" }

func (s *SiteDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Site.Params == nil {
		cfg.Site.Params = map[string]any{}
	}
	return nil
}

// PathsDefaultApplier handles source and output locations.
type PathsDefaultApplier struct{}

func (p *PathsDefaultApplier) Domain() string { return "paths" }

func (p *PathsDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Paths.Pages == "" {
		cfg.Paths.Pages = "pages"
	}
	if cfg.Paths.Layouts == "" {
		cfg.Paths.Layouts = "layouts"
	}
	if cfg.Paths.Data == "" {
		cfg.Paths.Data = "data"
	}
	if cfg.Paths.Output == "" {
		cfg.Paths.Output = "dist/html"
	}
	if cfg.Paths.Snapshot == "" {
		cfg.Paths.Snapshot = ".nocms/snapshot.json"
	}
	return nil
}

// BuildDefaultApplier handles layout names and extensions.
type BuildDefaultApplier struct{}

func (b *BuildDefaultApplier) Domain() string { return "build" }

func (b *BuildDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Build.DefaultLayout == "" {
		cfg.Build.DefaultLayout = "page"
	}
	if cfg.Build.MasterLayout == "" {
		cfg.Build.MasterLayout = "_master.html"
	}
	if cfg.Build.SourceExt == "" {
		cfg.Build.SourceExt = ".md"
	}
	if cfg.Build.LayoutExt == "" {
		cfg.Build.LayoutExt = ".html"
	}
	if cfg.Build.OutputExt == "" {
		cfg.Build.OutputExt = ".html"
	}
	return nil
}

// WatchDefaultApplier handles watch defaults.
type WatchDefaultApplier struct{}

func (w *WatchDefaultApplier) Domain() string { return "watch" }

func (w *WatchDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = defaultDebounce.String()
	}
	return nil
}

// HistoryDefaultApplier handles the build log location.
type HistoryDefaultApplier struct{}

func (h *HistoryDefaultApplier) Domain() string { return "history" }

func (h *HistoryDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.History.Path == "" {
		cfg.History.Path = ".nocms/history.db"
	}
	return nil
}

// NotifyDefaultApplier handles NATS defaults.
type NotifyDefaultApplier struct{}

func (n *NotifyDefaultApplier) Domain() string { return "notify" }

func (n *NotifyDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = "nocms.pages"
	}
	return nil
}

// MonitoringDefaultApplier handles logging defaults.
type MonitoringDefaultApplier struct{}

func (m *MonitoringDefaultApplier) Domain() string { return "monitoring" }

func (m *MonitoringDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Monitoring.Logging.Level == "" {
		cfg.Monitoring.Logging.Level = LogLevelInfo
	}
	if cfg.Monitoring.Logging.Format == "" {
		cfg.Monitoring.Logging.Format = LogFormatText
	}
	return nil
}
