package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// ValidateConfig validates the complete configuration.
func ValidateConfig(cfg *Config) error {
	validator := newConfigurationValidator(cfg)
	return validator.validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	if err := cv.validatePaths(); err != nil {
		return err
	}
	if err := cv.validateBuild(); err != nil {
		return err
	}
	if err := cv.validateWatch(); err != nil {
		return err
	}
	if err := cv.validateSite(); err != nil {
		return err
	}
	return cv.validateNotify()
}

func (cv *configurationValidator) validatePaths() error {
	p := cv.config.Paths
	roots := map[string]string{"pages": p.Pages, "layouts": p.Layouts, "data": p.Data}
	out := filepath.Clean(p.Output)
	for name, root := range roots {
		if root == "" {
			return fmt.Errorf("paths.%s must not be empty", name)
		}
		if filepath.Clean(root) == out {
			return fmt.Errorf("paths.output (%s) must differ from paths.%s", p.Output, name)
		}
	}
	if p.Output == "" || p.Snapshot == "" {
		return errors.New("paths.output and paths.snapshot must not be empty")
	}
	return nil
}

func (cv *configurationValidator) validateBuild() error {
	b := cv.config.Build
	if strings.ContainsAny(b.DefaultLayout, `\`) || strings.HasPrefix(b.DefaultLayout, "/") {
		return fmt.Errorf("build.default_layout must be a relative layout name: %q", b.DefaultLayout)
	}
	if b.SourceExt == b.OutputExt {
		return fmt.Errorf("build.source_ext and build.output_ext must differ (%s)", b.SourceExt)
	}
	if !strings.HasSuffix(b.MasterLayout, b.LayoutExt) {
		return fmt.Errorf("build.master_layout %q must end in %s", b.MasterLayout, b.LayoutExt)
	}
	return nil
}

func (cv *configurationValidator) validateWatch() error {
	w := cv.config.Watch
	if d, err := time.ParseDuration(w.Debounce); err != nil || d <= 0 {
		return fmt.Errorf("invalid watch.debounce: %q", w.Debounce)
	}
	if w.FullRebuildInterval != "" {
		d, err := time.ParseDuration(w.FullRebuildInterval)
		if err != nil {
			return fmt.Errorf("invalid watch.full_rebuild_interval: %w", err)
		}
		if d < time.Second {
			return fmt.Errorf("watch.full_rebuild_interval must be at least 1s, got %s", d)
		}
	}
	return nil
}

func (cv *configurationValidator) validateSite() error {
	if cv.config.Site.BaseURL == "" {
		return nil
	}
	u, err := url.Parse(cv.config.Site.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("site.base_url must be an absolute URL: %q", cv.config.Site.BaseURL)
	}
	return nil
}

func (cv *configurationValidator) validateNotify() error {
	n := cv.config.Notify
	if n.URL != "" && n.Subject == "" {
		return errors.New("notify.subject is required when notify.nats_url is set")
	}
	return nil
}
