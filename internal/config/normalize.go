package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// normalizeConfig canonicalizes enum and extension fields in place and
// returns human readable warnings for values it had to replace.
func normalizeConfig(cfg *Config) ([]string, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	var warnings []string

	if raw := string(cfg.Monitoring.Logging.Level); raw != "" {
		lvl, err := logLevelNormalizer.NormalizeWithError(raw)
		if err != nil {
			warnings = append(warnings, "monitoring.logging.level: "+err.Error())
			lvl = LogLevelInfo
		}
		cfg.Monitoring.Logging.Level = lvl
	}
	if raw := string(cfg.Monitoring.Logging.Format); raw != "" {
		f, err := logFormatNormalizer.NormalizeWithError(raw)
		if err != nil {
			warnings = append(warnings, "monitoring.logging.format: "+err.Error())
			f = LogFormatText
		}
		cfg.Monitoring.Logging.Format = f
	}

	cfg.Build.SourceExt = normalizeExt(cfg.Build.SourceExt)
	cfg.Build.LayoutExt = normalizeExt(cfg.Build.LayoutExt)
	cfg.Build.OutputExt = normalizeExt(cfg.Build.OutputExt)
	cfg.Build.DefaultLayout = strings.TrimSpace(cfg.Build.DefaultLayout)
	cfg.Build.MasterLayout = strings.TrimSpace(cfg.Build.MasterLayout)

	for _, p := range []*string{&cfg.Paths.Pages, &cfg.Paths.Layouts, &cfg.Paths.Data, &cfg.Paths.Output, &cfg.Paths.Snapshot} {
		if s := strings.TrimSpace(*p); s != "" {
			*p = filepath.Clean(s)
		}
	}

	cfg.Notify.URL = strings.TrimSpace(cfg.Notify.URL)
	cfg.Site.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Site.BaseURL), "/")
	return warnings, nil
}

// normalizeExt lower-cases an extension and ensures a leading dot.
func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}
