package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/nocms/internal/foundation/errors"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("NOCMS_TEST_AUTHOR", "ada")
	configContent := "site:\n" +
		"  title: Test Site\n" +
		"  base_url: https://example.org/\n" +
		"  params:\n" +
		"    author: ${NOCMS_TEST_AUTHOR}\n" +
		"paths:\n" +
		"  pages: ./content\n" +
		"  output: ./public\n" +
		"build:\n" +
		"  source_ext: MD\n" +
		"watch:\n" +
		"  debounce: 250ms\n" +
		"  full_rebuild_interval: 10m\n" +
		"monitoring:\n" +
		"  logging:\n" +
		"    level: WARNING\n" +
		"    format: json\n"

	path := filepath.Join(t.TempDir(), "nocms.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configContent), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Test Site", cfg.Site.Title)
	assert.Equal(t, "https://example.org", cfg.Site.BaseURL)
	assert.Equal(t, "ada", cfg.Site.Params["author"])
	assert.Equal(t, "content", cfg.Paths.Pages)
	assert.Equal(t, "public", cfg.Paths.Output)
	assert.Equal(t, "layouts", cfg.Paths.Layouts)
	assert.Equal(t, ".md", cfg.Build.SourceExt)
	assert.Equal(t, "page", cfg.Build.DefaultLayout)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.DebounceDuration())
	assert.Equal(t, 10*time.Minute, cfg.Watch.RebuildInterval())
	assert.Equal(t, LogLevelWarn, cfg.Monitoring.Logging.Level)
	assert.Equal(t, LogFormatJSON, cfg.Monitoring.Logging.Format)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "pages", cfg.Paths.Pages)
	assert.Equal(t, "dist/html", cfg.Paths.Output)
	assert.Equal(t, ".nocms/snapshot.json", cfg.Paths.Snapshot)
	assert.Equal(t, "_master.html", cfg.Build.MasterLayout)
	assert.Equal(t, ".html", cfg.Build.OutputExt)
	assert.Equal(t, 100*time.Millisecond, cfg.Watch.DebounceDuration())
	assert.Zero(t, cfg.Watch.RebuildInterval())
	assert.Equal(t, "nocms.pages", cfg.Notify.Subject)
	assert.NotNil(t, cfg.Site.Params)
	assert.NoError(t, ValidateConfig(cfg))
	assert.NotNil(t, NewDefaultApplier().GetApplierByDomain("watch"))
	assert.Nil(t, NewDefaultApplier().GetApplierByDomain("nope"))
}

func TestParseValidation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"output equals pages", "paths:\n  pages: site\n  output: site\n"},
		{"same extensions", "build:\n  source_ext: .html\n"},
		{"bad debounce", "watch:\n  debounce: soon\n"},
		{"tiny rebuild interval", "watch:\n  full_rebuild_interval: 10ms\n"},
		{"relative base url", "site:\n  base_url: example.org\n"},
		{"master without layout ext", "build:\n  master_layout: _master.tmpl\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
		})
	}
}

func TestParseUnknownLogLevelFallsBack(t *testing.T) {
	cfg, err := Parse([]byte("monitoring:\n  logging:\n    level: chatty\n"))
	require.NoError(t, err)
	assert.Equal(t, LogLevelInfo, cfg.Monitoring.Logging.Level)
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nocms.yaml")
	require.NoError(t, Init(path, false))

	err := Init(path, false)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	require.NoError(t, Init(path, true))

	t.Setenv("USER", "tester")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "My Site", cfg.Site.Title)
	assert.Equal(t, "tester", cfg.Site.Params["author"])
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, time.Hour, cfg.Watch.RebuildInterval())
}

func TestNormalizeExt(t *testing.T) {
	assert.Equal(t, ".md", normalizeExt("md"))
	assert.Equal(t, ".md", normalizeExt(" .MD "))
	assert.Empty(t, normalizeExt(""))
}
