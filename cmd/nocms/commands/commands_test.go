package commands

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/nocms/internal/config"
	"git.home.luguber.info/inful/nocms/internal/history"
)

func testGlobal() (*Global, *bytes.Buffer) {
	var out bytes.Buffer
	return &Global{
		Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
		Out:    &out,
	}, &out
}

// siteConfig points a default configuration at an initialized directory.
func siteConfig(dir string) *config.Config {
	cfg := config.Default()
	cfg.Site.Title = "Test Site"
	cfg.Paths.Pages = filepath.Join(dir, "pages")
	cfg.Paths.Layouts = filepath.Join(dir, "layouts")
	cfg.Paths.Data = filepath.Join(dir, "data")
	cfg.Paths.Output = filepath.Join(dir, "dist")
	cfg.Paths.Snapshot = filepath.Join(dir, ".nocms", "snapshot.json")
	return cfg
}

func TestRunInitWritesConfigAndSkeleton(t *testing.T) {
	dir := t.TempDir()
	g, out := testGlobal()
	cfgPath := filepath.Join(dir, config.DefaultPath)

	require.NoError(t, RunInit(g, dir, cfgPath, false))

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "My Site", cfg.Site.Title)
	for rel := range skeleton {
		assert.FileExists(t, filepath.Join(dir, filepath.FromSlash(rel)))
	}
	assert.Contains(t, out.String(), "created layouts/_master.html")
	assert.Contains(t, out.String(), "initialized successfully")
}

func TestRunInitKeepsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	g, _ := testGlobal()
	custom := filepath.Join(dir, "pages", "index.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(custom), 0o755))
	require.NoError(t, os.WriteFile(custom, []byte("---\ntitle: Mine\n---\nhello\n"), 0o644))

	require.NoError(t, RunInit(g, dir, filepath.Join(dir, config.DefaultPath), false))

	data, err := os.ReadFile(custom)
	require.NoError(t, err)
	assert.Contains(t, string(data), "title: Mine")
}

func TestRunInitRefusesExistingConfig(t *testing.T) {
	dir := t.TempDir()
	g, out := testGlobal()
	cfgPath := filepath.Join(dir, config.DefaultPath)
	require.NoError(t, os.WriteFile(cfgPath, []byte("site:\n  title: x\n"), 0o600))

	err := RunInit(g, dir, cfgPath, false)
	require.Error(t, err)
	assert.Contains(t, out.String(), "Initialization failed")
	require.NoError(t, RunInit(g, dir, cfgPath, true))
}

func TestRunBuildRendersSkeleton(t *testing.T) {
	dir := t.TempDir()
	g, out := testGlobal()
	require.NoError(t, RunInit(g, dir, filepath.Join(dir, config.DefaultPath), false))
	cfg := siteConfig(dir)

	out.Reset()
	require.NoError(t, RunBuild(t.Context(), g, cfg))
	assert.Contains(t, out.String(), "Build success: 1 rendered")

	html, err := os.ReadFile(filepath.Join(dir, "dist", "index.html"))
	require.NoError(t, err)
	page := string(html)
	assert.Contains(t, page, "<title>Welcome | Test Site</title>")
	assert.Contains(t, page, "<strong>nocms</strong>")
	assert.Contains(t, page, `<div class="prominent">`)
	assert.Contains(t, page, "min read")

	out.Reset()
	require.NoError(t, RunBuild(t.Context(), g, cfg))
	assert.Contains(t, out.String(), "Site up to date")
}

func TestRunBuildReportsFailedPages(t *testing.T) {
	dir := t.TempDir()
	g, out := testGlobal()
	require.NoError(t, RunInit(g, dir, filepath.Join(dir, config.DefaultPath), false))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pages", "broken.md"),
		[]byte("---\nlayout: missing\n---\nbody\n"), 0o644))
	cfg := siteConfig(dir)

	out.Reset()
	err := RunBuild(t.Context(), g, cfg)
	require.Error(t, err)
	assert.Contains(t, out.String(), "broken.md")
	assert.FileExists(t, filepath.Join(dir, "dist", "index.html"))
	assert.NoFileExists(t, filepath.Join(dir, "dist", "broken.html"))
}

func TestRunBuildRecordsHistory(t *testing.T) {
	dir := t.TempDir()
	g, out := testGlobal()
	require.NoError(t, RunInit(g, dir, filepath.Join(dir, config.DefaultPath), false))
	cfg := siteConfig(dir)
	cfg.History = config.HistoryConfig{Enabled: true, Path: filepath.Join(dir, ".nocms", "history.db")}

	require.NoError(t, RunBuild(t.Context(), g, cfg))
	require.NoError(t, RunBuild(t.Context(), g, cfg))

	store, err := history.NewSQLiteStore(cfg.History.Path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	out.Reset()
	require.NoError(t, RunHistory(t.Context(), g, store, 5))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "STARTED"))
	assert.Contains(t, lines[1], "build")
}

func TestRunHistoryEmpty(t *testing.T) {
	g, out := testGlobal()
	store, err := history.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, RunHistory(context.Background(), g, store, 0))
	assert.Equal(t, "No builds recorded\n", out.String())
}

func TestRunWatchStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	g, _ := testGlobal()
	require.NoError(t, RunInit(g, dir, filepath.Join(dir, config.DefaultPath), false))
	cfg := siteConfig(dir)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- RunWatch(ctx, g, cfg) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, "dist", "index.html"))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.MonitoringLogging{Level: config.LogLevelWarn, Format: config.LogFormatJSON}, false, &buf)
	logger.Info("hidden")
	logger.Warn("shown", slog.String("page", "index.md"))
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"page":"index.md"`)

	buf.Reset()
	logger = newLogger(config.MonitoringLogging{Level: config.LogLevelError, Format: config.LogFormatText}, true, &buf)
	logger.Debug("debug line")
	assert.Contains(t, buf.String(), "level=DEBUG")
}
