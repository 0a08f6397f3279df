package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/nocms/internal/build"
	"git.home.luguber.info/inful/nocms/internal/config"
	"git.home.luguber.info/inful/nocms/internal/gitinfo"
	"git.home.luguber.info/inful/nocms/internal/history"
	"git.home.luguber.info/inful/nocms/internal/logfields"
	"git.home.luguber.info/inful/nocms/internal/metrics"
	"git.home.luguber.info/inful/nocms/internal/notify"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
	// Out receives user-facing summaries. Defaults to stdout.
	Out io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"nocms.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Render pages that changed since the last build"`
	Watch   WatchCmd   `cmd:"" help:"Build, then re-render on every source change"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration and site skeleton"`
	History HistoryCmd `cmd:"" help:"List recent builds from the build log"`
}

// AfterApply runs after flag parsing; it installs a provisional logger
// that loadConfig replaces once the configured format is known.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(g.Logger)
	return nil
}

func (g *Global) out() io.Writer {
	if g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// loadConfig reads the configuration and reconfigures logging from it.
func loadConfig(g *Global, root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	g.Logger = newLogger(cfg.Monitoring.Logging, root.Verbose, os.Stderr)
	slog.SetDefault(g.Logger)
	return cfg, nil
}

// newLogger builds the slog handler selected by monitoring.logging. -v
// always wins over the configured level.
func newLogger(lc config.MonitoringLogging, verbose bool, w io.Writer) *slog.Logger {
	level := lc.Level.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// session bundles an engine with the collaborators it was wired to.
type session struct {
	engine    *build.Engine
	history   history.Store
	publisher notify.Publisher
}

// Close releases the build log and the NATS connection.
func (s *session) Close() {
	s.publisher.Close()
	_ = s.history.Close()
}

// newSession wires the engine to history, notifications, metrics and the
// git revision of the pages directory.
func newSession(cfg *config.Config, logger *slog.Logger, recorder metrics.Recorder) (*session, error) {
	s := &session{history: history.NoopStore{}, publisher: notify.Noop{}}

	if cfg.History.Enabled {
		store, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		s.history = store
	}

	if cfg.Notify.URL != "" {
		pub, err := notify.NewNATSPublisher(cfg.Notify.URL, cfg.Notify.Subject)
		if err != nil {
			logger.Warn("NATS unavailable; render events disabled", slog.String("url", cfg.Notify.URL), logfields.Error(err))
		} else {
			s.publisher = pub
		}
	}

	revision := gitinfo.Revision(cfg.Paths.Pages)
	if revision != "" {
		logger.Debug("Source revision detected", slog.String("revision", revision))
	}

	engine, err := build.New(build.Options{
		Config:    cfg,
		Recorder:  recorder,
		History:   s.history,
		Publisher: s.publisher,
		Logger:    logger,
		Revision:  revision,
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	s.engine = engine
	return s, nil
}
