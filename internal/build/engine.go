package build

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"git.home.luguber.info/inful/nocms/internal/config"
	"git.home.luguber.info/inful/nocms/internal/content"
	"git.home.luguber.info/inful/nocms/internal/foundation/errors"
	"git.home.luguber.info/inful/nocms/internal/helpers"
	"git.home.luguber.info/inful/nocms/internal/history"
	"git.home.luguber.info/inful/nocms/internal/logfields"
	"git.home.luguber.info/inful/nocms/internal/markdown"
	"git.home.luguber.info/inful/nocms/internal/metrics"
	"git.home.luguber.info/inful/nocms/internal/notify"
	"git.home.luguber.info/inful/nocms/internal/render"
	"git.home.luguber.info/inful/nocms/internal/snapshot"
	"git.home.luguber.info/inful/nocms/internal/tags"
)

// Options configures an Engine. Only Config is required; every other
// collaborator has a working default.
type Options struct {
	Config *config.Config

	// Store defaults to a JSON file at Config.Paths.Snapshot.
	Store snapshot.Store
	// Registry defaults to a registry holding the built-in tags.
	Registry *tags.Registry
	// Markdown defaults to goldmark with DefaultOptions.
	Markdown markdown.Renderer

	Recorder  metrics.Recorder
	History   history.Store
	Publisher notify.Publisher
	Logger    *slog.Logger

	// Revision is exposed to templates through the revision helper.
	Revision string
}

// Engine runs builds against one site. Public operations are serialized.
type Engine struct {
	mu sync.Mutex

	cfg      *config.Config
	loader   *content.Loader
	store    snapshot.Store
	registry *tags.Registry
	expander *tags.Expander
	markdown markdown.Renderer
	helpers  helpers.Table

	site atomic.Pointer[content.Site]

	recorder  metrics.Recorder
	history   history.Store
	publisher notify.Publisher
	logger    *slog.Logger
	revision  string

	writeFile func(path string, data []byte) error
}

// New creates an engine with an empty in-memory site. Call Build to load it.
func New(opts Options) (*Engine, error) {
	if opts.Config == nil {
		return nil, errors.ConfigError("config required").Build()
	}

	reg := opts.Registry
	if reg == nil {
		reg = tags.NewRegistry()
		if err := tags.RegisterBuiltins(reg); err != nil {
			return nil, errors.InternalError("failed to register built-in tags").WithCause(err).Build()
		}
	}
	md := opts.Markdown
	if md == nil {
		md = markdown.New(markdown.DefaultOptions())
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		cfg:       opts.Config,
		loader:    content.NewLoader(content.OptionsFromConfig(opts.Config), logger),
		store:     opts.Store,
		registry:  reg,
		expander:  tags.NewExpander(reg, md),
		markdown:  md,
		helpers:   helpers.New(helpers.Options{BaseURL: opts.Config.Site.BaseURL, Revision: opts.Revision}),
		recorder:  opts.Recorder,
		history:   opts.History,
		publisher: opts.Publisher,
		logger:    logger,
		revision:  opts.Revision,
		writeFile: writeAtomic,
	}
	if e.store == nil {
		e.store = snapshot.NewJSONStore(opts.Config.Paths.Snapshot)
	}
	if e.recorder == nil {
		e.recorder = metrics.NoopRecorder{}
	}
	if e.history == nil {
		e.history = history.NoopStore{}
	}
	if e.publisher == nil {
		e.publisher = notify.Noop{}
	}
	e.site.Store(content.NewSite(nil, nil, nil))
	return e, nil
}

// Site returns the current in-memory site. The value is never mutated.
func (e *Engine) Site() *content.Site { return e.site.Load() }

// Registry returns the tag registry used for expansion.
func (e *Engine) Registry() *tags.Registry { return e.registry }

// Loader returns the source loader.
func (e *Engine) Loader() *content.Loader { return e.loader }

// Config returns the engine configuration.
func (e *Engine) Config() *config.Config { return e.cfg }

// composer compiles the site's layouts into a fresh composer.
func (e *Engine) composer(site *content.Site) *render.Composer {
	layouts := render.NewLayoutSet(site.Layouts, e.helpers.FuncMap())
	for path, err := range layouts.Errors() {
		e.logger.Warn("Layout failed to parse", logfields.Layout(path), logfields.Error(err))
	}
	return render.NewComposer(layouts, e.expander, e.markdown, render.Options{
		MasterLayout: e.cfg.Build.MasterLayout,
		LayoutExt:    e.cfg.Build.LayoutExt,
	})
}

// complete finalizes a report and fans it out to logs, metrics, history and
// subscribers.
func (e *Engine) complete(ctx context.Context, r *Report, err error) (*Report, error) {
	if err != nil && r.Status == "" {
		r.Status = StatusFailed
	}
	r.finish()

	e.recorder.ObserveBuildDuration(string(r.Kind), r.Duration)
	e.recorder.IncBuildOutcome(r.Outcome())

	attrs := []any{
		logfields.BuildID(r.BuildID),
		slog.String("kind", string(r.Kind)),
		slog.String("status", string(r.Status)),
		slog.Int("rendered", r.Rendered),
		slog.Int("skipped", r.Skipped),
		slog.Int("failed", r.Failed),
		logfields.Duration(r.Duration),
	}
	if r.Reason != "" {
		attrs = append(attrs, logfields.Reason(r.Reason), logfields.Trigger(r.Trigger))
	}
	switch {
	case err != nil:
		e.logger.Error("Build failed", append(attrs, logfields.Error(err))...)
	case r.Status == StatusUnchanged:
		e.logger.Info("Site up to date", attrs...)
	default:
		e.logger.Info("Build complete", attrs...)
	}

	// History and notifications still go out when ctx was cancelled.
	bg := context.WithoutCancel(ctx)
	rec := history.Build{
		ID:        r.BuildID,
		Kind:      string(r.Kind),
		Reason:    r.Reason,
		Trigger:   r.Trigger,
		Rendered:  r.Rendered,
		Skipped:   r.Skipped,
		Failed:    r.Failed,
		Revision:  e.revision,
		StartedAt: r.StartTime,
		Duration:  r.Duration,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if herr := e.history.Record(bg, rec); herr != nil {
		e.logger.Warn("Failed to record build history", logfields.BuildID(r.BuildID), logfields.Error(herr))
	}
	if r.Kind == KindBuild || r.Kind == KindRebuild {
		e.publish(bg, notify.Event{Type: notify.BuildDone, BuildID: r.BuildID, Rendered: r.Rendered, Failed: r.Failed})
	}
	return r, err
}

func (e *Engine) publish(ctx context.Context, ev notify.Event) {
	if err := e.publisher.Publish(ctx, ev); err != nil {
		e.logger.Warn("Failed to publish event",
			slog.String("type", string(ev.Type)),
			logfields.Page(ev.Page),
			logfields.Error(err))
	}
}
