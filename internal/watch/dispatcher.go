package watch

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/nocms/internal/build"
	"git.home.luguber.info/inful/nocms/internal/config"
	"git.home.luguber.info/inful/nocms/internal/content"
	"git.home.luguber.info/inful/nocms/internal/foundation/errors"
	"git.home.luguber.info/inful/nocms/internal/incremental"
	"git.home.luguber.info/inful/nocms/internal/logfields"
	"git.home.luguber.info/inful/nocms/internal/metrics"
)

// Engine is the part of build.Engine the dispatcher drives.
type Engine interface {
	Build(ctx context.Context) (*build.Report, error)
	Rebuild(ctx context.Context, opts build.RebuildOptions) (*build.Report, error)
	RenderPage(ctx context.Context, file string) (*build.Report, error)
	RemovePage(ctx context.Context, file string) (*build.Report, error)
	ApplyLayoutChange(path string, removed bool) error
	ApplyDataChange(name string, removed bool) error
}

// Options configures a Dispatcher.
type Options struct {
	// Roots maps each source root to its directory.
	Roots map[content.Root]string
	// SourceExt and LayoutExt filter page and layout events.
	SourceExt string
	LayoutExt string

	Debounce time.Duration
	// FullRebuildInterval schedules a periodic Build; zero disables it.
	FullRebuildInterval time.Duration
	QueueSize           int

	Recorder metrics.Recorder
	Logger   *slog.Logger
}

// OptionsFromConfig derives dispatcher options from configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Roots: map[content.Root]string{
			content.RootPages:   cfg.Paths.Pages,
			content.RootLayouts: cfg.Paths.Layouts,
			content.RootData:    cfg.Paths.Data,
		},
		SourceExt:           cfg.Build.SourceExt,
		LayoutExt:           cfg.Build.LayoutExt,
		Debounce:            cfg.Watch.DebounceDuration(),
		FullRebuildInterval: cfg.Watch.RebuildInterval(),
	}
}

// Dispatcher watches the source roots and feeds the engine.
type Dispatcher struct {
	engine   Engine
	opts     Options
	roots    map[content.Root]string
	recorder metrics.Recorder
	logger   *slog.Logger

	debouncer *Debouncer
	queue     *Queue
}

// NewDispatcher creates a dispatcher. Root directories are resolved to
// absolute paths so event names can be mapped back to roots.
func NewDispatcher(engine Engine, opts Options) (*Dispatcher, error) {
	if engine == nil {
		return nil, errors.ValidationError("engine is required").Build()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 100 * time.Millisecond
	}
	d := &Dispatcher{
		engine:   engine,
		opts:     opts,
		roots:    map[content.Root]string{},
		recorder: opts.Recorder,
		logger:   opts.Logger,
	}
	if d.recorder == nil {
		d.recorder = metrics.NoopRecorder{}
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	for root, dir := range opts.Roots {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, errors.WatchError("failed to resolve watch root").WithCause(err).
				WithContext("root", string(root)).
				Build()
		}
		d.roots[root] = abs
	}
	d.queue = NewQueue(opts.QueueSize, d.handle, d.recorder)
	d.debouncer = NewDebouncer(opts.Debounce, d.enqueue)
	return d, nil
}

// Run watches until ctx is done. Events still queued at that point are dropped.
func (d *Dispatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WatchError("failed to create file watcher").WithCause(err).Build()
	}
	defer func() { _ = watcher.Close() }()

	for root, dir := range d.roots {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			d.logger.Warn("Watch root does not exist; not watching", logfields.Root(string(root)), logfields.Path(dir))
			continue
		}
		if err := addDirsRecursive(watcher, dir, d.logger); err != nil {
			return errors.WatchError("failed to watch root").WithCause(err).
				WithContext("root", string(root)).
				WithContext("path", dir).
				Build()
		}
	}

	d.queue.Start(ctx)
	defer d.queue.Stop()
	defer d.debouncer.Stop()

	if d.opts.FullRebuildInterval > 0 {
		scheduler, err := d.schedule(d.opts.FullRebuildInterval)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer func() {
			if err := scheduler.Shutdown(); err != nil {
				d.logger.Warn("Scheduler shutdown failed", logfields.Error(err))
			}
		}()
	}

	d.logger.Info("Watching for changes", slog.Int("roots", len(d.roots)), logfields.Duration(d.opts.Debounce))
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Watch stopped")
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			d.observe(watcher, ev)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			d.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// schedule registers the periodic full rebuild with gocron.
func (d *Dispatcher) schedule(interval time.Duration) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.WatchError("failed to create scheduler").WithCause(err).Build()
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { d.enqueue(Event{Op: OpRebuild}) }),
		gocron.WithName("full-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, errors.WatchError("failed to schedule full rebuild").WithCause(err).
			WithContext("interval", interval.String()).
			Build()
	}
	d.logger.Info("Scheduled periodic full rebuild", slog.String("interval", interval.String()))
	return s, nil
}

// observe maps a raw fsnotify event to a debounced logical event.
func (d *Dispatcher) observe(watcher *fsnotify.Watcher, raw fsnotify.Event) {
	if raw.Has(fsnotify.Create) {
		if fi, err := os.Stat(raw.Name); err == nil && fi.IsDir() {
			if !content.IsIgnored(filepath.Base(raw.Name)) {
				_ = addDirsRecursive(watcher, raw.Name, d.logger)
			}
			return
		}
	}
	ev, ok := d.classify(raw.Name, opFromFS(raw.Op))
	if !ok {
		return
	}
	d.recorder.IncWatchEvent(string(ev.Root), string(ev.Op))
	d.logger.Debug("File change detected", logfields.Root(string(ev.Root)), logfields.Path(ev.Path), logfields.Op(string(ev.Op)))
	d.debouncer.Trigger(ev)
}

// classify finds the root holding name and filters out files the loader
// would not read.
func (d *Dispatcher) classify(name string, op Op) (Event, bool) {
	if op == "" {
		return Event{}, false
	}
	for root, dir := range d.roots {
		rel, err := filepath.Rel(dir, name)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
			if content.IsIgnored(part) {
				return Event{}, false
			}
		}
		rel = filepath.ToSlash(rel)
		switch root {
		case content.RootPages:
			if !strings.HasSuffix(rel, d.opts.SourceExt) {
				return Event{}, false
			}
		case content.RootLayouts:
			if !strings.HasSuffix(rel, d.opts.LayoutExt) {
				return Event{}, false
			}
		case content.RootData:
			if strings.Contains(rel, "/") || !content.IsDataFile(rel) {
				return Event{}, false
			}
		}
		return Event{Root: root, Op: op, Path: rel}, true
	}
	return Event{}, false
}

func (d *Dispatcher) enqueue(ev Event) {
	switch err := d.queue.Enqueue(ev); {
	case err == nil:
	case stdErrors.Is(err, ErrQueueFull):
		d.logger.Warn("Watch queue full; folding event into a full rebuild",
			logfields.Root(string(ev.Root)), logfields.Path(ev.Path))
	default:
		d.logger.Warn("Dropping watch event", logfields.Root(string(ev.Root)), logfields.Path(ev.Path), logfields.Error(err))
	}
}

// handle runs one event against the engine. It is only ever called from the
// queue worker.
func (d *Dispatcher) handle(ctx context.Context, ev Event) {
	start := time.Now()
	var err error
	switch {
	case ev.Op == OpRebuild:
		_, err = d.engine.Build(ctx)
	case ev.Root == content.RootPages && ev.Op == OpRemove:
		_, err = d.engine.RemovePage(ctx, ev.Path)
	case ev.Root == content.RootPages:
		_, err = d.engine.RenderPage(ctx, ev.Path)
	case ev.Root == content.RootLayouts:
		err = d.engine.ApplyLayoutChange(ev.Path, ev.Op == OpRemove)
		if err == nil {
			_, err = d.engine.Rebuild(ctx, build.RebuildOptions{
				Force:   true,
				Reason:  layoutReason(ev.Op),
				Trigger: ev.Path,
			})
		}
	case ev.Root == content.RootData:
		err = d.engine.ApplyDataChange(ev.Path, ev.Op == OpRemove)
		if err == nil {
			_, err = d.engine.Rebuild(ctx, build.RebuildOptions{
				Force:   true,
				Reason:  incremental.ReasonDataChanged,
				Trigger: content.DataKey(ev.Path),
			})
		}
	default:
		err = errors.WatchError("unroutable watch event").
			WithContext("root", string(ev.Root)).
			WithContext("op", string(ev.Op)).
			Build()
	}

	if err != nil {
		d.logger.Warn("Watch event failed",
			logfields.Root(string(ev.Root)),
			logfields.Path(ev.Path),
			logfields.Op(string(ev.Op)),
			logfields.Error(err))
		return
	}
	d.logger.Debug("Watch event handled",
		logfields.Root(string(ev.Root)),
		logfields.Path(ev.Path),
		logfields.Op(string(ev.Op)),
		logfields.Duration(time.Since(start)))
}

func layoutReason(op Op) incremental.Reason {
	if op == OpCreate {
		return incremental.ReasonLayoutAdded
	}
	return incremental.ReasonLayoutChanged
}

func addDirsRecursive(w *fsnotify.Watcher, root string, logger *slog.Logger) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && content.IsIgnored(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			logger.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}
