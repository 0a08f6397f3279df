package build

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/nocms/internal/content"
	"git.home.luguber.info/inful/nocms/internal/foundation/errors"
	"git.home.luguber.info/inful/nocms/internal/history"
	"git.home.luguber.info/inful/nocms/internal/incremental"
	"git.home.luguber.info/inful/nocms/internal/logfields"
	"git.home.luguber.info/inful/nocms/internal/metrics"
	"git.home.luguber.info/inful/nocms/internal/notify"
	"git.home.luguber.info/inful/nocms/internal/render"
	"git.home.luguber.info/inful/nocms/internal/snapshot"
	"git.home.luguber.info/inful/nocms/internal/tags"
)

// RebuildOptions controls Rebuild.
type RebuildOptions struct {
	// Force marks every page dirty. A page failure then aborts the batch and
	// no snapshot is written.
	Force bool
	// Reason and Trigger label a forced rebuild. Reason defaults to forced.
	Reason  incremental.Reason
	Trigger string
}

// Build rescans all sources, renders the pages that changed since the last
// snapshot and persists the new snapshot. Documents that fail to load and
// pages that fail to render are reported and skipped; their previous
// snapshot records are kept so they are retried next time.
func (e *Engine) Build(ctx context.Context) (*Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r := newReport(history.NewBuildID(), KindBuild)
	site, skipped, err := e.loader.Scan(ctx)
	if err != nil {
		return e.complete(ctx, r, err)
	}
	r.LoadSkipped = skipped
	for _, s := range skipped {
		e.logger.Warn("Skipping source document",
			logfields.Root(string(s.Root)), logfields.Path(s.Path), logfields.Error(s.Err))
	}
	e.site.Store(site)

	prev, err := e.store.Get(ctx)
	if err != nil {
		return e.complete(ctx, r, err)
	}
	err = e.run(ctx, r, site, prev, incremental.Detect(site, prev), false)
	return e.complete(ctx, r, err)
}

// Rebuild renders from the in-memory site without rescanning. Used by the
// watch dispatcher after a layout or data change has been applied.
func (e *Engine) Rebuild(ctx context.Context, opts RebuildOptions) (*Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r := newReport(history.NewBuildID(), KindRebuild)
	site := e.site.Load()
	prev, err := e.store.Get(ctx)
	if err != nil {
		return e.complete(ctx, r, err)
	}

	plan := incremental.Detect(site, prev)
	if opts.Force {
		reason := opts.Reason
		if reason == incremental.ReasonNone {
			reason = incremental.ReasonForced
		}
		plan = incremental.Force(site, reason, opts.Trigger)
	}
	err = e.run(ctx, r, site, prev, plan, opts.Force)
	return e.complete(ctx, r, err)
}

// run renders the dirty pages of plan in site order and persists the
// resulting snapshot.
func (e *Engine) run(ctx context.Context, r *Report, site *content.Site, prev *snapshot.Snapshot, plan incremental.Plan, abortOnFailure bool) error {
	r.Reason = string(plan.Reason)
	r.Trigger = plan.Trigger
	if plan.Global {
		e.logger.Info("Rebuilding all pages",
			logfields.BuildID(r.BuildID),
			logfields.Reason(r.Reason),
			logfields.Trigger(r.Trigger),
			logfields.Count(len(plan.Dirty)))
	}

	composer := e.composer(site)
	next := snapshot.FromSite(site)

	for _, page := range site.Pages {
		if err := ctx.Err(); err != nil {
			r.Status = StatusCancelled
			return err
		}
		if !plan.IsDirty(page.File) {
			r.Skipped++
			e.recorder.IncPageResult(metrics.ResultSkipped)
			continue
		}

		err := e.renderPage(ctx, r, composer, site, page)
		if err == nil {
			continue
		}
		if abortOnFailure {
			r.Status = StatusFailed
			return errors.WrapError(fmt.Errorf("%w: %w", ErrBatchAborted, err), errors.CategoryRender, "forced rebuild aborted").
				WithContext("page", page.File).
				Build()
		}
		if rec, ok := prev.Page(page.Path); ok {
			next = next.WithPage(rec)
		} else {
			next = next.WithoutPage(page.Path)
		}
	}

	return e.persist(ctx, r, prev, next)
}

// renderPage composes one page and writes its output. A failed page leaves
// any existing output untouched.
func (e *Engine) renderPage(ctx context.Context, r *Report, composer *render.Composer, site *content.Site, page content.Page) error {
	res, err := composer.Compose(page, site, e.cfg.Site, e.helpers)
	for _, tagErr := range res.TagErrors {
		name := "unknown"
		var te *tags.TagError
		if stdErrors.As(tagErr, &te) {
			name = te.Tag
		}
		r.TagErrors = append(r.TagErrors, errors.TagError("tag expansion failed").
			WithCause(tagErr).
			WithContext("tag", name).
			WithContext("page", page.File).
			Build())
		e.recorder.IncTagError(name)
		e.logger.Warn("Tag expansion failed", logfields.Page(page.File), logfields.Tag(name), logfields.Error(tagErr))
	}
	if err != nil {
		r.fail(page.File, err)
		e.recorder.IncPageResult(metrics.ResultFailed)
		e.logger.Error("Page render failed",
			logfields.Page(page.File), logfields.Layout(page.Layout), logfields.Error(err))
		return fmt.Errorf("%w: %s: %w", ErrPageFailed, page.File, err)
	}

	target := e.outputFile(page.Path)
	if err := e.writeFile(target, []byte(res.HTML)); err != nil {
		werr := errors.FileSystemError("failed to write page output").
			WithCause(err).
			WithContext("page", page.File).
			WithContext("path", target).
			Build()
		r.fail(page.File, werr)
		e.recorder.IncPageResult(metrics.ResultFailed)
		e.logger.Error("Page write failed", logfields.Page(page.File), logfields.Path(target), logfields.Error(err))
		return fmt.Errorf("%w: %s: %w", ErrPageFailed, page.File, werr)
	}

	r.Written++
	r.Rendered++
	e.recorder.IncPageResult(metrics.ResultRendered)
	e.logger.Debug("Page rendered", logfields.Page(page.File), logfields.Path(page.Path))
	e.publish(ctx, notify.Event{Type: notify.PageRendered, BuildID: r.BuildID, Page: page.File, Path: page.Path})
	return nil
}

// persist writes next unless it equals prev, so a build with nothing to do
// leaves the snapshot file alone.
func (e *Engine) persist(ctx context.Context, r *Report, prev, next *snapshot.Snapshot) error {
	if next.Equal(prev) {
		return nil
	}
	if err := e.store.Put(ctx, next); err != nil {
		e.recorder.IncSnapshotWrite(false)
		r.Status = StatusFailed
		return fmt.Errorf("%w: %w", ErrSnapshotWrite, err)
	}
	e.recorder.IncSnapshotWrite(true)
	r.SnapshotWritten = true
	e.logger.Debug("Snapshot saved", logfields.BuildID(r.BuildID), slog.Int("pages", len(next.Pages)))
	return nil
}

func (e *Engine) outputFile(rel string) string {
	return filepath.Join(e.cfg.Paths.Output, filepath.FromSlash(rel))
}
