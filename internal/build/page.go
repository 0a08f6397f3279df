package build

import (
	"context"
	"os"

	"git.home.luguber.info/inful/nocms/internal/content"
	"git.home.luguber.info/inful/nocms/internal/foundation/errors"
	"git.home.luguber.info/inful/nocms/internal/history"
	"git.home.luguber.info/inful/nocms/internal/logfields"
	"git.home.luguber.info/inful/nocms/internal/notify"
	"git.home.luguber.info/inful/nocms/internal/snapshot"
)

// RenderPage reloads one page, renders it regardless of its hash and
// replaces its snapshot record. Other records are left as they are.
func (e *Engine) RenderPage(ctx context.Context, file string) (*Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r := newReport(history.NewBuildID(), KindPage)
	if err := ctx.Err(); err != nil {
		r.Status = StatusCancelled
		return e.complete(ctx, r, err)
	}

	page, err := e.loader.LoadPage(file)
	if err != nil {
		r.LoadSkipped = append(r.LoadSkipped, content.Skipped{Root: content.RootPages, Path: file, Err: err})
		r.fail(file, err)
		e.logger.Warn("Skipping source document",
			logfields.Root(string(content.RootPages)), logfields.Path(file), logfields.Error(err))
		return e.complete(ctx, r, err)
	}

	site := e.site.Load().WithPage(page)
	e.site.Store(site)

	prev, err := e.store.Get(ctx)
	if err != nil {
		return e.complete(ctx, r, err)
	}
	if err := e.renderPage(ctx, r, e.composer(site), site, page); err != nil {
		r.Status = StatusFailed
		return e.complete(ctx, r, err)
	}
	err = e.persist(ctx, r, prev, prev.WithPage(snapshot.RecordPage(page)))
	return e.complete(ctx, r, err)
}

// RemovePage drops a page from the site and deletes its output file. The
// page's snapshot record is kept; the next full build rewrites the snapshot
// from the pages that exist and the record disappears then.
func (e *Engine) RemovePage(ctx context.Context, file string) (*Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r := newReport(history.NewBuildID(), KindRemove)
	site := e.site.Load()
	path := content.OutputPath(file, e.cfg.Build.SourceExt, e.cfg.Build.OutputExt)
	if page, ok := site.Page(file); ok {
		path = page.Path
	}
	e.site.Store(site.WithoutPage(file))

	target := e.outputFile(path)
	if err := os.Remove(target); err != nil {
		if os.IsNotExist(err) {
			e.logger.Debug("No output to remove", logfields.Page(file), logfields.Path(target))
			return e.complete(ctx, r, nil)
		}
		ferr := errors.FileSystemError("failed to remove page output").
			WithCause(err).
			WithContext("page", file).
			WithContext("path", target).
			Build()
		r.fail(file, ferr)
		return e.complete(ctx, r, ferr)
	}

	r.Removed++
	e.logger.Info("Page output removed", logfields.Page(file), logfields.Path(target))
	e.publish(ctx, notify.Event{Type: notify.PageRemoved, BuildID: r.BuildID, Page: file, Path: path})
	return e.complete(ctx, r, nil)
}

// ApplyLayoutChange updates one layout in the in-memory site. It does not
// render; callers follow up with a forced Rebuild.
func (e *Engine) ApplyLayoutChange(path string, removed bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	site := e.site.Load()
	if removed {
		e.site.Store(site.WithoutLayout(path))
		return nil
	}
	layout, err := e.loader.LoadLayout(path)
	if err != nil {
		return err
	}
	e.site.Store(site.WithLayout(layout))
	return nil
}

// ApplyDataChange updates one data key in the in-memory site. name is the
// data file name relative to the data root.
func (e *Engine) ApplyDataChange(name string, removed bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	site := e.site.Load()
	if removed {
		e.site.Store(site.WithoutData(content.DataKey(name)))
		return nil
	}
	key, value, err := e.loader.LoadData(name)
	if err != nil {
		return err
	}
	e.site.Store(site.WithData(key, value))
	return nil
}
