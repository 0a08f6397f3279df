package render

import (
	"html/template"
	"strings"

	"git.home.luguber.info/inful/nocms/internal/config"
	"git.home.luguber.info/inful/nocms/internal/content"
	"git.home.luguber.info/inful/nocms/internal/foundation/errors"
	"git.home.luguber.info/inful/nocms/internal/helpers"
	"git.home.luguber.info/inful/nocms/internal/markdown"
	"git.home.luguber.info/inful/nocms/internal/tags"
)

// Options names the master layout and the layout extension.
type Options struct {
	MasterLayout string
	LayoutExt    string
}

// Result is a composed page. TagErrors are per-invocation failures that did
// not stop the page from rendering.
type Result struct {
	HTML      string
	TagErrors []error
}

// Composer turns a page into its final HTML. It performs no I/O.
type Composer struct {
	layouts  *LayoutSet
	expander *tags.Expander
	markdown markdown.Renderer
	opts     Options
}

func NewComposer(layouts *LayoutSet, expander *tags.Expander, md markdown.Renderer, opts Options) *Composer {
	if opts.LayoutExt == "" {
		opts.LayoutExt = ".html"
	}
	if opts.MasterLayout == "" {
		opts.MasterLayout = "_master" + opts.LayoutExt
	}
	return &Composer{layouts: layouts, expander: expander, markdown: md, opts: opts}
}

// Layouts returns the composer's layout set.
func (c *Composer) Layouts() *LayoutSet { return c.layouts }

// LayoutPath maps a page's layout name to the layout file path.
func (c *Composer) LayoutPath(layout string) string {
	if strings.HasSuffix(layout, c.opts.LayoutExt) {
		return layout
	}
	return layout + c.opts.LayoutExt
}

// Compose expands tags, renders markdown, executes the page layout and,
// unless the page is bare, wraps the result in the master layout.
func (c *Composer) Compose(page content.Page, site *content.Site, cfg config.SiteConfig, h helpers.Table) (Result, error) {
	var res Result

	expanded, tagErrs := c.expander.Expand(page.File, page.Body)
	res.TagErrors = tagErrs

	rendered, err := c.markdown.Render(expanded)
	if err != nil {
		return res, c.fail(err, page, "")
	}

	bindings := Bindings(page, template.HTML(rendered), site, cfg, h)

	layoutPath := c.LayoutPath(page.Layout)
	body, err := c.layouts.Execute(layoutPath, bindings)
	if err != nil {
		return res, c.fail(err, page, layoutPath)
	}
	if page.Bare {
		res.HTML = body
		return res, nil
	}

	bindings["body"] = template.HTML(body)
	html, err := c.layouts.Execute(c.opts.MasterLayout, bindings)
	if err != nil {
		return res, c.fail(err, page, c.opts.MasterLayout)
	}
	res.HTML = html
	return res, nil
}

func (c *Composer) fail(err error, page content.Page, layout string) error {
	b := errors.WrapError(err, errors.CategoryRender, "failed to compose page").
		WithContext("page", page.File)
	if layout != "" {
		b = b.WithContext("layout", layout)
	}
	return b.Build()
}

// Bindings builds the template data for a page. Every value is a fresh copy,
// so a layout cannot alter shared site state.
func Bindings(page content.Page, rendered template.HTML, site *content.Site, cfg config.SiteConfig, h helpers.Table) map[string]any {
	vars := PageVars(page)
	vars["content"] = rendered
	return map[string]any{
		"config":  ConfigVars(cfg),
		"site":    SiteVars(site),
		"helpers": h.Clone(),
		"page":    vars,
	}
}

// PageVars returns a page's front matter merged with its computed variables.
// Rendered content is not included.
func PageVars(p content.Page) map[string]any {
	vars, _ := content.DeepCopy(p.FrontMatter).(map[string]any)
	if vars == nil {
		vars = map[string]any{}
	}
	vars["file"] = p.File
	vars["path"] = p.Path
	vars["date"] = p.Date
	vars["layout"] = p.Layout
	vars["bare"] = p.Bare
	vars["hash"] = p.Hash
	vars["rawLength"] = p.RawLength
	vars["rawContent"] = p.Body
	return vars
}

// SiteVars exposes the site to templates: page variables without rendered
// content, layout records and the data set.
func SiteVars(site *content.Site) map[string]any {
	if site == nil {
		site = content.NewSite(nil, nil, nil)
	}
	clone := site.Clone()
	pages := make([]map[string]any, 0, len(clone.Pages))
	for _, p := range clone.Pages {
		pages = append(pages, PageVars(p))
	}
	layouts := make([]map[string]any, 0, len(clone.Layouts))
	for _, l := range clone.Layouts {
		layouts = append(layouts, map[string]any{"path": l.Path, "hash": l.Hash})
	}
	return map[string]any{
		"pages":   pages,
		"layouts": layouts,
		"data":    map[string]any(clone.Data),
	}
}

// ConfigVars exposes site configuration to templates.
func ConfigVars(cfg config.SiteConfig) map[string]any {
	params, _ := content.DeepCopy(cfg.Params).(map[string]any)
	if params == nil {
		params = map[string]any{}
	}
	return map[string]any{
		"title":       cfg.Title,
		"description": cfg.Description,
		"baseURL":     cfg.BaseURL,
		"params":      params,
	}
}
