// Package render composes a page's final HTML from its layout and the
// shared master layout.
package render

import (
	"bytes"
	stdErrors "errors"
	"fmt"
	"html/template"
	"sort"

	"git.home.luguber.info/inful/nocms/internal/content"
)

var (
	ErrLayoutNotFound = stdErrors.New("layout not found")
	ErrLayoutInvalid  = stdErrors.New("layout failed to parse")
)

// LayoutSet is every layout compiled into one template set, so layouts can
// call each other as partials by path: {{template "partials/nav.html" .}}.
type LayoutSet struct {
	root      *template.Template
	available map[string]bool
	parseErrs map[string]error
}

// NewLayoutSet compiles layouts with funcs installed. A layout that fails to
// parse is recorded; executing it returns ErrLayoutInvalid.
func NewLayoutSet(layouts []content.Layout, funcs template.FuncMap) *LayoutSet {
	ls := &LayoutSet{
		root:      template.New("").Funcs(funcs),
		available: map[string]bool{},
		parseErrs: map[string]error{},
	}
	for _, l := range layouts {
		if _, err := ls.root.New(l.Path).Parse(l.Source); err != nil {
			ls.parseErrs[l.Path] = err
			continue
		}
		ls.available[l.Path] = true
	}
	return ls
}

// Has reports whether a usable layout exists at path.
func (ls *LayoutSet) Has(path string) bool { return ls.available[path] }

// Errors returns parse failures keyed by layout path.
func (ls *LayoutSet) Errors() map[string]error {
	out := make(map[string]error, len(ls.parseErrs))
	for k, v := range ls.parseErrs {
		out[k] = v
	}
	return out
}

// Names returns the usable layout paths, sorted.
func (ls *LayoutSet) Names() []string {
	names := make([]string, 0, len(ls.available))
	for n := range ls.available {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Execute renders the layout at path with data.
func (ls *LayoutSet) Execute(path string, data any) (string, error) {
	if err, ok := ls.parseErrs[path]; ok {
		return "", fmt.Errorf("%w: %s: %w", ErrLayoutInvalid, path, err)
	}
	if !ls.available[path] {
		return "", fmt.Errorf("%w: %s", ErrLayoutNotFound, path)
	}
	t := ls.root.Lookup(path)
	if t == nil {
		return "", fmt.Errorf("%w: %s", ErrLayoutNotFound, path)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute layout %s: %w", path, err)
	}
	return buf.String(), nil
}
