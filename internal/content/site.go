// Package content holds the in-memory model of a site's sources: pages,
// layouts and data, plus the loader that reads them from disk.
package content

import (
	"sort"
	"strings"
	"time"
)

// Page is a parsed markdown source document.
type Page struct {
	File        string         `json:"file"`
	Path        string         `json:"path"`
	FrontMatter map[string]any `json:"frontMatter"`
	Layout      string         `json:"layout"`
	Date        time.Time      `json:"date"`
	Bare        bool           `json:"bare"`
	Body        string         `json:"-"`
	Hash        string         `json:"hash"`
	RawLength   int            `json:"rawLength"`
}

// Layout is a template source.
type Layout struct {
	Path   string `json:"path"`
	Source string `json:"-"`
	Hash   string `json:"hash"`
}

// DataSet maps a data file name (minus extension) to its parsed value.
type DataSet map[string]any

// Site is an immutable view of all sources. Mutators return a new Site and
// never touch the receiver.
type Site struct {
	Pages   []Page
	Layouts []Layout
	Data    DataSet
}

// NewSite returns a site with its pages and layouts in canonical order.
func NewSite(pages []Page, layouts []Layout, data DataSet) *Site {
	s := &Site{
		Pages:   append([]Page(nil), pages...),
		Layouts: append([]Layout(nil), layouts...),
		Data:    DataSet{},
	}
	for k, v := range data {
		s.Data[k] = v
	}
	sort.Slice(s.Pages, func(i, j int) bool { return s.Pages[i].File < s.Pages[j].File })
	sort.Slice(s.Layouts, func(i, j int) bool { return s.Layouts[i].Path < s.Layouts[j].Path })
	return s
}

// Page returns the page with the given source file.
func (s *Site) Page(file string) (Page, bool) {
	i := sort.Search(len(s.Pages), func(i int) bool { return s.Pages[i].File >= file })
	if i < len(s.Pages) && s.Pages[i].File == file {
		return s.Pages[i], true
	}
	return Page{}, false
}

// Layout returns the layout with the given path.
func (s *Site) Layout(path string) (Layout, bool) {
	for _, l := range s.Layouts {
		if l.Path == path {
			return l, true
		}
	}
	return Layout{}, false
}

// WithPage returns a copy of s with p added or replacing the page of the same file.
func (s *Site) WithPage(p Page) *Site {
	pages := make([]Page, 0, len(s.Pages)+1)
	for _, existing := range s.Pages {
		if existing.File != p.File {
			pages = append(pages, existing)
		}
	}
	pages = append(pages, p)
	return NewSite(pages, s.Layouts, s.Data)
}

// WithoutPage returns a copy of s without the given page.
func (s *Site) WithoutPage(file string) *Site {
	pages := make([]Page, 0, len(s.Pages))
	for _, existing := range s.Pages {
		if existing.File != file {
			pages = append(pages, existing)
		}
	}
	return NewSite(pages, s.Layouts, s.Data)
}

// WithLayout returns a copy of s with l added or replacing the layout of the same path.
func (s *Site) WithLayout(l Layout) *Site {
	layouts := make([]Layout, 0, len(s.Layouts)+1)
	for _, existing := range s.Layouts {
		if existing.Path != l.Path {
			layouts = append(layouts, existing)
		}
	}
	layouts = append(layouts, l)
	return NewSite(s.Pages, layouts, s.Data)
}

// WithoutLayout returns a copy of s without the given layout.
func (s *Site) WithoutLayout(path string) *Site {
	layouts := make([]Layout, 0, len(s.Layouts))
	for _, existing := range s.Layouts {
		if existing.Path != path {
			layouts = append(layouts, existing)
		}
	}
	return NewSite(s.Pages, layouts, s.Data)
}

// WithData returns a copy of s with the data key set.
func (s *Site) WithData(key string, value any) *Site {
	next := NewSite(s.Pages, s.Layouts, s.Data)
	next.Data[key] = value
	return next
}

// WithoutData returns a copy of s with the data key removed.
func (s *Site) WithoutData(key string) *Site {
	next := NewSite(s.Pages, s.Layouts, s.Data)
	delete(next.Data, key)
	return next
}

// Clone returns a deep copy, including nested front matter and data values.
func (s *Site) Clone() *Site {
	out := &Site{
		Pages:   make([]Page, len(s.Pages)),
		Layouts: append([]Layout(nil), s.Layouts...),
		Data:    make(DataSet, len(s.Data)),
	}
	for i, p := range s.Pages {
		p.FrontMatter, _ = DeepCopy(p.FrontMatter).(map[string]any)
		out.Pages[i] = p
	}
	for k, v := range s.Data {
		out.Data[k] = DeepCopy(v)
	}
	return out
}

// DeepCopy copies maps and slices produced by YAML/JSON decoding. Scalars are
// returned as is.
func DeepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return t
		}
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = DeepCopy(val)
		}
		return out
	case map[any]any:
		out := make(map[any]any, len(t))
		for k, val := range t {
			out[k] = DeepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = DeepCopy(val)
		}
		return out
	default:
		return v
	}
}

// OutputPath maps a source-relative file to its output-relative path by
// swapping the source extension for the output extension.
func OutputPath(rel, srcExt, outExt string) string {
	if strings.HasSuffix(rel, srcExt) {
		return strings.TrimSuffix(rel, srcExt) + outExt
	}
	return rel + outExt
}

// IsIgnored reports whether a file or directory name is hidden or an editor
// temp/backup file.
func IsIgnored(name string) bool {
	switch {
	case name == "" || name == "." || name == "..":
		return false
	case strings.HasPrefix(name, "."), strings.HasPrefix(name, "#"):
		return true
	case strings.HasSuffix(name, "~"):
		return true
	case strings.HasSuffix(name, ".swp"), strings.HasSuffix(name, ".swx"), strings.HasSuffix(name, ".tmp"):
		return true
	}
	return false
}
