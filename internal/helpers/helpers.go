// Package helpers provides the function table available to layouts, both as
// template functions and through the `helpers` binding.
package helpers

import (
	"fmt"
	"html/template"
	"math"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// charsPerMinute is the reading speed used by readTime.
const charsPerMinute = 1300

// Table maps helper names to functions.
type Table map[string]any

// Options carries the site values some helpers close over.
type Options struct {
	BaseURL  string
	Revision string
}

// New builds the default helper table.
func New(opts Options) Table {
	titleCaser := cases.Title(language.English)
	return Table{
		"readTime":   ReadTime,
		"title":      func(s string) string { return titleCaser.String(s) },
		"formatDate": FormatDate,
		"plainText":  PlainText,
		"summary":    Summary,
		"absURL":     func(p string) string { return AbsURL(opts.BaseURL, p) },
		"revision":   func() string { return opts.Revision },
	}
}

// FuncMap exposes the table for template.Funcs.
func (t Table) FuncMap() template.FuncMap {
	fm := make(template.FuncMap, len(t))
	for k, v := range t {
		fm[k] = v
	}
	return fm
}

// Clone returns a shallow copy so renders cannot alter the shared table.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// ReadTime estimates minutes to read a page from its raw length. It accepts
// the page variable map, a bare length, or a string.
func ReadTime(page any) int {
	var n int
	switch p := page.(type) {
	case map[string]any:
		switch v := p["rawLength"].(type) {
		case int:
			n = v
		case float64:
			n = int(v)
		}
	case int:
		n = p
	case string:
		n = len([]rune(p))
	}
	return int(math.Ceil(float64(n) / charsPerMinute))
}

// FormatDate formats a time with a Go layout; layout defaults to "2 January 2006".
func FormatDate(v any, layout ...string) (string, error) {
	l := "2 January 2006"
	if len(layout) > 0 && layout[0] != "" {
		l = layout[0]
	}
	switch t := v.(type) {
	case time.Time:
		return t.Format(l), nil
	case *time.Time:
		if t == nil {
			return "", nil
		}
		return t.Format(l), nil
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return "", fmt.Errorf("formatDate: %w", err)
		}
		return parsed.Format(l), nil
	default:
		return "", fmt.Errorf("formatDate: unsupported value %T", v)
	}
}

// PlainText strips markup from an HTML fragment and collapses whitespace.
func PlainText(fragment any) string {
	var src string
	switch f := fragment.(type) {
	case template.HTML:
		src = string(f)
	case string:
		src = f
	default:
		src = fmt.Sprint(f)
	}
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return strings.Join(strings.Fields(src), " ")
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
			b.WriteByte(' ')
		case n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style"):
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(strings.Fields(b.String()), " ")
}

// Summary returns the first words of a fragment's text, with an ellipsis
// when truncated.
func Summary(fragment any, words int) string {
	text := PlainText(fragment)
	fields := strings.Fields(text)
	if words <= 0 || len(fields) <= words {
		return text
	}
	return strings.Join(fields[:words], " ") + "…"
}

// AbsURL joins the site base URL and a site-relative path.
func AbsURL(base, p string) string {
	if strings.Contains(p, "://") {
		return p
	}
	base = strings.TrimRight(base, "/")
	return base + "/" + strings.TrimLeft(p, "/")
}
