package content

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/nocms/internal/foundation/errors"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func newTestLoader(t *testing.T) (*Loader, string) {
	t.Helper()
	dir := t.TempDir()
	opts := Options{
		PagesDir:      filepath.Join(dir, "pages"),
		LayoutsDir:    filepath.Join(dir, "layouts"),
		DataDir:       filepath.Join(dir, "data"),
		SourceExt:     ".md",
		LayoutExt:     ".html",
		OutputExt:     ".html",
		DefaultLayout: "page",
	}
	return NewLoader(opts, nil), dir
}

func TestLoadPage(t *testing.T) {
	l, dir := newTestLoader(t)
	writeFile(t, filepath.Join(dir, "pages", "blog", "hello.md"),
		"---\ntitle: Hello\nlayout: post\ndate: 2021-03-04\nbare: true\n---\n# Hi\n")

	p, err := l.LoadPage("blog/hello.md")
	require.NoError(t, err)
	assert.Equal(t, "blog/hello.md", p.File)
	assert.Equal(t, "blog/hello.html", p.Path)
	assert.Equal(t, "Hello", p.FrontMatter["title"])
	assert.Equal(t, "post", p.Layout)
	assert.True(t, p.Bare)
	assert.Equal(t, "# Hi\n", p.Body)
	assert.Equal(t, 5, p.RawLength)
	assert.Equal(t, time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC), p.Date.UTC())
	assert.NotEmpty(t, p.Hash)
}

func TestLoadPageDefaults(t *testing.T) {
	l, dir := newTestLoader(t)
	path := filepath.Join(dir, "pages", "a.md")
	writeFile(t, path, "---\ntitle: A\n---\nbody\n")
	mtime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, mtime, mtime))

	p, err := l.LoadPage("a.md")
	require.NoError(t, err)
	assert.Equal(t, "page", p.Layout)
	assert.False(t, p.Bare)
	assert.True(t, mtime.Equal(p.Date))
}

func TestLoadPageHashCoversFrontMatter(t *testing.T) {
	l, dir := newTestLoader(t)
	path := filepath.Join(dir, "pages", "a.md")

	writeFile(t, path, "---\ntitle: A\n---\nbody\n")
	first, err := l.LoadPage("a.md")
	require.NoError(t, err)

	writeFile(t, path, "---\ntitle: A\n---\nbody\n")
	same, err := l.LoadPage("a.md")
	require.NoError(t, err)
	assert.Equal(t, first.Hash, same.Hash)

	writeFile(t, path, "---\ntitle: B\n---\nbody\n")
	changed, err := l.LoadPage("a.md")
	require.NoError(t, err)
	assert.NotEqual(t, first.Hash, changed.Hash)
}

func TestLoadPageErrors(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		target error
	}{
		{"no front matter", "# just markdown\n", ErrNoFrontMatter},
		{"empty body", "---\ntitle: x\n---\n  \n", ErrEmptyBody},
		{"empty document", "\n\n", ErrEmptyDocument},
		{"empty front matter", "---\n---\nbody text\n", ErrEmptyFrontMatter},
		{"blank front matter", "---\n  \n\t\n---\nbody text\n", ErrEmptyFrontMatter},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l, dir := newTestLoader(t)
			writeFile(t, filepath.Join(dir, "pages", "x.md"), tc.body)

			_, err := l.LoadPage("x.md")
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.target)
			assert.True(t, errors.HasCategory(err, errors.CategoryLoad))
			assert.Equal(t, errors.SeverityWarning, errors.GetSeverity(err))
		})
	}
}

func TestLoadPageBadDate(t *testing.T) {
	l, dir := newTestLoader(t)
	writeFile(t, filepath.Join(dir, "pages", "x.md"), "---\ndate: someday\n---\nbody\n")
	_, err := l.LoadPage("x.md")
	require.Error(t, err)
}

func TestLoadLayoutAndData(t *testing.T) {
	l, dir := newTestLoader(t)
	writeFile(t, filepath.Join(dir, "layouts", "page.html"), "<p>{{.page.content}}</p>")
	writeFile(t, filepath.Join(dir, "data", "nav.yml"), "- home\n- about\n")

	lay, err := l.LoadLayout("page.html")
	require.NoError(t, err)
	assert.Equal(t, "page.html", lay.Path)
	assert.Len(t, lay.Hash, 64)

	key, value, err := l.LoadData("nav.yml")
	require.NoError(t, err)
	assert.Equal(t, "nav", key)
	assert.Equal(t, []any{"home", "about"}, value)

	writeFile(t, filepath.Join(dir, "layouts", "empty.html"), "  ")
	_, err = l.LoadLayout("empty.html")
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestScan(t *testing.T) {
	l, dir := newTestLoader(t)
	writeFile(t, filepath.Join(dir, "pages", "b.md"), "---\ntitle: B\n---\nb\n")
	writeFile(t, filepath.Join(dir, "pages", "a", "c.md"), "---\ntitle: C\n---\nc\n")
	writeFile(t, filepath.Join(dir, "pages", "broken.md"), "no front matter\n")
	writeFile(t, filepath.Join(dir, "pages", ".hidden.md"), "---\nx: 1\n---\nx\n")
	writeFile(t, filepath.Join(dir, "pages", "b.md~"), "backup")
	writeFile(t, filepath.Join(dir, "layouts", "page.html"), "{{.page.content}}")
	writeFile(t, filepath.Join(dir, "layouts", "partials", "nav.html"), "<nav></nav>")
	writeFile(t, filepath.Join(dir, "data", "site.yaml"), "name: demo\n")
	writeFile(t, filepath.Join(dir, "data", "counts.json"), `{"n": 3}`)
	writeFile(t, filepath.Join(dir, "data", "notes.txt"), "ignored")

	site, skipped, err := l.Scan(t.Context())
	require.NoError(t, err)

	require.Len(t, site.Pages, 2)
	assert.Equal(t, "a/c.md", site.Pages[0].File)
	assert.Equal(t, "b.md", site.Pages[1].File)
	require.Len(t, site.Layouts, 2)
	assert.Equal(t, "page.html", site.Layouts[0].Path)
	assert.Equal(t, "partials/nav.html", site.Layouts[1].Path)
	assert.Equal(t, map[string]any{"name": "demo"}, site.Data["site"])
	assert.Equal(t, map[string]any{"n": 3}, site.Data["counts"])
	assert.NotContains(t, site.Data, "notes")

	require.Len(t, skipped, 1)
	assert.Equal(t, RootPages, skipped[0].Root)
	assert.Equal(t, "broken.md", skipped[0].Path)
}

func TestScanMissingRoots(t *testing.T) {
	l, _ := newTestLoader(t)
	site, skipped, err := l.Scan(t.Context())
	require.NoError(t, err)
	assert.Empty(t, site.Pages)
	assert.Empty(t, site.Layouts)
	assert.Empty(t, site.Data)
	assert.Empty(t, skipped)
}
