package content

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	stdErrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/inful/mdfp"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/nocms/internal/config"
	"git.home.luguber.info/inful/nocms/internal/foundation/errors"
	"git.home.luguber.info/inful/nocms/internal/frontmatter"
	"git.home.luguber.info/inful/nocms/internal/logfields"
)

var (
	ErrNoFrontMatter = frontmatter.ErrNoFrontMatter
	ErrEmptyBody     = stdErrors.New("document body is empty")
	// ErrEmptyFrontMatter rejects a `---` block with nothing between the fences.
	ErrEmptyFrontMatter = stdErrors.New("front matter block is empty")
	ErrEmptyDocument    = stdErrors.New("document is empty")
)

// Root identifies one of the three source trees.
type Root string

const (
	RootPages   Root = "pages"
	RootLayouts Root = "layouts"
	RootData    Root = "data"
)

// dataExts are the data file extensions, all parsed with yaml.v3.
var dataExts = []string{".yml", ".yaml", ".json"}

// Options locates the source trees and names the extensions in use.
type Options struct {
	PagesDir      string
	LayoutsDir    string
	DataDir       string
	SourceExt     string
	LayoutExt     string
	OutputExt     string
	DefaultLayout string
}

// OptionsFromConfig derives loader options from configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		PagesDir:      cfg.Paths.Pages,
		LayoutsDir:    cfg.Paths.Layouts,
		DataDir:       cfg.Paths.Data,
		SourceExt:     cfg.Build.SourceExt,
		LayoutExt:     cfg.Build.LayoutExt,
		OutputExt:     cfg.Build.OutputExt,
		DefaultLayout: cfg.Build.DefaultLayout,
	}
}

// Skipped records a document that failed to load during a scan.
type Skipped struct {
	Root Root
	Path string
	Err  error
}

// Loader reads pages, layouts and data files from disk.
type Loader struct {
	opts   Options
	logger *slog.Logger
}

// NewLoader creates a loader. A nil logger uses slog.Default().
func NewLoader(opts Options, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{opts: opts, logger: logger}
}

// Options returns the loader's options.
func (l *Loader) Options() Options { return l.opts }

// RootDir returns the directory of a source tree.
func (l *Loader) RootDir(r Root) string {
	switch r {
	case RootPages:
		return l.opts.PagesDir
	case RootLayouts:
		return l.opts.LayoutsDir
	default:
		return l.opts.DataDir
	}
}

// LoadPage reads and parses the page at rel (relative to the pages root).
func (l *Loader) LoadPage(rel string) (Page, error) {
	rel = filepath.ToSlash(rel)
	full := filepath.Join(l.opts.PagesDir, filepath.FromSlash(rel))

	info, err := os.Stat(full)
	if err != nil {
		return Page{}, loadError(err, RootPages, rel)
	}
	raw, err := os.ReadFile(full)
	if err != nil {
		return Page{}, loadError(err, RootPages, rel)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return Page{}, loadError(ErrEmptyDocument, RootPages, rel)
	}

	doc, err := frontmatter.Split(raw)
	if err != nil {
		return Page{}, loadError(err, RootPages, rel)
	}
	if len(bytes.TrimSpace(doc.FrontMatter)) == 0 {
		return Page{}, loadError(ErrEmptyFrontMatter, RootPages, rel)
	}
	body := string(doc.Body)
	if strings.TrimSpace(body) == "" {
		return Page{}, loadError(ErrEmptyBody, RootPages, rel)
	}
	fields, err := frontmatter.ParseYAML(doc.FrontMatter)
	if err != nil {
		return Page{}, loadError(fmt.Errorf("parse front matter: %w", err), RootPages, rel)
	}
	normalizeYAML(fields)

	date, err := pageDate(fields["date"], info.ModTime())
	if err != nil {
		return Page{}, loadError(err, RootPages, rel)
	}

	return Page{
		File:        rel,
		Path:        OutputPath(rel, l.opts.SourceExt, l.opts.OutputExt),
		FrontMatter: fields,
		Layout:      l.pageLayout(fields),
		Date:        date,
		Bare:        truthy(fields["bare"]),
		Body:        body,
		Hash:        mdfp.CalculateFingerprintFromParts(string(doc.FrontMatter), body),
		RawLength:   utf8.RuneCountInString(body),
	}, nil
}

// LoadLayout reads the layout at rel (relative to the layouts root).
func (l *Loader) LoadLayout(rel string) (Layout, error) {
	rel = filepath.ToSlash(rel)
	raw, err := os.ReadFile(filepath.Join(l.opts.LayoutsDir, filepath.FromSlash(rel)))
	if err != nil {
		return Layout{}, loadError(err, RootLayouts, rel)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return Layout{}, loadError(ErrEmptyDocument, RootLayouts, rel)
	}
	sum := sha256.Sum256(raw)
	return Layout{Path: rel, Source: string(raw), Hash: hex.EncodeToString(sum[:])}, nil
}

// LoadData parses the data file name (relative to the data root) and returns
// its key and value.
func (l *Loader) LoadData(name string) (string, any, error) {
	raw, err := os.ReadFile(filepath.Join(l.opts.DataDir, name))
	if err != nil {
		return "", nil, loadError(err, RootData, name)
	}
	var value any
	if err := yaml.Unmarshal(raw, &value); err != nil {
		return "", nil, loadError(fmt.Errorf("parse data: %w", err), RootData, name)
	}
	return DataKey(name), normalizeYAML(value), nil
}

// DataKey returns the data set key for a data file name.
func DataKey(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IsDataFile reports whether name has a data file extension.
func IsDataFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range dataExts {
		if ext == e {
			return true
		}
	}
	return false
}

// Scan loads every page, layout and data file. Documents that fail to load
// are logged and returned in the skipped list; they never fail the scan.
func (l *Loader) Scan(ctx context.Context) (*Site, []Skipped, error) {
	var skipped []Skipped

	pageFiles, err := l.walk(ctx, l.opts.PagesDir, l.opts.SourceExt)
	if err != nil {
		return nil, nil, err
	}
	pages := make([]Page, 0, len(pageFiles))
	for _, rel := range pageFiles {
		p, err := l.LoadPage(rel)
		if err != nil {
			skipped = append(skipped, l.skip(RootPages, rel, err))
			continue
		}
		pages = append(pages, p)
	}

	layoutFiles, err := l.walk(ctx, l.opts.LayoutsDir, l.opts.LayoutExt)
	if err != nil {
		return nil, nil, err
	}
	layouts := make([]Layout, 0, len(layoutFiles))
	for _, rel := range layoutFiles {
		lay, err := l.LoadLayout(rel)
		if err != nil {
			skipped = append(skipped, l.skip(RootLayouts, rel, err))
			continue
		}
		layouts = append(layouts, lay)
	}

	data := DataSet{}
	entries, err := os.ReadDir(l.opts.DataDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, nil, errors.WrapError(err, errors.CategoryFileSystem, "read data directory").
			WithContext("path", l.opts.DataDir).
			Build()
	}
	for _, e := range entries {
		if e.IsDir() || IsIgnored(e.Name()) || !IsDataFile(e.Name()) {
			continue
		}
		key, value, err := l.LoadData(e.Name())
		if err != nil {
			skipped = append(skipped, l.skip(RootData, e.Name(), err))
			continue
		}
		data[key] = value
	}

	l.logger.Info("Sources loaded",
		slog.Int("pages", len(pages)),
		slog.Int("layouts", len(layouts)),
		slog.Int("data", len(data)),
		slog.Int("skipped", len(skipped)))

	return NewSite(pages, layouts, data), skipped, nil
}

// walk lists files under root with the given extension as slash-separated
// relative paths. A missing root yields no files.
func (l *Loader) walk(ctx context.Context, root, ext string) ([]string, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		l.logger.Warn("Source directory does not exist", logfields.Root(root))
		return nil, nil
	}
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path != root && IsIgnored(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ext) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "walk source directory").
			WithContext("path", root).
			Build()
	}
	return files, nil
}

func (l *Loader) skip(root Root, rel string, err error) Skipped {
	l.logger.Warn("Skipping document",
		logfields.Root(string(root)),
		logfields.Path(rel),
		logfields.Error(err))
	return Skipped{Root: root, Path: rel, Err: err}
}

func (l *Loader) pageLayout(fields map[string]any) string {
	if s, ok := fields["layout"].(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSuffix(strings.TrimSpace(s), l.opts.LayoutExt)
	}
	return l.opts.DefaultLayout
}

var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// pageDate normalizes a front matter date, falling back to mtime when absent.
func pageDate(v any, mtime time.Time) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return mtime, nil
	case time.Time:
		return t, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return mtime, nil
		}
		for _, layout := range dateLayouts {
			if d, err := time.Parse(layout, s); err == nil {
				return d, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	default:
		return time.Time{}, fmt.Errorf("unsupported date value %v", v)
	}
}

func truthy(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

// normalizeYAML converts map[any]any nodes (possible with non-string keys)
// into map[string]any so data round-trips through JSON.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeYAML(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case []any:
		for i, val := range t {
			t[i] = normalizeYAML(val)
		}
		return t
	default:
		return v
	}
}

var loadMessages = map[Root]string{
	RootPages:   "load page",
	RootLayouts: "load layout",
	RootData:    "load data",
}

func loadError(err error, root Root, rel string) error {
	return errors.LoadError(loadMessages[root]).
		WithCause(err).
		WithContext("root", string(root)).
		WithContext("path", rel).
		Build()
}
