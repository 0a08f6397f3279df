// Package snapshot persists the record of the last successful build: page
// and layout hashes plus the data set. It is used only to diff against the
// current sources and is always replaced as a whole.
package snapshot

import (
	"bytes"
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/nocms/internal/content"
)

// PageRecord is the persisted form of a page. Rendered content is never stored.
type PageRecord struct {
	File        string         `json:"file"`
	Path        string         `json:"path"`
	Layout      string         `json:"layout"`
	Date        time.Time      `json:"date"`
	Bare        bool           `json:"bare,omitempty"`
	Hash        string         `json:"hash"`
	RawLength   int            `json:"rawLength"`
	FrontMatter map[string]any `json:"frontMatter,omitempty"`
}

// LayoutRecord is the persisted form of a layout.
type LayoutRecord struct {
	Path string `json:"path"`
	Hash string `json:"hash"`
}

// Snapshot is the whole persisted build record.
type Snapshot struct {
	Pages   []PageRecord   `json:"pages"`
	Layouts []LayoutRecord `json:"layouts"`
	Data    map[string]any `json:"data"`
}

// Empty returns a snapshot with no records; diffing against it marks everything new.
func Empty() *Snapshot {
	return &Snapshot{Pages: []PageRecord{}, Layouts: []LayoutRecord{}, Data: map[string]any{}}
}

// RecordPage converts a page into its persisted record.
func RecordPage(p content.Page) PageRecord {
	fm, _ := content.DeepCopy(p.FrontMatter).(map[string]any)
	return PageRecord{
		File:        p.File,
		Path:        p.Path,
		Layout:      p.Layout,
		Date:        p.Date,
		Bare:        p.Bare,
		Hash:        p.Hash,
		RawLength:   p.RawLength,
		FrontMatter: fm,
	}
}

// FromSite builds the snapshot of a site's current state.
func FromSite(site *content.Site) *Snapshot {
	s := Empty()
	for _, p := range site.Pages {
		s.Pages = append(s.Pages, RecordPage(p))
	}
	for _, l := range site.Layouts {
		s.Layouts = append(s.Layouts, LayoutRecord{Path: l.Path, Hash: l.Hash})
	}
	for k, v := range site.Data {
		s.Data[k] = content.DeepCopy(v)
	}
	return s
}

// Page returns the record with the given output path.
func (s *Snapshot) Page(path string) (PageRecord, bool) {
	for _, p := range s.Pages {
		if p.Path == path {
			return p, true
		}
	}
	return PageRecord{}, false
}

// Layout returns the record with the given layout path.
func (s *Snapshot) Layout(path string) (LayoutRecord, bool) {
	for _, l := range s.Layouts {
		if l.Path == path {
			return l, true
		}
	}
	return LayoutRecord{}, false
}

// WithPage returns a copy with rec replacing the record of the same path, or
// appended when no such record exists. Other records are kept, including
// records of pages that no longer exist.
func (s *Snapshot) WithPage(rec PageRecord) *Snapshot {
	out := s.clone()
	for i, p := range out.Pages {
		if p.Path == rec.Path {
			out.Pages[i] = rec
			return out
		}
	}
	out.Pages = append(out.Pages, rec)
	return out
}

// WithoutPage returns a copy without the record for path.
func (s *Snapshot) WithoutPage(path string) *Snapshot {
	out := s.clone()
	pages := out.Pages[:0]
	for _, p := range out.Pages {
		if p.Path != path {
			pages = append(pages, p)
		}
	}
	out.Pages = pages
	return out
}

// WithLayouts returns a copy whose layout records and data come from site.
// Page records are kept as is.
func (s *Snapshot) WithLayouts(site *content.Site) *Snapshot {
	out := s.clone()
	fresh := FromSite(site)
	out.Layouts = fresh.Layouts
	out.Data = fresh.Data
	return out
}

// Equal reports whether two snapshots serialize identically.
func (s *Snapshot) Equal(other *Snapshot) bool {
	if s == nil || other == nil {
		return s == other
	}
	return CanonicalEqual(s, other)
}

func (s *Snapshot) clone() *Snapshot {
	out := &Snapshot{
		Pages:   append([]PageRecord{}, s.Pages...),
		Layouts: append([]LayoutRecord{}, s.Layouts...),
		Data:    make(map[string]any, len(s.Data)),
	}
	for k, v := range s.Data {
		out.Data[k] = content.DeepCopy(v)
	}
	return out
}

// CanonicalEqual compares two values by their JSON encoding. encoding/json
// sorts map keys, so equal values encode identically whether numbers came
// from YAML (int, float64) or from the snapshot file (json.Number).
func CanonicalEqual(a, b any) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}
