// Package incremental decides which pages need rendering by comparing the
// current sources against the last persisted snapshot.
package incremental

import (
	"git.home.luguber.info/inful/nocms/internal/content"
	"git.home.luguber.info/inful/nocms/internal/snapshot"
)

// Reason explains why a page (or the whole site) is dirty.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonLayoutChanged Reason = "layout_changed"
	ReasonLayoutAdded   Reason = "layout_added"
	ReasonDataChanged   Reason = "data_changed"
	ReasonPageChanged   Reason = "page_changed"
	ReasonPageAdded     Reason = "page_added"
	ReasonForced        Reason = "forced"
)

// Plan is the outcome of change detection.
type Plan struct {
	// Global is set when a layout or data change invalidates every page.
	Global bool
	// Reason is the global reason, or ReasonNone for per-page plans.
	Reason Reason
	// Trigger names what caused a global plan (layout path or data key).
	Trigger string
	// Dirty lists the source files to render, in site order.
	Dirty []string
	// PageReasons maps each dirty file to why it is dirty.
	PageReasons map[string]Reason
}

// Detect compares current against previous. Layout changes take precedence
// over data changes; either marks every page dirty. Otherwise a page is dirty
// when its hash differs from the record with the same output path, or no
// such record exists.
func Detect(current *content.Site, previous *snapshot.Snapshot) Plan {
	if previous == nil {
		previous = snapshot.Empty()
	}

	for _, l := range current.Layouts {
		rec, ok := previous.Layout(l.Path)
		switch {
		case !ok:
			return globalPlan(current, ReasonLayoutAdded, l.Path)
		case rec.Hash != l.Hash:
			return globalPlan(current, ReasonLayoutChanged, l.Path)
		}
	}

	if key, changed := dataChange(current.Data, previous.Data); changed {
		return globalPlan(current, ReasonDataChanged, key)
	}

	plan := Plan{PageReasons: map[string]Reason{}}
	for _, p := range current.Pages {
		rec, ok := previous.Page(p.Path)
		switch {
		case !ok:
			plan.add(p.File, ReasonPageAdded)
		case rec.Hash != p.Hash:
			plan.add(p.File, ReasonPageChanged)
		}
	}
	return plan
}

// Force returns a plan that marks every page of site dirty.
func Force(site *content.Site, reason Reason, trigger string) Plan {
	return globalPlan(site, reason, trigger)
}

// Empty reports whether nothing needs rendering.
func (p Plan) Empty() bool { return len(p.Dirty) == 0 }

// IsDirty reports whether file is part of the plan.
func (p Plan) IsDirty(file string) bool {
	_, ok := p.PageReasons[file]
	return ok
}

func (p *Plan) add(file string, reason Reason) {
	p.Dirty = append(p.Dirty, file)
	p.PageReasons[file] = reason
}

func globalPlan(site *content.Site, reason Reason, trigger string) Plan {
	plan := Plan{Global: true, Reason: reason, Trigger: trigger, PageReasons: map[string]Reason{}}
	for _, p := range site.Pages {
		plan.add(p.File, reason)
	}
	return plan
}

// dataChange reports whether the data sets differ, naming the first key
// (in no particular order) that differs when one can be identified.
func dataChange(current content.DataSet, previous map[string]any) (string, bool) {
	if current == nil {
		current = content.DataSet{}
	}
	if previous == nil {
		previous = map[string]any{}
	}
	if snapshot.CanonicalEqual(map[string]any(current), previous) {
		return "", false
	}
	for k, v := range current {
		if pv, ok := previous[k]; !ok || !snapshot.CanonicalEqual(v, pv) {
			return k, true
		}
	}
	for k := range previous {
		if _, ok := current[k]; !ok {
			return k, true
		}
	}
	return "", true
}
