package build

import (
	"time"

	"git.home.luguber.info/inful/nocms/internal/content"
	"git.home.luguber.info/inful/nocms/internal/metrics"
)

// Kind names the operation that produced a report.
type Kind string

const (
	KindBuild   Kind = "build"
	KindRebuild Kind = "rebuild"
	KindPage    Kind = "page"
	KindRemove  Kind = "remove"
)

// Status represents the outcome of a build operation.
type Status string

const (
	// StatusSuccess means every dirty page rendered.
	StatusSuccess Status = "success"
	// StatusPartial means some pages failed; the rest were written.
	StatusPartial Status = "partial"
	// StatusUnchanged means nothing was dirty and nothing was written.
	StatusUnchanged Status = "unchanged"
	// StatusFailed means the operation stopped without a snapshot write.
	StatusFailed Status = "failed"
	// StatusCancelled means the context ended between pages.
	StatusCancelled Status = "cancelled"
)

// IsSuccess reports whether the snapshot reflects the operation.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess || s == StatusPartial || s == StatusUnchanged
}

// Report summarizes one engine operation.
type Report struct {
	BuildID string
	Kind    Kind
	Status  Status

	// Reason and Trigger explain a global plan (layout path or data key).
	Reason  string
	Trigger string

	Rendered int
	Skipped  int
	Failed   int
	Removed  int

	// Written counts output files written to disk.
	Written int
	// SnapshotWritten is false when the snapshot was already up to date.
	SnapshotWritten bool

	// LoadSkipped are source documents that failed to load.
	LoadSkipped []content.Skipped
	// PageErrors maps source files to why they failed.
	PageErrors map[string]error
	// TagErrors are non-fatal per-invocation failures.
	TagErrors []error

	StartTime time.Time
	Duration  time.Duration
}

func newReport(id string, kind Kind) *Report {
	return &Report{
		BuildID:    id,
		Kind:       kind,
		PageErrors: map[string]error{},
		StartTime:  time.Now(),
	}
}

func (r *Report) fail(file string, err error) {
	r.Failed++
	r.PageErrors[file] = err
}

// finish sets the status from the counters unless one was already decided.
func (r *Report) finish() {
	r.Duration = time.Since(r.StartTime)
	if r.Status != "" {
		return
	}
	switch {
	case r.Failed > 0:
		r.Status = StatusPartial
	case r.Rendered == 0 && r.Removed == 0 && !r.SnapshotWritten:
		r.Status = StatusUnchanged
	default:
		r.Status = StatusSuccess
	}
}

// Outcome maps the report onto the metrics outcome label.
func (r *Report) Outcome() metrics.BuildOutcomeLabel {
	switch {
	case !r.Status.IsSuccess():
		return metrics.BuildOutcomeFailed
	case r.Failed > 0, len(r.TagErrors) > 0, len(r.LoadSkipped) > 0:
		return metrics.BuildOutcomeWarning
	default:
		return metrics.BuildOutcomeSuccess
	}
}
