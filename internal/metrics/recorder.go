package metrics

import "time"

// ResultLabel enumerates per-page render results.
type ResultLabel string

const (
	ResultRendered ResultLabel = "rendered"
	ResultSkipped  ResultLabel = "skipped"
	ResultFailed   ResultLabel = "failed"
)

// BuildOutcomeLabel enumerates final outcomes of a build pass.
type BuildOutcomeLabel string

const (
	BuildOutcomeSuccess BuildOutcomeLabel = "success"
	BuildOutcomeWarning BuildOutcomeLabel = "warning"
	BuildOutcomeFailed  BuildOutcomeLabel = "failed"
)

// Recorder defines observability hooks for builds and the watch loop.
// Implementations must be safe for concurrent use.
type Recorder interface {
	ObserveBuildDuration(kind string, d time.Duration)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	IncPageResult(result ResultLabel)
	IncTagError(tag string)
	IncSnapshotWrite(success bool)
	IncWatchEvent(root, op string)
	SetQueueDepth(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(string, time.Duration) {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)          {}
func (NoopRecorder) IncPageResult(ResultLabel)                  {}
func (NoopRecorder) IncTagError(string)                         {}
func (NoopRecorder) IncSnapshotWrite(bool)                      {}
func (NoopRecorder) IncWatchEvent(string, string)               {}
func (NoopRecorder) SetQueueDepth(int)                          {}
