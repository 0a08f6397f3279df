package build

import "errors"

// Sentinel errors classifying pipeline failures. They are always wrapped
// with page or path context at the call site.
var (
	ErrPageFailed    = errors.New("nocms: page render failed")
	ErrBatchAborted  = errors.New("nocms: forced rebuild aborted")
	ErrSnapshotWrite = errors.New("nocms: snapshot write failed")
)
