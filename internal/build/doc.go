// Package build owns the incremental build pipeline: load sources, detect
// what changed against the last snapshot, expand and compose each dirty page,
// write its output and persist the new snapshot.
//
// All entry points (the build command, the watch dispatcher, tests) go
// through Engine. Its public operations are serialized, and the in-memory
// site is an immutable value swapped by reference after each change.
package build
