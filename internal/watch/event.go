// Package watch turns filesystem changes under the page, layout and data
// roots into engine operations. Events are debounced per path, queued, and
// processed one at a time by a single worker.
package watch

import (
	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/nocms/internal/content"
)

// Op is the logical change to a source file.
type Op string

const (
	OpCreate Op = "create"
	OpWrite  Op = "write"
	OpRemove Op = "remove"
	// OpRebuild is a full rescan requested by the scheduler, not a file change.
	OpRebuild Op = "rebuild"
)

// Event is one debounced change. Path is relative to its root and slash separated.
type Event struct {
	Root content.Root
	Op   Op
	Path string
}

func (e Event) key() string { return string(e.Root) + ":" + e.Path }

// opFromFS maps an fsnotify op onto a logical op. Chmod-only events map to "".
func opFromFS(op fsnotify.Op) Op {
	switch {
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return OpRemove
	case op.Has(fsnotify.Create):
		return OpCreate
	case op.Has(fsnotify.Write):
		return OpWrite
	default:
		return ""
	}
}

// merge folds a newer op for the same path into the pending one. A file
// that is created and then written is still a create; anything followed by a
// remove is a remove; a remove followed by a create is a write.
func merge(pending, next Op) Op {
	switch {
	case next == OpRemove:
		return OpRemove
	case pending == OpRemove:
		return OpWrite
	case pending == OpCreate:
		return OpCreate
	default:
		return next
	}
}
