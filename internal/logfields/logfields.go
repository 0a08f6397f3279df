package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyPage       = "page"
	KeyLayout     = "layout"
	KeyDataKey    = "data_key"
	KeyTag        = "tag"
	KeyPath       = "path"
	KeyRoot       = "root"
	KeyOp         = "op"
	KeyReason     = "reason"
	KeyTrigger    = "trigger"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr  { return slog.String(KeyBuildID, id) }
func Page(file string) slog.Attr   { return slog.String(KeyPage, file) }
func Layout(path string) slog.Attr { return slog.String(KeyLayout, path) }
func DataKey(key string) slog.Attr { return slog.String(KeyDataKey, key) }
func Tag(name string) slog.Attr    { return slog.String(KeyTag, name) }
func Path(p string) slog.Attr      { return slog.String(KeyPath, p) }
func Root(r string) slog.Attr      { return slog.String(KeyRoot, r) }
func Op(op string) slog.Attr       { return slog.String(KeyOp, op) }
func Reason(r string) slog.Attr    { return slog.String(KeyReason, r) }
func Trigger(t string) slog.Attr   { return slog.String(KeyTrigger, t) }
func Count(n int) slog.Attr        { return slog.Int(KeyCount, n) }
func Duration(d time.Duration) slog.Attr {
	return slog.Int64(KeyDurationMS, d.Milliseconds())
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
