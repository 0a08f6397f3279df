package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"git.home.luguber.info/inful/nocms/internal/foundation/errors"
)

// Store loads and saves whole snapshots.
type Store interface {
	Get(ctx context.Context) (*Snapshot, error)
	Put(ctx context.Context, s *Snapshot) error
}

// JSONStore keeps the snapshot in a single JSON file.
type JSONStore struct {
	path string
	mu   sync.Mutex

	rename func(oldpath, newpath string) error
}

// NewJSONStore creates a store backed by path. The file is created on first Put.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path, rename: os.Rename}
}

// Path returns the snapshot file location.
func (js *JSONStore) Path() string { return js.path }

// Get reads the snapshot. A missing file yields an empty snapshot so the
// next build renders everything; a corrupt file is an error.
func (js *JSONStore) Get(ctx context.Context) (*Snapshot, error) {
	js.mu.Lock()
	defer js.mu.Unlock()

	data, err := os.ReadFile(js.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Empty(), nil
		}
		return nil, errors.WrapError(err, errors.CategorySnapshot, "failed to read snapshot").
			WithContext("path", js.path).
			Build()
	}

	// Numbers stay json.Number so large integers re-encode to the same text.
	var s Snapshot
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&s); err != nil {
		return nil, errors.WrapError(err, errors.CategorySnapshot, "failed to unmarshal snapshot").
			WithContext("path", js.path).
			Fatal().
			Build()
	}
	if s.Pages == nil {
		s.Pages = []PageRecord{}
	}
	if s.Layouts == nil {
		s.Layouts = []LayoutRecord{}
	}
	if s.Data == nil {
		s.Data = map[string]any{}
	}
	return &s, nil
}

// Put replaces the snapshot file atomically: the new content goes to a
// sibling temp file which is synced and renamed over the target.
func (js *JSONStore) Put(ctx context.Context, s *Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	js.mu.Lock()
	defer js.mu.Unlock()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.WrapError(err, errors.CategorySnapshot, "failed to marshal snapshot").Fatal().Build()
	}

	if err := os.MkdirAll(filepath.Dir(js.path), 0o755); err != nil {
		return errors.WrapError(err, errors.CategorySnapshot, "failed to create snapshot directory").
			WithContext("path", js.path).
			Fatal().
			Build()
	}

	tempPath := js.path + ".tmp"
	if err := writeSynced(tempPath, data); err != nil {
		_ = os.Remove(tempPath)
		return errors.WrapError(err, errors.CategorySnapshot, "failed to write snapshot to temporary file").
			WithContext("path", tempPath).
			Fatal().
			Build()
	}

	if err := js.rename(tempPath, js.path); err != nil {
		_ = os.Remove(tempPath)
		return errors.WrapError(err, errors.CategorySnapshot, "failed to replace snapshot file").
			WithContext("path", js.path).
			Fatal().
			Build()
	}
	return nil
}

func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync: %w", err)
	}
	return f.Close()
}

// MemoryStore keeps the snapshot in memory. It stores deep copies so callers
// cannot mutate what was persisted.
type MemoryStore struct {
	mu   sync.Mutex
	snap *Snapshot
	puts int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (ms *MemoryStore) Get(ctx context.Context) (*Snapshot, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.snap == nil {
		return Empty(), nil
	}
	return ms.snap.clone(), nil
}

func (ms *MemoryStore) Put(ctx context.Context, s *Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := json.Marshal(s); err != nil {
		return errors.WrapError(err, errors.CategorySnapshot, "failed to marshal snapshot").Fatal().Build()
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.snap = s.clone()
	ms.puts++
	return nil
}

// Puts returns how many times Put succeeded.
func (ms *MemoryStore) Puts() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.puts
}
