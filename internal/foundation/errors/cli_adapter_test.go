package errors

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("bad flag").Build(), expected: 2},
		{name: "config", err: ConfigError("bad config").Build(), expected: 7},
		{name: "render", err: RenderError("layout missing").Build(), expected: 11},
		{name: "snapshot", err: SnapshotError("rename failed").Build(), expected: 13},
		{name: "wrapped classified", err: fmt.Errorf("build: %w", SnapshotError("x").Build()), expected: 13},
		{name: "unclassified", err: errors.New("boom"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	cause := errors.New("permission denied")
	err := WrapError(cause, CategorySnapshot, "write snapshot").WithContext("file", "db.json").Build()

	quiet := NewCLIErrorAdapter(false, nil)
	assert.Equal(t, "Error: write snapshot: permission denied", quiet.FormatError(err))

	verbose := NewCLIErrorAdapter(true, nil)
	assert.Contains(t, verbose.FormatError(err), "file=db.json")
	assert.Equal(t, "Error: boom", verbose.FormatError(errors.New("boom")))
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var out bytes.Buffer
	code := -1
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(io.Discard, nil)))
	adapter.out = &out
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(ConfigError("missing pages dir").Build())

	require.Equal(t, 7, code)
	assert.Equal(t, "Error: missing pages dir\n", out.String())
}
