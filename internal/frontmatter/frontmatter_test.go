package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsError(t *testing.T) {
	_, err := Split([]byte("# Title\n\nHello\n"))
	require.ErrorIs(t, err, ErrNoFrontMatter)

	_, err = Split(nil)
	require.ErrorIs(t, err, ErrNoFrontMatter)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	doc, err := Split([]byte("---\nkey: value\n---\n# Title\n"))
	require.NoError(t, err)
	require.Equal(t, "key: value\n", string(doc.FrontMatter))
	require.Equal(t, "# Title\n", string(doc.Body))
	require.Equal(t, "\n", doc.Newline)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	_, err := Split([]byte("---\nkey: value\n# Title\n"))
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))

	_, err = Split([]byte("---"))
	require.ErrorIs(t, err, ErrMissingClosingDelimiter)
}

func TestSplit_CRLF_SplitsFrontmatterAndBody(t *testing.T) {
	doc, err := Split([]byte("---\r\nkey: value\r\n---\r\n# Title\r\n"))
	require.NoError(t, err)
	require.Equal(t, "key: value\r\n", string(doc.FrontMatter))
	require.Equal(t, "# Title\r\n", string(doc.Body))
	require.Equal(t, "\r\n", doc.Newline)
}

func TestSplit_EmptyFrontmatterBlock(t *testing.T) {
	doc, err := Split([]byte("---\n---\n# Title\n"))
	require.NoError(t, err)
	require.Empty(t, doc.FrontMatter)
	require.Equal(t, "# Title\n", string(doc.Body))
}

func TestSplit_ClosingFenceAtEOF(t *testing.T) {
	doc, err := Split([]byte("---\ntitle: x\n---"))
	require.NoError(t, err)
	require.Equal(t, "title: x\n", string(doc.FrontMatter))
	require.Empty(t, doc.Body)
}

func TestSplit_DashesInsideBodyAreKept(t *testing.T) {
	doc, err := Split([]byte("---\ntitle: x\n---  \nabove\n---\nbelow\n"))
	require.NoError(t, err)
	require.Equal(t, "above\n---\nbelow\n", string(doc.Body))
}

func TestParseYAML_ValidYAML_ReturnsMap(t *testing.T) {
	fields, err := ParseYAML([]byte("layout: post\ntags:\n  - one\n"))
	require.NoError(t, err)
	require.Equal(t, "post", fields["layout"])
	require.Equal(t, []any{"one"}, fields["tags"])
}

func TestParseYAML_Empty_ReturnsEmptyMap(t *testing.T) {
	fields, err := ParseYAML([]byte("  \n"))
	require.NoError(t, err)
	require.Empty(t, fields)
}

func TestParseYAML_InvalidYAML_ReturnsError(t *testing.T) {
	_, err := ParseYAML([]byte(": not yaml"))
	require.Error(t, err)

	_, err = ParseYAML([]byte("- a\n- b\n"))
	require.Error(t, err)
}
