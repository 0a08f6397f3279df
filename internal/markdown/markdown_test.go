package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderGFM(t *testing.T) {
	r := New(DefaultOptions())

	out, err := r.Render("# Hello World\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n~~gone~~\n")
	require.NoError(t, err)
	assert.Contains(t, out, `<h1 id="hello-world">Hello World</h1>`)
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<del>gone</del>")
}

func TestRenderPassesRawHTML(t *testing.T) {
	out, err := New(DefaultOptions()).Render("<div class=\"prominent\">\n<p>x</p>\n</div>\n")
	require.NoError(t, err)
	assert.Contains(t, out, `<div class="prominent">`)
}

func TestRenderTypographer(t *testing.T) {
	out, err := New(DefaultOptions()).Render(`"quoted" -- text`)
	require.NoError(t, err)
	assert.Contains(t, out, "&ldquo;quoted&rdquo;")

	out, err = New(Options{}).Render(`"quoted"`)
	require.NoError(t, err)
	assert.Contains(t, out, "&quot;quoted&quot;")
}

func TestRenderHardWraps(t *testing.T) {
	out, err := New(Options{HardWraps: true}).Render("one\ntwo\n")
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "<br>") || strings.Contains(out, "<br />"))
}

func TestRenderFunc(t *testing.T) {
	var r Renderer = RenderFunc(func(s string) (string, error) { return "<p>" + s + "</p>", nil })
	out, err := r.Render("x")
	require.NoError(t, err)
	assert.Equal(t, "<p>x</p>", out)
}
