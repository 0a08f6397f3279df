package tags

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/nocms/internal/markdown"
)

func builtinRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	require.NoError(t, RegisterBuiltins(reg))
	return reg
}

func TestRegistry(t *testing.T) {
	reg := builtinRegistry(t)
	assert.Equal(t, []string{"prominent", "youtube"}, reg.Names())

	kind, ok := reg.Lookup("prominent")
	require.True(t, ok)
	assert.Equal(t, Wrapping, kind)
	kind, ok = reg.Lookup("youtube")
	require.True(t, ok)
	assert.Equal(t, SelfClosing, kind)
	_, ok = reg.Lookup("nope")
	assert.False(t, ok)

	noop := func([]string) (string, error) { return "", nil }
	assert.Error(t, reg.RegisterSelfClosing("youtube", noop), "duplicate")
	assert.Error(t, reg.RegisterSelfClosing("has space", noop), "invalid name")
	assert.Error(t, reg.RegisterSelfClosing("endprominent", noop), "closing marker collision")
	assert.Error(t, reg.RegisterSelfClosing("ok", nil), "nil handler")

	require.NoError(t, reg.RegisterSelfClosing("endnote", noop))
	assert.Error(t, reg.RegisterWrapping("note", func([]string, string) (string, error) { return "", nil }))
}

func TestParseArgs(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{`"abc 123"`, []string{"abc 123"}},
		{`first "second argument" 'third one' fourth`, []string{"first", "second argument", "third one", "fourth"}},
		{"  spaced\targs  ", []string{"spaced", "args"}},
		{`""`, []string{""}},
		{"", []string{}},
		{`back\"slash`, []string{`back\`, "slash"}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseArgs(tc.in), tc.in)
	}
}

func TestScanTokens(t *testing.T) {
	reg := builtinRegistry(t)
	src := "intro {% youtube a1 %} mid {% prominent x %}\nbody\n{% endprominent %} {% youtube b2 %} end"

	tokens := Scan(src, reg)
	require.Len(t, tokens, 7)

	assert.Equal(t, TokenText, tokens[0].Kind)
	assert.Equal(t, "intro ", tokens[0].Text)

	yt := tokens[1].Tag
	require.NotNil(t, yt)
	assert.Equal(t, "youtube", yt.Name)
	assert.Equal(t, SelfClosing, yt.Kind)
	assert.Equal(t, []string{"a1"}, yt.Args)
	assert.Equal(t, "{% youtube a1 %}", yt.Raw)

	pr := tokens[3].Tag
	require.NotNil(t, pr)
	assert.Equal(t, Wrapping, pr.Kind)
	assert.Equal(t, []string{"x"}, pr.Args)
	assert.Equal(t, "\nbody\n", pr.Inner)

	second := tokens[5].Tag
	require.NotNil(t, second)
	assert.NotEqual(t, yt.ID, second.ID)
	assert.NotEqual(t, yt.ID, pr.ID)
}

func TestScanLiteralMarkers(t *testing.T) {
	reg := builtinRegistry(t)
	for _, src := range []string{
		"{% nope foo %}",
		"{% endprominent %}",
		"{% prominent %} never closed",
		"{%youtube x%}",
		"{% youtube\nx %}",
		"{% %}",
		"100% {% of nothing",
	} {
		tokens := Scan(src, reg)
		require.Len(t, tokens, 1, src)
		assert.Equal(t, TokenText, tokens[0].Kind, src)
		assert.Equal(t, src, tokens[0].Text, src)
	}
}

func TestScanNonGreedyWrapping(t *testing.T) {
	reg := builtinRegistry(t)
	src := "{% prominent %}one{% endprominent %}{% prominent %}two{% endprominent %}"
	tokens := Scan(src, reg)
	require.Len(t, tokens, 2)
	assert.Equal(t, "one", tokens[0].Tag.Inner)
	assert.Equal(t, "two", tokens[1].Tag.Inner)
}

func newExpander(t *testing.T) *Expander {
	return NewExpander(builtinRegistry(t), markdown.New(markdown.DefaultOptions()))
}

func TestExpandQuotedArgument(t *testing.T) {
	reg := NewRegistry()
	var got []string
	require.NoError(t, reg.RegisterSelfClosing("youtube", func(args []string) (string, error) {
		got = args
		return "<iframe></iframe>", nil
	}))
	out, errs := NewExpander(reg, nil).Expand("p.md", `{% youtube "abc 123" %}`)
	assert.Empty(t, errs)
	assert.Equal(t, []string{"abc 123"}, got)
	assert.Equal(t, "<iframe></iframe>", out)
}

func TestExpandNestedRendering(t *testing.T) {
	out, errs := newExpander(t).Expand("p.md", "{% prominent %}**bold**{% endprominent %}")
	assert.Empty(t, errs)
	assert.Equal(t, "<div class=\"prominent\">\n<p><strong>bold</strong></p>\n</div>", out)
}

func TestExpandPassThrough(t *testing.T) {
	src := "before {% nope foo %} after"
	out, errs := newExpander(t).Expand("p.md", src)
	assert.Empty(t, errs)
	assert.Equal(t, src, out)
}

func TestExpandRepeatedTagsKeepOrder(t *testing.T) {
	out, errs := newExpander(t).Expand("p.md", "{% youtube one %}\n\n{% youtube two %}\n\n{% youtube one %}")
	assert.Empty(t, errs)
	first := strings.Index(out, "embed/one")
	second := strings.Index(out, "embed/two")
	third := strings.LastIndex(out, "embed/one")
	assert.True(t, first >= 0 && first < second && second < third, out)
}

func TestExpandHandlerFailureIsPerInvocation(t *testing.T) {
	reg := builtinRegistry(t)
	require.NoError(t, reg.RegisterSelfClosing("boom", func([]string) (string, error) {
		return "", errors.New("kaput")
	}))
	require.NoError(t, reg.RegisterSelfClosing("panics", func([]string) (string, error) {
		panic("oh no")
	}))

	src := "{% boom a %} {% youtube ok %} {% panics %} {% youtube %}"
	out, errs := NewExpander(reg, nil).Expand("blog/x.md", src)

	require.Len(t, errs, 3)
	var tagErr *TagError
	require.ErrorAs(t, errs[0], &tagErr)
	assert.Equal(t, "boom", tagErr.Tag)
	assert.Equal(t, "blog/x.md", tagErr.Page)
	assert.Contains(t, errs[0].Error(), "kaput")
	assert.Contains(t, errs[1].Error(), "panicked")
	assert.Contains(t, errs[2].Error(), "missing video id")

	assert.Contains(t, out, "{% boom a %}")
	assert.Contains(t, out, "{% panics %}")
	assert.Contains(t, out, "embed/ok?rel=0")
}

func TestExpandNestedTagsInsideWrapping(t *testing.T) {
	out, errs := newExpander(t).Expand("p.md", "{% prominent %}\nSee {% youtube vid %}\n{% endprominent %}")
	assert.Empty(t, errs)
	assert.Contains(t, out, `<div class="prominent">`)
	assert.Contains(t, out, "embed/vid?rel=0")
	assert.NotContains(t, out, "\x00")
}

func TestExpandWithoutTagsReturnsInput(t *testing.T) {
	out, errs := newExpander(t).Expand("p.md", "# plain\n")
	assert.Nil(t, errs)
	assert.Equal(t, "# plain\n", out)
}

func TestYouTubeEscapesID(t *testing.T) {
	out, err := YouTube([]string{`a"b`})
	require.NoError(t, err)
	assert.NotContains(t, out, `a"b`)
}
