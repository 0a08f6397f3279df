package tags

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/nocms/internal/markdown"
)

// maxNesting bounds recursive expansion of wrapping tag bodies.
const maxNesting = 8

// TagError reports a failed tag invocation. The invocation's original text
// stays in the document.
type TagError struct {
	Tag  string
	Page string
	Err  error
}

func (e *TagError) Error() string {
	return fmt.Sprintf("tag %q on page %s: %v", e.Tag, e.Page, e.Err)
}

func (e *TagError) Unwrap() error { return e.Err }

// Expander replaces tag invocations in page bodies with handler output.
type Expander struct {
	registry *Registry
	markdown markdown.Renderer
}

// NewExpander creates an expander. md renders wrapping tag bodies; when nil
// bodies are passed to handlers unrendered.
func NewExpander(reg *Registry, md markdown.Renderer) *Expander {
	return &Expander{registry: reg, markdown: md}
}

// Registry returns the registry the expander resolves tags against.
func (e *Expander) Registry() *Registry { return e.registry }

// Expand resolves every tag in src. Each invocation is first swapped for its
// placeholder, then resolved, and the placeholders are finally substituted in
// occurrence order. Failed invocations are reported and keep their source
// text; the rest of the document still expands.
func (e *Expander) Expand(page, src string) (string, []error) {
	return e.expand(page, src, 0)
}

func (e *Expander) expand(page, src string, depth int) (string, []error) {
	tokens := Scan(src, e.registry)

	var doc strings.Builder
	invocations := make([]*Invocation, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Kind == TokenText {
			doc.WriteString(tok.Text)
			continue
		}
		doc.WriteString(tok.Tag.ID)
		invocations = append(invocations, tok.Tag)
	}
	if len(invocations) == 0 {
		return src, nil
	}

	var errs []error
	pairs := make([]string, 0, 2*len(invocations))
	for _, inv := range invocations {
		out, nested, err := e.resolve(page, inv, depth)
		errs = append(errs, nested...)
		if err != nil {
			errs = append(errs, &TagError{Tag: inv.Name, Page: page, Err: err})
			out = inv.Raw
		}
		pairs = append(pairs, inv.ID, out)
	}
	return strings.NewReplacer(pairs...).Replace(doc.String()), errs
}

// resolve produces the HTML for one invocation, along with any errors from
// tags nested in a wrapping body.
func (e *Expander) resolve(page string, inv *Invocation, depth int) (string, []error, error) {
	if inv.Kind == SelfClosing {
		out, err := e.invoke(inv, "")
		return strings.TrimSpace(out), nil, err
	}

	inner := strings.TrimSpace(inv.Inner)
	var nested []error
	if depth < maxNesting {
		inner, nested = e.expand(page, inner, depth+1)
	}
	if e.markdown != nil {
		html, err := e.markdown.Render(inner)
		if err != nil {
			return "", nested, err
		}
		inner = html
	}
	out, err := e.invoke(inv, inner)
	return strings.TrimSpace(out), nested, err
}

// invoke calls the handler, converting a panic into an error.
func (e *Expander) invoke(inv *Invocation, innerHTML string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	switch inv.Kind {
	case Wrapping:
		fn, ok := e.registry.wrapping[inv.Name]
		if !ok {
			return "", fmt.Errorf("no wrapping handler")
		}
		return fn(inv.Args, innerHTML)
	default:
		fn, ok := e.registry.selfClosing[inv.Name]
		if !ok {
			return "", fmt.Errorf("no self-closing handler")
		}
		return fn(inv.Args)
	}
}
