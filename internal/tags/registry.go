// Package tags implements the `{% name args %}` content tag language: a
// registry of handlers, a single-pass scanner and the expander that splices
// handler output back into a page body.
package tags

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Kind distinguishes tags with and without a body.
type Kind int

const (
	// SelfClosing tags are a single `{% name args %}` marker.
	SelfClosing Kind = iota
	// Wrapping tags enclose a body up to `{% endname %}`.
	Wrapping
)

func (k Kind) String() string {
	if k == Wrapping {
		return "wrapping"
	}
	return "self-closing"
}

// SelfClosingFunc renders a self-closing tag.
type SelfClosingFunc func(args []string) (string, error)

// WrappingFunc renders a wrapping tag. innerHTML is the tag body already
// rendered through the markdown engine.
type WrappingFunc func(args []string, innerHTML string) (string, error)

var validName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// Registry maps tag names to handlers. The zero value is not usable; use NewRegistry.
type Registry struct {
	selfClosing map[string]SelfClosingFunc
	wrapping    map[string]WrappingFunc
}

func NewRegistry() *Registry {
	return &Registry{
		selfClosing: map[string]SelfClosingFunc{},
		wrapping:    map[string]WrappingFunc{},
	}
}

// RegisterSelfClosing adds a self-closing tag handler.
func (r *Registry) RegisterSelfClosing(name string, fn SelfClosingFunc) error {
	if err := r.checkName(name, SelfClosing, fn == nil); err != nil {
		return err
	}
	r.selfClosing[name] = fn
	return nil
}

// RegisterWrapping adds a wrapping tag handler.
func (r *Registry) RegisterWrapping(name string, fn WrappingFunc) error {
	if err := r.checkName(name, Wrapping, fn == nil); err != nil {
		return err
	}
	r.wrapping[name] = fn
	return nil
}

func (r *Registry) checkName(name string, kind Kind, nilHandler bool) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("invalid tag name %q", name)
	}
	if nilHandler {
		return fmt.Errorf("tag %q: nil handler", name)
	}
	if _, ok := r.Lookup(name); ok {
		return fmt.Errorf("tag %q already registered", name)
	}
	// A tag may not share its name with the closing marker of a wrapping tag.
	if _, ok := r.wrapping[strings.TrimPrefix(name, "end")]; ok && strings.HasPrefix(name, "end") {
		return fmt.Errorf("tag %q collides with a closing marker", name)
	}
	if _, ok := r.Lookup("end" + name); ok && kind == Wrapping {
		return fmt.Errorf("closing marker of %q collides with a registered tag", name)
	}
	return nil
}

// Lookup reports the kind of a registered tag.
func (r *Registry) Lookup(name string) (Kind, bool) {
	if _, ok := r.selfClosing[name]; ok {
		return SelfClosing, true
	}
	if _, ok := r.wrapping[name]; ok {
		return Wrapping, true
	}
	return 0, false
}

// Names returns all registered tag names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.selfClosing)+len(r.wrapping))
	for n := range r.selfClosing {
		names = append(names, n)
	}
	for n := range r.wrapping {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
