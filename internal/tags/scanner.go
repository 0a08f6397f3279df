package tags

import (
	"fmt"
	"strings"
	"unicode"
)

// TokenKind distinguishes literal text from tag invocations.
type TokenKind int

const (
	TokenText TokenKind = iota
	TokenTag
)

// Invocation is one tag occurrence in a document.
type Invocation struct {
	// ID is the placeholder standing in for this occurrence, unique per scan.
	ID   string
	Name string
	Kind Kind
	Args []string
	// Inner is the raw text between the opening and closing markers of a
	// wrapping tag, untrimmed.
	Inner string
	// Raw is the full matched source text, markers included.
	Raw string
}

// Token is an element of the scanned document.
type Token struct {
	Kind TokenKind
	Text string      // TokenText only
	Tag  *Invocation // TokenTag only
}

// marker is a parsed `{% name args %}`.
type marker struct {
	start, end int
	name, args string
}

// Scan splits src into text and tag tokens in one left-to-right pass.
// Markers naming no registered tag, orphan closing markers and wrapping
// openers without a closer are kept as literal text.
func Scan(src string, reg *Registry) []Token {
	var (
		tokens []Token
		text   strings.Builder
		n      int
	)
	flush := func() {
		if text.Len() > 0 {
			tokens = append(tokens, Token{Kind: TokenText, Text: text.String()})
			text.Reset()
		}
	}

	for i := 0; i < len(src); {
		j := strings.Index(src[i:], "{%")
		if j < 0 {
			text.WriteString(src[i:])
			break
		}
		pos := i + j
		text.WriteString(src[i:pos])

		m, ok := parseMarker(src, pos)
		kind, registered := reg.Lookup(m.name)
		if !ok || !registered {
			text.WriteString("{%")
			i = pos + 2
			continue
		}

		inv := &Invocation{Name: m.name, Kind: kind, Args: ParseArgs(m.args)}
		end := m.end
		if kind == Wrapping {
			closer, found := findCloser(src, m.end, m.name)
			if !found {
				text.WriteString("{%")
				i = pos + 2
				continue
			}
			inv.Inner = src[m.end:closer.start]
			end = closer.end
		}
		n++
		inv.ID = placeholder(n)
		inv.Raw = src[pos:end]

		flush()
		tokens = append(tokens, Token{Kind: TokenTag, Tag: inv})
		i = end
	}
	flush()
	return tokens
}

// parseMarker parses the marker opening at src[pos] ("{%"). A marker is
// `{%`, at least one blank, a name, optional arguments, optional blanks and
// `%}`, all on one line.
func parseMarker(src string, pos int) (marker, bool) {
	rest := src[pos+2:]
	closeIdx := strings.Index(rest, "%}")
	if closeIdx < 0 {
		return marker{}, false
	}
	inner := rest[:closeIdx]
	if inner == "" || !isBlank(rune(inner[0])) || strings.ContainsAny(inner, "\r\n") || strings.Contains(inner, "{%") {
		return marker{}, false
	}
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return marker{}, false
	}
	name, args := inner, ""
	if k := strings.IndexFunc(inner, unicode.IsSpace); k >= 0 {
		name, args = inner[:k], strings.TrimSpace(inner[k:])
	}
	return marker{start: pos, end: pos + 2 + closeIdx + 2, name: name, args: args}, true
}

// findCloser returns the nearest `{% endname %}` at or after from.
func findCloser(src string, from int, name string) (marker, bool) {
	want := "end" + name
	for i := from; i < len(src); {
		j := strings.Index(src[i:], "{%")
		if j < 0 {
			return marker{}, false
		}
		m, ok := parseMarker(src, i+j)
		if ok && m.name == want && m.args == "" {
			return m, true
		}
		i += j + 2
	}
	return marker{}, false
}

func isBlank(r rune) bool { return r == ' ' || r == '\t' }

func placeholder(n int) string {
	return fmt.Sprintf("\x00tag-%d\x00", n)
}
