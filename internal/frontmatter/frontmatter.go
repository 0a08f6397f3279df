// Package frontmatter splits `---` fenced YAML front matter from a document body.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

var (
	// ErrNoFrontMatter indicates the document does not open with a `---` line.
	ErrNoFrontMatter = errors.New("document does not start with a yaml front matter block")

	// ErrMissingClosingDelimiter indicates the document started with a YAML
	// front matter delimiter but did not contain a closing delimiter.
	ErrMissingClosingDelimiter = errors.New("yaml front matter start delimiter found but closing delimiter is missing")
)

// Document is a source file split at its front matter fence.
type Document struct {
	// FrontMatter is the raw YAML between the fences, without delimiters.
	FrontMatter []byte
	// Body is everything after the closing fence line.
	Body []byte
	// Newline is "\n" or "\r\n", detected from the first line break.
	Newline string
}

// Split separates YAML front matter (`---` delimited) from the body.
//
// The opening fence must be the first line. The closing fence is the next
// line consisting solely of `---` (trailing spaces allowed); it may also be
// the last line of the file without a terminating newline.
func Split(content []byte) (Document, error) {
	nl := detectNewline(content)
	doc := Document{Newline: nl}

	first, rest, _ := cutLine(content, nl)
	if !isFence(first) {
		return doc, ErrNoFrontMatter
	}

	offset := 0
	for {
		line, tail, terminated := cutLine(rest[offset:], nl)
		if isFence(line) {
			doc.FrontMatter = rest[:offset]
			doc.Body = tail
			return doc, nil
		}
		if !terminated {
			return Document{Newline: nl}, ErrMissingClosingDelimiter
		}
		offset += len(line) + len(nl)
	}
}

// ParseYAML parses raw YAML front matter (without --- delimiters) into a map.
func ParseYAML(frontmatter []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(frontmatter)) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// cutLine returns the first line of b (without its newline), the remainder,
// and whether a newline terminated the line.
func cutLine(b []byte, nl string) (line, rest []byte, terminated bool) {
	idx := bytes.Index(b, []byte(nl))
	if idx < 0 {
		return b, nil, false
	}
	return b[:idx], b[idx+len(nl):], true
}

func isFence(line []byte) bool {
	return string(bytes.TrimRight(line, " \t")) == "---"
}

func detectNewline(content []byte) string {
	idx := bytes.IndexByte(content, '\n')
	if idx > 0 && content[idx-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
