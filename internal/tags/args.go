package tags

import "regexp"

var argPattern = regexp.MustCompile(`[^\s"']+|"([^"]*)"|'([^']*)'`)

// ParseArgs splits a tag argument string into tokens: runs of characters
// that are neither blank nor quotes, or single/double quoted spans with the
// quotes removed. There are no escapes.
func ParseArgs(s string) []string {
	matches := argPattern.FindAllStringSubmatch(s, -1)
	args := make([]string, 0, len(matches))
	for _, m := range matches {
		switch m[0][0] {
		case '"':
			args = append(args, m[1])
		case '\'':
			args = append(args, m[2])
		default:
			args = append(args, m[0])
		}
	}
	return args
}
