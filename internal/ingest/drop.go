package ingest

import (
	"net/url"
	"strings"
)

// ParseDrop splits terminal drag-and-drop text into paths. Terminals paste
// dropped files as quoted paths, backslash-escaped paths or file:// URLs,
// separated by whitespace.
func ParseDrop(raw string) []string {
	var (
		paths   []string
		cur     strings.Builder
		quote   rune
		escaped bool
		started bool
	)

	flush := func() {
		if started {
			paths = append(paths, normalizeDropped(cur.String()))
		}
		cur.Reset()
		started = false
	}

	for _, r := range strings.TrimSpace(raw) {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			started = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			started = true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	flush()

	out := paths[:0]
	for _, p := range paths {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func normalizeDropped(s string) string {
	if !strings.HasPrefix(s, "file://") {
		return s
	}
	u, err := url.Parse(s)
	if err != nil || u.Path == "" {
		return strings.TrimPrefix(s, "file://")
	}
	return u.Path
}
