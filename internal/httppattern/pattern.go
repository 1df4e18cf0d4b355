// Package httppattern parses standard library mux patterns so that registered routes
// can be reversed back into concrete URLs.
package httppattern

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Pattern is a parsed route pattern of the form "[METHOD ][HOST]/path".
type Pattern struct {
	method   string
	host     string
	segments []segment
}

// segment is one "/"-delimited element of the pattern's path.
type segment struct {
	s      string // literal text, or the wildcard's name
	wild   bool   // {name} or {name...}
	multi  bool   // {name...}, matches the remainder of the path
	dollar bool   // {$}, the exact-match marker
}

// ParsePattern parses 's' following the net/http mux syntax. Only the parts needed for
// building URLs are validated; the standard mux re-validates on registration anyway.
func ParsePattern(s string) (*Pattern, error) {
	if s == "" {
		return nil, errors.New("empty pattern")
	}

	pat := &Pattern{}

	rest := s
	if i := strings.IndexByte(rest, ' '); i >= 0 {
		pat.method, rest = rest[:i], strings.TrimLeft(rest[i+1:], " ")
	}

	i := strings.IndexByte(rest, '/')
	if i < 0 {
		return nil, errors.Newf("pattern %q lacks a path", s)
	}

	pat.host, rest = rest[:i], rest[i+1:]

	for _, seg := range strings.Split(rest, "/") {
		switch {
		case strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}"):
			name := seg[1 : len(seg)-1]
			if name == "$" {
				pat.segments = append(pat.segments, segment{dollar: true})
				continue
			}

			multi := strings.HasSuffix(name, "...")
			if multi {
				name = strings.TrimSuffix(name, "...")
			}

			if name == "" {
				return nil, errors.Newf("pattern %q has an unnamed wildcard", s)
			}

			pat.segments = append(pat.segments, segment{s: name, wild: true, multi: multi})
		case strings.Contains(seg, "{") || strings.Contains(seg, "}"):
			return nil, errors.Newf("pattern %q has a malformed wildcard segment %q", s, seg)
		default:
			pat.segments = append(pat.segments, segment{s: seg})
		}
	}

	return pat, nil
}

// Build substitutes 'vals' for the pattern's wildcards, in order, and returns the
// resulting path.
func Build(p *Pattern, vals ...string) (string, error) {
	var b strings.Builder

	used := 0
	for _, seg := range p.segments {
		b.WriteByte('/')

		switch {
		case seg.dollar:
			// exact-match marker, contributes no text
		case seg.wild:
			if used >= len(vals) {
				return "", errors.Newf("not enough values: pattern needs more than %d", len(vals))
			}

			b.WriteString(vals[used])
			used++
		default:
			b.WriteString(seg.s)
		}
	}

	if used < len(vals) {
		return "", errors.Newf("too many values: pattern takes %d, got %d", used, len(vals))
	}

	res := b.String()
	if res == "" {
		res = "/"
	}

	return res, nil
}
