package skema

import (
	"fmt"
	"strconv"
	"strings"
)

// Path builds dotted field paths (address.pin, allergies.0) in a chain-safe way
// and creates Issues anchored at them. A '.' or '\' inside a segment, as in
// the mapping key "a.b", is written with a backslash escape: contact_details.a\.b.
type Path struct {
	parts []string
}

// Root returns the empty path that denotes the record itself.
func Root() Path { return Path{} }

// ParsePath splits a dotted path into its segments. The empty string is Root.
func ParsePath(s string) Path {
	if s == "" {
		return Path{}
	}
	if !strings.Contains(s, `\`) {
		return Path{parts: strings.Split(s, ".")}
	}
	var parts []string
	b := &strings.Builder{}
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\' && i+1 < len(s):
			i++
			b.WriteByte(s[i])
		case c == '.':
			parts = append(parts, b.String())
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	return Path{parts: append(parts, b.String())}
}

// Field appends a field (or mapping key) segment.
func (p Path) Field(name string) Path {
	if name == "" {
		return p
	}
	return Path{parts: append(append([]string{}, p.parts...), name)}
}

// Index appends a sequence index segment.
func (p Path) Index(i int) Path {
	return Path{parts: append(append([]string{}, p.parts...), strconv.Itoa(i))}
}

// Join appends the segments of a dotted child path.
func (p Path) Join(child string) Path {
	if child == "" {
		return p
	}
	return Path{parts: append(append([]string{}, p.parts...), ParsePath(child).parts...)}
}

// Segments returns a copy of the path segments.
func (p Path) Segments() []string { return append([]string(nil), p.parts...) }

// IsRoot reports whether the path has no segments.
func (p Path) IsRoot() bool { return len(p.parts) == 0 }

func (p Path) String() string {
	b := &strings.Builder{}
	for i, s := range p.parts {
		if i > 0 {
			b.WriteByte('.')
		}
		segmentEscaper.WriteString(b, s)
	}
	return b.String()
}

var segmentEscaper = strings.NewReplacer(`\`, `\\`, ".", `\.`)

// Pointer renders the path as a JSON Pointer, escaping '~' and '/' per RFC 6901.
func (p Path) Pointer() string {
	if len(p.parts) == 0 {
		return "/"
	}
	b := &strings.Builder{}
	for _, s := range p.parts {
		b.WriteByte('/')
		b.WriteString(strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1"))
	}
	return b.String()
}

// Issue builds an Issue at this path. kv are alternating param keys and values.
func (p Path) Issue(code, msg string, kv ...any) Issue {
	var m map[string]any
	if len(kv) > 1 {
		m = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			m[fmt.Sprint(kv[i])] = kv[i+1]
		}
	}
	return Issue{Path: p.String(), Code: code, Message: msg, Params: m}
}
